package serialize

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HOZHENWAI/hydrus/content"
	"github.com/HOZHENWAI/hydrus/contentlink"
	"github.com/HOZHENWAI/hydrus/filelookup"
	"github.com/HOZHENWAI/hydrus/htmlformula"
	"github.com/HOZHENWAI/hydrus/network"
	"github.com/HOZHENWAI/hydrus/pageparser"
	"github.com/HOZHENWAI/hydrus/stringconv"
	"github.com/HOZHENWAI/hydrus/stringmatch"
)

// ignoreCompiledRegex excludes Transformation's unexported *regexp.Regexp
// field from structural comparisons: it carries no serialisable state of
// its own.
var ignoreCompiledRegex = cmpopts.IgnoreUnexported(stringconv.Transformation{})

func roundTripElement(t *testing.T, el *etree.Element) *etree.Element {
	t.Helper()
	doc := NewDocument(el)
	s, err := doc.WriteString()
	require.NoError(t, err)
	out, err := ReadDocument(s)
	require.NoError(t, err)
	return out
}

func TestStringConverter_RoundTrip(t *testing.T) {
	conv := stringconv.New(stringconv.PrependT("x"), stringconv.EncodeT(stringconv.Hex))
	conv.ExampleString = "demo"

	el := roundTripElement(t, SerializeStringConverter(conv))
	got, err := DeserializeStringConverter(el)
	require.NoError(t, err)

	require.Empty(t, cmp.Diff(conv.Transformations, got.Transformations, ignoreCompiledRegex))
	assert.Equal(t, conv.ExampleString, got.ExampleString)
}

func TestStringMatch_RoundTrip(t *testing.T) {
	min, max := 2, 10
	m := stringmatch.NewRegex(`^\d+$`)
	m.MinChars = &min
	m.MaxChars = &max
	m.Example = "42"

	el := roundTripElement(t, SerializeStringMatch(m))
	got, err := DeserializeStringMatch(el)
	require.NoError(t, err)

	assert.Equal(t, m.Type, got.Type)
	assert.Equal(t, m.Pattern, got.Pattern)
	assert.Equal(t, *m.MinChars, *got.MinChars)
	assert.Equal(t, *m.MaxChars, *got.MaxChars)
	assert.Equal(t, m.Example, got.Example)
}

func TestFormula_RoundTrip(t *testing.T) {
	idx := 1
	f := htmlformula.New(
		[]htmlformula.TagRule{{Name: "div", Attrs: map[string]string{"class": "thumb"}, Index: &idx}},
		htmlformula.Attribute, "href",
		stringmatch.NewFlexible(stringmatch.Numeric),
		stringconv.New(stringconv.AppendT("!")),
	)

	el := roundTripElement(t, SerializeFormula(f))
	got, err := DeserializeFormula(el)
	require.NoError(t, err)

	require.Empty(t, cmp.Diff(f.TagRules, got.TagRules))
	assert.Equal(t, f.ContentToFetch, got.ContentToFetch)
	assert.Equal(t, f.AttributeToFetch, got.AttributeToFetch)
	assert.Equal(t, f.Match.Type, got.Match.Type)
	require.Empty(t, cmp.Diff(f.Converter.Transformations, got.Converter.Transformations, ignoreCompiledRegex))
}

// TestFormula_MigrateV1ToV5 walks a hand-built v1 document (tag_rules plus
// an attribute_to_fetch) through the whole upgrade chain and checks the
// resulting Formula parses a document identically to one built directly
// against the current schema, per spec.md §8 scenario 6.
func TestFormula_MigrateV1ToV5(t *testing.T) {
	v1 := newElement("formula", 1)
	v1.AddChild(serializeTagRules([]htmlformula.TagRule{{Name: "a"}}))
	v1.CreateElement("attribute_to_fetch").SetText("href")

	got, err := DeserializeFormula(v1)
	require.NoError(t, err)

	want := htmlformula.New([]htmlformula.TagRule{{Name: "a"}}, htmlformula.Attribute, "href", nil, nil)

	doc := `<a href="https://example.com">link</a>`
	gotFragments, err := got.Parse(doc)
	require.NoError(t, err)
	wantFragments, err := want.Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, wantFragments, gotFragments)
}

// TestFormula_MigrateV1ToV5_StringMode covers the v1 attribute_to_fetch
// absent (None) case, which v4->v5 turns into content_to_fetch=STRING.
func TestFormula_MigrateV1ToV5_StringMode(t *testing.T) {
	v1 := newElement("formula", 1)
	v1.AddChild(serializeTagRules([]htmlformula.TagRule{{Name: "p"}}))
	// no attribute_to_fetch element: v1 "fetch string content" mode

	got, err := DeserializeFormula(v1)
	require.NoError(t, err)
	assert.Equal(t, htmlformula.String, got.ContentToFetch)

	fragments, err := got.Parse(`<p>hello</p>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, fragments)
}

// TestFormula_MigrateV2ToV5_Culling covers the v2->v3 culling lowering.
func TestFormula_MigrateV2ToV5_Culling(t *testing.T) {
	v2 := newElement("formula", 2)
	v2.AddChild(serializeTagRules([]htmlformula.TagRule{{Name: "p"}}))
	culling := v2.CreateElement("culling_and_adding")
	culling.CreateAttr("front", "2")
	culling.CreateAttr("back", "0")
	culling.CreateAttr("prepend", "")
	culling.CreateAttr("append", "!")

	got, err := DeserializeFormula(v2)
	require.NoError(t, err)

	fragments, err := got.Parse(`<p>hello</p>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"he!"}, fragments)
}

func TestContentParser_RoundTrip(t *testing.T) {
	p := &content.Parser{
		Name:      "title",
		Type:      content.Mappings,
		Namespace: "title",
		Formula:   htmlformula.New([]htmlformula.TagRule{{Name: "title"}}, htmlformula.String, "", nil, nil),
	}

	el := roundTripElement(t, SerializeContentParser(p))
	got, err := DeserializeContentParser(el)
	require.NoError(t, err)

	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Type, got.Type)
	assert.Equal(t, p.Namespace, got.Namespace)

	fragments, err := got.Parse(`<title>hello</title>`)
	require.NoError(t, err)
	require.Len(t, fragments, 1)
	assert.Equal(t, "hello", fragments[0].Fragment)
}

func TestNode_RoundTripWithChildren(t *testing.T) {
	n := &contentlink.Node{
		Name:    "gallery",
		Formula: htmlformula.New([]htmlformula.TagRule{{Name: "a"}}, htmlformula.Attribute, "href", nil, nil),
		Children: []contentlink.Child{
			&content.Parser{
				Name:    "tags",
				Type:    content.Mappings,
				Formula: htmlformula.New([]htmlformula.TagRule{{Name: "p"}}, htmlformula.String, "", nil, nil),
			},
		},
	}

	el := roundTripElement(t, SerializeNode(n))
	got, err := DeserializeNode(el)
	require.NoError(t, err)

	assert.Equal(t, n.Name, got.Name)
	require.Empty(t, cmp.Diff(n.Formula.TagRules, got.Formula.TagRules))
	require.Len(t, got.Children, 1)
	_, ok := got.Children[0].(*content.Parser)
	assert.True(t, ok)
}

func TestFileLookup_MigrateV1HexEncoding(t *testing.T) {
	v1 := newElement("file_lookup", 1)
	v1.CreateAttr("name", "lookup")
	v1.CreateAttr("url", "https://example.com/file")
	v1.CreateAttr("query_type", "get")
	v1.CreateAttr("file_identifier_type", "sha256")
	v1.CreateAttr("file_identifier_arg_name", "hash")
	v1.CreateAttr("file_identifier_encoding", "hex")
	v1.CreateElement("static_args")
	v1.CreateElement("children")

	got, err := DeserializeFileLookup(v1)
	require.NoError(t, err)

	converted, err := got.Converter.Convert(string([]byte{0xab, 0xcd}), nil)
	require.NoError(t, err)
	assert.Equal(t, "abcd", converted)
}

func TestFileLookup_RoundTrip(t *testing.T) {
	r := filelookup.New("lookup", "https://example.com/file", network.GET, filelookup.SHA256, nil, "hash")
	r.StaticArgs["size"] = "full"
	r.Children = []contentlink.Child{
		&content.Parser{Name: "tags", Type: content.Mappings, Formula: htmlformula.New(nil, htmlformula.String, "", nil, nil)},
	}

	el, err := SerializeFileLookup(r)
	require.NoError(t, err)
	el = roundTripElement(t, el)

	got, err := DeserializeFileLookup(el)
	require.NoError(t, err)

	assert.Equal(t, r.Name, got.Name)
	assert.Equal(t, r.URL, got.URL)
	assert.Equal(t, "full", got.StaticArgs["size"])
	require.Len(t, got.Children, 1)
}

func TestPageParser_RoundTrip(t *testing.T) {
	p := pageparser.New("gallery", nil)
	p.CanProduceSeparatedContent = true
	p.SeparationFormula = htmlformula.New([]htmlformula.TagRule{{Name: "div"}}, htmlformula.HTML, "", nil, nil)
	p.SeparatedContentParsers = []contentlink.Child{
		&content.Parser{Name: "caption", Type: content.Mappings, Formula: htmlformula.New([]htmlformula.TagRule{{Name: "span"}}, htmlformula.String, "", nil, nil)},
	}
	p.ExampleURLs = []string{"https://example.com/a"}

	el, err := SerializePageParser(p)
	require.NoError(t, err)
	el = roundTripElement(t, el)

	got, err := DeserializePageParser(el)
	require.NoError(t, err)

	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.ParserKey, got.ParserKey)
	assert.True(t, got.CanProduceSeparatedContent)
	require.NotNil(t, got.SeparationFormula)
	require.Empty(t, cmp.Diff(p.SeparationFormula.TagRules, got.SeparationFormula.TagRules))
	require.Len(t, got.SeparatedContentParsers, 1)
	assert.Equal(t, p.ExampleURLs, got.ExampleURLs)
}
