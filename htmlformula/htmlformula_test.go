package htmlformula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HOZHENWAI/hydrus/stringmatch"
)

func intPtr(i int) *int { return &i }

func TestParse_AttributeExtraction(t *testing.T) {
	f := New([]TagRule{{Name: "a"}}, Attribute, "href", stringmatch.NewAny(), nil)
	doc := `<html><body><a href="/x">1</a><a href="/y">2</a></body></html>`
	out, err := f.Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"/x", "/y"}, out)
}

func TestParse_IndexedSelection(t *testing.T) {
	f := New([]TagRule{{Name: "a", Index: intPtr(1)}}, Attribute, "href", nil, nil)
	doc := `<html><body><a href="/x">1</a><a href="/y">2</a></body></html>`
	out, err := f.Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"/y"}, out)
}

func TestParse_IndexBeyondMatches(t *testing.T) {
	f := New([]TagRule{{Name: "a", Index: intPtr(5)}}, Attribute, "href", nil, nil)
	doc := `<html><body><a href="/x">1</a></body></html>`
	out, err := f.Parse(doc)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParse_ClassMultiValueJoin(t *testing.T) {
	f := New([]TagRule{{Name: "div", Attrs: map[string]string{"class": "thumb"}}}, String, "", nil, nil)
	doc := `<html><body><div class="thumb featured">Hi</div></body></html>`
	out, err := f.Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi"}, out)
}

func TestParse_AttributeMultiValueJoinsInSourceOrder(t *testing.T) {
	f := New([]TagRule{{Name: "div"}}, Attribute, "class", nil, nil)
	doc := `<html><body><div class="b a c">x</div></body></html>`
	out, err := f.Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"b a c"}, out)
}

func TestParse_StringAggregatesNestedText(t *testing.T) {
	f := New([]TagRule{{Name: "div"}}, String, "", nil, nil)
	doc := `<div>hello <b>bold</b> world</div>`
	out, err := f.Parse(doc)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "hello")
	assert.Contains(t, out[0], "bold")
	assert.Contains(t, out[0], "world")
}

func TestParse_MissingAttributeProducesNoFragment(t *testing.T) {
	f := New([]TagRule{{Name: "a"}}, Attribute, "href", nil, nil)
	doc := `<a>no href here</a>`
	out, err := f.Parse(doc)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParse_HTMLContentReturnsOuterHTML(t *testing.T) {
	f := New([]TagRule{{Name: "span"}}, HTML, "", nil, nil)
	doc := `<span class="x">hi</span>`
	out, err := f.Parse(doc)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Contains(t, out[0], "<span")
	assert.Contains(t, out[0], "hi")
}

func TestParse_InvalidFragmentIsDroppedNotFatal(t *testing.T) {
	min := 100
	f := New([]TagRule{{Name: "a"}}, Attribute, "href", &stringmatch.Match{Type: stringmatch.Any, MinChars: &min}, nil)
	doc := `<a href="/short">x</a>`
	out, err := f.Parse(doc)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestParse_ChainedTagRulesNarrowSelection(t *testing.T) {
	f := New([]TagRule{{Name: "ul"}, {Name: "li"}}, String, "", nil, nil)
	doc := `<ul><li>one</li><li>two</li></ul><li>outside</li>`
	out, err := f.Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, out)
}
