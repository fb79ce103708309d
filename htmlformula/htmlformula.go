// Package htmlformula implements ParseFormulaHTML: a rule for locating
// nodes in a permissive HTML DOM, extracting a text fragment from each,
// and validating/transforming it.
package htmlformula

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/HOZHENWAI/hydrus/stringconv"
	"github.com/HOZHENWAI/hydrus/stringmatch"
)

// ContentKind selects which part of a matched node becomes a Fragment.
type ContentKind int

const (
	Attribute ContentKind = iota
	String
	HTML
)

func (k ContentKind) String() string {
	switch k {
	case Attribute:
		return "attribute"
	case String:
		return "string"
	case HTML:
		return "html"
	default:
		return fmt.Sprintf("contentkind(%d)", int(k))
	}
}

// TagRule is one step of node selection: match descendants named Name with
// attributes Attrs (all must match), then keep either all matches
// (Index == nil) or only the Index-th match (zero-based).
type TagRule struct {
	Name  string
	Attrs map[string]string
	Index *int
}

// multiValueAttrs lists HTML attributes whose value is a space-separated
// token list, per the HTML spec's "space-separated tokens" semantics. class
// is the common case named in spec.md §4.3/§8.
var multiValueAttrs = map[string]bool{
	"class": true,
	"rel":   true,
}

// Formula is ParseFormulaHTML.
type Formula struct {
	TagRules         []TagRule
	ContentToFetch   ContentKind
	AttributeToFetch string
	Match            *stringmatch.Match
	Converter        *stringconv.Converter
}

// New builds a Formula. match and conv default to an always-pass matcher
// and a no-op converter respectively when nil, mirroring the defaults the
// serialisation migrations inject (spec.md §4.8, v3->v4/v2->v3).
func New(tagRules []TagRule, contentToFetch ContentKind, attributeToFetch string, match *stringmatch.Match, conv *stringconv.Converter) *Formula {
	if match == nil {
		match = stringmatch.NewAny()
	}
	if conv == nil {
		conv = stringconv.New()
	}
	return &Formula{
		TagRules:         tagRules,
		ContentToFetch:   contentToFetch,
		AttributeToFetch: attributeToFetch,
		Match:            match,
		Converter:        conv,
	}
}

// Parse runs the formula against an HTML document, returning every
// fragment that survives matching and conversion. Per-fragment errors
// (conversion or match failure) are swallowed; the caller cannot tell
// "nothing matched" from "everything filtered" apart, per spec.md §4.3.
func (f *Formula) Parse(document string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	roots := []*html.Node{doc}

	for _, rule := range f.TagRules {
		var next []*html.Node
		for _, r := range roots {
			next = append(next, selectNodes(r, rule)...)
		}
		roots = next
	}

	fragments := make([]string, 0, len(roots))
	for _, n := range roots {
		content, ok := f.extract(n)
		if !ok {
			continue
		}
		if err := f.Match.Test(content); err != nil {
			continue
		}
		converted, err := f.Converter.Convert(content, nil)
		if err != nil {
			continue
		}
		if converted == "" {
			continue
		}
		fragments = append(fragments, converted)
	}
	return fragments, nil
}

// selectNodes finds every descendant of root matching rule.Name and all of
// rule.Attrs, in document order, then applies the index selection.
func selectNodes(root *html.Node, rule TagRule) []*html.Node {
	var matches []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && nodeMatches(c, rule) {
				matches = append(matches, c)
			}
			walk(c)
		}
	}
	walk(root)

	if rule.Index == nil {
		return matches
	}
	idx := *rule.Index
	if idx < 0 || idx >= len(matches) {
		return nil
	}
	return matches[idx : idx+1]
}

func nodeMatches(n *html.Node, rule TagRule) bool {
	if rule.Name != "" && n.Data != rule.Name {
		return false
	}
	for k, v := range rule.Attrs {
		if !attrMatches(n, k, v) {
			return false
		}
	}
	return true
}

// attrMatches checks a single attribute constraint, treating space-separated
// multi-value attributes (class, rel, ...) as a token set.
func attrMatches(n *html.Node, key, want string) bool {
	val, ok := attrValue(n, key)
	if !ok {
		return false
	}
	if multiValueAttrs[key] {
		for _, tok := range strings.Fields(val) {
			if tok == want {
				return true
			}
		}
		return false
	}
	return val == want
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// extract pulls the requested content out of a matched node. ok is false
// when the node produces no fragment (missing/empty attribute or text).
func (f *Formula) extract(n *html.Node) (string, bool) {
	switch f.ContentToFetch {
	case Attribute:
		val, ok := attrValue(n, f.AttributeToFetch)
		if !ok || val == "" {
			return "", false
		}
		if multiValueAttrs[f.AttributeToFetch] {
			return strings.Join(strings.Fields(val), " "), true
		}
		return val, true
	case String:
		text := aggregatedText(n)
		if text == "" {
			return "", false
		}
		return text, true
	case HTML:
		var sb strings.Builder
		if err := html.Render(&sb, n); err != nil {
			return "", false
		}
		return sb.String(), true
	default:
		return "", false
	}
}

// aggregatedText returns the recursive, concatenated text content of n,
// the "safer" resolution of the string-extraction open question in
// spec.md §9.
func aggregatedText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
