// Package serialize persists the tagged, versioned node types of this
// engine as an XML tree, grounded on the teacher's chtml package, which
// builds and walks an *etree.Document to parse its own component trees
// (chtml/component.go's NewComponent/parseElement). Every persisted node
// becomes an element carrying a version attribute; deserialisation runs
// an upgrade loop over the historical layouts described in spec.md §4.8
// before handing back the current Go type.
package serialize

import (
	"fmt"

	"github.com/beevik/etree"
)

// versionAttr is the attribute every persisted element carries, recording
// the schema version its children were written in before migration.
const versionAttr = "version"

// newElement builds a named element with a version attribute, the shape
// every Serialize* function in this package returns.
func newElement(name string, version int) *etree.Element {
	el := etree.NewElement(name)
	el.CreateAttr(versionAttr, fmt.Sprintf("%d", version))
	return el
}

func elementVersion(el *etree.Element) (int, error) {
	attr := el.SelectAttr(versionAttr)
	if attr == nil {
		return 0, fmt.Errorf("element %q: missing %s attribute", el.Tag, versionAttr)
	}
	var v int
	if _, err := fmt.Sscanf(attr.Value, "%d", &v); err != nil {
		return 0, fmt.Errorf("element %q: bad %s attribute %q: %w", el.Tag, versionAttr, attr.Value, err)
	}
	return v, nil
}

// childText returns the text of el's first child named tag, or "" if
// absent.
func childText(el *etree.Element, tag string) string {
	c := el.SelectElement(tag)
	if c == nil {
		return ""
	}
	return c.Text()
}

// optionalChildText distinguishes "element absent" (nil) from "element
// present, possibly empty" (non-nil pointer), used to round-trip Python's
// attribute_to_fetch=None vs attribute_to_fetch='' distinction (spec.md
// §4.8, v4->v5).
func optionalChildText(el *etree.Element, tag string) *string {
	c := el.SelectElement(tag)
	if c == nil {
		return nil
	}
	s := c.Text()
	return &s
}

func setOptionalChildText(el *etree.Element, tag string, value *string) {
	if value == nil {
		return
	}
	el.CreateElement(tag).SetText(*value)
}

// Document wraps a single root element for persistence at rest, e.g. to a
// file or a byte slice, mirroring chtml's own etree.Document usage.
type Document struct {
	root *etree.Element
}

func NewDocument(root *etree.Element) *Document {
	return &Document{root: root}
}

func (d *Document) WriteString() (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(d.root.Copy())
	doc.Indent(2)
	return doc.WriteToString()
}

func ReadDocument(data string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(data); err != nil {
		return nil, fmt.Errorf("read serialised document: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("read serialised document: empty document")
	}
	return root, nil
}
