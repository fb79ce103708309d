package serialize

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/HOZHENWAI/hydrus/content"
	"github.com/HOZHENWAI/hydrus/contentlink"
)

const contentLinkVersion = 1

// SerializeChild renders any contentlink.Child (a *content.Parser or a
// *contentlink.Node) as a <child> element wrapping the concrete element,
// tagged by kind. This is the one place serialisation performs the type
// switch over Child, mirroring contentlink.Dispatch's type switch over the
// same tagged sum on the parse path (spec.md §9).
func SerializeChild(c contentlink.Child) (*etree.Element, error) {
	wrapper := etree.NewElement("child")
	switch v := c.(type) {
	case *content.Parser:
		wrapper.CreateAttr("kind", "content_parser")
		wrapper.AddChild(SerializeContentParser(v))
	case *contentlink.Node:
		wrapper.CreateAttr("kind", "content_link")
		wrapper.AddChild(SerializeNode(v))
	default:
		return nil, fmt.Errorf("serialize child: unknown type %T", c)
	}
	return wrapper, nil
}

// DeserializeChild reverses SerializeChild.
func DeserializeChild(wrapper *etree.Element) (contentlink.Child, error) {
	switch wrapper.SelectAttrValue("kind", "") {
	case "content_parser":
		return DeserializeContentParser(wrapper.SelectElement("content_parser"))
	case "content_link":
		return DeserializeNode(wrapper.SelectElement("content_link"))
	default:
		return nil, fmt.Errorf("deserialize child: unknown kind %q", wrapper.SelectAttrValue("kind", ""))
	}
}

func serializeChildren(parent *etree.Element, tag string, children []contentlink.Child) error {
	list := parent.CreateElement(tag)
	for _, c := range children {
		wrapper, err := SerializeChild(c)
		if err != nil {
			return err
		}
		list.AddChild(wrapper)
	}
	return nil
}

func deserializeChildren(parent *etree.Element, tag string) ([]contentlink.Child, error) {
	list := parent.SelectElement(tag)
	if list == nil {
		return nil, nil
	}
	var out []contentlink.Child
	for _, wrapper := range list.SelectElements("child") {
		c, err := DeserializeChild(wrapper)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// SerializeNode renders n as a <content_link> element.
func SerializeNode(n *contentlink.Node) *etree.Element {
	el := newElement("content_link", contentLinkVersion)
	el.CreateAttr("name", n.Name)
	if n.RetryDelay > 0 {
		el.CreateAttr("retry_delay_ms", fmt.Sprintf("%d", n.RetryDelay.Milliseconds()))
	}
	el.AddChild(SerializeFormula(n.Formula))
	if err := serializeChildren(el, "children", n.Children); err != nil {
		// children are produced by this same package, so a serialisation
		// failure here means a caller built an invalid tree by hand.
		panic(err)
	}
	return el
}

func DeserializeNode(el *etree.Element) (*contentlink.Node, error) {
	if _, err := elementVersion(el); err != nil {
		return nil, err
	}
	formula, err := DeserializeFormula(el.SelectElement("formula"))
	if err != nil {
		return nil, fmt.Errorf("content link %q: %w", el.SelectAttrValue("name", ""), err)
	}
	children, err := deserializeChildren(el, "children")
	if err != nil {
		return nil, err
	}
	n := &contentlink.Node{
		Name:     el.SelectAttrValue("name", ""),
		Formula:  formula,
		Children: children,
	}
	if attr := el.SelectAttr("retry_delay_ms"); attr != nil {
		var ms int64
		if _, err := fmt.Sscanf(attr.Value, "%d", &ms); err != nil {
			return nil, fmt.Errorf("content link %q: bad retry_delay_ms: %w", n.Name, err)
		}
		n.RetryDelay = time.Duration(ms) * time.Millisecond
	}
	return n, nil
}
