package serialize

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/HOZHENWAI/hydrus/htmlformula"
)

// serializeTagRules renders a []htmlformula.TagRule as a <tag_rules>
// element, one <rule> child per step, attributes as <attr> children so
// key ordering is irrelevant (map iteration order is not guaranteed, so
// rules with >1 attr may be written in any order and reorder across a
// round trip; spec.md treats TagRule.Attrs as a set of constraints, not
// an ordered list, so this is not observable).
func serializeTagRules(rules []htmlformula.TagRule) *etree.Element {
	el := etree.NewElement("tag_rules")
	for _, r := range rules {
		rel := el.CreateElement("rule")
		rel.CreateAttr("name", r.Name)
		if r.Index != nil {
			rel.CreateAttr("index", strconv.Itoa(*r.Index))
		}
		for k, v := range r.Attrs {
			a := rel.CreateElement("attr")
			a.CreateAttr("key", k)
			a.SetText(v)
		}
	}
	return el
}

func deserializeTagRules(el *etree.Element) ([]htmlformula.TagRule, error) {
	var rules []htmlformula.TagRule
	for _, rel := range el.SelectElements("rule") {
		r := htmlformula.TagRule{Name: rel.SelectAttrValue("name", "")}
		if attr := rel.SelectAttr("index"); attr != nil {
			n, err := strconv.Atoi(attr.Value)
			if err != nil {
				return nil, fmt.Errorf("tag rule %q: bad index: %w", r.Name, err)
			}
			r.Index = &n
		}
		attrs := rel.SelectElements("attr")
		if len(attrs) > 0 {
			r.Attrs = make(map[string]string, len(attrs))
			for _, a := range attrs {
				r.Attrs[a.SelectAttrValue("key", "")] = a.Text()
			}
		}
		rules = append(rules, r)
	}
	return rules, nil
}
