package serialize

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/HOZHENWAI/hydrus/htmlformula"
	"github.com/HOZHENWAI/hydrus/stringconv"
	"github.com/HOZHENWAI/hydrus/stringmatch"
)

// FormulaVersion is the current on-disk schema version of ParseFormulaHTML,
// per spec.md §4.8.
const FormulaVersion = 5

// SerializeFormula renders f in the current (v5) schema.
func SerializeFormula(f *htmlformula.Formula) *etree.Element {
	el := newElement("formula", FormulaVersion)
	el.AddChild(serializeTagRules(f.TagRules))
	el.CreateElement("content_to_fetch").SetText(contentKindName(f.ContentToFetch))
	el.CreateElement("attribute_to_fetch").SetText(f.AttributeToFetch)
	el.AddChild(SerializeStringMatch(f.Match))
	el.AddChild(SerializeStringConverter(f.Converter))
	return el
}

// DeserializeFormula reads el, migrating it up through the v1..v5
// historical layouts documented in spec.md §4.8 before returning the
// current Formula.
func DeserializeFormula(el *etree.Element) (*htmlformula.Formula, error) {
	version, err := elementVersion(el)
	if err != nil {
		return nil, err
	}

	tagRules, err := deserializeTagRules(el.SelectElement("tag_rules"))
	if err != nil {
		return nil, err
	}

	switch version {
	case 1:
		attributeToFetch := optionalChildText(el, "attribute_to_fetch")
		return migrateFormulaV1(tagRules, attributeToFetch)

	case 2:
		attributeToFetch := optionalChildText(el, "attribute_to_fetch")
		cull := el.SelectElement("culling_and_adding")
		return migrateFormulaV2(tagRules, attributeToFetch, parseCulling(cull))

	case 3:
		attributeToFetch := optionalChildText(el, "attribute_to_fetch")
		conv, err := DeserializeStringConverter(el.SelectElement("string_converter"))
		if err != nil {
			return nil, err
		}
		return migrateFormulaV3(tagRules, attributeToFetch, conv), nil

	case 4:
		attributeToFetch := optionalChildText(el, "attribute_to_fetch")
		match, err := DeserializeStringMatch(el.SelectElement("string_match"))
		if err != nil {
			return nil, err
		}
		conv, err := DeserializeStringConverter(el.SelectElement("string_converter"))
		if err != nil {
			return nil, err
		}
		return migrateFormulaV4(tagRules, attributeToFetch, match, conv), nil

	case FormulaVersion:
		contentToFetch, err := contentKindFromName(childText(el, "content_to_fetch"))
		if err != nil {
			return nil, err
		}
		attributeToFetch := childText(el, "attribute_to_fetch")
		match, err := DeserializeStringMatch(el.SelectElement("string_match"))
		if err != nil {
			return nil, err
		}
		conv, err := DeserializeStringConverter(el.SelectElement("string_converter"))
		if err != nil {
			return nil, err
		}
		return htmlformula.New(tagRules, contentToFetch, attributeToFetch, match, conv), nil

	default:
		return nil, fmt.Errorf("formula: unsupported schema version %d", version)
	}
}

type culling struct {
	front, back     int
	prepend, append string
}

func parseCulling(el *etree.Element) culling {
	if el == nil {
		return culling{}
	}
	var c culling
	fmt.Sscanf(el.SelectAttrValue("front", "0"), "%d", &c.front)
	fmt.Sscanf(el.SelectAttrValue("back", "0"), "%d", &c.back)
	c.prepend = el.SelectAttrValue("prepend", "")
	c.append = el.SelectAttrValue("append", "")
	return c
}

// migrateFormulaV1 implements the v1->v5 chain starting from the
// attribute_to_fetch-only layout: v1 had no culling, string match, or
// string converter, so each intervening migration sees its defaults.
func migrateFormulaV1(tagRules []htmlformula.TagRule, attributeToFetch *string) (*htmlformula.Formula, error) {
	return migrateFormulaV2(tagRules, attributeToFetch, culling{})
}

// migrateFormulaV2 implements v2->v3: the culling_and_adding tuple lowers
// into an equivalent ordered list of Transformations, per spec.md §4.8.
// A positive cull_front clips from the beginning; a negative one removes
// from the end. A positive cull_back clips from the end; a negative one
// removes from the beginning. Non-empty prepend/append become PREPEND/APPEND.
func migrateFormulaV2(tagRules []htmlformula.TagRule, attributeToFetch *string, c culling) (*htmlformula.Formula, error) {
	var transforms []stringconv.Transformation
	switch {
	case c.front > 0:
		transforms = append(transforms, stringconv.ClipFromBeginT(c.front))
	case c.front < 0:
		transforms = append(transforms, stringconv.RemoveFromEndT(-c.front))
	}
	switch {
	case c.back > 0:
		transforms = append(transforms, stringconv.ClipFromEndT(c.back))
	case c.back < 0:
		transforms = append(transforms, stringconv.RemoveFromBeginT(-c.back))
	}
	if c.prepend != "" {
		transforms = append(transforms, stringconv.PrependT(c.prepend))
	}
	if c.append != "" {
		transforms = append(transforms, stringconv.AppendT(c.append))
	}
	conv := stringconv.New(transforms...)
	conv.ExampleString = "parsed information"
	return migrateFormulaV3(tagRules, attributeToFetch, conv), nil
}

// migrateFormulaV3 implements v3->v4: inject a default (always-pass)
// StringMatch ahead of the existing converter.
func migrateFormulaV3(tagRules []htmlformula.TagRule, attributeToFetch *string, conv *stringconv.Converter) *htmlformula.Formula {
	return migrateFormulaV4(tagRules, attributeToFetch, stringmatch.NewAny(), conv)
}

// migrateFormulaV4 implements v4->v5: attribute_to_fetch == nil meant
// "fetch the node's string content"; a non-nil value meant ATTRIBUTE.
func migrateFormulaV4(tagRules []htmlformula.TagRule, attributeToFetch *string, match *stringmatch.Match, conv *stringconv.Converter) *htmlformula.Formula {
	if attributeToFetch == nil {
		return htmlformula.New(tagRules, htmlformula.String, "", match, conv)
	}
	return htmlformula.New(tagRules, htmlformula.Attribute, *attributeToFetch, match, conv)
}

func contentKindName(k htmlformula.ContentKind) string {
	switch k {
	case htmlformula.Attribute:
		return "attribute"
	case htmlformula.String:
		return "string"
	case htmlformula.HTML:
		return "html"
	default:
		return ""
	}
}

func contentKindFromName(name string) (htmlformula.ContentKind, error) {
	switch name {
	case "attribute":
		return htmlformula.Attribute, nil
	case "string":
		return htmlformula.String, nil
	case "html":
		return htmlformula.HTML, nil
	default:
		return 0, fmt.Errorf("unknown content_to_fetch %q", name)
	}
}
