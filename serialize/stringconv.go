package serialize

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/HOZHENWAI/hydrus/stringconv"
)

const stringConverterVersion = 1

// SerializeStringConverter renders c as a <string_converter> element: an
// ordered list of <transform> elements plus the documentation-only
// example string.
func SerializeStringConverter(c *stringconv.Converter) *etree.Element {
	el := newElement("string_converter", stringConverterVersion)
	el.CreateAttr("example", c.ExampleString)
	for _, t := range c.Transformations {
		el.AddChild(serializeTransformation(t))
	}
	return el
}

func serializeTransformation(t stringconv.Transformation) *etree.Element {
	tr := etree.NewElement("transform")
	tr.CreateAttr("kind", kindName(t.Kind))
	switch t.Kind {
	case stringconv.RemoveFromBegin, stringconv.RemoveFromEnd, stringconv.ClipFromBegin, stringconv.ClipFromEnd:
		tr.CreateAttr("n", strconv.Itoa(t.N))
	case stringconv.Prepend, stringconv.Append:
		tr.CreateAttr("text", t.Text)
	case stringconv.Encode, stringconv.Decode:
		tr.CreateAttr("scheme", schemeName(t.Scheme))
	case stringconv.RegexSub:
		tr.CreateAttr("pattern", t.Pattern)
		tr.CreateAttr("replacement", t.Replacement)
	}
	return tr
}

// DeserializeStringConverter reads a <string_converter> element back into
// a *stringconv.Converter. There is only one known schema version to
// date, so no migration loop is needed; a future incompatible version
// would gain one here, the same way formula.go does.
func DeserializeStringConverter(el *etree.Element) (*stringconv.Converter, error) {
	if _, err := elementVersion(el); err != nil {
		return nil, err
	}
	var transforms []stringconv.Transformation
	for _, tr := range el.SelectElements("transform") {
		t, err := deserializeTransformation(tr)
		if err != nil {
			return nil, err
		}
		transforms = append(transforms, t)
	}
	c := stringconv.New(transforms...)
	if attr := el.SelectAttr("example"); attr != nil {
		c.ExampleString = attr.Value
	}
	return c, nil
}

func deserializeTransformation(tr *etree.Element) (stringconv.Transformation, error) {
	kindAttr := tr.SelectAttrValue("kind", "")
	kind, err := kindFromName(kindAttr)
	if err != nil {
		return stringconv.Transformation{}, err
	}
	switch kind {
	case stringconv.RemoveFromBegin, stringconv.RemoveFromEnd, stringconv.ClipFromBegin, stringconv.ClipFromEnd:
		n, err := strconv.Atoi(tr.SelectAttrValue("n", "0"))
		if err != nil {
			return stringconv.Transformation{}, fmt.Errorf("transform %s: bad n: %w", kindAttr, err)
		}
		switch kind {
		case stringconv.RemoveFromBegin:
			return stringconv.RemoveFromBeginT(n), nil
		case stringconv.RemoveFromEnd:
			return stringconv.RemoveFromEndT(n), nil
		case stringconv.ClipFromBegin:
			return stringconv.ClipFromBeginT(n), nil
		default:
			return stringconv.ClipFromEndT(n), nil
		}
	case stringconv.Prepend:
		return stringconv.PrependT(tr.SelectAttrValue("text", "")), nil
	case stringconv.Append:
		return stringconv.AppendT(tr.SelectAttrValue("text", "")), nil
	case stringconv.Encode, stringconv.Decode:
		scheme, err := schemeFromName(tr.SelectAttrValue("scheme", ""))
		if err != nil {
			return stringconv.Transformation{}, err
		}
		if kind == stringconv.Encode {
			return stringconv.EncodeT(scheme), nil
		}
		return stringconv.DecodeT(scheme), nil
	case stringconv.Reverse:
		return stringconv.ReverseT(), nil
	case stringconv.RegexSub:
		return stringconv.RegexSubT(tr.SelectAttrValue("pattern", ""), tr.SelectAttrValue("replacement", "")), nil
	default:
		return stringconv.Transformation{}, fmt.Errorf("unknown transform kind %q", kindAttr)
	}
}

func kindName(k stringconv.Kind) string {
	switch k {
	case stringconv.RemoveFromBegin:
		return "remove_from_begin"
	case stringconv.RemoveFromEnd:
		return "remove_from_end"
	case stringconv.ClipFromBegin:
		return "clip_from_begin"
	case stringconv.ClipFromEnd:
		return "clip_from_end"
	case stringconv.Prepend:
		return "prepend"
	case stringconv.Append:
		return "append"
	case stringconv.Encode:
		return "encode"
	case stringconv.Decode:
		return "decode"
	case stringconv.Reverse:
		return "reverse"
	case stringconv.RegexSub:
		return "regex_sub"
	default:
		return ""
	}
}

func kindFromName(name string) (stringconv.Kind, error) {
	switch name {
	case "remove_from_begin":
		return stringconv.RemoveFromBegin, nil
	case "remove_from_end":
		return stringconv.RemoveFromEnd, nil
	case "clip_from_begin":
		return stringconv.ClipFromBegin, nil
	case "clip_from_end":
		return stringconv.ClipFromEnd, nil
	case "prepend":
		return stringconv.Prepend, nil
	case "append":
		return stringconv.Append, nil
	case "encode":
		return stringconv.Encode, nil
	case "decode":
		return stringconv.Decode, nil
	case "reverse":
		return stringconv.Reverse, nil
	case "regex_sub":
		return stringconv.RegexSub, nil
	default:
		return 0, fmt.Errorf("unknown transform kind %q", name)
	}
}

func schemeName(s stringconv.Scheme) string {
	switch s {
	case stringconv.Hex:
		return "hex"
	case stringconv.Base64:
		return "base64"
	default:
		return ""
	}
}

func schemeFromName(name string) (stringconv.Scheme, error) {
	switch name {
	case "hex":
		return stringconv.Hex, nil
	case "base64":
		return stringconv.Base64, nil
	default:
		return 0, fmt.Errorf("unknown encoding scheme %q", name)
	}
}
