package serialize

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/HOZHENWAI/hydrus/stringmatch"
)

const stringMatchVersion = 1

// SerializeStringMatch renders m as a <string_match> element.
func SerializeStringMatch(m *stringmatch.Match) *etree.Element {
	el := newElement("string_match", stringMatchVersion)
	el.CreateAttr("type", matchTypeName(m.Type))
	el.CreateAttr("example", m.Example)
	switch m.Type {
	case stringmatch.Fixed:
		el.CreateAttr("value", m.FixedValue)
	case stringmatch.Flexible:
		el.CreateAttr("value", flexibleName(m.Flexible))
	case stringmatch.Regex:
		el.CreateAttr("value", m.Pattern)
	}
	if m.MinChars != nil {
		el.CreateAttr("min_chars", strconv.Itoa(*m.MinChars))
	}
	if m.MaxChars != nil {
		el.CreateAttr("max_chars", strconv.Itoa(*m.MaxChars))
	}
	return el
}

func DeserializeStringMatch(el *etree.Element) (*stringmatch.Match, error) {
	if _, err := elementVersion(el); err != nil {
		return nil, err
	}
	typeName := el.SelectAttrValue("type", "any")
	value := el.SelectAttrValue("value", "")

	var m *stringmatch.Match
	switch typeName {
	case "any":
		m = stringmatch.NewAny()
	case "fixed":
		m = stringmatch.NewFixed(value)
	case "flexible":
		kind, err := flexibleFromName(value)
		if err != nil {
			return nil, err
		}
		m = stringmatch.NewFlexible(kind)
	case "regex":
		m = stringmatch.NewRegex(value)
	default:
		return nil, fmt.Errorf("unknown string match type %q", typeName)
	}

	m.Example = el.SelectAttrValue("example", "")
	if attr := el.SelectAttr("min_chars"); attr != nil {
		n, err := strconv.Atoi(attr.Value)
		if err != nil {
			return nil, fmt.Errorf("string match: bad min_chars: %w", err)
		}
		m.MinChars = &n
	}
	if attr := el.SelectAttr("max_chars"); attr != nil {
		n, err := strconv.Atoi(attr.Value)
		if err != nil {
			return nil, fmt.Errorf("string match: bad max_chars: %w", err)
		}
		m.MaxChars = &n
	}
	return m, nil
}

func matchTypeName(t stringmatch.Type) string {
	switch t {
	case stringmatch.Any:
		return "any"
	case stringmatch.Fixed:
		return "fixed"
	case stringmatch.Flexible:
		return "flexible"
	case stringmatch.Regex:
		return "regex"
	default:
		return ""
	}
}

func flexibleName(k stringmatch.FlexibleKind) string {
	switch k {
	case stringmatch.Alpha:
		return "alpha"
	case stringmatch.Alphanumeric:
		return "alphanumeric"
	case stringmatch.Numeric:
		return "numeric"
	default:
		return ""
	}
}

func flexibleFromName(name string) (stringmatch.FlexibleKind, error) {
	switch name {
	case "alpha":
		return stringmatch.Alpha, nil
	case "alphanumeric":
		return stringmatch.Alphanumeric, nil
	case "numeric":
		return stringmatch.Numeric, nil
	default:
		return 0, fmt.Errorf("unknown flexible match kind %q", name)
	}
}
