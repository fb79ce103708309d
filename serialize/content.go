package serialize

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"

	"github.com/HOZHENWAI/hydrus/content"
)

const contentParserVersion = 1

// SerializeContentParser renders p as a <content_parser> element.
func SerializeContentParser(p *content.Parser) *etree.Element {
	el := newElement("content_parser", contentParserVersion)
	el.CreateAttr("name", p.Name)
	el.CreateAttr("type", contentKindTypeName(p.Type))
	el.AddChild(SerializeFormula(p.Formula))

	switch p.Type {
	case content.URLs:
		if p.Priority != nil {
			el.CreateAttr("priority", strconv.Itoa(*p.Priority))
		}
	case content.Mappings:
		el.CreateAttr("namespace", p.Namespace)
	case content.Veto:
		veto := el.CreateElement("veto")
		veto.CreateAttr("veto_if_matches_found", strconv.FormatBool(p.Veto.VetoIfMatchesFound))
		veto.CreateAttr("match_if_text_present", strconv.FormatBool(p.Veto.MatchIfTextPresent))
		veto.CreateAttr("search_text", p.Veto.SearchText)
	}
	return el
}

func DeserializeContentParser(el *etree.Element) (*content.Parser, error) {
	if _, err := elementVersion(el); err != nil {
		return nil, err
	}
	typeName := el.SelectAttrValue("type", "")
	kind, err := contentKindFromTypeName(typeName)
	if err != nil {
		return nil, err
	}
	formula, err := DeserializeFormula(el.SelectElement("formula"))
	if err != nil {
		return nil, fmt.Errorf("content parser %q: %w", el.SelectAttrValue("name", ""), err)
	}

	p := &content.Parser{
		Name:    el.SelectAttrValue("name", ""),
		Type:    kind,
		Formula: formula,
	}

	switch kind {
	case content.URLs:
		if attr := el.SelectAttr("priority"); attr != nil {
			n, err := strconv.Atoi(attr.Value)
			if err != nil {
				return nil, fmt.Errorf("content parser %q: bad priority: %w", p.Name, err)
			}
			p.Priority = &n
		}
	case content.Mappings:
		p.Namespace = el.SelectAttrValue("namespace", "")
	case content.Veto:
		veto := el.SelectElement("veto")
		if veto != nil {
			p.Veto = content.VetoInfo{
				VetoIfMatchesFound: veto.SelectAttrValue("veto_if_matches_found", "false") == "true",
				MatchIfTextPresent: veto.SelectAttrValue("match_if_text_present", "false") == "true",
				SearchText:         veto.SelectAttrValue("search_text", ""),
			}
		}
	}
	return p, nil
}

func contentKindTypeName(k content.Kind) string {
	switch k {
	case content.URLs:
		return "urls"
	case content.Mappings:
		return "mappings"
	case content.Veto:
		return "veto"
	default:
		return ""
	}
}

func contentKindFromTypeName(name string) (content.Kind, error) {
	switch name {
	case "urls":
		return content.URLs, nil
	case "mappings":
		return content.Mappings, nil
	case "veto":
		return content.Veto, nil
	default:
		return 0, fmt.Errorf("unknown content parser type %q", name)
	}
}
