package serialize

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/HOZHENWAI/hydrus/pageparser"
)

const pageParserVersion = 1

// SerializePageParser renders p as a <page_parser> element.
func SerializePageParser(p *pageparser.Parser) (*etree.Element, error) {
	el := newElement("page_parser", pageParserVersion)
	el.CreateAttr("name", p.Name)
	el.CreateAttr("parser_key", p.ParserKey)
	el.AddChild(SerializeStringConverter(p.Converter))

	el.CreateAttr("can_produce_separated_content", fmt.Sprintf("%t", p.CanProduceSeparatedContent))
	if p.SeparationFormula != nil {
		sep := el.CreateElement("separation_formula")
		sep.AddChild(SerializeFormula(p.SeparationFormula))
	}
	if err := serializeChildren(el, "separated_content_parsers", p.SeparatedContentParsers); err != nil {
		return nil, err
	}
	if err := serializeChildren(el, "content_parsers", p.ContentParsers); err != nil {
		return nil, err
	}
	urls := el.CreateElement("example_urls")
	for _, u := range p.ExampleURLs {
		urls.CreateElement("url").SetText(u)
	}
	return el, nil
}

func DeserializePageParser(el *etree.Element) (*pageparser.Parser, error) {
	if _, err := elementVersion(el); err != nil {
		return nil, err
	}
	conv, err := DeserializeStringConverter(el.SelectElement("string_converter"))
	if err != nil {
		return nil, err
	}

	p := pageparser.New(el.SelectAttrValue("name", ""), conv)
	p.ParserKey = el.SelectAttrValue("parser_key", p.ParserKey)
	p.CanProduceSeparatedContent = el.SelectAttrValue("can_produce_separated_content", "false") == "true"

	if sep := el.SelectElement("separation_formula"); sep != nil {
		formula, err := DeserializeFormula(sep.SelectElement("formula"))
		if err != nil {
			return nil, fmt.Errorf("page parser %q: separation formula: %w", p.Name, err)
		}
		p.SeparationFormula = formula
	}

	p.SeparatedContentParsers, err = deserializeChildren(el, "separated_content_parsers")
	if err != nil {
		return nil, err
	}
	p.ContentParsers, err = deserializeChildren(el, "content_parsers")
	if err != nil {
		return nil, err
	}
	if urls := el.SelectElement("example_urls"); urls != nil {
		for _, u := range urls.SelectElements("url") {
			p.ExampleURLs = append(p.ExampleURLs, u.Text())
		}
	}
	return p, nil
}
