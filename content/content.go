// Package content implements ContentDescriptor, ContentResult and
// ContentParser: the types that interpret fragments extracted by a
// htmlformula.Formula as tags, URLs, or a veto test.
package content

import (
	"fmt"
	"strings"

	"github.com/HOZHENWAI/hydrus/htmlformula"
)

// Kind is the content_type of a ContentDescriptor.
type Kind int

const (
	URLs Kind = iota
	Mappings
	Veto
)

func (k Kind) String() string {
	switch k {
	case URLs:
		return "urls"
	case Mappings:
		return "mappings"
	case Veto:
		return "veto"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// VetoInfo is the additional_info carried by a VETO descriptor.
type VetoInfo struct {
	VetoIfMatchesFound bool
	MatchIfTextPresent bool
	SearchText         string
}

// Descriptor is ContentDescriptor: the typed identity of a result.
// Only the field matching Type is meaningful: Priority for URLs,
// Namespace for Mappings, Veto for Veto.
type Descriptor struct {
	Name      string
	Type      Kind
	Priority  *int
	Namespace string
	Veto      VetoInfo
}

// Result is a ContentResult: a descriptor paired with the Fragment it was
// produced from.
type Result struct {
	Descriptor Descriptor
	Fragment   string
}

// VetoError is raised by Parser.Parse when a VETO parser decides to abort
// the current document's extraction. It carries the parser's name per
// spec.md §4.4/§7.
type VetoError struct {
	Name string
}

func (e *VetoError) Error() string {
	return fmt.Sprintf("content parser %q vetoed this document", e.Name)
}

// Parser is ContentParser.
type Parser struct {
	Name    string
	Type    Kind
	Formula *htmlformula.Formula

	Priority  *int     // used when Type == URLs
	Namespace string   // used when Type == Mappings
	Veto      VetoInfo // used when Type == Veto
}

// descriptor builds this parser's single ContentDescriptor.
func (p *Parser) descriptor() Descriptor {
	return Descriptor{
		Name:      p.Name,
		Type:      p.Type,
		Priority:  p.Priority,
		Namespace: p.Namespace,
		Veto:      p.Veto,
	}
}

// GetParsableContent returns the singleton set of descriptors this parser
// can ever emit. It is a pure function: it never runs the formula.
func (p *Parser) GetParsableContent() []Descriptor {
	return []Descriptor{p.descriptor()}
}

// Parse runs the formula and interprets the fragments according to Type.
// A VETO parser never returns a non-empty result: it returns an empty
// slice, or fails with *VetoError.
func (p *Parser) Parse(data string) ([]Result, error) {
	fragments, err := p.Formula.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("content parser %q: %w", p.Name, err)
	}

	if p.Type == Veto {
		present := false
		for _, f := range fragments {
			if strings.Contains(f, p.Veto.SearchText) {
				present = true
				break
			}
		}
		matchFound := present
		if !p.Veto.MatchIfTextPresent {
			matchFound = !present
		}
		if p.Veto.VetoIfMatchesFound == matchFound {
			return nil, &VetoError{Name: p.Name}
		}
		return nil, nil
	}

	desc := p.descriptor()
	results := make([]Result, 0, len(fragments))
	for _, f := range fragments {
		results = append(results, Result{Descriptor: desc, Fragment: f})
	}
	return results, nil
}
