// Package pageparser implements PageParser: the top-level entry point
// that converts a whole page, optionally separates it into sub-documents,
// then runs content parsers (or content-link nodes) over both.
package pageparser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/HOZHENWAI/hydrus/content"
	"github.com/HOZHENWAI/hydrus/contentlink"
	"github.com/HOZHENWAI/hydrus/htmlformula"
	"github.com/HOZHENWAI/hydrus/network"
	"github.com/HOZHENWAI/hydrus/stringconv"
)

// ParseError wraps a top-level converter/separation failure, corresponding
// to spec.md §7's ParseException: fatal to the current invocation, not to
// the process.
type ParseError struct {
	Parser string
	Err    error
}

func (e *ParseError) Error() string { return fmt.Sprintf("page parser %q: %s", e.Parser, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// Parser is PageParser.
type Parser struct {
	Name      string
	ParserKey string

	Converter *stringconv.Converter

	CanProduceSeparatedContent bool
	SeparationFormula          *htmlformula.Formula
	SeparatedContentParsers    []contentlink.Child
	ContentParsers             []contentlink.Child

	ExampleURLs []string

	// Logger receives per-document progress and veto diagnostics; a
	// discarding logger is used when unset, per the teacher's
	// pages.Handler.Logger convention.
	Logger *slog.Logger
}

// New builds a Parser with a fresh opaque parser key.
func New(name string, conv *stringconv.Converter) *Parser {
	if conv == nil {
		conv = stringconv.New()
	}
	return &Parser{Name: name, ParserKey: uuid.NewString(), Converter: conv}
}

func (p *Parser) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RegenerateParserKey mints a new opaque key, used when the caller clones
// this parser and wants the clone to be treated as a distinct entity.
func (p *Parser) RegenerateParserKey() string {
	p.ParserKey = uuid.NewString()
	return p.ParserKey
}

// Parse runs the top-level converter, optionally separates the document,
// runs SeparatedContentParsers against each sub-document, and runs
// ContentParsers against the whole converted document.
func (p *Parser) Parse(ctx context.Context, job network.Job, engine network.Engine, pageData string, referralURL string) (separated [][]content.Result, flat []content.Result, err error) {
	converted, err := p.Converter.Convert(pageData, nil)
	if err != nil {
		return nil, nil, &ParseError{Parser: p.Name, Err: err}
	}

	if p.CanProduceSeparatedContent && p.SeparationFormula != nil {
		subDocs, err := p.SeparationFormula.Parse(converted)
		if err != nil {
			return nil, nil, &ParseError{Parser: p.Name, Err: err}
		}
		for i, sub := range subDocs {
			r, err := contentlink.Dispatch(ctx, p.SeparatedContentParsers, job, engine, sub, referralURL)
			if err != nil {
				var vetoErr *content.VetoError
				if !errors.As(err, &vetoErr) && !errors.Is(err, network.ErrCancelled) {
					return nil, nil, &ParseError{Parser: p.Name, Err: err}
				}
				// a veto in one sub-document only empties that sub-document's
				// results; the others are unaffected.
				p.logger().Debug("sub-document vetoed", "parser", p.Name, "index", i, "error", err)
				r = nil
			}
			separated = append(separated, r)
		}
	}

	flat, err = contentlink.Dispatch(ctx, p.ContentParsers, job, engine, converted, referralURL)
	if err != nil {
		var vetoErr *content.VetoError
		if !errors.As(err, &vetoErr) && !errors.Is(err, network.ErrCancelled) {
			return separated, nil, &ParseError{Parser: p.Name, Err: err}
		}
		p.logger().Debug("flat content vetoed", "parser", p.Name, "error", err)
		flat = nil
	}

	return separated, flat, nil
}

// GetParsableContent is the pure union of every descriptor this parser can
// ever emit, across both separated and flat content parsers.
func (p *Parser) GetParsableContent() []content.Descriptor {
	var out []content.Descriptor
	for _, c := range p.SeparatedContentParsers {
		out = append(out, parsableContentOf(c)...)
	}
	for _, c := range p.ContentParsers {
		out = append(out, parsableContentOf(c)...)
	}
	return out
}

func parsableContentOf(c contentlink.Child) []content.Descriptor {
	switch v := c.(type) {
	case *content.Parser:
		return v.GetParsableContent()
	case *contentlink.Node:
		return v.GetParsableContent()
	default:
		return nil
	}
}
