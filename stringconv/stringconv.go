// Package stringconv implements StringConverter, the ordered text
// transform pipeline used throughout the parsing engine to normalise
// fragments extracted from documents before they are matched or emitted.
package stringconv

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
)

// Kind identifies the operation a Transformation performs.
type Kind int

const (
	RemoveFromBegin Kind = iota
	RemoveFromEnd
	ClipFromBegin
	ClipFromEnd
	Prepend
	Append
	Encode
	Decode
	Reverse
	RegexSub
)

// String implements fmt.Stringer, returning the teacher-style human
// readable label used in StringConvertError diagnostics.
func (k Kind) String() string {
	switch k {
	case RemoveFromBegin:
		return "remove from beginning"
	case RemoveFromEnd:
		return "remove from end"
	case ClipFromBegin:
		return "take the first N characters"
	case ClipFromEnd:
		return "take the last N characters"
	case Prepend:
		return "prepend text"
	case Append:
		return "append text"
	case Encode:
		return "encode"
	case Decode:
		return "decode"
	case Reverse:
		return "reverse"
	case RegexSub:
		return "regex substitution"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Scheme identifies a byte<->text encoding used by Encode/Decode
// transformations.
type Scheme int

const (
	Hex Scheme = iota
	Base64
)

func (s Scheme) String() string {
	switch s {
	case Hex:
		return "hex"
	case Base64:
		return "base64"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// Transformation is one step of a StringConverter pipeline. Only the
// fields relevant to Kind are populated; callers build instances with the
// New* constructors below rather than struct literals to keep the
// combination valid.
type Transformation struct {
	Kind Kind

	// N is used by RemoveFromBegin, RemoveFromEnd, ClipFromBegin, ClipFromEnd.
	N int

	// Text is used by Prepend, Append.
	Text string

	// Scheme is used by Encode, Decode.
	Scheme Scheme

	// Pattern, Replacement are used by RegexSub.
	Pattern     string
	Replacement string

	re *regexp.Regexp // not set by this package; RegexSub compiles Pattern on each application
}

func RemoveFromBeginT(n int) Transformation { return Transformation{Kind: RemoveFromBegin, N: n} }
func RemoveFromEndT(n int) Transformation   { return Transformation{Kind: RemoveFromEnd, N: n} }
func ClipFromBeginT(n int) Transformation   { return Transformation{Kind: ClipFromBegin, N: n} }
func ClipFromEndT(n int) Transformation     { return Transformation{Kind: ClipFromEnd, N: n} }
func PrependT(s string) Transformation      { return Transformation{Kind: Prepend, Text: s} }
func AppendT(s string) Transformation       { return Transformation{Kind: Append, Text: s} }
func EncodeT(sc Scheme) Transformation      { return Transformation{Kind: Encode, Scheme: sc} }
func DecodeT(sc Scheme) Transformation      { return Transformation{Kind: Decode, Scheme: sc} }
func ReverseT() Transformation              { return Transformation{Kind: Reverse} }
func RegexSubT(pattern, repl string) Transformation {
	return Transformation{Kind: RegexSub, Pattern: pattern, Replacement: repl}
}

// Label renders the human-readable description of the transformation used
// in error messages, e.g. "remove from beginning (3)".
func (t Transformation) Label() string {
	switch t.Kind {
	case RemoveFromBegin, RemoveFromEnd, ClipFromBegin, ClipFromEnd:
		return fmt.Sprintf("%s (%d)", t.Kind, t.N)
	case Prepend, Append:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	case Encode, Decode:
		return fmt.Sprintf("%s %s", t.Kind, t.Scheme)
	case RegexSub:
		return fmt.Sprintf("regex substitution /%s/ -> %q", t.Pattern, t.Replacement)
	default:
		return t.Kind.String()
	}
}

// StringConvertError is raised when a transformation step fails. It quotes
// the transformation's human-readable form and the input it choked on, per
// spec.md §4.1.
type StringConvertError struct {
	Step  Transformation
	Index int
	Input string
	Err   error
}

func (e *StringConvertError) Error() string {
	return fmt.Sprintf("string conversion step %d (%s) failed on %q: %s", e.Index, e.Step.Label(), e.Input, e.Err)
}

func (e *StringConvertError) Unwrap() error { return e.Err }

// Converter holds an ordered sequence of Transformations and a
// documentation-only example string.
type Converter struct {
	Transformations []Transformation
	ExampleString   string
}

// New builds a Converter from an ordered list of transformations.
func New(transformations ...Transformation) *Converter {
	return &Converter{Transformations: transformations}
}

// Convert applies the transformations in order. If maxSteps is non-nil,
// it stops after that many steps and returns the partial result (used by
// preview UIs upstream of this package).
func (c *Converter) Convert(s string, maxSteps *int) (string, error) {
	steps := c.Transformations
	if maxSteps != nil && *maxSteps < len(steps) {
		steps = steps[:*maxSteps]
	}

	for i, t := range steps {
		out, err := apply(t, s)
		if err != nil {
			return "", &StringConvertError{Step: t, Index: i, Input: s, Err: err}
		}
		s = out
	}
	return s, nil
}

func apply(t Transformation, s string) (string, error) {
	switch t.Kind {
	case RemoveFromBegin:
		return clipRunes(s, t.N, false, true), nil
	case RemoveFromEnd:
		return clipRunes(s, t.N, true, true), nil
	case ClipFromBegin:
		return clipRunes(s, t.N, false, false), nil
	case ClipFromEnd:
		return clipRunes(s, t.N, true, false), nil
	case Prepend:
		return t.Text + s, nil
	case Append:
		return s + t.Text, nil
	case Encode:
		return encode(t.Scheme, s)
	case Decode:
		return decode(t.Scheme, s)
	case Reverse:
		return reverse(s), nil
	case RegexSub:
		re := t.re
		if re == nil {
			var err error
			re, err = regexp.Compile(t.Pattern)
			if err != nil {
				return "", fmt.Errorf("compile pattern: %w", err)
			}
		}
		return re.ReplaceAllString(s, t.Replacement), nil
	default:
		return "", fmt.Errorf("unknown transformation kind %d", int(t.Kind))
	}
}

// clipRunes implements REMOVE_FROM_* / CLIP_FROM_* over code units (runes).
// fromEnd selects which side n counts from; remove selects whether n
// characters are dropped (true) or kept (false).
func clipRunes(s string, n int, fromEnd, remove bool) string {
	r := []rune(s)
	if n < 0 {
		n = 0
	}
	if n > len(r) {
		n = len(r)
	}
	if remove {
		if fromEnd {
			return string(r[:len(r)-n])
		}
		return string(r[n:])
	}
	if fromEnd {
		return string(r[len(r)-n:])
	}
	return string(r[:n])
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}

// encode converts logical UTF-8 text to bytes, then those bytes to the
// target scheme's text representation.
func encode(sc Scheme, s string) (string, error) {
	b := []byte(s)
	switch sc {
	case Hex:
		return hex.EncodeToString(b), nil
	case Base64:
		return base64.StdEncoding.EncodeToString(b), nil
	default:
		return "", fmt.Errorf("unknown encoding scheme %s", sc)
	}
}

// decode reverses encode: scheme text -> bytes -> UTF-8 text.
func decode(sc Scheme, s string) (string, error) {
	var b []byte
	var err error
	switch sc {
	case Hex:
		b, err = hex.DecodeString(s)
	case Base64:
		b, err = base64.StdEncoding.DecodeString(s)
	default:
		return "", fmt.Errorf("unknown encoding scheme %s", sc)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}
