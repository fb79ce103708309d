// Package stringmatch implements StringMatch, a validating predicate over
// text used to accept or reject fragments extracted by a formula.
package stringmatch

import (
	"fmt"
	"regexp"
)

// Type identifies which clause a Match uses beyond the length bounds.
type Type int

const (
	Any Type = iota
	Fixed
	Flexible
	Regex
)

func (t Type) String() string {
	switch t {
	case Any:
		return "any"
	case Fixed:
		return "fixed"
	case Flexible:
		return "flexible"
	case Regex:
		return "regex"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// FlexibleKind is the match_value used when Type is Flexible.
type FlexibleKind int

const (
	Alpha FlexibleKind = iota
	Alphanumeric
	Numeric
)

func (k FlexibleKind) String() string {
	switch k {
	case Alpha:
		return "alpha"
	case Alphanumeric:
		return "alphanumeric"
	case Numeric:
		return "numeric"
	default:
		return fmt.Sprintf("flexible(%d)", int(k))
	}
}

var flexiblePatterns = map[FlexibleKind]*regexp.Regexp{
	Alpha:        regexp.MustCompile(`^[a-zA-Z]+$`),
	Alphanumeric: regexp.MustCompile(`^[a-zA-Z\d]+$`),
	Numeric:      regexp.MustCompile(`^\d+$`),
}

// Match is a StringMatchSpec: a match type plus its parameters and
// optional length bounds. Example is documentation only.
type Match struct {
	Type Type

	// FixedValue is used when Type == Fixed.
	FixedValue string

	// Flexible is used when Type == Flexible.
	Flexible FlexibleKind

	// Pattern is used when Type == Regex; compiled lazily and cached.
	Pattern string

	MinChars *int
	MaxChars *int
	Example  string

	re *regexp.Regexp
}

func NewAny() *Match { return &Match{Type: Any} }

func NewFixed(value string) *Match { return &Match{Type: Fixed, FixedValue: value} }

func NewFlexible(kind FlexibleKind) *Match { return &Match{Type: Flexible, Flexible: kind} }

func NewRegex(pattern string) *Match { return &Match{Type: Regex, Pattern: pattern} }

// MatchError is raised by Test when text fails a clause; the message cites
// which clause failed, per spec.md §4.2.
type MatchError struct {
	Clause string
	Text   string
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("%q failed %s check", e.Text, e.Clause)
}

// Test validates text against the clauses in order: min length, max
// length, then the type-specific clause.
func (m *Match) Test(text string) error {
	n := len([]rune(text))

	if m.MinChars != nil && n < *m.MinChars {
		return &MatchError{Clause: fmt.Sprintf("minimum length %d", *m.MinChars), Text: text}
	}
	if m.MaxChars != nil && n > *m.MaxChars {
		return &MatchError{Clause: fmt.Sprintf("maximum length %d", *m.MaxChars), Text: text}
	}

	switch m.Type {
	case Any:
		return nil
	case Fixed:
		if text != m.FixedValue {
			return &MatchError{Clause: fmt.Sprintf("fixed value %q", m.FixedValue), Text: text}
		}
		return nil
	case Flexible:
		re, ok := flexiblePatterns[m.Flexible]
		if !ok {
			return &MatchError{Clause: fmt.Sprintf("unknown flexible kind %s", m.Flexible), Text: text}
		}
		if !re.MatchString(text) {
			return &MatchError{Clause: fmt.Sprintf("flexible pattern %s", m.Flexible), Text: text}
		}
		return nil
	case Regex:
		re := m.re
		if re == nil {
			var err error
			re, err = regexp.Compile(m.Pattern)
			if err != nil {
				return fmt.Errorf("compile regex match pattern: %w", err)
			}
			m.re = re
		}
		if !re.MatchString(text) {
			return &MatchError{Clause: fmt.Sprintf("regex /%s/", m.Pattern), Text: text}
		}
		return nil
	default:
		return fmt.Errorf("unknown match type %d", int(m.Type))
	}
}
