// Package signal extracts routing signals from task descriptions.
//
// A signal is either a matched keyword category (routine, moderate,
// complex) or an explicit flag such as RequiresVision. Extraction is pure:
// the same description and flags always produce the same Set. Precedence
// between categories is left to the rule engine.
package signal

import (
	"fmt"
	"strings"
)

// Category is a keyword category detected in a description.
type Category int

// Category constants in ascending order of required capability.
const (
	Routine Category = iota
	Moderate
	Complex
)

// Categories lists all categories in ascending order.
var Categories = []Category{Routine, Moderate, Complex}

// String returns the category name.
func (c Category) String() string {
	switch c {
	case Routine:
		return "routine"
	case Moderate:
		return "moderate"
	case Complex:
		return "complex"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Context is the calling context of a task. It selects the default tier
// when no signal matches and is passed explicitly to every classification.
type Context string

// Known contexts.
const (
	ContextMainSession Context = "main-session"
	ContextSubAgent    Context = "sub-agent"
	ContextAutomated   Context = "automated"
)

// Valid returns true for a known context.
func (c Context) Valid() bool {
	switch c {
	case ContextMainSession, ContextSubAgent, ContextAutomated:
		return true
	default:
		return false
	}
}

// ParseContext converts a context name, accepting underscores and spaces
// in place of hyphens.
func ParseContext(s string) (Context, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.NewReplacer("_", "-", " ", "-").Replace(v)
	c := Context(v)
	if !c.Valid() {
		return "", fmt.Errorf("invalid context %q", s)
	}
	return c, nil
}

// Flags are explicit signals supplied with a task.
type Flags struct {
	RequiresVision bool
}

// Set is the signal set derived from one task.
// The zero value is the empty set.
type Set struct {
	matched        [3]bool
	RequiresVision bool
}

// NewSet builds a Set from categories and flags.
func NewSet(flags Flags, categories ...Category) Set {
	s := Set{RequiresVision: flags.RequiresVision}
	for _, c := range categories {
		if c >= Routine && c <= Complex {
			s.matched[c] = true
		}
	}
	return s
}

// Has returns true if the category matched.
func (s Set) Has(c Category) bool {
	if c < Routine || c > Complex {
		return false
	}
	return s.matched[c]
}

// Only returns true if c is the only matched category.
func (s Set) Only(c Category) bool {
	if !s.Has(c) {
		return false
	}
	for _, other := range Categories {
		if other != c && s.matched[other] {
			return false
		}
	}
	return true
}

// Empty returns true if no category matched. Flags are not considered.
func (s Set) Empty() bool {
	return !s.matched[Routine] && !s.matched[Moderate] && !s.matched[Complex]
}

// Categories returns the matched categories in ascending order.
func (s Set) Categories() []Category {
	var out []Category
	for _, c := range Categories {
		if s.matched[c] {
			out = append(out, c)
		}
	}
	return out
}

// Highest returns the most demanding matched category.
func (s Set) Highest() (Category, bool) {
	for i := len(Categories) - 1; i >= 0; i-- {
		if s.matched[Categories[i]] {
			return Categories[i], true
		}
	}
	return Routine, false
}

// String returns a compact description such as "{moderate,complex vision}".
func (s Set) String() string {
	names := make([]string, 0, len(Categories))
	for _, c := range s.Categories() {
		names = append(names, c.String())
	}
	out := "{" + strings.Join(names, ",")
	if s.RequiresVision {
		out += " vision"
	}
	return out + "}"
}

// Classifier derives a signal Set from a description and explicit flags.
// Implementations must be pure and safe for concurrent use.
type Classifier interface {
	Extract(description string, flags Flags) Set
}
