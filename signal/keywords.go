package signal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrOverlappingKeywords indicates a keyword appears in more than one
// category list, or a list contains an empty keyword.
var ErrOverlappingKeywords = errors.New("keyword lists must be disjoint and non-empty")

// Keywords holds the curated keyword list for each category.
type Keywords struct {
	Routine  []string `json:"routine" yaml:"routine" toml:"routine" mapstructure:"routine"`
	Moderate []string `json:"moderate" yaml:"moderate" toml:"moderate" mapstructure:"moderate"`
	Complex  []string `json:"complex" yaml:"complex" toml:"complex" mapstructure:"complex"`
}

// DefaultKeywords returns the curated keyword lists.
// Phrases that report a previous failure ("still not working", "try again")
// count as complex.
func DefaultKeywords() Keywords {
	return Keywords{
		Routine: []string{
			"read", "fetch", "check", "list", "format", "status", "get",
			"filter", "sort", "convert", "parse", "health", "ping", "time",
			"date", "lookup", "find file", "show", "display", "heartbeat",
		},
		Moderate: []string{
			"write", "code", "summarize", "draft", "analyze", "create",
			"generate", "review", "refactor", "transform", "search",
			"research", "explain", "describe", "compare",
		},
		Complex: []string{
			"debug", "architect", "design", "security", "why does",
			"why is", "tradeoff", "trade-off", "evaluate", "doesn't work",
			"failed", "tried", "race condition", "vulnerability", "migrate",
			"behaves differently", "under load", "production",
			"previous", "couldn't", "try again", "still not working",
			"none of these work", "stuck",
		},
	}
}

func (k Keywords) list(c Category) []string {
	switch c {
	case Routine:
		return k.Routine
	case Moderate:
		return k.Moderate
	case Complex:
		return k.Complex
	default:
		return nil
	}
}

// Validate checks that no keyword is empty or shared between categories.
// Comparison is case-insensitive.
func (k Keywords) Validate() error {
	seen := make(map[string]Category)
	for _, c := range Categories {
		for _, kw := range k.list(c) {
			norm := strings.ToLower(strings.TrimSpace(kw))
			if norm == "" {
				return fmt.Errorf("%w: empty %s keyword", ErrOverlappingKeywords, c)
			}
			if prev, dup := seen[norm]; dup && prev != c {
				return fmt.Errorf("%w: %q is both %s and %s", ErrOverlappingKeywords, norm, prev, c)
			}
			seen[norm] = c
		}
	}
	return nil
}

// KeywordClassifier matches descriptions against keyword lists by
// case-insensitive substring. It is a deliberately simple heuristic;
// anything implementing Classifier can replace it.
type KeywordClassifier struct {
	lists [3][]string
}

// NewKeywordClassifier validates the lists and builds a classifier.
func NewKeywordClassifier(k Keywords) (*KeywordClassifier, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	kc := &KeywordClassifier{}
	for _, c := range Categories {
		for _, kw := range k.list(c) {
			kc.lists[c] = append(kc.lists[c], strings.ToLower(strings.TrimSpace(kw)))
		}
	}
	return kc, nil
}

// NewDefaultClassifier returns a classifier over DefaultKeywords.
func NewDefaultClassifier() *KeywordClassifier {
	kc, err := NewKeywordClassifier(DefaultKeywords())
	if err != nil {
		panic("signal: invalid default keywords: " + err.Error())
	}
	return kc
}

// Extract reports every category with at least one matching keyword.
// An empty description yields an empty set with flags passed through.
func (kc *KeywordClassifier) Extract(description string, flags Flags) Set {
	s := Set{RequiresVision: flags.RequiresVision}
	desc := strings.ToLower(description)
	if strings.TrimSpace(desc) == "" {
		return s
	}

	for _, c := range Categories {
		for _, kw := range kc.lists[c] {
			if strings.Contains(desc, kw) {
				s.matched[c] = true
				break
			}
		}
	}
	return s
}

// Matches returns the keywords of a category found in the description.
// Useful for explaining a decision.
func (kc *KeywordClassifier) Matches(description string, c Category) []string {
	if c < Routine || c > Complex {
		return nil
	}
	desc := strings.ToLower(description)
	var out []string
	for _, kw := range kc.lists[c] {
		if strings.Contains(desc, kw) {
			out = append(out, kw)
		}
	}
	return out
}
