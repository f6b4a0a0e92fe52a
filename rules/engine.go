// Package rules evaluates an ordered table of routing rules.
//
// Each rule is a pure predicate over an Input that either yields an Outcome
// or declines. Rules are evaluated in ascending priority and the first match
// wins; there is no fallthrough once a rule fires. The default table places
// the vision and escalation overrides ahead of every signal-based rule, so a
// cheaper classification can never override either.
package rules

import (
	"errors"
	"fmt"
	"sort"

	"github.com/randalmurphal/taskroute/escalation"
	"github.com/randalmurphal/taskroute/model"
	"github.com/randalmurphal/taskroute/signal"
)

// Sentinel errors for rule evaluation.
var (
	// ErrNoRuleMatched indicates no rule fired. The default table always
	// ends in a catch-all, so this only occurs with custom tables.
	ErrNoRuleMatched = errors.New("no rule matched")

	// ErrDuplicateRule indicates two rules share a priority or an id.
	ErrDuplicateRule = errors.New("duplicate rule priority or id")

	// ErrInvalidRule indicates a rule without an id or predicate.
	ErrInvalidRule = errors.New("invalid rule")
)

// Input is everything a rule may inspect. Rules must not retain it.
type Input struct {
	Context    signal.Context
	Monitoring bool
	Signals    signal.Set

	PreviousAttemptFailed bool
	PreviousModelID       string

	// State is the escalation snapshot of the logical task. The zero value
	// describes a first attempt.
	State escalation.State
}

// Outcome is what a rule resolves to.
type Outcome struct {
	Tier model.Tier `json:"tier"`

	// ModelID pins a specific model. Empty means the tier's preferred model.
	ModelID string `json:"model_id,omitempty"`

	// Exhausted reports that escalation cannot go higher. Tier holds the
	// tier that failed.
	Exhausted bool `json:"exhausted,omitempty"`
}

// Predicate inspects an Input and reports whether the rule fires.
// A non-nil error aborts evaluation and is returned to the caller.
type Predicate func(in Input) (Outcome, bool, error)

// Rule is one row of the rule table.
type Rule struct {
	ID       string
	Priority int
	Match    Predicate
}

// Result is the outcome of the first matching rule.
type Result struct {
	RuleID  string  `json:"rule_id"`
	Outcome Outcome `json:"outcome"`
}

// Resolution is a Result bound to a concrete model.
type Resolution struct {
	RuleID string
	Tier   model.Tier
	Model  model.Model

	// Clamped reports that the rule's tier was raised to the escalation floor.
	Clamped bool

	Exhausted bool
}

// Engine evaluates a fixed rule table against a catalog.
// Safe for concurrent use.
type Engine struct {
	catalog *model.Catalog
	rules   []Rule
}

// NewEngine validates the rules and orders them by priority.
func NewEngine(catalog *model.Catalog, rules ...Rule) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", ErrInvalidRule)
	}

	ids := make(map[string]bool, len(rules))
	priorities := make(map[int]string, len(rules))
	for _, r := range rules {
		if r.ID == "" || r.Match == nil {
			return nil, fmt.Errorf("%w: rule %q at priority %d", ErrInvalidRule, r.ID, r.Priority)
		}
		if ids[r.ID] {
			return nil, fmt.Errorf("%w: id %q", ErrDuplicateRule, r.ID)
		}
		if prev, dup := priorities[r.Priority]; dup {
			return nil, fmt.Errorf("%w: %q and %q both have priority %d", ErrDuplicateRule, prev, r.ID, r.Priority)
		}
		ids[r.ID] = true
		priorities[r.Priority] = r.ID
	}

	sorted := append([]Rule(nil), rules...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return &Engine{catalog: catalog, rules: sorted}, nil
}

// Catalog returns the engine's catalog.
func (e *Engine) Catalog() *model.Catalog {
	return e.catalog
}

// Rules returns the rule table in evaluation order.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Evaluate returns the outcome of the first rule that fires.
func (e *Engine) Evaluate(in Input) (Result, error) {
	for _, r := range e.rules {
		out, ok, err := r.Match(in)
		if err != nil {
			return Result{RuleID: r.ID}, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		if ok {
			return Result{RuleID: r.ID, Outcome: out}, nil
		}
	}
	return Result{}, ErrNoRuleMatched
}

// Decide evaluates the rules and resolves the result to a model.
func (e *Engine) Decide(in Input) (Resolution, error) {
	res, err := e.Evaluate(in)
	if err != nil {
		return Resolution{RuleID: res.RuleID}, err
	}
	return e.Resolve(res, in)
}

// Resolve binds a result to a concrete model. The tier is raised to the
// escalation floor when below it, and vision tasks only ever resolve to a
// vision-capable model.
func (e *Engine) Resolve(res Result, in Input) (Resolution, error) {
	out := res.Outcome
	if out.Exhausted {
		return Resolution{RuleID: res.RuleID, Tier: out.Tier, Exhausted: true}, nil
	}
	if !out.Tier.Valid() {
		return Resolution{RuleID: res.RuleID}, fmt.Errorf("rule %s: invalid tier %d", res.RuleID, int(out.Tier))
	}

	floor := in.State.Floor()
	tier := model.Max(out.Tier, floor)
	r := Resolution{RuleID: res.RuleID, Tier: tier, Clamped: tier != out.Tier}

	if out.ModelID != "" {
		m, ok := e.catalog.Lookup(out.ModelID)
		if !ok {
			return r, fmt.Errorf("rule %s: %w: %s", res.RuleID, model.ErrUnknownModel, out.ModelID)
		}
		if m.Tier >= floor && (!in.Signals.RequiresVision || m.Has(model.CapabilityVision)) {
			r.Tier, r.Model = m.Tier, m
			return r, nil
		}
	}

	if in.Signals.RequiresVision {
		m, ok := e.catalog.BestWith(model.CapabilityVision, tier)
		if !ok {
			return r, fmt.Errorf("rule %s: %w", res.RuleID, model.ErrNoVisionCapableModel)
		}
		if m.Tier < floor {
			return Resolution{RuleID: res.RuleID, Tier: model.Max(in.State.Highest(), m.Tier), Exhausted: true}, nil
		}
		r.Tier, r.Model = m.Tier, m
		return r, nil
	}

	r.Model = e.catalog.Primary(tier)
	return r, nil
}
