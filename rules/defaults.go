package rules

import (
	"fmt"

	"github.com/randalmurphal/taskroute/model"
	"github.com/randalmurphal/taskroute/signal"
)

// Rule ids of the default table.
const (
	RuleVisionOverride     = "vision-override"
	RuleEscalationOverride = "escalation-override"
	RuleMonitoringPin      = "monitoring-pin"
	RuleComplexSignal      = "complex-signal"
	RuleModerateSignal     = "moderate-signal"
	RuleRoutineSignal      = "routine-signal"
	RuleContextDefault     = "context-default"
)

// ContextDefaults maps each calling context to the tier used when no
// signal matches.
type ContextDefaults map[signal.Context]model.Tier

// DefaultContextDefaults returns main-session→Tier2, sub-agent→Tier1,
// automated→Tier1.
func DefaultContextDefaults() ContextDefaults {
	return ContextDefaults{
		signal.ContextMainSession: model.Tier2,
		signal.ContextSubAgent:    model.Tier1,
		signal.ContextAutomated:   model.Tier1,
	}
}

// For returns the default tier for a context. Unknown or empty contexts
// use the main-session default.
func (d ContextDefaults) For(c signal.Context) model.Tier {
	if t, ok := d[c]; ok && t.Valid() {
		return t
	}
	if t, ok := d[signal.ContextMainSession]; ok && t.Valid() {
		return t
	}
	return model.Tier2
}

// Validate checks every known context maps to a valid tier.
func (d ContextDefaults) Validate() error {
	for c, t := range d {
		if !c.Valid() {
			return fmt.Errorf("context defaults: unknown context %q", c)
		}
		if !t.Valid() {
			return fmt.Errorf("context defaults: invalid tier %d for %s", int(t), c)
		}
	}
	return nil
}

// escalationTarget returns the tier strictly above the highest tier the
// logical task has used, or false when that is already MaxTier. A previous
// model the catalog does not know counts as the context default.
func escalationTarget(cat *model.Catalog, defaults ContextDefaults, in Input) (model.Tier, bool) {
	prev := in.State.Highest()
	if t, ok := cat.TierOf(in.PreviousModelID); ok {
		prev = model.Max(prev, t)
	}
	if !prev.Valid() {
		prev = defaults.For(in.Context)
	}
	return prev.Next()
}

// attemptedTier is the highest tier the task has run at, or fallback when
// it has no attempts.
func attemptedTier(cat *model.Catalog, in Input, fallback model.Tier) model.Tier {
	t := in.State.Highest()
	if prev, ok := cat.TierOf(in.PreviousModelID); ok {
		t = model.Max(t, prev)
	}
	if !t.Valid() {
		return fallback
	}
	return t
}

// VisionOverride routes vision tasks to the preferred vision model at the
// context default tier, or the escalation floor if higher. When that tier
// has none it moves up to the lowest tier that does, then down as long as
// the floor allows. A task that can no longer reach a vision model at or
// above its floor is exhausted; a table with no vision model is an error.
func VisionOverride(cat *model.Catalog, defaults ContextDefaults) Rule {
	return Rule{
		ID:       RuleVisionOverride,
		Priority: 10,
		Match: func(in Input) (Outcome, bool, error) {
			if !in.Signals.RequiresVision {
				return Outcome{}, false, nil
			}

			floor := in.State.Floor()
			base := model.Max(defaults.For(in.Context), floor)
			if in.PreviousAttemptFailed {
				next, ok := escalationTarget(cat, defaults, in)
				if !ok {
					return Outcome{Tier: model.MaxTier, Exhausted: true}, true, nil
				}
				floor = model.Max(floor, next)
				base = model.Max(base, next)
			}

			m, ok := cat.BestWith(model.CapabilityVision, base)
			if !ok {
				return Outcome{}, false, model.ErrNoVisionCapableModel
			}
			// Vision models exist, but none the task may still escalate to.
			if m.Tier < floor {
				return Outcome{Tier: attemptedTier(cat, in, m.Tier), Exhausted: true}, true, nil
			}
			return Outcome{Tier: m.Tier, ModelID: m.ID}, true, nil
		},
	}
}

// EscalationOverride moves a failed task strictly above the tier it failed at.
func EscalationOverride(cat *model.Catalog, defaults ContextDefaults) Rule {
	return Rule{
		ID:       RuleEscalationOverride,
		Priority: 20,
		Match: func(in Input) (Outcome, bool, error) {
			if !in.PreviousAttemptFailed {
				return Outcome{}, false, nil
			}
			next, ok := escalationTarget(cat, defaults, in)
			if !ok {
				return Outcome{Tier: model.MaxTier, Exhausted: true}, true, nil
			}
			return Outcome{Tier: next}, true, nil
		},
	}
}

// MonitoringPin keeps automated monitoring and heartbeat work on Tier1.
func MonitoringPin() Rule {
	return Rule{
		ID:       RuleMonitoringPin,
		Priority: 30,
		Match: func(in Input) (Outcome, bool, error) {
			if in.Context != signal.ContextAutomated || !in.Monitoring {
				return Outcome{}, false, nil
			}
			return Outcome{Tier: model.Tier1}, true, nil
		},
	}
}

// SignalRule maps a keyword category to a tier. With only set, the rule
// fires only when c is the sole matched category.
func SignalRule(id string, priority int, c signal.Category, only bool, tier model.Tier) Rule {
	return Rule{
		ID:       id,
		Priority: priority,
		Match: func(in Input) (Outcome, bool, error) {
			if only && !in.Signals.Only(c) {
				return Outcome{}, false, nil
			}
			if !in.Signals.Has(c) {
				return Outcome{}, false, nil
			}
			return Outcome{Tier: tier}, true, nil
		},
	}
}

// ContextDefault is the catch-all: it always fires with the context's
// default tier.
func ContextDefault(defaults ContextDefaults) Rule {
	return Rule{
		ID:       RuleContextDefault,
		Priority: 70,
		Match: func(in Input) (Outcome, bool, error) {
			return Outcome{Tier: defaults.For(in.Context)}, true, nil
		},
	}
}

// DefaultRules returns the standard rule table.
//
//	10 vision-override      RequiresVision
//	20 escalation-override  PreviousAttemptFailed
//	30 monitoring-pin       automated + Monitoring → Tier1
//	40 complex-signal       complex → Tier3
//	50 moderate-signal      moderate → Tier2
//	60 routine-signal       routine only → Tier1
//	70 context-default      always
//
// When routine and moderate both match, moderate wins by order.
func DefaultRules(cat *model.Catalog, defaults ContextDefaults) []Rule {
	if defaults == nil {
		defaults = DefaultContextDefaults()
	}
	return []Rule{
		VisionOverride(cat, defaults),
		EscalationOverride(cat, defaults),
		MonitoringPin(),
		SignalRule(RuleComplexSignal, 40, signal.Complex, false, model.Tier3),
		SignalRule(RuleModerateSignal, 50, signal.Moderate, false, model.Tier2),
		SignalRule(RuleRoutineSignal, 60, signal.Routine, true, model.Tier1),
		ContextDefault(defaults),
	}
}

// NewDefaultEngine builds an engine over DefaultRules.
func NewDefaultEngine(cat *model.Catalog, defaults ContextDefaults) (*Engine, error) {
	if err := defaults.Validate(); err != nil {
		return nil, err
	}
	return NewEngine(cat, DefaultRules(cat, defaults)...)
}
