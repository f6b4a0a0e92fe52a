package escalation

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/taskroute/model"
)

// Sentinel errors for escalation operations.
var (
	// ErrEscalationExhausted indicates a task failed at the maximum tier.
	// Surfaced to the caller as an unresolved-complexity outcome; never
	// retried automatically or downgraded.
	ErrEscalationExhausted = errors.New("escalation exhausted at maximum tier")

	// ErrTierRegression indicates an assignment below the task's floor tier.
	ErrTierRegression = errors.New("tier below escalation floor")

	// ErrTaskClosed indicates the logical task already succeeded or was exhausted.
	ErrTaskClosed = errors.New("task is closed")

	// ErrInvalidTransition indicates an operation not allowed in the current phase.
	ErrInvalidTransition = errors.New("invalid phase transition")

	// ErrUnknownTask indicates no record exists for the task id.
	ErrUnknownTask = errors.New("unknown task")

	// ErrStaleAttempt indicates a report for an attempt that is not the latest.
	ErrStaleAttempt = errors.New("attempt is not the latest for its task")
)

// Phase is a lifecycle phase of a logical task.
type Phase int

// Phase constants.
const (
	PhaseCreated Phase = iota
	PhaseClassified
	PhaseAssigned
	PhaseExecuting
	PhaseSucceeded
	PhaseFailed
	PhaseEscalated
	PhaseFailedAtMaxTier
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseClassified:
		return "classified"
	case PhaseAssigned:
		return "assigned"
	case PhaseExecuting:
		return "executing"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	case PhaseEscalated:
		return "escalated"
	case PhaseFailedAtMaxTier:
		return "failed_at_max_tier"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Terminal returns true for phases that accept no further attempts.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailedAtMaxTier
}

// InFlight returns true while an assigned attempt has no reported outcome.
func (p Phase) InFlight() bool {
	return p == PhaseAssigned || p == PhaseExecuting
}

var transitions = map[Phase][]Phase{
	PhaseCreated:    {PhaseClassified},
	PhaseClassified: {PhaseAssigned, PhaseFailedAtMaxTier},
	PhaseAssigned:   {PhaseExecuting, PhaseSucceeded, PhaseFailed},
	PhaseExecuting:  {PhaseSucceeded, PhaseFailed},
	PhaseFailed:     {PhaseEscalated, PhaseFailedAtMaxTier},
	PhaseEscalated:  {PhaseClassified},
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// Outcome is the result of a single attempt.
type Outcome int

// Outcome constants.
const (
	OutcomePending Outcome = iota
	OutcomeSucceeded
	OutcomeFailed
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Attempt is one tier assignment for a logical task.
type Attempt struct {
	TaskID  string     `json:"task_id"`
	Tier    model.Tier `json:"tier"`
	ModelID string     `json:"model_id"`
	Outcome Outcome    `json:"outcome"`
}

// State is a point-in-time snapshot of a logical task.
// The zero value describes a task with no attempts.
type State struct {
	LogicalID string    `json:"logical_id"`
	Phase     Phase     `json:"phase"`
	Attempts  []Attempt `json:"attempts"`
}

// Current returns the latest attempt.
func (s State) Current() (Attempt, bool) {
	if len(s.Attempts) == 0 {
		return Attempt{}, false
	}
	return s.Attempts[len(s.Attempts)-1], true
}

// Highest returns the highest tier ever assigned, or TierUnknown.
func (s State) Highest() model.Tier {
	highest := model.TierUnknown
	for _, a := range s.Attempts {
		highest = model.Max(highest, a.Tier)
	}
	return highest
}

// Floor returns the lowest tier the next attempt may be assigned.
// After a failure this is the tier above the failed one (capped at
// MaxTier); otherwise it is the highest tier already assigned. A task
// with no attempts has floor TierUnknown, which places no constraint.
func (s State) Floor() model.Tier {
	highest := s.Highest()
	cur, ok := s.Current()
	if !ok || cur.Outcome != OutcomeFailed {
		return highest
	}
	if next, ok := highest.Next(); ok {
		return next
	}
	return highest
}

// Failures returns the number of failed attempts.
func (s State) Failures() int {
	n := 0
	for _, a := range s.Attempts {
		if a.Outcome == OutcomeFailed {
			n++
		}
	}
	return n
}

func (s State) clone() State {
	s.Attempts = append([]Attempt(nil), s.Attempts...)
	return s
}
