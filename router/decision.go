package router

import (
	"fmt"

	"github.com/randalmurphal/taskroute/cost"
	"github.com/randalmurphal/taskroute/model"
	"github.com/randalmurphal/taskroute/signal"
)

// Decision records how one attempt was routed.
type Decision struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"task_id"`
	LogicalID string     `json:"logical_id"`
	Tier      model.Tier `json:"tier"`
	ModelID   string     `json:"model_id,omitempty"`
	RuleID    string     `json:"rule_id"`
	Signals   signal.Set `json:"-"`

	// Attempt is the 1-based attempt number within the logical task.
	Attempt int `json:"attempt"`

	// Clamped reports that the rule's tier was raised to the escalation floor.
	Clamped bool `json:"clamped,omitempty"`

	// Exhausted reports that the logical task failed at the maximum tier
	// and no model was assigned.
	Exhausted bool `json:"exhausted,omitempty"`

	// Usage is what this attempt added to the ledger.
	Usage cost.Usage `json:"usage"`

	// Ledger is the ledger right after this decision was recorded.
	Ledger cost.Snapshot `json:"ledger"`
}

// String returns a one-line summary for logs.
func (d Decision) String() string {
	if d.Exhausted {
		return fmt.Sprintf("%s: exhausted at %s after %d attempts (%s)", d.TaskID, d.Tier, d.Attempt, d.RuleID)
	}
	return fmt.Sprintf("%s: %s %s via %s %s", d.TaskID, d.Tier, d.ModelID, d.RuleID, d.Signals)
}
