package router

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/randalmurphal/taskroute/signal"
)

// Task is one unit of work submitted for routing. A retry is a new Task
// whose PriorTaskID names the attempt it retries.
type Task struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Context     signal.Context `json:"context"`

	// Monitoring marks automated heartbeat and monitoring work.
	Monitoring bool `json:"monitoring,omitempty"`

	RequiresVision        bool   `json:"requires_vision,omitempty"`
	PreviousAttemptFailed bool   `json:"previous_attempt_failed,omitempty"`
	PreviousModelID       string `json:"previous_model_id,omitempty"`
	PriorTaskID           string `json:"prior_task_id,omitempty"`

	// InputTokens and OutputTokens are optional estimates used for cost
	// accounting. When both are zero they are estimated from Description.
	InputTokens  int64 `json:"input_tokens,omitempty"`
	OutputTokens int64 `json:"output_tokens,omitempty"`
}

// NewTask creates a task with a fresh id.
func NewTask(description string, ctx signal.Context) Task {
	return Task{
		ID:          uuid.NewString(),
		Description: description,
		Context:     ctx,
	}
}

// Retry returns a new attempt of t that reports whether t failed on modelID.
func (t Task) Retry(failed bool, modelID string) Task {
	next := t
	next.ID = uuid.NewString()
	next.PriorTaskID = t.ID
	next.PreviousAttemptFailed = failed
	next.PreviousModelID = modelID
	return next
}

// Flags returns the explicit signals of the task.
func (t Task) Flags() signal.Flags {
	return signal.Flags{RequiresVision: t.RequiresVision}
}

func (t Task) validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidTask)
	}
	if t.Context != "" && !t.Context.Valid() {
		return fmt.Errorf("%w: unknown context %q", ErrInvalidTask, t.Context)
	}
	if t.InputTokens < 0 || t.OutputTokens < 0 {
		return fmt.Errorf("%w: negative token estimate", ErrInvalidTask)
	}
	return nil
}
