package router

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/taskroute/config"
	"github.com/randalmurphal/taskroute/escalation"
	"github.com/randalmurphal/taskroute/model"
	"github.com/randalmurphal/taskroute/rules"
	"github.com/randalmurphal/taskroute/signal"
)

// ErrInvalidTask indicates a task that cannot be routed as submitted.
var ErrInvalidTask = errors.New("invalid task")

// Error wraps router errors with context.
type Error struct {
	Op     string // Operation that failed ("route", "report_failure")
	TaskID string // Attempt id the operation was for
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.TaskID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.TaskID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, taskID string, err error) *Error {
	return &Error{Op: op, TaskID: taskID, Err: err}
}

// IsExhausted checks if a task failed at the maximum tier. The caller must
// surface this as unresolved; the router never retries it.
func IsExhausted(err error) bool {
	return errors.Is(err, escalation.ErrEscalationExhausted)
}

// IsConfigError checks if an error comes from configuration rather than
// the task. These are fatal and not worth retrying.
func IsConfigError(err error) bool {
	return errors.Is(err, model.ErrMisconfiguredPriceTable) ||
		errors.Is(err, model.ErrNoVisionCapableModel) ||
		errors.Is(err, model.ErrUnsupportedFormat) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, rules.ErrDuplicateRule) ||
		errors.Is(err, rules.ErrInvalidRule) ||
		errors.Is(err, signal.ErrOverlappingKeywords)
}
