// Package escalation tracks retry attempts per logical task and enforces
// monotonic tier progression on failure.
//
// A logical task is the identity that persists across retries. Each attempt
// has its own task id; the Tracker maps attempt ids back to their logical
// task. Once a logical task has been assigned a tier it is never assigned a
// lower one, and a failure at MaxTier ends the task with
// ErrEscalationExhausted instead of another assignment.
//
// Lifecycle of a logical task:
//
//	Created -> Classified -> Assigned -> Executing -> Succeeded
//	                                              \-> Failed -> Escalated -> Classified ...
//	                                                        \-> FailedAtMaxTier
//
// Usage:
//
//	tracker := escalation.NewTracker()
//	err := tracker.Do(logicalID, func(r *escalation.Record) error {
//	    if err := r.Classify(); err != nil {
//	        return err
//	    }
//	    return r.Assign(taskID, model.Tier2, "claude-sonnet-4")
//	})
//	...
//	next, err := tracker.ReportFailure(taskID) // next == model.Tier3
//
// Updates for one logical task are serialized; different tasks never
// contend on the same record lock.
package escalation
