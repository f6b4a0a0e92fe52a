// Package router composes signal extraction, rule evaluation, escalation
// tracking and cost accounting into a single routing decision per task.
//
// Basic usage:
//
//	r, err := router.New(model.DefaultCatalog())
//	if err != nil {
//	    return err
//	}
//	task := router.NewTask("write unit tests for this module", signal.ContextMainSession)
//	d, err := r.Route(task) // tier2, moderate-signal
//
// When an attempt fails, report it and submit the retry. The retry is
// assigned strictly above the failed tier:
//
//	r.ReportFailure(task.ID)
//	d, err = r.Route(task.Retry(true, d.ModelID)) // tier3, escalation-override
//	if router.IsExhausted(err) {
//	    // surface as unresolved; do not retry
//	}
//
// Routing never performs I/O. The only shared state is the escalation
// tracker, serialized per logical task, and the cost ledger.
package router
