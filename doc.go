// Package taskroute decides which model tier executes each unit of agent
// work and escalates retries across tiers when an attempt fails.
//
// Each subpackage can be used independently:
//
//   - model: Tiers, the price table catalog, loading and hot reload
//   - signal: Keyword signal extraction from task descriptions
//   - rules: Ordered routing rules and the default rule table
//   - escalation: Per-task retry lifecycle with monotonic tier escalation
//   - cost: Spend projection for a tier mix and a live usage ledger
//   - tokens: Token estimation for tasks without explicit counts
//   - config: File and environment configuration
//   - router: Ties the above together behind Route
//
// # Quick Start
//
// Routing a task:
//
//	import "github.com/randalmurphal/taskroute/router"
//	r, _ := router.New(model.DefaultCatalog())
//	d, err := r.Route(router.NewTask("read config.json", signal.ContextSubAgent))
//
// Retrying after a failure:
//
//	next := task.Retry(true, d.ModelID)
//	d, err = r.Route(next)
//	if router.IsExhausted(err) {
//	    // surface as unresolved
//	}
//
// Projecting spend:
//
//	p, _ := cost.Project(model.DefaultCatalog(), cost.DefaultSplit(), cost.PerTask(1000, 500, 1500), 30)
//
// # Design Philosophy
//
// taskroute follows these principles:
//
//   - Routing is deterministic: the same task and state give the same decision
//   - Retries never move to a cheaper tier
//   - No model is ever invoked; decisions are returned to the caller
//   - Sensible defaults with full configurability
//   - Interfaces for extensibility, concrete types for simplicity
package taskroute
