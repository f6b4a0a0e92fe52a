// Package model provides model tiers, capabilities, and the price table.
//
// Models are grouped into three ordered tiers: Tier1 (cheap, high volume),
// Tier2 (general purpose) and Tier3 (most capable, most expensive). The
// price table, a Catalog, maps model ids to their tier, per-million-token
// prices and capability set. A Catalog is validated once when it is built
// and is read-only afterwards.
//
// # Loading a price table
//
//	cat, err := model.LoadFile("prices.yaml") // .yaml, .yml, .toml or .json
//	if errors.Is(err, model.ErrMisconfiguredPriceTable) {
//	    // fatal: fix the file
//	}
//
// The file format is published as a JSON schema by Schema.
//
// # Selecting models
//
//	primary := cat.Primary(model.Tier2)
//	vision, err := cat.BestWith(model.CapabilityVision, model.Tier1)
//
// # Watching for changes
//
// A running Catalog is never mutated. Watch reports a freshly loaded
// Catalog whenever the file changes so a host can start a new session
// with it.
package model
