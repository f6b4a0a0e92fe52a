// Package cost projects spend for a tier mix and accounts actual routed usage.
//
// Projections are static: given a catalog, a Split and a daily Volume they
// price each tier at its preferred model. Projections are linear in volume
// and deterministic. The Ledger accumulates what the router actually
// assigned during a session.
package cost

import (
	"errors"
	"fmt"
	"math"

	"github.com/randalmurphal/taskroute/model"
)

// ErrInvalidSplit indicates tier fractions that are negative or do not sum to 1.
var ErrInvalidSplit = errors.New("invalid tier split")

// splitTolerance absorbs float rounding in configured fractions.
const splitTolerance = 1e-6

// Split is the fraction of volume routed to each tier.
type Split map[model.Tier]float64

// DefaultSplit is the expected 80/15/5 distribution across Tier1/2/3.
func DefaultSplit() Split {
	return Split{
		model.Tier1: 0.80,
		model.Tier2: 0.15,
		model.Tier3: 0.05,
	}
}

// Validate checks each fraction is within [0,1] for a valid tier and the
// fractions sum to 1.
func (s Split) Validate() error {
	var sum float64
	for t, f := range s {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown tier %d", ErrInvalidSplit, int(t))
		}
		if f < 0 || f > 1 || math.IsNaN(f) {
			return fmt.Errorf("%w: %s fraction %v", ErrInvalidSplit, t, f)
		}
		sum += f
	}
	if math.Abs(sum-1) > splitTolerance {
		return fmt.Errorf("%w: fractions sum to %v", ErrInvalidSplit, sum)
	}
	return nil
}

// Volume is an assumed daily token volume.
type Volume struct {
	InputTokens  int64 `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int64 `json:"output_tokens" yaml:"output_tokens"`
}

// PerTask returns the daily volume of tasks each using the given tokens.
func PerTask(tasks, inputTokens, outputTokens int64) Volume {
	return Volume{InputTokens: tasks * inputTokens, OutputTokens: tasks * outputTokens}
}

// TierProjection is the projected spend of one tier.
type TierProjection struct {
	Tier    model.Tier `json:"tier"`
	ModelID string     `json:"model_id"`
	Share   float64    `json:"share"`
	Daily   float64    `json:"daily"`
	Total   float64    `json:"total"`
}

// Projection is the projected spend of a tier mix over a number of days.
type Projection struct {
	Days    int              `json:"days"`
	PerTier []TierProjection `json:"per_tier"`
	Daily   float64          `json:"daily"`
	Total   float64          `json:"total"`
}

// Savings returns how much cheaper p is than baseline over the same period.
// Negative when p costs more.
func (p Projection) Savings(baseline Projection) float64 {
	return baseline.Total - p.Total
}

// Ratio returns baseline.Total / p.Total, or +Inf when p costs nothing.
func (p Projection) Ratio(baseline Projection) float64 {
	if p.Total == 0 {
		return math.Inf(1)
	}
	return baseline.Total / p.Total
}

// Project prices a daily volume split across tiers for the given days.
// Each tier is priced at its preferred model.
func Project(cat *model.Catalog, split Split, v Volume, days int) (Projection, error) {
	if cat == nil {
		return Projection{}, errors.New("project: catalog is required")
	}
	if err := split.Validate(); err != nil {
		return Projection{}, err
	}
	if days < 0 || v.InputTokens < 0 || v.OutputTokens < 0 {
		return Projection{}, fmt.Errorf("project: negative volume or days")
	}

	p := Projection{Days: days, PerTier: make([]TierProjection, 0, len(model.Tiers))}
	for _, t := range model.Tiers {
		m := cat.Primary(t)
		share := split[t]
		daily := share * (float64(v.InputTokens)/1_000_000*m.InputPerMillion +
			float64(v.OutputTokens)/1_000_000*m.OutputPerMillion)

		p.PerTier = append(p.PerTier, TierProjection{
			Tier:    t,
			ModelID: m.ID,
			Share:   share,
			Daily:   daily,
			Total:   daily * float64(days),
		})
		p.Daily += daily
	}
	p.Total = p.Daily * float64(days)
	return p, nil
}

// ProjectUniform prices the whole volume at a single tier.
func ProjectUniform(cat *model.Catalog, t model.Tier, v Volume, days int) (Projection, error) {
	if !t.Valid() {
		return Projection{}, fmt.Errorf("%w: unknown tier %d", ErrInvalidSplit, int(t))
	}
	return Project(cat, Split{t: 1}, v, days)
}
