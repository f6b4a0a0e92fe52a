package model

import (
	"fmt"
	"sort"
)

// Capability names a feature a model supports.
type Capability string

// Known capabilities.
const (
	CapabilityVision    Capability = "vision"
	CapabilityTools     Capability = "tools"
	CapabilityCode      Capability = "code"
	CapabilityReasoning Capability = "reasoning"
)

// Model is a price table entry.
type Model struct {
	ID               string       `json:"id" yaml:"id" toml:"id"`
	Tier             Tier         `json:"tier" yaml:"tier" toml:"tier"`
	InputPerMillion  float64      `json:"input_per_million" yaml:"input_per_million" toml:"input_per_million"`
	OutputPerMillion float64      `json:"output_per_million" yaml:"output_per_million" toml:"output_per_million"`
	Capabilities     []Capability `json:"capabilities" yaml:"capabilities" toml:"capabilities"`

	// Priority orders models inside a tier. Lower is preferred; ties break on ID.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
}

// Has returns true if the model supports the capability.
func (m Model) Has(c Capability) bool {
	for _, have := range m.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Cost returns the USD cost of the given token counts at this model's prices.
func (m Model) Cost(inputTokens, outputTokens int64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * m.InputPerMillion
	outputCost := float64(outputTokens) / 1_000_000 * m.OutputPerMillion
	return inputCost + outputCost
}

func (m Model) validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: model id is required", ErrMisconfiguredPriceTable)
	}
	if !m.Tier.Valid() {
		return fmt.Errorf("%w: model %q has invalid tier %d", ErrMisconfiguredPriceTable, m.ID, int(m.Tier))
	}
	if m.InputPerMillion < 0 || m.OutputPerMillion < 0 {
		return fmt.Errorf("%w: model %q has negative price", ErrMisconfiguredPriceTable, m.ID)
	}
	return nil
}

// Catalog is a validated, read-only price table.
// Safe for concurrent use.
type Catalog struct {
	byID   map[string]Model
	byTier map[Tier][]Model
}

// NewCatalog validates the models and builds a Catalog.
// Every tier must have at least one model and ids must be unique.
func NewCatalog(models ...Model) (*Catalog, error) {
	c := &Catalog{
		byID:   make(map[string]Model, len(models)),
		byTier: make(map[Tier][]Model, len(Tiers)),
	}

	for _, m := range models {
		if err := m.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate model id %q", ErrMisconfiguredPriceTable, m.ID)
		}
		m.Capabilities = append([]Capability(nil), m.Capabilities...)
		c.byID[m.ID] = m
		c.byTier[m.Tier] = append(c.byTier[m.Tier], m)
	}

	for _, t := range Tiers {
		if len(c.byTier[t]) == 0 {
			return nil, fmt.Errorf("%w: no model configured for %s", ErrMisconfiguredPriceTable, t)
		}
		sort.SliceStable(c.byTier[t], func(i, j int) bool {
			a, b := c.byTier[t][i], c.byTier[t][j]
			if a.Priority != b.Priority {
				return a.Priority < b.Priority
			}
			return a.ID < b.ID
		})
	}
	return c, nil
}

// Lookup returns the model with the given id.
func (c *Catalog) Lookup(id string) (Model, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// TierOf returns the tier of the model with the given id.
func (c *Catalog) TierOf(id string) (Tier, bool) {
	m, ok := c.byID[id]
	if !ok {
		return TierUnknown, false
	}
	return m.Tier, true
}

// InTier returns the models of a tier in preference order.
func (c *Catalog) InTier(t Tier) []Model {
	return append([]Model(nil), c.byTier[t]...)
}

// Primary returns the preferred model of a tier.
// Every valid tier has one; an invalid tier returns the zero Model.
func (c *Catalog) Primary(t Tier) Model {
	models := c.byTier[t]
	if len(models) == 0 {
		return Model{}
	}
	return models[0]
}

// WithCapability returns the models of a tier that support the capability,
// in preference order.
func (c *Catalog) WithCapability(capability Capability, t Tier) []Model {
	var out []Model
	for _, m := range c.byTier[t] {
		if m.Has(capability) {
			out = append(out, m)
		}
	}
	return out
}

// HasCapability returns true if any model in the catalog supports the capability.
func (c *Catalog) HasCapability(capability Capability) bool {
	for _, m := range c.byID {
		if m.Has(capability) {
			return true
		}
	}
	return false
}

// BestWith returns the preferred model supporting the capability, searching
// from base upward to MaxTier, then downward from base. The second result is
// false when no model in the catalog has the capability.
func (c *Catalog) BestWith(capability Capability, base Tier) (Model, bool) {
	if !base.Valid() {
		base = MinTier
	}
	for t := base; t <= MaxTier; t++ {
		if models := c.WithCapability(capability, t); len(models) > 0 {
			return models[0], true
		}
	}
	for t := base - 1; t >= MinTier; t-- {
		if models := c.WithCapability(capability, t); len(models) > 0 {
			return models[0], true
		}
	}
	return Model{}, false
}

// Models returns all models ordered by tier, then preference.
func (c *Catalog) Models() []Model {
	out := make([]Model, 0, len(c.byID))
	for _, t := range Tiers {
		out = append(out, c.byTier[t]...)
	}
	return out
}
