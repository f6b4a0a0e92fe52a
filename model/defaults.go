package model

// DefaultModels is a representative price table (per-million-token USD, 2025).
// Tier1 leads with a non-vision model so vision tasks pick a different entry.
var DefaultModels = []Model{
	// Tier1: routine, high volume
	{ID: "deepseek-v3", Tier: Tier1, InputPerMillion: 0.14, OutputPerMillion: 0.28,
		Capabilities: []Capability{CapabilityCode}, Priority: 1},
	{ID: "gemini-flash", Tier: Tier1, InputPerMillion: 0.075, OutputPerMillion: 0.30,
		Capabilities: []Capability{CapabilityVision, CapabilityTools}, Priority: 2},
	{ID: "gpt-4o-mini", Tier: Tier1, InputPerMillion: 0.15, OutputPerMillion: 0.60,
		Capabilities: []Capability{CapabilityVision, CapabilityTools}, Priority: 3},
	{ID: "claude-3-haiku", Tier: Tier1, InputPerMillion: 0.25, OutputPerMillion: 1.25,
		Capabilities: []Capability{CapabilityVision, CapabilityTools}, Priority: 4},

	// Tier2: general purpose
	{ID: "claude-sonnet-4", Tier: Tier2, InputPerMillion: 3.0, OutputPerMillion: 15.0,
		Capabilities: []Capability{CapabilityVision, CapabilityTools, CapabilityCode}, Priority: 1},
	{ID: "gpt-4o", Tier: Tier2, InputPerMillion: 2.5, OutputPerMillion: 10.0,
		Capabilities: []Capability{CapabilityVision, CapabilityTools, CapabilityCode}, Priority: 2},
	{ID: "gemini-pro", Tier: Tier2, InputPerMillion: 1.25, OutputPerMillion: 5.0,
		Capabilities: []Capability{CapabilityVision, CapabilityTools}, Priority: 3},

	// Tier3: complex reasoning
	{ID: "claude-opus-4", Tier: Tier3, InputPerMillion: 15.0, OutputPerMillion: 75.0,
		Capabilities: []Capability{CapabilityVision, CapabilityTools, CapabilityCode, CapabilityReasoning}, Priority: 1},
	{ID: "o1", Tier: Tier3, InputPerMillion: 15.0, OutputPerMillion: 60.0,
		Capabilities: []Capability{CapabilityVision, CapabilityReasoning}, Priority: 2},
	{ID: "gpt-4.5", Tier: Tier3, InputPerMillion: 75.0, OutputPerMillion: 150.0,
		Capabilities: []Capability{CapabilityVision, CapabilityTools}, Priority: 3},
	{ID: "o3-mini", Tier: Tier3, InputPerMillion: 1.1, OutputPerMillion: 4.4,
		Capabilities: []Capability{CapabilityReasoning, CapabilityTools}, Priority: 4},
}

// DefaultCatalog returns a Catalog built from DefaultModels.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultModels...)
	if err != nil {
		panic("model: invalid default price table: " + err.Error())
	}
	return c
}
