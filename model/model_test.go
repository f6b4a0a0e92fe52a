package model

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierString(t *testing.T) {
	tests := []struct {
		tier     Tier
		expected string
	}{
		{Tier1, "tier1"},
		{Tier2, "tier2"},
		{Tier3, "tier3"},
		{TierUnknown, "unknown"},
		{Tier(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.tier.String(); got != tt.expected {
				t.Errorf("Tier(%d).String() = %s, want %s", tt.tier, got, tt.expected)
			}
		})
	}
}

func TestTierNext(t *testing.T) {
	next, ok := Tier1.Next()
	assert.True(t, ok)
	assert.Equal(t, Tier2, next)

	next, ok = Tier2.Next()
	assert.True(t, ok)
	assert.Equal(t, Tier3, next)

	next, ok = MaxTier.Next()
	assert.False(t, ok)
	assert.Equal(t, MaxTier, next)

	_, ok = TierUnknown.Next()
	assert.False(t, ok)
}

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"tier1", Tier1, false},
		{"Tier2", Tier2, false},
		{"t3", Tier3, false},
		{"3", Tier3, false},
		{" tier-2 ", Tier2, false},
		{"tier4", TierUnknown, true},
		{"0", TierUnknown, true},
		{"premium", TierUnknown, true},
		{"", TierUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTierJSON(t *testing.T) {
	var tiers []Tier
	require.NoError(t, json.Unmarshal([]byte(`[1, "tier2", "t3"]`), &tiers))
	assert.Equal(t, []Tier{Tier1, Tier2, Tier3}, tiers)

	data, err := json.Marshal(Tier2)
	require.NoError(t, err)
	assert.Equal(t, `"tier2"`, string(data))

	var bad Tier
	assert.Error(t, json.Unmarshal([]byte(`7`), &bad))

	data, err = json.Marshal(struct {
		Tier Tier `json:"tier"`
	}{})
	require.NoError(t, err)
	assert.Equal(t, `{"tier":"unknown"}`, string(data))
	assert.Error(t, json.Unmarshal([]byte(`"unknown"`), &bad))

	_, err = json.Marshal(Tier(7))
	assert.Error(t, err)
}

func TestNewCatalog(t *testing.T) {
	t.Run("default catalog is valid", func(t *testing.T) {
		cat := DefaultCatalog()
		assert.Equal(t, "deepseek-v3", cat.Primary(Tier1).ID)
		assert.Equal(t, "claude-sonnet-4", cat.Primary(Tier2).ID)
		assert.Equal(t, "claude-opus-4", cat.Primary(Tier3).ID)
		assert.Len(t, cat.Models(), len(DefaultModels))
	})

	t.Run("missing tier coverage", func(t *testing.T) {
		_, err := NewCatalog(
			Model{ID: "a", Tier: Tier1},
			Model{ID: "b", Tier: Tier2},
		)
		assert.ErrorIs(t, err, ErrMisconfiguredPriceTable)
	})

	t.Run("duplicate id", func(t *testing.T) {
		_, err := NewCatalog(
			Model{ID: "a", Tier: Tier1},
			Model{ID: "a", Tier: Tier2},
			Model{ID: "c", Tier: Tier3},
		)
		assert.ErrorIs(t, err, ErrMisconfiguredPriceTable)
	})

	t.Run("invalid tier", func(t *testing.T) {
		_, err := NewCatalog(Model{ID: "a", Tier: Tier(5)})
		assert.ErrorIs(t, err, ErrMisconfiguredPriceTable)
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := NewCatalog(Model{ID: "a", Tier: Tier1, InputPerMillion: -1})
		assert.ErrorIs(t, err, ErrMisconfiguredPriceTable)
	})
}

func TestCatalogPreferenceOrder(t *testing.T) {
	cat, err := NewCatalog(
		Model{ID: "z", Tier: Tier1, Priority: 1},
		Model{ID: "b", Tier: Tier1, Priority: 2},
		Model{ID: "a", Tier: Tier1, Priority: 2},
		Model{ID: "m", Tier: Tier2},
		Model{ID: "o", Tier: Tier3},
	)
	require.NoError(t, err)

	var ids []string
	for _, m := range cat.InTier(Tier1) {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"z", "a", "b"}, ids)
}

func TestCatalogBestWith(t *testing.T) {
	cat := DefaultCatalog()

	m, ok := cat.BestWith(CapabilityVision, Tier1)
	require.True(t, ok)
	assert.Equal(t, "gemini-flash", m.ID)
	assert.True(t, m.Has(CapabilityVision))

	m, ok = cat.BestWith(CapabilityVision, Tier2)
	require.True(t, ok)
	assert.Equal(t, "claude-sonnet-4", m.ID)

	t.Run("escalates to lowest tier with capability", func(t *testing.T) {
		cat, err := NewCatalog(
			Model{ID: "cheap", Tier: Tier1},
			Model{ID: "mid", Tier: Tier2},
			Model{ID: "top", Tier: Tier3, Capabilities: []Capability{CapabilityVision}},
		)
		require.NoError(t, err)
		m, ok := cat.BestWith(CapabilityVision, Tier1)
		require.True(t, ok)
		assert.Equal(t, "top", m.ID)
	})

	t.Run("falls back below base", func(t *testing.T) {
		cat, err := NewCatalog(
			Model{ID: "cheap", Tier: Tier1, Capabilities: []Capability{CapabilityVision}},
			Model{ID: "mid", Tier: Tier2},
			Model{ID: "top", Tier: Tier3},
		)
		require.NoError(t, err)
		m, ok := cat.BestWith(CapabilityVision, Tier3)
		require.True(t, ok)
		assert.Equal(t, "cheap", m.ID)
	})

	t.Run("none", func(t *testing.T) {
		cat, err := NewCatalog(
			Model{ID: "a", Tier: Tier1},
			Model{ID: "b", Tier: Tier2},
			Model{ID: "c", Tier: Tier3},
		)
		require.NoError(t, err)
		_, ok := cat.BestWith(CapabilityVision, Tier1)
		assert.False(t, ok)
		assert.False(t, cat.HasCapability(CapabilityVision))
	})
}

func TestModelCost(t *testing.T) {
	m := Model{ID: "x", Tier: Tier2, InputPerMillion: 3.0, OutputPerMillion: 15.0}
	assert.InDelta(t, 3.0+15.0, m.Cost(1_000_000, 1_000_000), 1e-9)
	assert.InDelta(t, 0.0, m.Cost(0, 0), 1e-9)
}

const yamlTable = `
models:
  - id: cheap
    tier: 1
    input_per_million: 0.1
    output_per_million: 0.2
    capabilities: []
  - id: mid
    tier: tier2
    input_per_million: 3
    output_per_million: 15
    capabilities: [vision]
  - id: top
    tier: 3
    input_per_million: 15
    output_per_million: 75
    capabilities: [vision, reasoning]
`

const tomlTable = `
[[models]]
id = "cheap"
tier = 1
input_per_million = 0.1
output_per_million = 0.2
capabilities = []

[[models]]
id = "mid"
tier = "tier2"
input_per_million = 3.0
output_per_million = 15.0
capabilities = ["vision"]

[[models]]
id = "top"
tier = 3
input_per_million = 15.0
output_per_million = 75.0
capabilities = ["vision", "reasoning"]
`

const jsonTable = `{"models": [
  {"id": "cheap", "tier": 1, "input_per_million": 0.1, "output_per_million": 0.2, "capabilities": []},
  {"id": "mid", "tier": "tier2", "input_per_million": 3, "output_per_million": 15, "capabilities": ["vision"]},
  {"id": "top", "tier": 3, "input_per_million": 15, "output_per_million": 75, "capabilities": ["vision", "reasoning"]}
]}`

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"prices.yaml", yamlTable},
		{"prices.toml", tomlTable},
		{"prices.json", jsonTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cat, err := LoadFile(path)
			require.NoError(t, err)

			tier, ok := cat.TierOf("mid")
			require.True(t, ok)
			assert.Equal(t, Tier2, tier)

			top, ok := cat.Lookup("top")
			require.True(t, ok)
			assert.Equal(t, 75.0, top.OutputPerMillion)
			assert.True(t, top.Has(CapabilityReasoning))

			assert.Empty(t, cat.WithCapability(CapabilityVision, Tier1))
		})
	}
}

func TestParseMisconfigured(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		content string
	}{
		{
			name:   "missing output price",
			format: FormatYAML,
			content: `
models:
  - {id: a, tier: 1, input_per_million: 1, capabilities: []}
  - {id: b, tier: 2, input_per_million: 1, output_per_million: 1, capabilities: []}
  - {id: c, tier: 3, input_per_million: 1, output_per_million: 1, capabilities: []}
`,
		},
		{
			name:   "missing capabilities",
			format: FormatYAML,
			content: `
models:
  - {id: a, tier: 1, input_per_million: 1, output_per_million: 1}
  - {id: b, tier: 2, input_per_million: 1, output_per_million: 1, capabilities: []}
  - {id: c, tier: 3, input_per_million: 1, output_per_million: 1, capabilities: []}
`,
		},
		{
			name:    "missing tier",
			format:  FormatJSON,
			content: `{"models": [{"id": "a", "input_per_million": 1, "output_per_million": 1, "capabilities": []}]}`,
		},
		{
			name:    "unknown field",
			format:  FormatTOML,
			content: "[[models]]\nid = \"a\"\ntier = 1\nprice = 3\n",
		},
		{
			name:    "empty document",
			format:  FormatYAML,
			content: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), tt.format)
			assert.ErrorIs(t, err, ErrMisconfiguredPriceTable)
		})
	}
}

func TestLoadFileUnsupported(t *testing.T) {
	_, err := LoadFile("prices.ini")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSchema(t *testing.T) {
	data, err := SchemaJSON()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "taskroute price table", doc["title"])
	assert.Contains(t, string(data), "input_per_million")
	assert.Contains(t, string(data), "capabilities")
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prices.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlTable), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloads, err := Watch(ctx, path)
	require.NoError(t, err)

	updated := yamlTable + `
  - id: extra
    tier: 1
    input_per_million: 0.05
    output_per_million: 0.1
    capabilities: [vision]
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case r, ok := <-reloads:
			require.True(t, ok, "watch channel closed early")
			if r.Err != nil {
				// Partial writes can surface before the final content.
				continue
			}
			if _, found := r.Catalog.Lookup("extra"); found {
				cancel()
				for range reloads {
				}
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for price table reload")
		}
	}
}
