package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// Tier represents a model cost/capability tier.
// Tiers are totally ordered: Tier1 < Tier2 < Tier3.
type Tier int

// Tier constants. The zero value is TierUnknown.
const (
	TierUnknown Tier = iota
	Tier1
	Tier2
	Tier3
)

// MinTier and MaxTier bound the valid tiers.
const (
	MinTier = Tier1
	MaxTier = Tier3
)

// Tiers lists all valid tiers in ascending order.
var Tiers = []Tier{Tier1, Tier2, Tier3}

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case Tier1:
		return "tier1"
	case Tier2:
		return "tier2"
	case Tier3:
		return "tier3"
	default:
		return "unknown"
	}
}

// Valid returns true if t is one of Tier1, Tier2 or Tier3.
func (t Tier) Valid() bool {
	return t >= MinTier && t <= MaxTier
}

// Next returns the tier strictly above t.
// Returns (t, false) if t is already MaxTier or invalid.
func (t Tier) Next() (Tier, bool) {
	if !t.Valid() || t >= MaxTier {
		return t, false
	}
	return t + 1, true
}

// Max returns the higher of two tiers.
func Max(a, b Tier) Tier {
	if a > b {
		return a
	}
	return b
}

// ParseTier converts a tier name to a Tier.
// Accepts "tier2", "Tier2", "t2" and "2".
func ParseTier(s string) (Tier, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimPrefix(v, "tier")
	v = strings.TrimPrefix(v, "t")
	v = strings.TrimSpace(strings.TrimPrefix(v, "-"))

	n, err := strconv.Atoi(v)
	if err != nil || !Tier(n).Valid() {
		return TierUnknown, fmt.Errorf("invalid tier %q", s)
	}
	return Tier(n), nil
}

// MarshalText implements encoding.TextMarshaler. TierUnknown encodes as
// "unknown"; other out-of-range values are an error.
func (t Tier) MarshalText() ([]byte, error) {
	if t == TierUnknown {
		return []byte(t.String()), nil
	}
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Used by the YAML and TOML decoders for both string and integer values.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// UnmarshalJSON accepts either a JSON number or a tier name string.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if !Tier(n).Valid() {
			return fmt.Errorf("invalid tier %d", n)
		}
		*t = Tier(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tier must be a number or string: %w", err)
	}
	return t.UnmarshalText([]byte(s))
}

// JSONSchema describes the accepted tier encodings.
func (Tier) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Description: "Model tier: 1-3 or tier1-tier3",
		OneOf: []*jsonschema.Schema{
			{Type: "integer", Minimum: json.Number("1"), Maximum: json.Number("3")},
			{Type: "string", Pattern: `^([Tt]([Ii][Ee][Rr])?)?-?[1-3]$`},
		},
	}
}
