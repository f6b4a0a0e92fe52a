package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies a price table file encoding.
type Format string

// Supported price table formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatForPath returns the format implied by a file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// PriceTable is the on-disk price table document.
type PriceTable struct {
	Models []Entry `json:"models" yaml:"models" toml:"models" jsonschema:"required,minItems=1"`
}

// Entry is one model in a price table file. Prices and capabilities are
// pointers so a missing field can be told apart from a zero value.
type Entry struct {
	ID               string        `json:"id" yaml:"id" toml:"id" jsonschema:"required,minLength=1"`
	Tier             Tier          `json:"tier" yaml:"tier" toml:"tier" jsonschema:"required"`
	InputPerMillion  *float64      `json:"input_per_million" yaml:"input_per_million" toml:"input_per_million" jsonschema:"required,minimum=0"`
	OutputPerMillion *float64      `json:"output_per_million" yaml:"output_per_million" toml:"output_per_million" jsonschema:"required,minimum=0"`
	Capabilities     *[]Capability `json:"capabilities" yaml:"capabilities" toml:"capabilities" jsonschema:"required"`
	Priority         int           `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty"`
}

// Model converts the entry, reporting any missing required field.
func (e Entry) Model() (Model, error) {
	var missing []string
	if e.ID == "" {
		missing = append(missing, "id")
	}
	if e.Tier == TierUnknown {
		missing = append(missing, "tier")
	}
	if e.InputPerMillion == nil {
		missing = append(missing, "input_per_million")
	}
	if e.OutputPerMillion == nil {
		missing = append(missing, "output_per_million")
	}
	if e.Capabilities == nil {
		missing = append(missing, "capabilities")
	}
	if len(missing) > 0 {
		return Model{}, fmt.Errorf("%w: model %q missing %s",
			ErrMisconfiguredPriceTable, e.ID, strings.Join(missing, ", "))
	}

	return Model{
		ID:               e.ID,
		Tier:             e.Tier,
		InputPerMillion:  *e.InputPerMillion,
		OutputPerMillion: *e.OutputPerMillion,
		Capabilities:     *e.Capabilities,
		Priority:         e.Priority,
	}, nil
}

// Catalog validates every entry and builds a Catalog.
func (p PriceTable) Catalog() (*Catalog, error) {
	if len(p.Models) == 0 {
		return nil, fmt.Errorf("%w: no models", ErrMisconfiguredPriceTable)
	}
	models := make([]Model, 0, len(p.Models))
	for _, e := range p.Models {
		m, err := e.Model()
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return NewCatalog(models...)
}

// LoadFile reads and validates a price table file.
// The format is chosen by extension.
func LoadFile(path string) (*Catalog, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price table: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes and validates a price table document.
// Unknown fields are rejected so typos surface at initialization.
func Parse(data []byte, format Format) (*Catalog, error) {
	var table PriceTable

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&table); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: decode yaml: %v", ErrMisconfiguredPriceTable, err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &table)
		if err != nil {
			return nil, fmt.Errorf("%w: decode toml: %v", ErrMisconfiguredPriceTable, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%w: unknown toml keys %v", ErrMisconfiguredPriceTable, undecoded)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&table); err != nil {
			return nil, fmt.Errorf("%w: decode json: %v", ErrMisconfiguredPriceTable, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return table.Catalog()
}
