package model

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the price table file format.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		FieldNameTag:   "json",
	}
	s := r.Reflect(&PriceTable{})
	s.Title = "taskroute price table"
	return s
}

// SchemaJSON returns the price table schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal price table schema: %w", err)
	}
	return data, nil
}
