package ingest

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/listing.json
var schemaFS embed.FS

const listingSchemaPath = "schema/listing.json"

// Validator checks event bodies against the processed listing schema.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	data, err := schemaFS.ReadFile(listingSchemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read listing schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(listingSchemaPath, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to add listing schema: %w", err)
	}
	schema, err := compiler.Compile(listingSchemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile listing schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate reports whether body is a JSON document matching the schema.
func (v *Validator) Validate(body []byte) error {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("message body is not valid JSON: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
