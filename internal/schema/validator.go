// Package schema validates backend responses against embedded JSON Schemas
// before they are decoded into result structs.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Response kinds with a registered schema.
const (
	Transcription       = "transcription.schema.json"
	VendorTranscription = "vendor-transcription.schema.json"
	Analysis            = "analysis.schema.json"
)

const transcriptionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["text"],
  "properties": {
    "text": {"type": "string"},
    "confidence": {"type": "number"}
  }
}`

// The vendor omits confidence and may send null text.
const vendorTranscriptionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "text": {"type": ["string", "null"]}
  }
}`

const analysisSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["animal_count", "repetitions", "memory_score", "brain_health_score", "report"],
  "properties": {
    "animal_count": {"type": "integer", "minimum": 0},
    "repetitions": {"type": "integer", "minimum": 0},
    "memory_score": {"type": "integer"},
    "brain_health_score": {"type": "integer"},
    "report": {"type": "string"}
  }
}`

// Validator holds the compiled response schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles the embedded schemas. It panics on a broken schema, which
// can only happen at development time.
func New() *Validator {
	v := &Validator{schemas: make(map[string]*jsonschema.Schema)}
	for name, raw := range map[string]string{
		Transcription:       transcriptionSchema,
		VendorTranscription: vendorTranscriptionSchema,
		Analysis:            analysisSchema,
	} {
		v.schemas[name] = mustCompileSchema(raw, name)
	}
	return v
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// Validate checks a raw JSON body against the named schema.
func (v *Validator) Validate(name string, body []byte) error {
	sch, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("no schema registered for %q", name)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema %s: %w", name, err)
	}
	return nil
}
