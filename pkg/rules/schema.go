package rules

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/registry"
)

const schemaResource = "schema.json"

// SchemaRule matches JSON request bodies that validate against a JSON
// Schema (draft 2020-12 unless the schema declares otherwise).
type SchemaRule struct {
	kinded
	Schema any

	compiled *jsonschema.Schema
}

// NewSchemaRule creates a BODY_SCHEMA rule.
func NewSchemaRule(schema any) (*SchemaRule, error) {
	return newSchemaRule(KindBodySchema, schema)
}

func newSchemaRule(kind string, schema any) (*SchemaRule, error) {
	if schema == nil {
		return nil, registry.NewParseError(nil, "%s rule parameters must be an object with 'schema' key", kind)
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, registry.NewParseError(err, "%s rule schema is not valid JSON", kind)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(schemaResource, bytes.NewReader(raw)); err != nil {
		return nil, registry.NewParseError(err, "%s rule schema cannot be loaded", kind)
	}
	compiled, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, registry.NewParseError(err, "%s rule schema cannot be compiled", kind)
	}
	return &SchemaRule{kinded: kinded{kind}, Schema: schema, compiled: compiled}, nil
}

// Match implements engine.Rule.
func (r *SchemaRule) Match(req *http.Request) (bool, error) {
	body, err := engine.RequestBody(req)
	if err != nil {
		return false, err
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return false, nil
	}
	return r.compiled.Validate(data) == nil, nil
}

func parseSchema(kind string, parameters any) (engine.Rule, error) {
	m, ok := parameters.(map[string]any)
	if !ok {
		return nil, registry.NewParseError(nil, "%s rule parameters must be an object with 'schema' key", kind)
	}
	return newSchemaRule(kind, m["schema"])
}
