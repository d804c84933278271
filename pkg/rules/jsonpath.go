package rules

import (
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/registry"
)

// JSONPathRule matches JSON request bodies. Each condition maps a JSONPath
// expression to the expected value; {"exists": true|false} checks presence
// instead. All conditions must hold. A body that is not JSON never matches.
type JSONPathRule struct {
	kinded
	Conditions map[string]any

	compiled map[string]jp.Expr
}

// NewJSONPathRule creates a JSON_PATH rule.
func NewJSONPathRule(conditions map[string]any) (*JSONPathRule, error) {
	return newJSONPathRule(KindJSONPath, conditions)
}

func newJSONPathRule(kind string, conditions map[string]any) (*JSONPathRule, error) {
	if len(conditions) == 0 {
		return nil, registry.NewParseError(nil, "%s rule requires at least one condition", kind)
	}
	compiled := make(map[string]jp.Expr, len(conditions))
	for path := range conditions {
		x, err := jp.ParseString(path)
		if err != nil {
			return nil, registry.NewParseError(err, "%s rule has invalid path '%s'", kind, path)
		}
		compiled[path] = x
	}
	return &JSONPathRule{kinded: kinded{kind}, Conditions: conditions, compiled: compiled}, nil
}

// Match implements engine.Rule.
func (r *JSONPathRule) Match(req *http.Request) (bool, error) {
	body, err := engine.RequestBody(req)
	if err != nil {
		return false, err
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return false, nil
	}

	for path, expected := range r.Conditions {
		if !matchJSONPath(r.compiled[path], expected, data) {
			return false, nil
		}
	}
	return true, nil
}

func matchJSONPath(x jp.Expr, expected, data any) bool {
	results := x.Get(data)

	if exists, ok := existenceCheck(expected); ok {
		return exists == (len(results) > 0)
	}
	for _, result := range results {
		if valuesEqual(result, expected) {
			return true
		}
	}
	return false
}

// existenceCheck recognizes {"exists": bool}.
func existenceCheck(expected any) (bool, bool) {
	m, ok := expected.(map[string]any)
	if !ok || len(m) != 1 {
		return false, false
	}
	exists, ok := m["exists"].(bool)
	return exists, ok
}

func valuesEqual(actual, expected any) bool {
	if reflect.DeepEqual(actual, expected) {
		return true
	}
	a, aok := toFloat64(actual)
	e, eok := toFloat64(expected)
	return aok && eok && a == e
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func parseJSONPath(kind string, parameters any) (engine.Rule, error) {
	var p struct {
		Conditions map[string]any `json:"conditions"`
	}
	if err := registry.DecodeParameters(parameters, &p); err != nil {
		return nil, err
	}
	return newJSONPathRule(kind, p.Conditions)
}
