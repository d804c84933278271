package rules

import (
	"fmt"

	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/registry"
)

// Kind tags of the built-in rules.
const (
	KindPath       = "PATH"
	KindMethod     = "METHOD"
	KindComposite  = "COMPOSITE"
	KindHeader     = "HEADER"
	KindQuery      = "QUERY"
	KindPathGlob   = "PATH_GLOB"
	KindJSONPath   = "JSON_PATH"
	KindExpression = "EXPRESSION"
	KindBodySchema = "BODY_SCHEMA"
	KindXPath      = "XPATH"
	KindJWTClaim   = "JWT_CLAIM"
)

// RegisterDefaults registers every built-in rule kind in reg. baseEndpoint
// is the prefix PATH rules are resolved against.
func RegisterDefaults(reg *registry.Registry[engine.Rule], baseEndpoint string) {
	reg.Register(KindPath, pathParser(baseEndpoint), serializeWith(func(r *PathRule) any {
		return map[string]any{"path": r.Path}
	}))
	reg.Register(KindMethod, parseMethod, serializeWith(func(r *MethodRule) any {
		return map[string]any{"method": r.Method}
	}))
	reg.Register(KindComposite, compositeParser(reg), compositeSerializer(reg))
	reg.Register(KindHeader, parseHeader, serializeWith(func(r *HeaderRule) any {
		return map[string]any{"name": r.Name, "value": r.Value}
	}))
	reg.Register(KindQuery, parseQuery, serializeWith(func(r *QueryRule) any {
		return map[string]any{"name": r.Name, "value": r.Value}
	}))
	reg.Register(KindPathGlob, parseGlob, serializeWith(func(r *GlobRule) any {
		return map[string]any{"pattern": r.Pattern}
	}))
	reg.Register(KindJSONPath, parseJSONPath, serializeWith(func(r *JSONPathRule) any {
		return map[string]any{"conditions": r.Conditions}
	}))
	reg.Register(KindExpression, parseExpression, serializeWith(func(r *ExpressionRule) any {
		return map[string]any{"expression": r.Expression}
	}))
	reg.Register(KindBodySchema, parseSchema, serializeWith(func(r *SchemaRule) any {
		return map[string]any{"schema": r.Schema}
	}))
	reg.Register(KindXPath, parseXPath, serializeWith(func(r *XPathRule) any {
		return map[string]any{"conditions": r.Conditions}
	}))
	reg.Register(KindJWTClaim, parseJWTClaim, serializeWith(func(r *JWTClaimRule) any {
		return map[string]any{"claims": r.Claims}
	}))
}

// kinded carries the tag a rule was parsed under.
type kinded struct {
	kind string
}

func (k kinded) Kind() string { return k.kind }

// serializeWith adapts a typed parameter function into a registry
// serializer, rejecting instances of any other type.
func serializeWith[R engine.Rule](params func(R) any) registry.Serializer[engine.Rule] {
	return func(kind string, instance engine.Rule) (any, error) {
		r, ok := instance.(R)
		if !ok {
			return nil, registry.NewSerializeError(nil, "%s rule has unexpected type %T", kind, instance)
		}
		return params(r), nil
	}
}

// requireString returns the non-empty string value of key.
func requireString(kind string, parameters any, key string) (string, error) {
	m, ok := parameters.(map[string]any)
	if !ok {
		return "", registry.NewParseError(nil, "%s rule parameters must be an object with '%s' key", kind, key)
	}
	v, ok := m[key].(string)
	if !ok {
		return "", registry.NewParseError(nil, "%s rule parameters must be an object with '%s' key", kind, key)
	}
	return v, nil
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
