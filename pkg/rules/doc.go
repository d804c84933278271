// Package rules provides the built-in rule kinds.
//
// Each kind is a Go type implementing engine.Rule together with a parser and
// serializer registered under its kind tag by RegisterDefaults:
//
//	PATH         exact URL path, resolved against the base endpoint
//	METHOD       HTTP method, case-insensitive
//	COMPOSITE    all child rules match
//	HEADER       request header equals a value
//	QUERY        query parameter equals a value
//	PATH_GLOB    URL path matches a doublestar pattern
//	JSON_PATH    JSON body satisfies JSONPath conditions
//	EXPRESSION   expr-lang boolean expression over the request
//	BODY_SCHEMA  JSON body validates against a JSON Schema
//	XPATH        XML body satisfies XPath conditions
//	JWT_CLAIM    bearer token carries the given claims
//
// Serialized parameters always parse back into an equivalent rule.
package rules
