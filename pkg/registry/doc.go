// Package registry maps kind tags to parse/serialize behavior.
//
// A Registry is instantiated once per capability: one for rules and one for
// responses. Plugin authors register a parser that turns the wire parameters
// of a kind into an instance, and a serializer that turns the instance back
// into parameters:
//
//	rules := registry.New[engine.Rule]("rule")
//	rules.Register("METHOD", parseMethod, serializeMethod)
//
//	rule, err := rules.Parse(map[string]any{
//	    "kind":       "METHOD",
//	    "parameters": map[string]any{"method": "GET"},
//	})
//
// Errors are typed. A *ParseError means the input data is wrong, a
// *SerializeError means the instance cannot be represented, and *Error wraps
// anything else a plugin returned or panicked with.
package registry
