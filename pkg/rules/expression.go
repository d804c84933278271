package rules

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/registry"
)

// ExpressionRule matches when a boolean expr-lang expression holds for the
// request. The environment exposes:
//
//	method   string
//	path     string
//	headers  map[string]string  first value of each header, canonical names
//	query    map[string]string  first value of each query parameter
//	body     string
//	json     any                decoded body, nil unless it is JSON
//
// Example: method == "POST" && json.user.role == "admin".
type ExpressionRule struct {
	kinded
	Expression string

	program *vm.Program
}

// NewExpressionRule creates an EXPRESSION rule.
func NewExpressionRule(expression string) (*ExpressionRule, error) {
	return newExpressionRule(KindExpression, expression)
}

func newExpressionRule(kind, expression string) (*ExpressionRule, error) {
	program, err := expr.Compile(expression, expr.Env(expressionEnv{}), expr.AsBool())
	if err != nil {
		return nil, registry.NewParseError(err, "%s rule has invalid expression", kind)
	}
	return &ExpressionRule{kinded: kinded{kind}, Expression: expression, program: program}, nil
}

// Match implements engine.Rule.
func (r *ExpressionRule) Match(req *http.Request) (bool, error) {
	env, err := newExpressionEnv(req)
	if err != nil {
		return false, err
	}
	out, err := expr.Run(r.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}
	matched, _ := out.(bool)
	return matched, nil
}

type expressionEnv struct {
	Method  string            `expr:"method"`
	Path    string            `expr:"path"`
	Headers map[string]string `expr:"headers"`
	Query   map[string]string `expr:"query"`
	Body    string            `expr:"body"`
	JSON    any               `expr:"json"`
}

func newExpressionEnv(req *http.Request) (expressionEnv, error) {
	body, err := engine.RequestBody(req)
	if err != nil {
		return expressionEnv{}, err
	}
	env := expressionEnv{
		Method:  req.Method,
		Path:    req.URL.Path,
		Headers: firstValues(req.Header),
		Query:   firstValues(req.URL.Query()),
		Body:    string(body),
	}
	var decoded any
	if json.Unmarshal(body, &decoded) == nil {
		env.JSON = decoded
	}
	return env, nil
}

func firstValues(values map[string][]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func parseExpression(kind string, parameters any) (engine.Rule, error) {
	expression, err := requireString(kind, parameters, "expression")
	if err != nil {
		return nil, err
	}
	return newExpressionRule(kind, expression)
}
