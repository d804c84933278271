package rules

import (
	"net/http"
	"slices"

	"github.com/getmockd/loosed/pkg/engine"
)

// HeaderRule matches requests carrying header Name with Value. Header names
// are case-insensitive; any of several values may match.
type HeaderRule struct {
	kinded
	Name  string
	Value string
}

// NewHeaderRule creates a HEADER rule.
func NewHeaderRule(name, value string) *HeaderRule {
	return &HeaderRule{kinded: kinded{KindHeader}, Name: name, Value: value}
}

// Match implements engine.Rule.
func (r *HeaderRule) Match(req *http.Request) (bool, error) {
	return slices.Contains(req.Header.Values(r.Name), r.Value), nil
}

func parseHeader(kind string, parameters any) (engine.Rule, error) {
	name, value, err := nameValue(kind, parameters)
	if err != nil {
		return nil, err
	}
	return &HeaderRule{kinded: kinded{kind}, Name: name, Value: value}, nil
}

// QueryRule matches requests whose query string has parameter Name set
// to Value.
type QueryRule struct {
	kinded
	Name  string
	Value string
}

// NewQueryRule creates a QUERY rule.
func NewQueryRule(name, value string) *QueryRule {
	return &QueryRule{kinded: kinded{KindQuery}, Name: name, Value: value}
}

// Match implements engine.Rule.
func (r *QueryRule) Match(req *http.Request) (bool, error) {
	return slices.Contains(req.URL.Query()[r.Name], r.Value), nil
}

func parseQuery(kind string, parameters any) (engine.Rule, error) {
	name, value, err := nameValue(kind, parameters)
	if err != nil {
		return nil, err
	}
	return &QueryRule{kinded: kinded{kind}, Name: name, Value: value}, nil
}

func nameValue(kind string, parameters any) (string, string, error) {
	name, err := requireString(kind, parameters, "name")
	if err != nil {
		return "", "", err
	}
	value, err := requireString(kind, parameters, "value")
	if err != nil {
		return "", "", err
	}
	return name, value, nil
}
