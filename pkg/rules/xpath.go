package rules

import (
	"net/http"
	"strings"

	"github.com/beevik/etree"

	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/registry"
)

// XPathRule matches XML request bodies. Each condition maps an etree path
// ("/Envelope/Body/order/id", "//id", "/order/@currency") to the expected
// trimmed text. A body that is not XML never matches.
type XPathRule struct {
	kinded
	Conditions map[string]string

	compiled map[string]etree.Path
}

// NewXPathRule creates an XPATH rule.
func NewXPathRule(conditions map[string]string) (*XPathRule, error) {
	return newXPathRule(KindXPath, conditions)
}

func newXPathRule(kind string, conditions map[string]string) (*XPathRule, error) {
	if len(conditions) == 0 {
		return nil, registry.NewParseError(nil, "%s rule requires at least one condition", kind)
	}
	compiled := make(map[string]etree.Path, len(conditions))
	for path := range conditions {
		elemPath, _ := splitAttr(path)
		p, err := etree.CompilePath(elemPath)
		if err != nil {
			return nil, registry.NewParseError(err, "%s rule has invalid path '%s'", kind, path)
		}
		compiled[path] = p
	}
	return &XPathRule{kinded: kinded{kind}, Conditions: conditions, compiled: compiled}, nil
}

// Match implements engine.Rule.
func (r *XPathRule) Match(req *http.Request) (bool, error) {
	body, err := engine.RequestBody(req)
	if err != nil {
		return false, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil || doc.Root() == nil {
		return false, nil
	}

	for path, expected := range r.Conditions {
		actual, found := r.extract(doc, path)
		if !found || actual != expected {
			return false, nil
		}
	}
	return true, nil
}

func (r *XPathRule) extract(doc *etree.Document, path string) (string, bool) {
	elem := doc.FindElementPath(r.compiled[path])
	if elem == nil {
		return "", false
	}
	if _, attr := splitAttr(path); attr != "" {
		a := elem.SelectAttr(attr)
		if a == nil {
			return "", false
		}
		return a.Value, true
	}
	return strings.TrimSpace(elem.Text()), true
}

// splitAttr separates a trailing "/@attr" from an element path.
func splitAttr(path string) (string, string) {
	i := strings.LastIndex(path, "/@")
	if i < 0 {
		return path, ""
	}
	return path[:i], path[i+2:]
}

func parseXPath(kind string, parameters any) (engine.Rule, error) {
	var p struct {
		Conditions map[string]string `json:"conditions"`
	}
	if err := registry.DecodeParameters(parameters, &p); err != nil {
		return nil, err
	}
	return newXPathRule(kind, p.Conditions)
}
