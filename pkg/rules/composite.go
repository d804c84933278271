package rules

import (
	"fmt"
	"net/http"

	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/registry"
)

// CompositeRule matches when every child matches. A composite without
// children never matches.
type CompositeRule struct {
	kinded
	Children []engine.Rule
}

// NewCompositeRule creates a COMPOSITE rule.
func NewCompositeRule(children ...engine.Rule) *CompositeRule {
	return &CompositeRule{kinded: kinded{KindComposite}, Children: children}
}

// Match implements engine.Rule. Evaluation stops at the first child that
// does not match or fails.
func (r *CompositeRule) Match(req *http.Request) (bool, error) {
	if len(r.Children) == 0 {
		return false, nil
	}
	for i, child := range r.Children {
		ok, err := child.Match(req)
		if err != nil {
			return false, fmt.Errorf("child %d: %w", i, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Children are parsed and serialized through the same registry, so any
// registered kind may be nested.
func compositeParser(reg *registry.Registry[engine.Rule]) registry.Parser[engine.Rule] {
	return func(kind string, parameters any) (engine.Rule, error) {
		m, ok := parameters.(map[string]any)
		if !ok {
			return nil, registry.NewParseError(nil, "%s rule parameters must be an object with 'children' key", kind)
		}
		data, ok := m["children"].([]any)
		if !ok {
			return nil, registry.NewParseError(nil, "%s rule parameters must be an object with 'children' key", kind)
		}

		children := make([]engine.Rule, 0, len(data))
		for _, d := range data {
			child, err := reg.Parse(d)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return &CompositeRule{kinded: kinded{kind}, Children: children}, nil
	}
}

func compositeSerializer(reg *registry.Registry[engine.Rule]) registry.Serializer[engine.Rule] {
	return func(kind string, instance engine.Rule) (any, error) {
		r, ok := instance.(*CompositeRule)
		if !ok {
			return nil, registry.NewSerializeError(nil, "%s rule has unexpected type %T", kind, instance)
		}

		children := make([]any, 0, len(r.Children))
		for _, child := range r.Children {
			record, err := reg.Serialize(child)
			if err != nil {
				return nil, err
			}
			children = append(children, record.AsMap())
		}
		return map[string]any{"children": children}, nil
	}
}
