package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"github.com/getmockd/loosed/pkg/api/types"
	"github.com/getmockd/loosed/pkg/logging"
)

// Wire record keys.
const (
	KeyKind       = "kind"
	KeyParameters = "parameters"
)

// Kinded is implemented by every value a Registry can hold.
type Kinded interface {
	Kind() string
}

// Parser builds an instance of kind from its wire parameters.
type Parser[T Kinded] func(kind string, parameters any) (T, error)

// Serializer converts an instance of kind into wire parameters.
type Serializer[T Kinded] func(kind string, instance T) (any, error)

type entry[T Kinded] struct {
	parse     Parser[T]
	serialize Serializer[T]
}

// Registry is a thread-safe table of parsers and serializers keyed by kind.
type Registry[T Kinded] struct {
	mu      sync.RWMutex
	name    string
	entries map[string]entry[T]
	log     *slog.Logger
}

// New creates an empty registry. The name ("rule", "response") is used in
// error messages and logs.
func New[T Kinded](name string) *Registry[T] {
	return &Registry[T]{
		name:    name,
		entries: make(map[string]entry[T]),
		log:     logging.Nop(),
	}
}

// SetLogger sets the logger.
func (r *Registry[T]) SetLogger(log *slog.Logger) {
	if log == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = log
}

// Name returns the name the registry was created with.
func (r *Registry[T]) Name() string {
	return r.name
}

// Register associates a parser and a serializer with kind.
// Registering a kind again replaces the previous pair.
func (r *Registry[T]) Register(kind string, parse Parser[T], serialize Serializer[T]) {
	r.mu.Lock()
	r.entries[kind] = entry[T]{parse: parse, serialize: serialize}
	log := r.log
	r.mu.Unlock()

	log.Info("kind registered", "registry", r.name, "kind", kind)
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry[T]) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.entries))
	for kind := range r.entries {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func (r *Registry[T]) lookup(kind string) (entry[T], bool, *slog.Logger) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[kind]
	return e, ok, r.log
}

// Parse creates an instance from a wire record. data must be a
// map[string]any holding "kind" and "parameters".
func (r *Registry[T]) Parse(data any) (T, error) {
	var zero T

	record, ok := data.(map[string]any)
	if !ok {
		return zero, NewParseError(nil, "failed to parse %s: wrong data format", r.name)
	}

	rawKind, ok := record[KeyKind]
	if !ok {
		return zero, NewParseError(nil, "failed to parse %s: type not specified", r.name)
	}

	kind, _ := rawKind.(string)
	e, found, log := r.lookup(kind)
	if !found {
		return zero, NewParseError(nil, "failed to parse %s: unknown type '%v'", r.name, rawKind)
	}

	parameters, ok := record[KeyParameters]
	if !ok {
		return zero, NewParseError(nil, "failed to parse %s: parameters not specified", r.name)
	}

	instance, err := protect(func() (T, error) { return e.parse(kind, parameters) })
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			log.Debug("invalid parameters", "registry", r.name, "kind", kind, "error", err)
			return zero, err
		}
		log.Error("parser failed", "registry", r.name, "kind", kind, "error", err)
		return zero, &Error{Message: fmt.Sprintf("failed to create %s instance", r.name), Err: err}
	}
	if isNil(instance) {
		return zero, &Error{
			Message: fmt.Sprintf("failed to create %s instance", r.name),
			Err:     fmt.Errorf("parser for kind %q returned no instance", kind),
		}
	}

	log.Debug("parsed", "registry", r.name, "kind", kind)
	return instance, nil
}

// Serialize converts an instance into its wire record.
func (r *Registry[T]) Serialize(instance T) (types.Record, error) {
	if isNil(instance) {
		return types.Record{}, NewSerializeError(nil, "failed to obtain type of the %s", r.name)
	}

	kind, err := protect(func() (string, error) { return instance.Kind(), nil })
	if err != nil {
		return types.Record{}, NewSerializeError(err, "failed to obtain type of the %s", r.name)
	}

	e, found, log := r.lookup(kind)
	if !found {
		return types.Record{}, NewSerializeError(nil, "failed to serialize %s: unknown type '%s'", r.name, kind)
	}

	parameters, err := protect(func() (any, error) { return e.serialize(kind, instance) })
	if err != nil {
		var serializeErr *SerializeError
		if errors.As(err, &serializeErr) {
			log.Warn("instance cannot be serialized", "registry", r.name, "kind", kind, "error", err)
			return types.Record{}, err
		}
		log.Error("serializer failed", "registry", r.name, "kind", kind, "error", err)
		return types.Record{}, &Error{Message: fmt.Sprintf("failed to serialize %s", r.name), Err: err}
	}

	return types.Record{Kind: kind, Parameters: parameters}, nil
}

// DecodeParameters converts raw wire parameters into dst, which must be a
// pointer to a struct with json tags. Failures are reported as *ParseError.
func DecodeParameters(parameters any, dst any) error {
	if _, ok := parameters.(map[string]any); !ok {
		return NewParseError(nil, "parameters must be an object")
	}
	raw, err := json.Marshal(parameters)
	if err != nil {
		return NewParseError(err, "parameters are not representable as JSON")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return NewParseError(err, "invalid parameters")
	}
	return nil
}

// protect runs fn, converting a panic into a *PanicError.
func protect[V any](fn func() (V, error)) (v V, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero V
			v, err = zero, &PanicError{Value: rec}
		}
	}()
	return fn()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
