package engine

import (
	"slices"
	"sync"
	"time"

	"github.com/getmockd/loosed/internal/id"
)

type ruleEntry struct {
	id   string
	rule Rule
}

// Manager owns the ordered set of active rules and their bound responses,
// and dispatches requests against them.
//
// Rules are evaluated in insertion order. All mutations are serialized by a
// single lock; Dispatch evaluates a snapshot taken under the read lock so
// plugin code never runs while the lock is held.
type Manager struct {
	mu        sync.RWMutex
	rules     []ruleEntry
	index     map[string]int
	responses map[string]Response

	newID        id.Generator
	observer     Observer
	matchTimeout time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithIDGenerator sets the source of candidate rule IDs.
func WithIDGenerator(gen id.Generator) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// WithObserver sets the observer receiving manager events.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithMatchTimeout bounds every predicate and builder call. Zero disables
// the bound.
func WithMatchTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.matchTimeout = d
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		index:     make(map[string]int),
		responses: make(map[string]Response),
		newID:     id.UUID,
		observer:  NopObserver{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddRule appends a rule and returns its newly generated ID.
func (m *Manager) AddRule(rule Rule) string {
	m.mu.Lock()
	ruleID := id.Unique(m.newID, func(candidate string) bool {
		_, taken := m.index[candidate]
		return taken
	})
	m.index[ruleID] = len(m.rules)
	m.rules = append(m.rules, ruleEntry{id: ruleID, rule: rule})
	m.mu.Unlock()

	m.observer.RuleAdded(ruleID, kindOf(rule))
	return ruleID
}

// GetRule returns the rule with the given ID.
func (m *Manager) GetRule(ruleID string) (Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pos, ok := m.index[ruleID]
	if !ok {
		return nil, &NotFoundError{RuleID: ruleID}
	}
	return m.rules[pos].rule, nil
}

// RemoveRule removes a rule and its bound response. Removing an unknown ID
// is a no-op.
func (m *Manager) RemoveRule(ruleID string) {
	m.mu.Lock()
	pos, ok := m.index[ruleID]
	if !ok {
		m.mu.Unlock()
		return
	}
	m.rules = slices.Delete(m.rules, pos, pos+1)
	delete(m.index, ruleID)
	for i := pos; i < len(m.rules); i++ {
		m.index[m.rules[i].id] = i
	}
	delete(m.responses, ruleID)
	m.mu.Unlock()

	m.observer.RuleRemoved(ruleID)
}

// RulesOrder returns the rule IDs in evaluation order.
func (m *Manager) RulesOrder() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order := make([]string, len(m.rules))
	for i, e := range m.rules {
		order[i] = e.id
	}
	return order
}

// SetResponse binds a response to a rule, replacing any previous binding.
func (m *Manager) SetResponse(ruleID string, response Response) error {
	m.mu.Lock()
	if _, ok := m.index[ruleID]; !ok {
		m.mu.Unlock()
		return &NotFoundError{RuleID: ruleID}
	}
	m.responses[ruleID] = response
	m.mu.Unlock()

	m.observer.ResponseSet(ruleID, kindOf(response))
	return nil
}

// GetResponse returns the response bound to a rule.
func (m *Manager) GetResponse(ruleID string) (Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.index[ruleID]; !ok {
		return nil, &NotFoundError{RuleID: ruleID}
	}
	response, ok := m.responses[ruleID]
	if !ok {
		return nil, &NotFoundError{RuleID: ruleID, Unbound: true}
	}
	return response, nil
}

// Len returns the number of active rules.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rules)
}

// kindOf reads a plugin's kind for event reporting, tolerating panics.
func kindOf(v interface{ Kind() string }) (kind string) {
	defer func() {
		if recover() != nil {
			kind = ""
		}
	}()
	if v == nil {
		return ""
	}
	return v.Kind()
}
