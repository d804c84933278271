package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getmockd/loosed/pkg/api/types"
	"github.com/getmockd/loosed/pkg/engine"
	"github.com/getmockd/loosed/pkg/logging"
	"github.com/getmockd/loosed/pkg/registry"
)

// RuleStore is the part of engine.Manager the API drives.
type RuleStore interface {
	AddRule(rule engine.Rule) string
	GetRule(ruleID string) (engine.Rule, error)
	RemoveRule(ruleID string)
	RulesOrder() []string
	SetResponse(ruleID string, response engine.Response) error
	GetResponse(ruleID string) (engine.Response, error)
}

// Result is the outcome of an API operation.
type Result struct {
	Status   int
	Envelope types.Envelope
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Envelope.Status == types.StatusSuccess
}

// API translates configuration operations into registry and store calls.
type API struct {
	store     RuleStore
	rules     *registry.Registry[engine.Rule]
	responses *registry.Registry[engine.Response]
	version   int
	log       *slog.Logger
}

// New creates an API over a store and the two registries.
func New(store RuleStore, rules *registry.Registry[engine.Rule], responses *registry.Registry[engine.Response]) *API {
	return &API{
		store:     store,
		rules:     rules,
		responses: responses,
		version:   types.DefaultVersion,
		log:       logging.Nop(),
	}
}

// SetLogger sets the logger.
func (a *API) SetLogger(log *slog.Logger) {
	if log != nil {
		a.log = log
	}
}

func (a *API) success(data any) Result {
	return Result{Status: http.StatusOK, Envelope: types.NewEnvelope(a.version, data, nil)}
}

func (a *API) failure(status int, format string, args ...any) Result {
	apiErr := &types.APIError{Description: fmt.Sprintf(format, args...)}
	return Result{Status: status, Envelope: types.NewEnvelope(a.version, nil, apiErr)}
}

// CreateRule parses a rule record, adds the rule and returns its record
// with the new rule ID.
func (a *API) CreateRule(data any) Result {
	rule, err := a.rules.Parse(data)
	if err != nil {
		var parseErr *registry.ParseError
		if errors.As(err, &parseErr) {
			a.log.Debug("rule rejected", "error", err)
			return a.failure(http.StatusBadRequest,
				"Failed to create a rule for specified parameters. Error: '%s'", err)
		}
		a.log.Error("rule creation failed", "error", err)
		return a.failure(http.StatusInternalServerError, "Exception has been raised during rule creation")
	}

	ruleID := a.store.AddRule(rule)

	record, err := a.rules.Serialize(rule)
	if err != nil {
		a.store.RemoveRule(ruleID)
		a.log.Error("rule rolled back, it cannot be serialized", "ruleID", ruleID, "error", err)
		return a.failure(http.StatusInternalServerError, "Rule may be created, but can't be serialized")
	}

	a.log.Info("rule created", "ruleID", ruleID, "kind", record.Kind)
	return a.success(types.NewRuleRecord(ruleID, record))
}

// GetRule returns the record of a rule.
func (a *API) GetRule(ruleID string) Result {
	rule, err := a.store.GetRule(ruleID)
	if err != nil {
		return a.failure(http.StatusNotFound, "Failed to find rule with ID '%s'", ruleID)
	}

	record, err := a.rules.Serialize(rule)
	if err != nil {
		a.log.Error("rule cannot be serialized", "ruleID", ruleID, "error", err)
		return a.failure(http.StatusInternalServerError, "Exception has been raised during serialization of the rule")
	}

	return a.success(types.NewRuleRecord(ruleID, record))
}

// DeleteRule removes a rule and its response. Unknown IDs are ignored.
func (a *API) DeleteRule(ruleID string) Result {
	a.store.RemoveRule(ruleID)
	a.log.Info("rule deleted", "ruleID", ruleID)
	return a.success(nil)
}

// ListRules returns the records of all rules in evaluation order.
func (a *API) ListRules() Result {
	records := make([]types.RuleRecord, 0)
	for _, ruleID := range a.store.RulesOrder() {
		rule, err := a.store.GetRule(ruleID)
		if err != nil {
			// Removed since RulesOrder was taken.
			continue
		}
		record, err := a.rules.Serialize(rule)
		if err != nil {
			a.log.Error("rule cannot be serialized", "ruleID", ruleID, "error", err)
			return a.failure(http.StatusInternalServerError,
				"Exception has been raised during serialization of the rule '%s'", ruleID)
		}
		records = append(records, types.NewRuleRecord(ruleID, record))
	}
	return a.success(records)
}

// SetResponse parses a response record and binds it to a rule. The
// response is serialized before binding so that an unrepresentable response
// is never stored.
func (a *API) SetResponse(ruleID string, data any) Result {
	response, err := a.responses.Parse(data)
	if err != nil {
		var parseErr *registry.ParseError
		if errors.As(err, &parseErr) {
			a.log.Debug("response rejected", "ruleID", ruleID, "error", err)
			return a.failure(http.StatusBadRequest,
				"Failed to create a response for specified parameters. Error: '%s'", err)
		}
		a.log.Error("response creation failed", "ruleID", ruleID, "error", err)
		return a.failure(http.StatusInternalServerError, "Exception has been raised during response creation")
	}

	record, err := a.responses.Serialize(response)
	if err != nil {
		a.log.Error("response cannot be serialized", "ruleID", ruleID, "error", err)
		return a.failure(http.StatusInternalServerError, "Response can't be serialized")
	}

	if err := a.store.SetResponse(ruleID, response); err != nil {
		a.log.Debug("response for unknown rule", "ruleID", ruleID)
		return a.failure(http.StatusBadRequest, "Failed to create a response: Rule does not exist")
	}

	a.log.Info("response set", "ruleID", ruleID, "kind", record.Kind)
	return a.success(record)
}

// GetResponse returns the record of the response bound to a rule.
func (a *API) GetResponse(ruleID string) Result {
	response, err := a.store.GetResponse(ruleID)
	if err != nil {
		return a.failure(http.StatusNotFound, "Failed to get response for the rule '%s'", ruleID)
	}

	record, err := a.responses.Serialize(response)
	if err != nil {
		a.log.Error("response cannot be serialized", "ruleID", ruleID, "error", err)
		return a.failure(http.StatusInternalServerError, "Response can't be serialized")
	}

	return a.success(record)
}

// Health reports that the API is serving and how many rules are held.
func (a *API) Health() Result {
	return a.success(map[string]any{
		"status": "healthy",
		"rules":  len(a.store.RulesOrder()),
	})
}
