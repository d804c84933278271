// Package types provides the wire types shared by the configuration API,
// its HTTP wiring and the client transports.
package types

// DefaultVersion is the configuration API version reported in every envelope.
const DefaultVersion = 1

// Status is the outcome reported by an envelope.
type Status string

// Envelope statuses.
const (
	StatusSuccess Status = "SUCCESS"
	StatusFailure Status = "FAILURE"
)

// ErrorInfo is the error member of a failure envelope.
type ErrorInfo struct {
	Description string `json:"description"`
}

// Envelope is the uniform wrapper around every configuration API response.
// Error and Data are mutually exclusive.
type Envelope struct {
	Version int        `json:"version"`
	Status  Status     `json:"status"`
	Error   *ErrorInfo `json:"error,omitempty"`
	Data    any        `json:"data,omitempty"`
}

// APIError is an error reported by the configuration API.
type APIError struct {
	Description string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Description
}

// NewEnvelope builds an envelope of the given version. The status is derived
// only from apiErr; when apiErr is set, data is dropped.
func NewEnvelope(version int, data any, apiErr *APIError) Envelope {
	if apiErr != nil {
		return Envelope{
			Version: version,
			Status:  StatusFailure,
			Error:   &ErrorInfo{Description: apiErr.Description},
		}
	}
	return Envelope{
		Version: version,
		Status:  StatusSuccess,
		Data:    data,
	}
}

// Success builds a success envelope with the default version.
func Success(data any) Envelope {
	return NewEnvelope(DefaultVersion, data, nil)
}

// Failure builds a failure envelope with the default version.
func Failure(description string) Envelope {
	return NewEnvelope(DefaultVersion, nil, &APIError{Description: description})
}

// Err returns the envelope's error as an *APIError, or nil on success.
func (e Envelope) Err() *APIError {
	if e.Error == nil {
		return nil
	}
	return &APIError{Description: e.Error.Description}
}

// Record is the wire form of a rule or a response.
type Record struct {
	Kind       string `json:"kind"`
	Parameters any    `json:"parameters"`
}

// RuleRecord is the wire form of a rule registered in the manager.
type RuleRecord struct {
	RuleID     string `json:"ruleID"`
	Kind       string `json:"kind"`
	Parameters any    `json:"parameters"`
}

// NewRuleRecord merges a rule ID into a serialized rule.
func NewRuleRecord(ruleID string, rec Record) RuleRecord {
	return RuleRecord{
		RuleID:     ruleID,
		Kind:       rec.Kind,
		Parameters: rec.Parameters,
	}
}

// Record strips the rule ID.
func (r RuleRecord) Record() Record {
	return Record{Kind: r.Kind, Parameters: r.Parameters}
}

// AsMap converts a record into the generic form accepted by registry parsers.
func (r Record) AsMap() map[string]any {
	return map[string]any{
		"kind":       r.Kind,
		"parameters": r.Parameters,
	}
}
