package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is returned by Dispatch when no rule produced a reply.
	ErrNoMatch = errors.New("no rule matched the request")

	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = errors.New("not found")

	// ErrTimeout is recorded when a rule or response exceeds the match timeout.
	ErrTimeout = errors.New("rule evaluation timed out")

	// ErrEmptyReply is recorded when a response builds a nil reply.
	ErrEmptyReply = errors.New("response built an empty reply")
)

// NotFoundError reports a missing rule or a rule without a bound response.
type NotFoundError struct {
	RuleID string
	// Unbound is set when the rule exists but has no response.
	Unbound bool
}

func (e *NotFoundError) Error() string {
	if e.Unbound {
		return fmt.Sprintf("response has not been set for the rule with ID '%s'", e.RuleID)
	}
	return fmt.Sprintf("failed to find a rule with ID '%s'", e.RuleID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PanicError is recorded when a plugin panics during dispatch.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}
