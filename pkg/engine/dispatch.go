package engine

import (
	"fmt"
	"net/http"
	"time"
)

type candidate struct {
	id       string
	rule     Rule
	response Response
}

func (m *Manager) snapshot() []candidate {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]candidate, len(m.rules))
	for i, e := range m.rules {
		out[i] = candidate{id: e.id, rule: e.rule, response: m.responses[e.id]}
	}
	return out
}

// Dispatch evaluates the rules in order and returns the reply built by the
// first matching rule with a bound response. A rule whose predicate or
// builder fails is skipped. ErrNoMatch is returned when nothing replies.
func (m *Manager) Dispatch(r *http.Request) (*Reply, error) {
	// Rules abandoned after a timeout may still be reading the body.
	if _, ok := cachedBody(r); !ok {
		body, err := RequestBody(r)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		r = WithBody(r, body)
	}

	for _, c := range m.snapshot() {
		matched, err := isolate(m.matchTimeout, func() (bool, error) {
			return c.rule.Match(r)
		})
		if err != nil {
			m.observer.RuleFailed(c.id, StageMatch, err)
			continue
		}
		if !matched {
			continue
		}
		if c.response == nil {
			m.observer.RuleUnbound(c.id)
			continue
		}

		reply, err := isolate(m.matchTimeout, func() (*Reply, error) {
			return c.response.Build(r, c.rule)
		})
		if err == nil && reply == nil {
			err = ErrEmptyReply
		}
		if err != nil {
			m.observer.RuleFailed(c.id, StageBuild, err)
			continue
		}

		m.observer.Matched(c.id)
		return reply, nil
	}

	m.observer.Missed()
	return nil, ErrNoMatch
}

// isolate runs a plugin call, turning panics into *PanicError and, when
// timeout is positive, giving up with ErrTimeout once it elapses. An
// abandoned call keeps running in its goroutine; its result is discarded.
func isolate[T any](timeout time.Duration, fn func() (T, error)) (T, error) {
	if timeout <= 0 {
		return recovered(fn)
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := recovered(fn)
		done <- result{v: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res.v, res.err
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}

func recovered[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			v, err = zero, &PanicError{Value: rec}
		}
	}()
	return fn()
}
