package id

import (
	"github.com/google/uuid"
)

// Generator produces candidate identifiers.
type Generator func() string

// UUID returns a random UUID v4 string.
func UUID() string {
	return uuid.NewString()
}

// Unique draws from gen until it returns a value for which taken reports
// false. A nil gen falls back to UUID.
func Unique(gen Generator, taken func(string) bool) string {
	if gen == nil {
		gen = UUID
	}
	candidate := gen()
	for taken(candidate) {
		candidate = gen()
	}
	return candidate
}

// Sequence returns a generator that yields the given values in order and
// then falls back to UUID. It is meant for tests that need deterministic or
// colliding IDs.
func Sequence(values ...string) Generator {
	next := 0
	return func() string {
		if next < len(values) {
			v := values[next]
			next++
			return v
		}
		return UUID()
	}
}
