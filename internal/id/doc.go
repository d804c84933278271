// Package id generates identifiers for rules.
//
// Rule IDs are random UUID v4 strings. Randomness makes collisions
// astronomically unlikely but not impossible, so callers that hold a set of
// live IDs draw through Unique, which retries until the candidate is free.
// The generator is a plain function so tests can force collisions.
package id
