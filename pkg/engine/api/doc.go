// Package api implements the configuration API of the stub server.
//
// API holds the framework-agnostic operations: each one translates a
// configuration request into registry and Manager calls and returns a
// Result carrying the HTTP status and the envelope to send. Server mounts
// those operations on an http.ServeMux under the configuration prefix:
//
//	POST   {prefix}rules              create a rule
//	GET    {prefix}rules              list rules in evaluation order
//	GET    {prefix}rule/{ruleID}      fetch a rule
//	DELETE {prefix}rule/{ruleID}      remove a rule and its response
//	POST   {prefix}response/{ruleID}  bind a response to a rule
//	GET    {prefix}response/{ruleID}  fetch the bound response
//	GET    {prefix}health             report liveness and the rule count
//
// SetCORS additionally answers preflight requests for browser clients.
//
// The API has no authentication and is meant to be reachable only by the
// test suite that drives the stub.
package api
