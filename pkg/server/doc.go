// Package server assembles a runnable loosed server.
//
// New builds the rule and response registries with the built-in kinds, the
// engine.Manager with its observers, the configuration API and the data
// plane, and mounts them on one http.ServeMux:
//
//	{configurationEndpoint}...  configuration API (see package api)
//	{baseEndpoint}...           dynamic routes, any method
//	GET /metrics                Prometheus metrics, when enabled
//
// Custom kinds can be registered on Rules() and Responses() before Start.
// Handler can be used without a listener, for example with httptest.
package server
