// Package logging configures the structured loggers used by loosed.
//
// Components accept a *slog.Logger through a SetLogger method and fall back
// to Nop() when none is given, so library users pay nothing for logging they
// did not ask for:
//
//	log := logging.New(logging.Config{
//	    Level:  logging.ParseLevel("debug"),
//	    Format: logging.FormatJSON,
//	})
//	manager.SetLogger(logging.Component(log, "manager"))
//
// Text output is meant for humans running the server by hand, JSON output
// for CI systems that collect logs of the test double next to the suite.
package logging
