// Package cli implements the loosed command-line interface.
//
//	loosed serve      run the stub server in the foreground
//	loosed validate   check a configuration file and its seed rules
//	loosed kinds      list the built-in rule and response kinds
//	loosed version    print build information
package cli
