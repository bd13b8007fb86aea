package main

import (
	"time"

	"github.com/xyproto/env/v2"
)

// Config holds the settings that can be overridden either from the command
// line or from the environment, grounded on main.go's VerboseMode-style
// global flags, generalized so a CI pipeline can set ATASM_VERBOSE=1 instead
// of threading --verbose through a wrapper script.
type Config struct {
	Verbose  bool
	Watch    bool
	Debounce time.Duration
}

// defaultConfig reads environment defaults before flag.Parse overrides them.
// Flags always win over the environment when both are given.
func defaultConfig() Config {
	return Config{
		Verbose:  env.Bool("ATASM_VERBOSE"),
		Watch:    env.Bool("ATASM_WATCH"),
		Debounce: env.Duration("ATASM_DEBOUNCE", 500*time.Millisecond),
	}
}
