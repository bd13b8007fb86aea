package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const versionString = "atasm 0.1.0"

// cliOptions is the fully-resolved result of parsing argv plus the
// environment, grounded on main.go's flag.String/flag.Bool block and its
// flag.Visit-based explicit-flag detection.
type cliOptions struct {
	input    string
	output   string
	verbose  bool
	watch    bool
	debounce time.Duration
}

// parseArgs mirrors main.go's flag setup: flags first, then the positional
// input (and optional output) filename. Go's flag package stops parsing at
// the first non-flag argument, so flags must precede the filenames.
func parseArgs(args []string) (*cliOptions, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("atasm", flag.ContinueOnError)
	var verbose = fs.Bool("v", cfg.Verbose, "verbose mode (show encoding and section-layout diagnostics)")
	var verboseLong = fs.Bool("verbose", cfg.Verbose, "verbose mode (show encoding and section-layout diagnostics)")
	var watchFlag = fs.Bool("watch", cfg.Watch, "watch mode: re-assemble whenever the input file changes")
	var outputFlag = fs.String("o", "", "output object filename (default: input with .o extension)")
	var outputLongFlag = fs.String("output", "", "output object filename (default: input with .o extension)")
	var versionShort = fs.Bool("V", false, "print version information and exit")
	var version = fs.Bool("version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *version || *versionShort {
		fmt.Println(versionString)
		os.Exit(0)
	}

	opts := &cliOptions{
		verbose:  *verbose || *verboseLong,
		watch:    *watchFlag,
		debounce: cfg.Debounce,
	}

	outputFlagProvided := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "o" || f.Name == "output" {
			outputFlagProvided = true
		}
	})

	rest := fs.Args()
	if len(rest) < 1 {
		return nil, fmt.Errorf("usage: atasm [flags] <input.s> [output.o]")
	}
	opts.input = rest[0]

	if len(rest) >= 2 {
		opts.output = rest[1]
	} else if outputFlagProvided {
		opts.output = *outputLongFlag
		if *outputFlag != "" {
			opts.output = *outputFlag
		}
	} else {
		ext := filepath.Ext(opts.input)
		opts.output = opts.input[:len(opts.input)-len(ext)] + ".o"
	}

	return opts, nil
}
