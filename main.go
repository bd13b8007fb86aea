package main

import (
	"fmt"
	"os"

	"github.com/lasarus/atasm/internal/objfile"
)

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	VerboseMode = opts.verbose
	objfile.VerboseMode = opts.verbose

	if opts.watch {
		runWatch(opts)
		return
	}

	if err := assembleFile(opts.input, opts.output); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// assembleFile assembles one source file and writes the resulting ELF64
// object, grounded on main.c's read-assemble-write pipeline.
func assembleFile(input, output string) error {
	src, err := os.ReadFile(input)
	if err != nil {
		return &IOError{Path: input, Err: err}
	}

	store, err := Assemble(string(src))
	if err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}

	obj, err := objfile.WriteELF(store)
	if err != nil {
		return fmt.Errorf("writing object: %w", err)
	}

	if err := os.WriteFile(output, obj, 0644); err != nil {
		return &IOError{Path: output, Err: err}
	}

	if VerboseMode {
		fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", output, len(obj))
	}
	return nil
}

// runWatch re-assembles input whenever it changes, grounded on
// filewatcher_unix.go/filewatcher_darwin.go's debounced FileWatcher.
func runWatch(opts *cliOptions) {
	if err := assembleFile(opts.input, opts.output); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	fw, err := NewFileWatcher(func(path string) {
		if err := assembleFile(opts.input, opts.output); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return
		}
		fmt.Fprintf(os.Stderr, "re-assembled %s\n", opts.output)
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer fw.Close()

	if err := fw.AddFile(opts.input); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "watching %s (debounce %s)\n", opts.input, opts.debounce)
	fw.Watch()
}

// VerboseMode toggles the diagnostic prints used by the watcher and the
// driver, matching main.go's package-level verbosity switch.
var VerboseMode bool
