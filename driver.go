package main

import (
	"fmt"

	"github.com/lasarus/atasm/internal/objfile"
)

// Assemble parses source and walks every statement into store, in one pass:
// labels define symbols at the current offset, directives are applied
// immediately, and instructions are encoded and appended right away. There
// is no separate fixup pass — relocations carry everything a linker needs
// to patch later. Grounded on main.c's record-consumption loop, redesigned
// around the real file-based CLI this program needs instead of main.c's
// leftover self-test harness.
func Assemble(source string) (*objfile.Store, error) {
	stmts, err := NewParser(source).ParseProgram()
	if err != nil {
		return nil, err
	}

	store := objfile.NewStore()
	for _, stmt := range stmts {
		switch stmt.Kind {
		case StmtLabel:
			if err := store.DefineSymbolHere(stmt.Label); err != nil {
				return nil, wrapAt(stmt, err)
			}

		case StmtDirective:
			if err := applyDirective(store, stmt); err != nil {
				return nil, wrapAt(stmt, err)
			}

		case StmtInstruction:
			ops := reverseOperands(stmt.Operands)
			bytes, relocs, err := objfile.Encode(stmt.Mnemonic, ops)
			if err != nil {
				return nil, wrapAt(stmt, err)
			}
			if err := store.EmitInstruction(bytes, relocs); err != nil {
				return nil, wrapAt(stmt, err)
			}
		}
	}
	return store, nil
}

// reverseOperands turns AT&T source order (src..., dst) into the
// destination-first order the encoding table is written against, padding
// unused slots with Empty().
func reverseOperands(ops []objfile.Operand) [4]objfile.Operand {
	var out [4]objfile.Operand
	for i := range out {
		out[i] = objfile.Empty()
	}
	n := len(ops)
	for i, op := range ops {
		out[n-1-i] = op
	}
	return out
}

func wrapAt(stmt Statement, err error) error {
	return fmt.Errorf("%d:%d: %w", stmt.Line, stmt.Col, err)
}
