package main

import (
	"fmt"

	"github.com/lasarus/atasm/internal/objfile"
)

// applyDirective updates the object store for one parsed directive,
// grounded on elf.c's elf_set_section/elf_symbol_set_global plus spec
// §4.6's directive semantics.
func applyDirective(store *objfile.Store, stmt Statement) error {
	d := stmt.Directive
	switch d.Kind {
	case "section":
		store.SelectSection(d.StrArg)
		return nil

	case "global":
		store.MarkGlobal(d.StrArg)
		return nil

	case "string":
		data := append([]byte(d.StrArg), 0)
		_, err := store.EmitBytes(data)
		return err

	case "zero":
		if d.IntArg < 0 {
			return errAt(Token{Line: stmt.Line, Column: stmt.Col}, ".zero count must not be negative")
		}
		_, err := store.EmitZero(uint64(d.IntArg))
		return err

	case "quad":
		return emitWideImmediate(store, d.Operand, 8, objfile.Reloc64)

	case "byte":
		_, err := store.EmitBytes([]byte{uint8(d.Operand.Value)})
		return err

	default:
		return fmt.Errorf("unreachable: unknown directive kind %q", d.Kind)
	}
}

// emitWideImmediate writes a width-byte little-endian literal, or a
// zero-filled placeholder plus a relocation request when the operand names
// a symbol (used by .quad symbol).
func emitWideImmediate(store *objfile.Store, op objfile.Operand, width int, kind objfile.RelocKind) error {
	buf := make([]byte, width)
	if op.Symbol == "" {
		v := op.Value
		for i := 0; i < width; i++ {
			buf[i] = uint8(v >> (8 * i))
		}
		_, err := store.EmitBytes(buf)
		return err
	}
	offset, err := store.EmitBytes(buf)
	if err != nil {
		return err
	}
	return store.AddRelocation(offset, store.ReferenceSymbol(op.Symbol), int64(op.Value), kind)
}
