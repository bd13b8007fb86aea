package main

import (
	"testing"

	"github.com/lasarus/atasm/internal/objfile"
)

func parseOne(t *testing.T, src string) Statement {
	t.Helper()
	stmts, err := NewParser(src).ParseProgram()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1: %+v", len(stmts), stmts)
	}
	return stmts[0]
}

func TestParseLabel(t *testing.T) {
	st := parseOne(t, "main:\n")
	if st.Kind != StmtLabel || st.Label != "main" {
		t.Errorf("got %+v, want a label statement named main", st)
	}
}

func TestParseInstructionNoOperands(t *testing.T) {
	st := parseOne(t, "ret\n")
	if st.Kind != StmtInstruction || st.Mnemonic != "ret" || len(st.Operands) != 0 {
		t.Errorf("got %+v, want a bare ret instruction", st)
	}
}

func TestParseInstructionRegisterOperands(t *testing.T) {
	st := parseOne(t, "movq %rsp, %rbp\n")
	if st.Mnemonic != "movq" || len(st.Operands) != 2 {
		t.Fatalf("got %+v", st)
	}
	if st.Operands[0].Kind != objfile.OperandReg || st.Operands[0].Reg.Reg != objfile.RSP {
		t.Errorf("operand 0 = %+v, want %%rsp", st.Operands[0])
	}
	if st.Operands[1].Kind != objfile.OperandReg || st.Operands[1].Reg.Reg != objfile.RBP {
		t.Errorf("operand 1 = %+v, want %%rbp", st.Operands[1])
	}
}

func TestParseImmediateOperand(t *testing.T) {
	st := parseOne(t, "movq $-1, %rax\n")
	if st.Operands[0].Kind != objfile.OperandImm {
		t.Fatalf("got %+v", st.Operands[0])
	}
	if int64(st.Operands[0].Value) != -1 {
		t.Errorf("immediate = %d, want -1", int64(st.Operands[0].Value))
	}
}

func TestParseMemoryOperandFull(t *testing.T) {
	st := parseOne(t, "movq -8(%rbp,%rax,4), %rax\n")
	mem := st.Operands[0]
	if mem.Kind != objfile.OperandMem {
		t.Fatalf("got %+v", mem)
	}
	if mem.Mem.Base != objfile.RBP || mem.Mem.Index != objfile.RAX || mem.Mem.Scale != 4 || mem.Mem.Disp != -8 {
		t.Errorf("got %+v, want {Base:RBP Index:RAX Scale:4 Disp:-8}", mem.Mem)
	}
}

func TestParseMemoryOperandBaseOnly(t *testing.T) {
	st := parseOne(t, "movq (%rax), %rbx\n")
	mem := st.Operands[0]
	if mem.Mem.Base != objfile.RAX || mem.Mem.Index != objfile.RegNone {
		t.Errorf("got %+v, want base=rax, no index", mem.Mem)
	}
}

func TestParseIndirectCallOperand(t *testing.T) {
	st := parseOne(t, "callq *%rax\n")
	if st.Operands[0].Kind != objfile.OperandRegIndirect {
		t.Errorf("got %+v, want an indirect operand", st.Operands[0])
	}
}

func TestParseRelativeSymbolOperand(t *testing.T) {
	st := parseOne(t, "callq printf\n")
	op := st.Operands[0]
	if op.Kind != objfile.OperandRelImm || op.Symbol != "printf" {
		t.Errorf("got %+v, want a rel32 operand naming printf", op)
	}
}

func TestParseSymbolicMemoryDisplacementRejected(t *testing.T) {
	_, err := NewParser("movq label(%rax), %rbx\n").ParseProgram()
	if err == nil {
		t.Fatal("expected a parse error for a symbolic memory displacement")
	}
}

func TestParseSectionDirective(t *testing.T) {
	st := parseOne(t, ".section .text\n")
	if st.Kind != StmtDirective || st.Directive.Kind != "section" || st.Directive.StrArg != ".text" {
		t.Errorf("got %+v", st)
	}
}

func TestParseGlobalDirective(t *testing.T) {
	st := parseOne(t, ".global main\n")
	if st.Directive.Kind != "global" || st.Directive.StrArg != "main" {
		t.Errorf("got %+v", st)
	}
}

func TestParseStringDirective(t *testing.T) {
	st := parseOne(t, `.string "hi\n"` + "\n")
	if st.Directive.Kind != "string" || st.Directive.StrArg != "hi\n" {
		t.Errorf("got %+v", st)
	}
}

func TestParseZeroDirective(t *testing.T) {
	st := parseOne(t, ".zero 16\n")
	if st.Directive.Kind != "zero" || st.Directive.IntArg != 16 {
		t.Errorf("got %+v", st)
	}
}

func TestParseZeroDirectiveNegativeRejectedAtAssembleTime(t *testing.T) {
	// .zero takes a bare number, so the minus sign is rejected while
	// Assemble parses the source, before any directive is applied.
	_, err := Assemble(".section .bss\n.zero -1\n")
	if err == nil {
		t.Fatal("expected an error assembling .zero -1")
	}
}

func TestParseByteDirectiveRejectsSymbol(t *testing.T) {
	_, err := NewParser(".byte foo\n").ParseProgram()
	if err == nil {
		t.Fatal("expected an error for .byte with a symbolic operand")
	}
}

func TestParseQuadDirectiveWithSymbol(t *testing.T) {
	st := parseOne(t, ".quad foo\n")
	if st.Directive.Kind != "quad" || st.Directive.Operand.Symbol != "foo" {
		t.Errorf("got %+v", st)
	}
}

func TestParseTooManyOperandsRejected(t *testing.T) {
	_, err := NewParser("movq %rax, %rbx, %rcx, %rdx, %rsi\n").ParseProgram()
	if err == nil {
		t.Fatal("expected an error for more than four operands")
	}
}

func TestParseUnknownDirectiveRejected(t *testing.T) {
	_, err := NewParser(".frobnicate\n").ParseProgram()
	if err == nil {
		t.Fatal("expected an error for an unknown directive")
	}
}
