// Package objfile implements the x86-64 instruction encoder and the ELF64
// relocatable object writer: the operand/encoding model, the ModR/M and SIB
// builder, the shortest-match instruction encoder, the section/symbol/
// relocation store, and the ELF64 serializer.
package objfile

import "fmt"

// Reg is one of the sixteen general-purpose registers, indexed in the
// canonical x86-64 order, plus the RegNone sentinel used for an absent
// base/index in a memory operand.
type Reg int8

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
	RegNone
)

// RexConstraint captures how a register name interacts with the REX prefix.
// SPL/BPL/SIL/DIL require REX to be addressed at all (otherwise they alias
// the legacy high-byte registers); AH/BH/CH/DH forbid REX outright.
type RexConstraint int8

const (
	RexNeutral RexConstraint = iota
	RexRequired
	RexForbidden
)

// Register is a concrete register reference: which of the sixteen GPRs,
// how wide the reference is (1, 2, 4 or 8 bytes), and its REX constraint.
type Register struct {
	Reg   Reg
	Width uint8
	Rex   RexConstraint
}

// Encoding returns the 4-bit register index used in ModR/M, SIB, and
// opcode-extension encoding (REX.B/X/R supplies the missing high bit).
func (r Register) Encoding() uint8 {
	return uint8(r.Reg) & 0xF
}

// NeedsREX reports whether this register reference forces a REX prefix by
// itself, independent of operand width or other operands.
func (r Register) NeedsREX() bool {
	return r.Rex == RexRequired
}

func (r Reg) String() string {
	if r == RegNone {
		return "none"
	}
	names := [...]string{"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"}
	if int(r) < 0 || int(r) >= len(names) {
		return fmt.Sprintf("reg(%d)", r)
	}
	return names[r]
}

// registerNames maps every AT&T register spelling this assembler accepts to
// its canonical Register value, grouped by width like a disassembly manual.
var registerNames = map[string]Register{
	// 64-bit
	"rax": {RAX, 8, RexNeutral}, "rcx": {RCX, 8, RexNeutral},
	"rdx": {RDX, 8, RexNeutral}, "rbx": {RBX, 8, RexNeutral},
	"rsp": {RSP, 8, RexNeutral}, "rbp": {RBP, 8, RexNeutral},
	"rsi": {RSI, 8, RexNeutral}, "rdi": {RDI, 8, RexNeutral},
	"r8": {R8, 8, RexNeutral}, "r9": {R9, 8, RexNeutral},
	"r10": {R10, 8, RexNeutral}, "r11": {R11, 8, RexNeutral},
	"r12": {R12, 8, RexNeutral}, "r13": {R13, 8, RexNeutral},
	"r14": {R14, 8, RexNeutral}, "r15": {R15, 8, RexNeutral},

	// 32-bit
	"eax": {RAX, 4, RexNeutral}, "ecx": {RCX, 4, RexNeutral},
	"edx": {RDX, 4, RexNeutral}, "ebx": {RBX, 4, RexNeutral},
	"esp": {RSP, 4, RexNeutral}, "ebp": {RBP, 4, RexNeutral},
	"esi": {RSI, 4, RexNeutral}, "edi": {RDI, 4, RexNeutral},
	"r8d": {R8, 4, RexNeutral}, "r9d": {R9, 4, RexNeutral},
	"r10d": {R10, 4, RexNeutral}, "r11d": {R11, 4, RexNeutral},
	"r12d": {R12, 4, RexNeutral}, "r13d": {R13, 4, RexNeutral},
	"r14d": {R14, 4, RexNeutral}, "r15d": {R15, 4, RexNeutral},

	// 16-bit
	"ax": {RAX, 2, RexNeutral}, "cx": {RCX, 2, RexNeutral},
	"dx": {RDX, 2, RexNeutral}, "bx": {RBX, 2, RexNeutral},
	"sp": {RSP, 2, RexNeutral}, "bp": {RBP, 2, RexNeutral},
	"si": {RSI, 2, RexNeutral}, "di": {RDI, 2, RexNeutral},
	"r8w": {R8, 2, RexNeutral}, "r9w": {R9, 2, RexNeutral},
	"r10w": {R10, 2, RexNeutral}, "r11w": {R11, 2, RexNeutral},
	"r12w": {R12, 2, RexNeutral}, "r13w": {R13, 2, RexNeutral},
	"r14w": {R14, 2, RexNeutral}, "r15w": {R15, 2, RexNeutral},

	// 8-bit, low byte (no REX needed)
	"al": {RAX, 1, RexNeutral}, "cl": {RCX, 1, RexNeutral},
	"dl": {RDX, 1, RexNeutral}, "bl": {RBX, 1, RexNeutral},

	// 8-bit, requires REX to reach (aliases the high-byte regs without it)
	"spl": {RSP, 1, RexRequired}, "bpl": {RBP, 1, RexRequired},
	"sil": {RSI, 1, RexRequired}, "dil": {RDI, 1, RexRequired},
	"r8b": {R8, 1, RexRequired}, "r9b": {R9, 1, RexRequired},
	"r10b": {R10, 1, RexRequired}, "r11b": {R11, 1, RexRequired},
	"r12b": {R12, 1, RexRequired}, "r13b": {R13, 1, RexRequired},
	"r14b": {R14, 1, RexRequired}, "r15b": {R15, 1, RexRequired},

	// legacy high-byte 8-bit registers: forbidden with REX present
	"ah": {RSP, 1, RexForbidden}, "ch": {RBP, 1, RexForbidden},
	"dh": {RSI, 1, RexForbidden}, "bh": {RDI, 1, RexForbidden},
}

// LookupRegister resolves an AT&T register name (without the leading '%')
// to its Register value.
func LookupRegister(name string) (Register, bool) {
	r, ok := registerNames[name]
	return r, ok
}
