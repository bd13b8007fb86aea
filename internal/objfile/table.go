package objfile

// RoleKind says what an operand slot contributes to the encoded
// instruction, per spec §3's operand_roles.
type RoleKind uint8

const (
	RoleNone RoleKind = iota
	RoleModRMRm
	RoleModRMReg
	RoleImm8
	RoleImm16
	RoleImm32
	RoleImm64
	RoleOpExt
	RoleRel32
)

// Role pairs a RoleKind with the "duplicate" bit: when set, the slot is
// consumed for this role but the same source operand is reused for the
// next role too (three-operand forms like `imulq $imm,%r,%r`).
type Role struct {
	Kind      RoleKind
	Duplicate bool
}

// AcceptKind is one of the operand-shape predicates from spec §4.1.
type AcceptKind uint8

const (
	AcceptEmpty AcceptKind = iota
	AcceptRax
	AcceptRcx
	AcceptReg
	AcceptRegIndirect
	AcceptImm8S
	AcceptImm16S
	AcceptImm32S
	AcceptImm32U
	AcceptImm64
	AcceptModRM
	AcceptRel32
)

// Accept is one slot's acceptance predicate; Width is meaningful only for
// the register/ModRM-shaped kinds.
type Accept struct {
	Kind  AcceptKind
	Width uint8
}

// Template is one row of the static encoding table: the shape of one legal
// x86-64 encoding for a mnemonic, per spec §3's EncodingTemplate.
type Template struct {
	Mnemonic string

	Opcode, Op2, Op3 uint8

	Rex, RexW      bool
	OpSizePrefix   bool
	SlashR         bool
	ModRMExt       uint8

	Roles   [4]Role
	Accepts [4]Accept
}

func none() Accept                  { return Accept{Kind: AcceptEmpty} }
func reg(w uint8) Accept            { return Accept{Kind: AcceptReg, Width: w} }
func rax(w uint8) Accept            { return Accept{Kind: AcceptRax, Width: w} }
func rcx(w uint8) Accept            { return Accept{Kind: AcceptRcx, Width: w} }
func regIndirect(w uint8) Accept    { return Accept{Kind: AcceptRegIndirect, Width: w} }
func modrm(w uint8) Accept          { return Accept{Kind: AcceptModRM, Width: w} }
func imm8s() Accept                 { return Accept{Kind: AcceptImm8S} }
func imm16s() Accept                { return Accept{Kind: AcceptImm16S} }
func imm32s() Accept                { return Accept{Kind: AcceptImm32S} }
func imm32u() Accept                { return Accept{Kind: AcceptImm32U} }
func imm64() Accept                 { return Accept{Kind: AcceptImm64} }
func rel32() Accept                 { return Accept{Kind: AcceptRel32} }

func role(k RoleKind) Role             { return Role{Kind: k} }
func roleDup(k RoleKind) Role          { return Role{Kind: k, Duplicate: true} }

// row builds one Template; unused trailing slots keep their zero values,
// {RoleNone, AcceptEmpty}.
func row(mnemonic string, opcode uint8, rex, rexw, opsize, slashR bool, modrmExt uint8,
	roles [4]Role, accepts [4]Accept) Template {
	return Template{
		Mnemonic: mnemonic, Opcode: opcode,
		Rex: rex, RexW: rexw, OpSizePrefix: opsize, SlashR: slashR, ModRMExt: modrmExt,
		Roles: roles, Accepts: accepts,
	}
}

func row2(mnemonic string, opcode, op2 uint8, rex, rexw, opsize, slashR bool, modrmExt uint8,
	roles [4]Role, accepts [4]Accept) Template {
	t := row(mnemonic, opcode, rex, rexw, opsize, slashR, modrmExt, roles, accepts)
	t.Op2 = op2
	return t
}

// widthFlags reports whether width w needs rexw / the 0x66 operand-size
// prefix to be selected (8-bit widths carry no prefix of their own).
func widthFlags(w uint8) (rexw, opsize bool) {
	switch w {
	case 8:
		return true, false
	case 2:
		return false, true
	default:
		return false, false
	}
}

// aluGroup generates the standard encoding family shared by the classic x86
// ALU opcodes (add, or, adc, sbb, and, sub, xor, cmp) at one operand width.
// opcodeBase is the group's 0x00-based opcode (add=0x00, or=0x08, ...
// cmp=0x38) and ext is the /digit used by the 0x80/0x81/0x83 immediate-group
// encodings. mnemonic already carries the AT&T size suffix (addq, addl, ...)
// so each call only contributes rows accepting that one width.
func aluGroup(mnemonic string, w, opcodeBase, ext uint8) []Template {
	var rows []Template
	rexw, opsize := widthFlags(w)
	isByte := w == 1

	mrOpcode := opcodeBase + 1
	if isByte {
		mrOpcode = opcodeBase
	}
	// <op> reg/mem, reg (MR form): op_ext ignored, slash_r carries reg.
	rows = append(rows, row(mnemonic, mrOpcode, false, rexw, opsize, true, 0,
		[4]Role{role(RoleModRMRm), role(RoleModRMReg)},
		[4]Accept{modrm(w), reg(w)}))

	rmOpcode := opcodeBase + 3
	if isByte {
		rmOpcode = opcodeBase + 2
	}
	// <op> reg, reg/mem (RM form).
	rows = append(rows, row(mnemonic, rmOpcode, false, rexw, opsize, true, 0,
		[4]Role{role(RoleModRMReg), role(RoleModRMRm)},
		[4]Accept{reg(w), modrm(w)}))

	if w == 2 {
		// <op> $imm16, reg/mem (0x81 /ext iw): the 0x66 prefix makes this a
		// two-byte immediate, not four.
		rows = append(rows, row(mnemonic, 0x81, false, rexw, opsize, true, ext,
			[4]Role{role(RoleModRMRm), role(RoleImm16)},
			[4]Accept{modrm(w), imm16s()}))
		rows = append(rows, row(mnemonic, 0x83, false, rexw, opsize, true, ext,
			[4]Role{role(RoleModRMRm), role(RoleImm8)},
			[4]Accept{modrm(w), imm8s()}))
	} else if !isByte {
		// <op> $imm32, reg/mem (0x81 /ext). A 32-bit destination has no
		// sign-extension target, so it accepts the full unsigned range; a
		// 64-bit destination sign-extends the immediate, so it must fit
		// signed 32-bit.
		immAccept := imm32u()
		if w == 8 {
			immAccept = imm32s()
		}
		rows = append(rows, row(mnemonic, 0x81, false, rexw, opsize, true, ext,
			[4]Role{role(RoleModRMRm), role(RoleImm32)},
			[4]Accept{modrm(w), immAccept}))
		// <op> $imm8, reg/mem (0x83 /ext) - shortest, tried after 0x81 so
		// the shortest-match rule (spec §4.1) still picks it when it fits.
		rows = append(rows, row(mnemonic, 0x83, false, rexw, opsize, true, ext,
			[4]Role{role(RoleModRMRm), role(RoleImm8)},
			[4]Accept{modrm(w), imm8s()}))
	} else {
		// <op> $imm8, reg/mem (0x80 /ext).
		rows = append(rows, row(mnemonic, 0x80, false, rexw, opsize, true, ext,
			[4]Role{role(RoleModRMRm), role(RoleImm8)},
			[4]Accept{modrm(w), imm8s()}))
	}
	return rows
}

// encodingTable is the single static source of truth matching
// (mnemonic, operand shape) to an encoding. Order only matters for tie
// breaking among rows of equal emitted length (spec §4.1: earlier wins).
var encodingTable = buildEncodingTable()

func buildEncodingTable() []Template {
	var t []Template

	aluOps := []struct {
		name string
		base uint8
		ext  uint8
	}{
		{"add", 0x00, 0}, {"or", 0x08, 1}, {"adc", 0x10, 2}, {"sbb", 0x18, 3},
		{"and", 0x20, 4}, {"sub", 0x28, 5}, {"xor", 0x30, 6}, {"cmp", 0x38, 7},
	}
	for _, op := range aluOps {
		t = append(t, aluGroup(op.name+"b", 1, op.base, op.ext)...)
		t = append(t, aluGroup(op.name+"w", 2, op.base, op.ext)...)
		t = append(t, aluGroup(op.name+"l", 4, op.base, op.ext)...)
		t = append(t, aluGroup(op.name+"q", 8, op.base, op.ext)...)
	}

	t = append(t, movRows()...)
	t = append(t, leaRows()...)
	t = append(t, pushPopRows()...)
	t = append(t, shiftRows()...)
	t = append(t, testRows()...)
	t = append(t, incDecRows()...)
	t = append(t, negNotRows()...)
	t = append(t, mulDivRows()...)
	t = append(t, imulRows()...)
	t = append(t, setccRows()...)
	t = append(t, branchRows()...)
	t = append(t, miscRows()...)

	return t
}
