package objfile

// movRows builds the mov family: register/memory moves, immediate-to-
// register/memory moves (shortest-match prefers the opcode-extension short
// form over the ModR/M form when the destination is a bare register), the
// 64-bit movabs form, and the sign/zero-extending moves.
func movRows() []Template {
	var t []Template

	for _, w := range []uint8{1, 2, 4, 8} {
		rexw, opsize := widthFlags(w)
		suffix := widthSuffix(w)

		mrOpcode, rmOpcode := uint8(0x89), uint8(0x8B)
		if w == 1 {
			mrOpcode, rmOpcode = 0x88, 0x8A
		}
		t = append(t,
			row("mov"+suffix, mrOpcode, false, rexw, opsize, true, 0,
				[4]Role{role(RoleModRMRm), role(RoleModRMReg)},
				[4]Accept{modrm(w), reg(w)}),
			row("mov"+suffix, rmOpcode, false, rexw, opsize, true, 0,
				[4]Role{role(RoleModRMReg), role(RoleModRMRm)},
				[4]Accept{reg(w), modrm(w)}),
		)

		// Immediate to register/memory via ModR/M (C6/C7 /0). A 32-bit
		// destination has no sign-extension target so it takes the
		// unsigned imm32 range; a 64-bit destination sign-extends.
		immOpcode := uint8(0xC7)
		immRole := RoleImm32
		immAccept := imm32u()
		if w == 1 {
			immOpcode, immRole, immAccept = 0xC6, RoleImm8, imm8s()
		} else if w == 2 {
			immRole, immAccept = RoleImm16, imm16s()
		} else if w == 8 {
			immAccept = imm32s()
		}
		t = append(t, row("mov"+suffix, immOpcode, false, rexw, opsize, true, 0,
			[4]Role{role(RoleModRMRm), role(immRole)},
			[4]Accept{modrm(w), immAccept}))

		// Immediate to register, opcode-extension short form (B0+r/B8+r):
		// one byte shorter than the ModR/M form above for a register
		// destination, so the shortest-match rule always prefers it there.
		if w != 8 {
			shortOpcode := uint8(0xB8)
			shortRole, shortAccept := RoleImm32, imm32u()
			if w == 1 {
				shortOpcode, shortRole, shortAccept = 0xB0, RoleImm8, imm8s()
			} else if w == 2 {
				shortRole, shortAccept = RoleImm16, imm16s()
			}
			t = append(t, row("mov"+suffix, shortOpcode, false, rexw, opsize, false, 0,
				[4]Role{role(RoleOpExt), role(shortRole)},
				[4]Accept{reg(w), shortAccept}))
		}
	}

	// movabsq: full 64-bit immediate, opcode-extension form only.
	t = append(t, row("movabsq", 0xB8, false, true, false, false, 0,
		[4]Role{role(RoleOpExt), role(RoleImm64)},
		[4]Accept{reg(8), imm64()}))

	// Zero/sign-extending moves: dst width > src width.
	zx := []struct {
		name            string
		op2             uint8
		srcW, dstW      uint8
	}{
		{"movzbw", 0xB6, 1, 2}, {"movzbl", 0xB6, 1, 4}, {"movzbq", 0xB6, 1, 8},
		{"movzwl", 0xB7, 2, 4}, {"movzwq", 0xB7, 2, 8},
		{"movsbw", 0xBE, 1, 2}, {"movsbl", 0xBE, 1, 4}, {"movsbq", 0xBE, 1, 8},
		{"movswl", 0xBF, 2, 4}, {"movswq", 0xBF, 2, 8},
	}
	for _, z := range zx {
		rexw, opsize := widthFlags(z.dstW)
		t = append(t, row2(z.name, 0x0F, z.op2, false, rexw, opsize, true, 0,
			[4]Role{role(RoleModRMReg), role(RoleModRMRm)},
			[4]Accept{reg(z.dstW), modrm(z.srcW)}))
	}
	// movslq (MOVSXD): dword to qword sign extend, opcode 0x63.
	t = append(t, row("movslq", 0x63, false, true, false, true, 0,
		[4]Role{role(RoleModRMReg), role(RoleModRMRm)},
		[4]Accept{reg(8), modrm(4)}))

	return t
}

func widthSuffix(w uint8) string {
	switch w {
	case 1:
		return "b"
	case 2:
		return "w"
	case 4:
		return "l"
	default:
		return "q"
	}
}

func leaRows() []Template {
	var t []Template
	for _, w := range []uint8{4, 8} {
		rexw, opsize := widthFlags(w)
		t = append(t, row("lea"+widthSuffix(w), 0x8D, false, rexw, opsize, true, 0,
			[4]Role{role(RoleModRMReg), role(RoleModRMRm)},
			[4]Accept{reg(w), modrm(w)}))
	}
	return t
}

func pushPopRows() []Template {
	var t []Template
	t = append(t,
		row("pushq", 0x50, false, false, false, false, 0,
			[4]Role{role(RoleOpExt)}, [4]Accept{reg(8)}),
		row("popq", 0x58, false, false, false, false, 0,
			[4]Role{role(RoleOpExt)}, [4]Accept{reg(8)}),
		row("pushq", 0x6A, false, false, false, false, 0,
			[4]Role{role(RoleImm8)}, [4]Accept{imm8s()}),
		row("pushq", 0x68, false, false, false, false, 0,
			[4]Role{role(RoleImm32)}, [4]Accept{imm32s()}),
	)
	return t
}

// shiftRows covers shl/shr/sar by an immediate count or by %cl, at every
// width. The count operand is always consumed (it must match) but the %cl
// form encodes nothing for it — the opcode alone implies "shift by cl".
func shiftRows() []Template {
	var t []Template
	ops := []struct {
		name string
		ext  uint8
	}{{"shl", 4}, {"shr", 5}, {"sar", 7}}
	for _, op := range ops {
		for _, w := range []uint8{1, 2, 4, 8} {
			rexw, opsize := widthFlags(w)
			byShiftOpcode := uint8(0xD3)
			if w == 1 {
				byShiftOpcode = 0xD2
			}
			t = append(t,
				row(op.name+widthSuffix(w), byShiftOpcode, false, rexw, opsize, true, op.ext,
					[4]Role{role(RoleModRMRm), role(RoleNone)},
					[4]Accept{modrm(w), rcx(1)}),
				row(op.name+widthSuffix(w), 0xC1, false, rexw, opsize, true, op.ext,
					[4]Role{role(RoleModRMRm), role(RoleImm8)},
					[4]Accept{modrm(w), imm8s()}),
			)
		}
	}
	return t
}

func testRows() []Template {
	var t []Template
	for _, w := range []uint8{1, 2, 4, 8} {
		rexw, opsize := widthFlags(w)
		mrOpcode := uint8(0x85)
		if w == 1 {
			mrOpcode = 0x84
		}
		t = append(t, row("test"+widthSuffix(w), mrOpcode, false, rexw, opsize, true, 0,
			[4]Role{role(RoleModRMRm), role(RoleModRMReg)},
			[4]Accept{modrm(w), reg(w)}))

		immOpcode := uint8(0xF7)
		immRole, immAccept := RoleImm32, imm32u()
		if w == 1 {
			immOpcode, immRole, immAccept = 0xF6, RoleImm8, imm8s()
		} else if w == 2 {
			immRole, immAccept = RoleImm16, imm16s()
		} else if w == 8 {
			immAccept = imm32s()
		}
		t = append(t, row("test"+widthSuffix(w), immOpcode, false, rexw, opsize, true, 0,
			[4]Role{role(RoleModRMRm), role(immRole)},
			[4]Accept{modrm(w), immAccept}))
	}
	return t
}

func incDecRows() []Template {
	var t []Template
	ops := []struct {
		name string
		ext  uint8
	}{{"inc", 0}, {"dec", 1}}
	for _, op := range ops {
		for _, w := range []uint8{1, 2, 4, 8} {
			rexw, opsize := widthFlags(w)
			opcode := uint8(0xFF)
			if w == 1 {
				opcode = 0xFE
			}
			t = append(t, row(op.name+widthSuffix(w), opcode, false, rexw, opsize, true, op.ext,
				[4]Role{role(RoleModRMRm)}, [4]Accept{modrm(w)}))
		}
	}
	return t
}

func negNotRows() []Template {
	var t []Template
	ops := []struct {
		name string
		ext  uint8
	}{{"neg", 3}, {"not", 2}}
	for _, op := range ops {
		for _, w := range []uint8{1, 2, 4, 8} {
			rexw, opsize := widthFlags(w)
			opcode := uint8(0xF7)
			if w == 1 {
				opcode = 0xF6
			}
			t = append(t, row(op.name+widthSuffix(w), opcode, false, rexw, opsize, true, op.ext,
				[4]Role{role(RoleModRMRm)}, [4]Accept{modrm(w)}))
		}
	}
	return t
}

// mulDivRows covers the implicit-operand mul/imul/div/idiv forms that
// consume %al/%ax/%eax/%rax (and %ah:%al etc.) implicitly via the opcode.
func mulDivRows() []Template {
	var t []Template
	ops := []struct {
		name string
		ext  uint8
	}{{"mul", 4}, {"imul", 5}, {"div", 6}, {"idiv", 7}}
	for _, op := range ops {
		for _, w := range []uint8{1, 2, 4, 8} {
			rexw, opsize := widthFlags(w)
			opcode := uint8(0xF7)
			if w == 1 {
				opcode = 0xF6
			}
			t = append(t, row(op.name+widthSuffix(w), opcode, false, rexw, opsize, true, op.ext,
				[4]Role{role(RoleModRMRm)}, [4]Accept{modrm(w)}))
		}
	}
	return t
}

// imulRows adds the two- and three-operand forms of imul, in addition to
// the one-operand form already in mulDivRows.
func imulRows() []Template {
	var t []Template
	for _, w := range []uint8{2, 4, 8} {
		rexw, opsize := widthFlags(w)
		// imul reg/mem, reg (dst *= src).
		t = append(t, row2("imul"+widthSuffix(w), 0x0F, 0xAF, false, rexw, opsize, true, 0,
			[4]Role{role(RoleModRMReg), role(RoleModRMRm)},
			[4]Accept{reg(w), modrm(w)}))

		// The wide immediate form's role/accept depend on width: a 16-bit
		// destination takes a 2-byte immediate, a 32-bit destination takes
		// the full unsigned imm32 range, and a 64-bit destination
		// sign-extends so it must fit signed imm32.
		wideRole, wideAccept := RoleImm32, imm32u()
		if w == 2 {
			wideRole, wideAccept = RoleImm16, imm16s()
		} else if w == 8 {
			wideAccept = imm32s()
		}

		// imul $imm, reg, reg (three operands: dst = src * imm).
		t = append(t, row("imul"+widthSuffix(w), 0x69, false, rexw, opsize, true, 0,
			[4]Role{role(RoleModRMReg), role(RoleModRMRm), role(wideRole)},
			[4]Accept{reg(w), modrm(w), wideAccept}))
		t = append(t, row("imul"+widthSuffix(w), 0x6B, false, rexw, opsize, true, 0,
			[4]Role{role(RoleModRMReg), role(RoleModRMRm), role(RoleImm8)},
			[4]Accept{reg(w), modrm(w), imm8s()}))

		// imul $imm, reg (two operands: dst = dst * imm). The destination
		// operand is reused for both the ModR/M.reg and ModR/M.rm fields.
		t = append(t, row("imul"+widthSuffix(w), 0x69, false, rexw, opsize, true, 0,
			[4]Role{roleDup(RoleModRMRm), role(RoleModRMReg), role(wideRole)},
			[4]Accept{reg(w), wideAccept}))
		t = append(t, row("imul"+widthSuffix(w), 0x6B, false, rexw, opsize, true, 0,
			[4]Role{roleDup(RoleModRMRm), role(RoleModRMReg), role(RoleImm8)},
			[4]Accept{reg(w), imm8s()}))
	}
	return t
}

// setccRows covers the conditional-set-byte instructions (SETcc), which
// always write a single byte register or memory location.
func setccRows() []Template {
	conditions := []struct {
		suffix string
		op2    uint8
	}{
		{"e", 0x94}, {"ne", 0x95}, {"l", 0x9C}, {"le", 0x9E}, {"g", 0x9F}, {"ge", 0x9D},
		{"b", 0x92}, {"be", 0x96}, {"a", 0x97}, {"ae", 0x93}, {"s", 0x98}, {"ns", 0x99},
		{"o", 0x90}, {"no", 0x91},
	}
	var t []Template
	for _, c := range conditions {
		t = append(t, row2("set"+c.suffix, 0x0F, c.op2, false, false, false, true, 0,
			[4]Role{role(RoleModRMRm)}, [4]Accept{modrm(1)}))
	}
	return t
}

// branchRows covers call/jmp/jcc. Direct targets are always a Rel32
// symbolic operand (spec §4.4: no short/long branch selection); call and
// jmp also have an indirect *%reg form (FF /2, FF /4).
func branchRows() []Template {
	var t []Template
	t = append(t,
		row("callq", 0xE8, false, false, false, false, 0,
			[4]Role{role(RoleRel32)}, [4]Accept{rel32()}),
		row("callq", 0xFF, false, false, false, true, 2,
			[4]Role{role(RoleModRMRm)}, [4]Accept{regIndirect(8)}),
		row("jmpq", 0xE9, false, false, false, false, 0,
			[4]Role{role(RoleRel32)}, [4]Accept{rel32()}),
		row("jmpq", 0xFF, false, false, false, true, 4,
			[4]Role{role(RoleModRMRm)}, [4]Accept{regIndirect(8)}),
	)
	conditions := []struct {
		suffix string
		op2    uint8
	}{
		{"e", 0x84}, {"ne", 0x85}, {"l", 0x8C}, {"le", 0x8E}, {"g", 0x8F}, {"ge", 0x8D},
		{"b", 0x82}, {"be", 0x86}, {"a", 0x87}, {"ae", 0x83}, {"s", 0x88}, {"ns", 0x89},
	}
	for _, c := range conditions {
		t = append(t, row2("j"+c.suffix, 0x0F, c.op2, false, false, false, false, 0,
			[4]Role{role(RoleRel32)}, [4]Accept{rel32()}))
	}
	return t
}

// miscRows covers the remaining zero-operand pseudo-ops a small C backend
// needs: return, no-op, and the rax:rdx sign-extensions ahead of div/idiv.
func miscRows() []Template {
	return []Template{
		row("ret", 0xC3, false, false, false, false, 0, [4]Role{}, [4]Accept{}),
		row("nop", 0x90, false, false, false, false, 0, [4]Role{}, [4]Accept{}),
		row("cltd", 0x99, false, false, false, false, 0, [4]Role{}, [4]Accept{}),
		row("cqto", 0x99, false, true, false, false, 0, [4]Role{}, [4]Accept{}),
		row("cltq", 0x98, false, true, false, false, 0, [4]Role{}, [4]Accept{}),
		row("leave", 0xC9, false, false, false, false, 0, [4]Role{}, [4]Accept{}),
	}
}
