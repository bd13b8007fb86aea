package objfile

import "fmt"

// addrEncoding is the ModR/M/SIB/displacement triple produced for one
// operand, grounded directly on encoder.c's encode_sib: REX.R/X/B are
// reported back to the caller since they only become final once both
// operand slots of an instruction have been encoded.
type addrEncoding struct {
	modRM    uint8
	sib      uint8
	hasSIB   bool
	dispSize uint8 // 0, 1 or 4
	disp     int32
	rexR     bool
	rexX     bool
	rexB     bool
}

func regEncoding(r Register) (enc uint8, rexBit bool) {
	e := uint8(r.Reg)
	return e & 7, e >= 8
}

func scaleEncoding(scale uint8) (uint8, error) {
	switch scale {
	case 1:
		return 0, nil
	case 2:
		return 1, nil
	case 4:
		return 2, nil
	case 8:
		return 3, nil
	default:
		return 0, fmt.Errorf("%w: scale %d is not one of 1, 2, 4, 8", ErrIllegalMemoryOperand, scale)
	}
}

// encodeModRM builds the ModR/M (and, when needed, SIB and displacement)
// bytes for one rm-style operand slot against the given reg/opcode-extension
// field. regField is either the other operand's register encoding or a
// fixed opcode extension (the table's ModRMExt).
func encodeModRM(regField uint8, operand Operand) (addrEncoding, error) {
	var a addrEncoding

	switch operand.Kind {
	case OperandReg, OperandRegIndirect:
		enc, rexB := regEncoding(operand.Reg)
		a.modRM = (3 << 6) | (regField&7)<<3 | enc
		a.rexB = rexB
		return a, nil

	case OperandMem:
		return encodeMem(regField, operand.Mem)

	default:
		return a, fmt.Errorf("%w: operand is not register- or memory-shaped", ErrIllegalMemoryOperand)
	}
}

func encodeMem(regField uint8, m MemOperand) (addrEncoding, error) {
	var a addrEncoding
	hasBase := m.Base != RegNone
	hasIndex := m.Index != RegNone

	if hasIndex && m.Index == RSP {
		return a, fmt.Errorf("%w: %%rsp cannot be used as an index register", ErrIllegalMemoryOperand)
	}

	switch {
	case hasBase && !hasIndex:
		baseEnc, rexB := regEncoding(Register{Reg: m.Base})
		dispSize, disp, mod, err := dispFor(baseEnc, m.Disp)
		if err != nil {
			return a, err
		}
		needsSIB := baseEnc&7 == 4 // %rsp/%r12 as base always needs a SIB byte
		rm := baseEnc & 7
		if needsSIB {
			rm = 4
			a.hasSIB = true
			a.sib = (0 << 6) | (4 << 3) | (baseEnc & 7) // scale=1(unused), index=none, base
		}
		a.modRM = (mod << 6) | (regField&7)<<3 | rm
		a.dispSize, a.disp, a.rexB = dispSize, disp, rexB
		return a, nil

	case hasBase && hasIndex:
		baseEnc, rexB := regEncoding(Register{Reg: m.Base})
		indexEnc, rexX := regEncoding(Register{Reg: m.Index})
		scaleBits, err := scaleEncoding(m.Scale)
		if err != nil {
			return a, err
		}
		dispSize, disp, mod, err := dispFor(baseEnc, m.Disp)
		if err != nil {
			return a, err
		}
		a.modRM = (mod << 6) | (regField&7)<<3 | 4
		a.hasSIB = true
		a.sib = (scaleBits << 6) | (indexEnc&7)<<3 | (baseEnc & 7)
		a.dispSize, a.disp, a.rexB, a.rexX = dispSize, disp, rexB, rexX
		return a, nil

	case !hasBase && hasIndex:
		return a, fmt.Errorf("%w: a memory operand with an index but no base is not supported", ErrIllegalMemoryOperand)

	default: // no base, no index: absolute disp32
		if !fitsInt32(m.Disp) {
			return a, fmt.Errorf("%w: absolute displacement %d does not fit in 32 bits", ErrDisplacementOverflow, m.Disp)
		}
		a.modRM = (0 << 6) | (regField&7)<<3 | 4
		a.hasSIB = true
		a.sib = (0 << 6) | (4 << 3) | 5 // no index, no base
		a.dispSize = 4
		a.disp = int32(m.Disp)
		return a, nil
	}
}

// dispFor picks the displacement size for a base-relative operand. %rbp and
// %r13 can't use mod=00 (that encoding means RIP-relative/no-base instead),
// so a zero displacement against either is promoted to an explicit disp8.
func dispFor(baseEnc uint8, disp int64) (size uint8, value int32, mod uint8, err error) {
	needsDisp8Zero := baseEnc&7 == 5
	switch {
	case disp == 0 && !needsDisp8Zero:
		return 0, 0, 0, nil
	case fitsInt8(disp):
		return 1, int32(disp), 1, nil
	case fitsInt32(disp):
		return 4, int32(disp), 2, nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: displacement %d does not fit in 32 bits", ErrDisplacementOverflow, disp)
	}
}
