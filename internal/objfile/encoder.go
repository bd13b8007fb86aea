package objfile

import (
	"fmt"
	"os"
)

// Encode picks the shortest encoding template matching mnemonic and ops and
// assembles it into bytes, grounded on encoder.c's assemble_instruction:
// every template sharing the mnemonic is tried, the operand shapes are
// checked against each template's Accepts, and among the rows that match
// the one producing the fewest bytes wins; a strict less-than keeps the
// first match in table order on a tie (spec §4.1).
func Encode(mnemonic string, ops [4]Operand) ([]byte, []RelocRequest, error) {
	var bestBytes []byte
	var bestRelocs []RelocRequest
	found := false
	knownMnemonic := false
	var firstErr error

	for _, tmpl := range encodingTable {
		if tmpl.Mnemonic != mnemonic {
			continue
		}
		knownMnemonic = true
		if !matchesAll(tmpl, ops) {
			continue
		}
		bytes, relocs, err := assemble(tmpl, ops)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !found || len(bytes) < len(bestBytes) {
			bestBytes, bestRelocs, found = bytes, relocs, true
			if VerboseMode {
				fmt.Fprintf(os.Stderr, "objfile: %s: selected %d-byte encoding (opcode %#x)\n", mnemonic, len(bytes), tmpl.Opcode)
			}
		}
	}

	if !found {
		if !knownMnemonic {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownMnemonic, mnemonic)
		}
		if firstErr != nil {
			return nil, nil, firstErr
		}
		return nil, nil, fmt.Errorf("%w: %s", ErrNoMatchingEncoding, mnemonic)
	}
	return bestBytes, bestRelocs, nil
}

func matchesAll(t Template, ops [4]Operand) bool {
	for j := 0; j < 4; j++ {
		if !matchAccept(t.Accepts[j], ops[j]) {
			return false
		}
	}
	return true
}

func matchAccept(a Accept, op Operand) bool {
	switch a.Kind {
	case AcceptEmpty:
		return op.Kind == OperandEmpty
	case AcceptReg:
		return op.Kind == OperandReg && op.Reg.Width == a.Width
	case AcceptRax:
		return op.Kind == OperandReg && op.Reg.Width == a.Width && op.Reg.Reg == RAX
	case AcceptRcx:
		return op.Kind == OperandReg && op.Reg.Width == a.Width && op.Reg.Reg == RCX
	case AcceptRegIndirect:
		return op.Kind == OperandRegIndirect && op.Reg.Width == a.Width
	case AcceptModRM:
		return (op.Kind == OperandReg && op.Reg.Width == a.Width) || op.Kind == OperandMem
	case AcceptImm8S:
		return op.Kind == OperandImm && op.Symbol == "" && fitsInt8(op.signedValue())
	case AcceptImm16S:
		return op.Kind == OperandImm && op.Symbol == "" && fitsInt16(op.signedValue())
	case AcceptImm32S:
		return op.Kind == OperandImm && (op.Symbol != "" || fitsInt32(op.signedValue()))
	case AcceptImm32U:
		return op.Kind == OperandImm && op.Symbol == "" && fitsUint32(op.Value)
	case AcceptImm64:
		return op.Kind == OperandImm
	case AcceptRel32:
		return op.Kind == OperandRelImm
	default:
		return false
	}
}

// assemble lays out one template's bytes in the order spec §4.2 describes:
// operand-size prefix, REX, opcode (+embedded register), Op2 when the
// opcode is the 0x0F escape (and Op3 when Op2 is 0x38/0x3A), ModR/M (with
// any /digit extension), SIB, displacement, immediate, rel32.
func assemble(t Template, ops [4]Operand) ([]byte, []RelocRequest, error) {
	var regsInvolved []Register

	rexR, rexX, rexB := false, false, false
	regFieldForModRM := t.ModRMExt
	var rmOperand Operand
	haveRm := false
	var opcodeLowBits uint8
	usesOpExt := false

	var immRoleUsed RoleKind = RoleNone
	var immOperand Operand
	var relOperand Operand
	haveRel := false

	i, j := 0, 0
	for i < 4 && j < 4 {
		ro := t.Roles[j]
		o := ops[i]
		switch ro.Kind {
		case RoleNone:
			// consumed, nothing encoded

		case RoleModRMRm:
			rmOperand = o
			haveRm = true
			if o.Kind == OperandReg || o.Kind == OperandRegIndirect {
				regsInvolved = append(regsInvolved, o.Reg)
			}

		case RoleModRMReg:
			if o.Kind == OperandReg || o.Kind == OperandRegIndirect {
				enc, rb := regEncoding(o.Reg)
				regFieldForModRM = enc
				rexR = rb
				regsInvolved = append(regsInvolved, o.Reg)
			}

		case RoleImm8, RoleImm16, RoleImm32, RoleImm64:
			immRoleUsed = ro.Kind
			immOperand = o

		case RoleOpExt:
			enc, rb := regEncoding(o.Reg)
			opcodeLowBits = enc
			rexB = rb
			usesOpExt = true
			regsInvolved = append(regsInvolved, o.Reg)

		case RoleRel32:
			relOperand = o
			haveRel = true
		}

		if ro.Duplicate {
			i--
		}
		i++
		j++
	}

	var modRMByte, sibByte uint8
	var hasSIB bool
	var dispSize uint8
	var dispValue int32
	hasModRM := t.SlashR
	if hasModRM {
		if !haveRm {
			return nil, nil, fmt.Errorf("%w: %s: no rm operand supplied", ErrNoMatchingEncoding, t.Mnemonic)
		}
		enc, err := encodeModRM(regFieldForModRM, rmOperand)
		if err != nil {
			return nil, nil, err
		}
		modRMByte = enc.modRM
		hasSIB = enc.hasSIB
		sibByte = enc.sib
		dispSize = enc.dispSize
		dispValue = enc.disp
		rexR = rexR || enc.rexR
		rexX = rexX || enc.rexX
		rexB = rexB || enc.rexB
	}

	needRex := t.Rex || t.RexW || rexR || rexX || rexB
	for _, r := range regsInvolved {
		if r.Rex == RexRequired {
			needRex = true
		}
	}
	for _, r := range regsInvolved {
		if r.Rex == RexForbidden && needRex {
			return nil, nil, fmt.Errorf("%w: a high-byte register (%%ah, %%ch, %%dh, %%bh) cannot be combined with a register that forces a REX prefix",
				ErrIllegalMemoryOperand)
		}
	}

	var out []byte
	if t.OpSizePrefix {
		out = append(out, 0x66)
	}
	if needRex {
		rex := uint8(0x40)
		if t.RexW {
			rex |= 0x08
		}
		if rexR {
			rex |= 0x04
		}
		if rexX {
			rex |= 0x02
		}
		if rexB {
			rex |= 0x01
		}
		out = append(out, rex)
	}
	opcodeByte := t.Opcode
	if usesOpExt {
		opcodeByte += opcodeLowBits & 7
	}
	out = append(out, opcodeByte)
	if t.Opcode == 0x0F {
		out = append(out, t.Op2)
		if t.Op2 == 0x38 || t.Op2 == 0x3A {
			out = append(out, t.Op3)
		}
	}

	if hasModRM {
		out = append(out, modRMByte)
		if hasSIB {
			out = append(out, sibByte)
		}
		switch dispSize {
		case 1:
			out = append(out, uint8(dispValue))
		case 4:
			out = appendLE32(out, uint32(dispValue))
		}
	}

	var relocs []RelocRequest
	switch immRoleUsed {
	case RoleImm8:
		out = append(out, uint8(immOperand.Value))
	case RoleImm16:
		out = appendLE16(out, uint16(immOperand.Value))
	case RoleImm32:
		offset := len(out)
		litValue := uint32(immOperand.Value)
		if immOperand.Symbol != "" {
			litValue = 0
			relocs = append(relocs, RelocRequest{
				Offset: uint32(offset), Symbol: immOperand.Symbol,
				Addend: immOperand.signedValue(), Kind: Reloc32S,
			})
		}
		out = appendLE32(out, litValue)
	case RoleImm64:
		offset := len(out)
		litValue := immOperand.Value
		if immOperand.Symbol != "" {
			litValue = 0
			relocs = append(relocs, RelocRequest{
				Offset: uint32(offset), Symbol: immOperand.Symbol,
				Addend: immOperand.signedValue(), Kind: Reloc64,
			})
		}
		out = appendLE64(out, litValue)
	}

	if haveRel {
		offset := len(out)
		out = appendLE32(out, 0)
		relocs = append(relocs, RelocRequest{
			Offset: uint32(offset), Symbol: relOperand.Symbol,
			Addend: relOperand.signedValue() - 4, Kind: RelocPC32,
		})
	}

	return out, relocs, nil
}

func appendLE16(b []byte, v uint16) []byte {
	return append(b, uint8(v), uint8(v>>8))
}

func appendLE32(b []byte, v uint32) []byte {
	return append(b, uint8(v), uint8(v>>8), uint8(v>>16), uint8(v>>24))
}

func appendLE64(b []byte, v uint64) []byte {
	return append(b,
		uint8(v), uint8(v>>8), uint8(v>>16), uint8(v>>24),
		uint8(v>>32), uint8(v>>40), uint8(v>>48), uint8(v>>56))
}
