package objfile

// OperandKind tags the variant held by an Operand.
type OperandKind uint8

const (
	OperandEmpty OperandKind = iota
	OperandReg
	OperandRegIndirect
	OperandImm
	OperandRelImm
	OperandMem
)

// MemOperand is the AT&T disp(base,index,scale) addressing form. Either of
// Base or Index may be RegNone.
type MemOperand struct {
	Base, Index Reg
	Scale       uint8
	Disp        int64
}

// Operand is a tagged value carrying exactly one of the shapes described in
// spec §3: a direct register, an indirect-call register, an immediate
// (optionally symbolic, in which case Value is the addend), a PC-relative
// symbolic target, or a memory reference.
type Operand struct {
	Kind   OperandKind
	Reg    Register
	Value  uint64
	Symbol string
	Mem    MemOperand
}

// Empty returns the unused-slot operand.
func Empty() Operand { return Operand{Kind: OperandEmpty} }

// RegOperand returns a direct-register operand.
func RegOperand(r Register) Operand { return Operand{Kind: OperandReg, Reg: r} }

// RegIndirectOperand returns a `*%reg` indirect call/jump target.
func RegIndirectOperand(r Register) Operand { return Operand{Kind: OperandRegIndirect, Reg: r} }

// ImmOperand returns a bare or symbolic immediate.
func ImmOperand(value uint64, symbol string) Operand {
	return Operand{Kind: OperandImm, Value: value, Symbol: symbol}
}

// RelImmOperand returns a PC-relative 32-bit target.
func RelImmOperand(value uint64, symbol string) Operand {
	return Operand{Kind: OperandRelImm, Value: value, Symbol: symbol}
}

// MemOperandOf returns a memory operand.
func MemOperandOf(m MemOperand) Operand { return Operand{Kind: OperandMem, Mem: m} }

// signedValue reinterprets Value as a two's-complement signed 64-bit number.
func (o Operand) signedValue() int64 { return int64(o.Value) }

func fitsInt8(v int64) bool   { return v >= -128 && v <= 127 }
func fitsInt16(v int64) bool  { return v >= -32768 && v <= 32767 }
func fitsInt32(v int64) bool  { return v >= -2147483648 && v <= 2147483647 }
func fitsUint32(v uint64) bool { return v <= 0xFFFFFFFF }
