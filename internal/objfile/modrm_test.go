package objfile

import (
	"errors"
	"testing"
)

func TestEncodeMemIndexOnlyRejected(t *testing.T) {
	_, err := encodeMem(0, MemOperand{Base: RegNone, Index: RAX, Scale: 1})
	if !errors.Is(err, ErrIllegalMemoryOperand) {
		t.Errorf("got %v, want ErrIllegalMemoryOperand", err)
	}
}

func TestEncodeMemAbsoluteDisp32(t *testing.T) {
	a, err := encodeMem(0, MemOperand{Base: RegNone, Index: RegNone, Disp: 0x1000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// mod=00, reg=0, rm=100 (SIB follows); SIB: scale=00,index=100(none),base=101(none)
	if a.modRM != 0x04 || !a.hasSIB || a.sib != 0x25 || a.dispSize != 4 || a.disp != 0x1000 {
		t.Errorf("got %+v, want {modRM:04 hasSIB:true sib:25 dispSize:4 disp:1000}", a)
	}
}

func TestEncodeMemAbsoluteDispOverflow(t *testing.T) {
	_, err := encodeMem(0, MemOperand{Base: RegNone, Index: RegNone, Disp: 0x1_0000_0000})
	if !errors.Is(err, ErrDisplacementOverflow) {
		t.Errorf("got %v, want ErrDisplacementOverflow", err)
	}
}

func TestEncodeMemBaseRelativeDispOverflow(t *testing.T) {
	_, err := encodeMem(0, MemOperand{Base: RAX, Index: RegNone, Disp: 0x1_0000_0000})
	if !errors.Is(err, ErrDisplacementOverflow) {
		t.Errorf("got %v, want ErrDisplacementOverflow", err)
	}
}

func TestEncodeMemBaseAndIndexDispOverflow(t *testing.T) {
	_, err := encodeMem(0, MemOperand{Base: RAX, Index: RCX, Scale: 1, Disp: -0x1_0000_0001})
	if !errors.Is(err, ErrDisplacementOverflow) {
		t.Errorf("got %v, want ErrDisplacementOverflow", err)
	}
}

func TestEncodeMemRspBaseForcesSIB(t *testing.T) {
	// (%rsp) alone still needs a SIB byte: rsp's encoding (4) in rm would
	// otherwise be read as "SIB follows" regardless of intent, so the
	// encoder must emit one explicitly with index=100 (none), base=rsp.
	a, err := encodeMem(0, MemOperand{Base: RSP, Index: RegNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.hasSIB || a.sib != 0x24 {
		t.Errorf("got hasSIB=%v sib=%#x, want hasSIB=true sib=0x24", a.hasSIB, a.sib)
	}
	if a.modRM&0x7 != 4 {
		t.Errorf("modRM rm field = %d, want 4 (SIB follows)", a.modRM&0x7)
	}
}

func TestEncodeMemR13BaseZeroDispPromoted(t *testing.T) {
	// %r13 shares rbp's encoding (5) and needs the same disp8=0 promotion.
	a, err := encodeMem(0, MemOperand{Base: R13, Index: RegNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.dispSize != 1 || a.disp != 0 {
		t.Errorf("got dispSize=%d disp=%d, want dispSize=1 disp=0", a.dispSize, a.disp)
	}
	if a.rexB != true {
		t.Errorf("rexB = %v, want true (r13 is an extended register)", a.rexB)
	}
}

func TestScaleEncoding(t *testing.T) {
	cases := []struct {
		scale uint8
		want  uint8
	}{{1, 0}, {2, 1}, {4, 2}, {8, 3}}
	for _, c := range cases {
		got, err := scaleEncoding(c.scale)
		if err != nil {
			t.Fatalf("unexpected error for scale %d: %v", c.scale, err)
		}
		if got != c.want {
			t.Errorf("scaleEncoding(%d) = %d, want %d", c.scale, got, c.want)
		}
	}
	if _, err := scaleEncoding(3); !errors.Is(err, ErrIllegalMemoryOperand) {
		t.Errorf("scaleEncoding(3) err = %v, want ErrIllegalMemoryOperand", err)
	}
}
