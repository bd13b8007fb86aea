package objfile

import (
	"bytes"
	"errors"
	"testing"
)

func testReg(name string) Register {
	r, ok := LookupRegister(name)
	if !ok {
		panic("unknown test register " + name)
	}
	return r
}

func TestEncodeWorkedExamples(t *testing.T) {
	cases := []struct {
		name     string
		mnemonic string
		ops      [4]Operand
		want     []byte
	}{
		{
			// movq $1,%rax -> C7/0 id, shorter than the movabsq form.
			name:     "movq immediate to register",
			mnemonic: "movq",
			ops:      [4]Operand{RegOperand(testReg("rax")), ImmOperand(1, "")},
			want:     []byte{0x48, 0xc7, 0xc0, 0x01, 0x00, 0x00, 0x00},
		},
		{
			// addq $1,%rax -> 0x83 imm8 form (4 bytes) beats 0x81 imm32 (7 bytes).
			name:     "addq immediate to register",
			mnemonic: "addq",
			ops:      [4]Operand{RegOperand(testReg("rax")), ImmOperand(1, "")},
			want:     []byte{0x48, 0x83, 0xc0, 0x01},
		},
		{
			// movq %rsp,%rbp -> MR form wins the byte-length tie (table order).
			name:     "movq register to register",
			mnemonic: "movq",
			ops:      [4]Operand{RegOperand(testReg("rbp")), RegOperand(testReg("rsp"))},
			want:     []byte{0x48, 0x89, 0xe5},
		},
		{
			// leaq 8(%rbp),%rax -> disp8 since 8 fits in a signed byte.
			name:     "leaq with displacement",
			mnemonic: "leaq",
			ops: [4]Operand{
				RegOperand(testReg("rax")),
				MemOperandOf(MemOperand{Base: RBP, Index: RegNone, Disp: 8}),
			},
			want: []byte{0x48, 0x8d, 0x45, 0x08},
		},
		{
			// callq *%rax -> FF/2 indirect, rax encodes to 0 so no REX needed.
			name:     "indirect call",
			mnemonic: "callq",
			ops:      [4]Operand{RegIndirectOperand(testReg("rax"))},
			want:     []byte{0xff, 0xd0},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, relocs, err := Encode(c.mnemonic, c.ops)
			if err != nil {
				t.Fatalf("Encode(%s) error: %v", c.mnemonic, err)
			}
			if len(relocs) != 0 {
				t.Errorf("Encode(%s) produced unexpected relocations: %+v", c.mnemonic, relocs)
			}
			if !bytes.Equal(got, c.want) {
				t.Errorf("Encode(%s) = % x, want % x", c.mnemonic, got, c.want)
			}
		})
	}
}

func TestEncodeRexRequiredByte(t *testing.T) {
	// movb %spl,%dil requires a REX prefix to reach either operand:
	// rm=dil(7), reg=spl(4) -> modRM = 11 100 111 = 0xe7.
	got, _, err := Encode("movb", [4]Operand{RegOperand(testReg("dil")), RegOperand(testReg("spl"))})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x40, 0x88, 0xe7}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestEncodeRejectsRexForbiddenWithRexRequired(t *testing.T) {
	// movb %ah,%dil: ah forbids REX, dil requires it. No valid encoding.
	_, _, err := Encode("movb", [4]Operand{RegOperand(testReg("dil")), RegOperand(testReg("ah"))})
	if err == nil {
		t.Fatal("expected an error mixing ah with a REX-required register")
	}
}

func TestEncodeUnknownMnemonic(t *testing.T) {
	_, _, err := Encode("frobnicate", [4]Operand{})
	if !errors.Is(err, ErrUnknownMnemonic) {
		t.Errorf("got %v, want ErrUnknownMnemonic", err)
	}
}

func TestEncodeNoMatchingEncoding(t *testing.T) {
	// addq with a 16-bit register operand: addq only accepts 64-bit operands.
	_, _, err := Encode("addq", [4]Operand{RegOperand(testReg("rax")), RegOperand(testReg("ax"))})
	if !errors.Is(err, ErrNoMatchingEncoding) {
		t.Errorf("got %v, want ErrNoMatchingEncoding", err)
	}
}

func TestEncodeSignExtensionAcceptKinds(t *testing.T) {
	// A 32-bit destination has no sign-extension target, so addl takes the
	// full unsigned imm32 range literally: no ModR/M-less short form exists
	// in this table, so 0x81 /0 id is the only match.
	big := uint64(0xFFFFFFFF)
	got, _, err := Encode("addl", [4]Operand{RegOperand(testReg("eax")), ImmOperand(big, "")})
	if err != nil {
		t.Fatalf("addl with a large unsigned imm32 should match: %v", err)
	}
	want := []byte{0x81, 0xc0, 0xff, 0xff, 0xff, 0xff}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}

	// A 64-bit destination sign-extends its imm32, so the immediate must be
	// supplied as its intended 64-bit value (as a parser would produce for
	// "$-1000"): the raw pattern has its top 32 bits set and would fail a
	// naive fitsUint32 check, but fits signed int32 and must still match,
	// via the 0x81 form (imm8 doesn't fit -1000).
	negValue := int64(-1000)
	neg := uint64(negValue)
	got, _, err = Encode("addq", [4]Operand{RegOperand(testReg("rax")), ImmOperand(neg, "")})
	if err != nil {
		t.Fatalf("addq with a sign-extending negative imm32 should match: %v", err)
	}
	want = []byte{0x48, 0x81, 0xc0, 0x18, 0xfc, 0xff, 0xff}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}

	// The same destination with a value that fits signed int8 takes the
	// shorter 0x83 form.
	minusOne := int64(-1)
	got, _, err = Encode("addq", [4]Operand{RegOperand(testReg("rax")), ImmOperand(uint64(minusOne), "")})
	if err != nil {
		t.Fatalf("addq $-1 should match: %v", err)
	}
	want = []byte{0x48, 0x83, 0xc0, 0xff}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestEncodeThreeOperandImul(t *testing.T) {
	// imulq $4,%rcx,%rax -> dst=rax, src=rcx, imm8=4 (0x6B form is shortest).
	got, _, err := Encode("imulq", [4]Operand{
		RegOperand(testReg("rax")), RegOperand(testReg("rcx")), ImmOperand(4, ""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x48, 0x6b, 0xc1, 0x04}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestEncodeDuplicateRoleImul(t *testing.T) {
	// imulq $4,%rax -> dst = dst * imm, rax fills both ModRM.reg and ModRM.rm.
	got, _, err := Encode("imulq", [4]Operand{RegOperand(testReg("rax")), ImmOperand(4, "")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x48, 0x6b, 0xc0, 0x04}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestEncodeRelocatableCall(t *testing.T) {
	got, relocs, err := Encode("callq", [4]Operand{RelImmOperand(0, "printf")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0xe8, 0x00, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
	if len(relocs) != 1 {
		t.Fatalf("got %d relocations, want 1", len(relocs))
	}
	r := relocs[0]
	if r.Symbol != "printf" || r.Kind != RelocPC32 || r.Addend != -4 || r.Offset != 1 {
		t.Errorf("got %+v, want {Offset:1 Symbol:printf Addend:-4 Kind:RelocPC32}", r)
	}
}

func TestEncodeSIBBaseAndIndex(t *testing.T) {
	// movq (%rbx,%rcx,4),%rax
	got, _, err := Encode("movq", [4]Operand{
		RegOperand(testReg("rax")),
		MemOperandOf(MemOperand{Base: RBX, Index: RCX, Scale: 4}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x48, 0x8b, 0x04, 0x8b}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestEncodeRbpZeroDisplacementPromotedToDisp8(t *testing.T) {
	// movq (%rbp),%rax must encode a disp8 of 0, never mod=00 (which would
	// mean RIP-relative/no-base addressing on x86-64).
	got, _, err := Encode("movq", [4]Operand{
		RegOperand(testReg("rax")),
		MemOperandOf(MemOperand{Base: RBP, Index: RegNone}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x48, 0x8b, 0x45, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestEncodeRspRejectedAsIndex(t *testing.T) {
	_, _, err := Encode("movq", [4]Operand{
		RegOperand(testReg("rax")),
		MemOperandOf(MemOperand{Base: RBX, Index: RSP, Scale: 1}),
	})
	if !errors.Is(err, ErrIllegalMemoryOperand) {
		t.Errorf("got %v, want ErrIllegalMemoryOperand", err)
	}
}

func TestEncodeMovImmediateShortFormPrefersOpcodeExtension(t *testing.T) {
	// movl $5,%eax: the B8+r short form is one byte shorter than the C7 /0
	// ModR/M form, so the shortest-match rule must pick it.
	got, _, err := Encode("movl", [4]Operand{RegOperand(testReg("eax")), ImmOperand(5, "")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0xb8, 0x05, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestEncodePushRegister(t *testing.T) {
	got, _, err := Encode("pushq", [4]Operand{RegOperand(testReg("r15"))})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x41, 0x57}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestEncodeMovabsq(t *testing.T) {
	got, _, err := Encode("movabsq", [4]Operand{RegOperand(testReg("rax")), ImmOperand(0x0102030405060708, "")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{0x48, 0xb8, 0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}
