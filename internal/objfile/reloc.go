package objfile

// RelocKind is one of the three ELF64 x86-64 relocation types this
// assembler ever emits, per spec §3's relocation kind enum.
type RelocKind uint32

const (
	// RelocPC32 computes S + A - P: a 32-bit PC-relative reference, used
	// for call/jmp/jcc targets.
	RelocPC32 RelocKind = 2 // R_X86_64_PC32
	// Reloc32S computes S + A, truncated to a signed 32-bit field: used
	// for a 32-bit immediate that names a symbol.
	Reloc32S RelocKind = 11 // R_X86_64_32S
	// Reloc64 computes S + A in a full 64-bit field: used for .quad and
	// for a movabs immediate that names a symbol.
	Reloc64 RelocKind = 1 // R_X86_64_64
)

// RelocRequest is one relocation an encoded instruction needs applied at
// link time (directives record theirs through Store.AddRelocation). Offset is relative to the start of the bytes
// the caller is about to append to the current section.
type RelocRequest struct {
	Offset uint32
	Symbol string
	Addend int64
	Kind   RelocKind
}
