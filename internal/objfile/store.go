package objfile

import (
	"fmt"
	"os"
)

// VerboseMode toggles the diagnostic prints emitted at section-layout,
// relocation-emission and instruction-selection decision points. main sets
// this from its own verbosity switch at startup.
var VerboseMode bool

// SectionKind distinguishes a byte-backed section from a BSS-style
// zero-fill one, per elf.c's SHT_PROGBITS/SHT_NOBITS distinction.
type SectionKind uint8

const (
	SectionProgbits SectionKind = iota
	SectionNobits
)

// Section is one named region of the object file being built: either a
// growable byte buffer (.text, .data, .rodata, ...) or, for a NOBITS
// section like .bss, just an accumulated size.
type Section struct {
	Name  string
	Kind  SectionKind
	Exec  bool // SHF_EXECINSTR, set for .text-like sections
	Write bool // SHF_WRITE, set for .data/.bss-like sections

	Data []byte
	Size uint64 // NOBITS size; for PROGBITS this mirrors len(Data)

	Relocs []Relocation
}

// Relocation is one fixed-up-at-link-time entry against a section's bytes,
// grounded on elf.c's relocation bookkeeping plus spec §3's Elf64_Rela
// layout (r_info packs symbol index and type).
type Relocation struct {
	Offset uint64
	Symbol int
	Addend int64
	Kind   RelocKind
}

// Symbol is one entry of the object's symbol table. Defined local and
// global symbols carry a Section/Value; a symbol only ever referenced
// (never defined) stays undefined for the linker to resolve.
type Symbol struct {
	Name    string
	Section int // index into Store.sections, or -1 if undefined
	Value   uint64
	Global  bool
	Defined bool
}

// Store accumulates sections, symbols and relocations as the driver walks
// the parsed program, and is handed to WriteELF once the whole input has
// been consumed. Grounded on elf.c's elf_set_section/elf_create_symbol/
// elf_symbol_relocate_here family.
type Store struct {
	sections     []*Section
	sectionIndex map[string]int
	current      int // index into sections, -1 if none selected yet

	symbols     []*Symbol
	symbolIndex map[string]int
}

// NewStore returns an empty store with no sections or symbols defined yet;
// the first .section directive in the input creates the first section.
func NewStore() *Store {
	return &Store{
		sectionIndex: make(map[string]int),
		current:      -1,
		symbolIndex:  make(map[string]int),
	}
}

// defaultSectionAttrs assigns SHF_EXECINSTR/SHF_WRITE and the PROGBITS vs
// NOBITS kind for the section names this assembler gives special meaning
// to; any other name defaults to a writable PROGBITS section, matching
// what an `as`-compatible `.section NAME` directive would produce.
func defaultSectionAttrs(name string) (kind SectionKind, exec, write bool) {
	switch name {
	case ".text":
		return SectionProgbits, true, false
	case ".bss":
		return SectionNobits, false, true
	case ".rodata":
		return SectionProgbits, false, false
	case ".data":
		return SectionProgbits, false, true
	default:
		return SectionProgbits, false, true
	}
}

// SelectSection makes name the current section, creating it on first use.
func (s *Store) SelectSection(name string) {
	if idx, ok := s.sectionIndex[name]; ok {
		s.current = idx
		if VerboseMode {
			fmt.Fprintf(os.Stderr, "objfile: switched to existing section %s\n", name)
		}
		return
	}
	kind, exec, write := defaultSectionAttrs(name)
	sec := &Section{Name: name, Kind: kind, Exec: exec, Write: write}
	s.sections = append(s.sections, sec)
	idx := len(s.sections) - 1
	s.sectionIndex[name] = idx
	s.current = idx
	if VerboseMode {
		fmt.Fprintf(os.Stderr, "objfile: created section %s (exec=%v write=%v)\n", name, exec, write)
	}
}

func (s *Store) currentSection() (*Section, error) {
	if s.current < 0 {
		return nil, ErrNoCurrentSection
	}
	return s.sections[s.current], nil
}

// EmitBytes appends data to the current section and returns the offset it
// was written at. Only legal against a PROGBITS section.
func (s *Store) EmitBytes(data []byte) (uint64, error) {
	sec, err := s.currentSection()
	if err != nil {
		return 0, err
	}
	if sec.Kind == SectionNobits {
		return 0, fmt.Errorf("%w: cannot emit bytes into zero-fill section %q", ErrIllegalMemoryOperand, sec.Name)
	}
	offset := uint64(len(sec.Data))
	sec.Data = append(sec.Data, data...)
	sec.Size = uint64(len(sec.Data))
	return offset, nil
}

// EmitZero reserves n zero bytes in the current section: for a PROGBITS
// section this actually appends zero bytes, for a NOBITS section (.bss)
// it only grows the declared size.
func (s *Store) EmitZero(n uint64) (uint64, error) {
	sec, err := s.currentSection()
	if err != nil {
		return 0, err
	}
	offset := sec.Size
	if sec.Kind == SectionNobits {
		sec.Size += n
		return offset, nil
	}
	sec.Data = append(sec.Data, make([]byte, n)...)
	sec.Size = uint64(len(sec.Data))
	return offset, nil
}

// symbolSlot returns the index of name's Symbol entry, creating an
// undefined placeholder (Section: -1) if this is the first mention.
func (s *Store) symbolSlot(name string) int {
	if idx, ok := s.symbolIndex[name]; ok {
		return idx
	}
	sym := &Symbol{Name: name, Section: -1}
	s.symbols = append(s.symbols, sym)
	idx := len(s.symbols) - 1
	s.symbolIndex[name] = idx
	return idx
}

// DefineSymbolHere binds name to the current section and offset. Defining
// the same symbol twice is a hard error (spec's DuplicateSymbol case).
func (s *Store) DefineSymbolHere(name string) error {
	sec, err := s.currentSection()
	if err != nil {
		return err
	}
	idx := s.symbolSlot(name)
	sym := s.symbols[idx]
	if sym.Defined {
		return fmt.Errorf("%w: %s", ErrDuplicateSymbol, name)
	}
	sym.Defined = true
	sym.Section = s.current
	sym.Value = sec.Size
	return nil
}

// MarkGlobal flags name as a global (exported or extern) symbol; it may be
// called before or after the symbol is defined, matching `.global foo`
// preceding or following `foo:` in source.
func (s *Store) MarkGlobal(name string) {
	idx := s.symbolSlot(name)
	s.symbols[idx].Global = true
}

// ReferenceSymbol returns the symbol-table index for name, creating an
// undefined placeholder if this is its first appearance (an operand may
// name a symbol before it is ever defined or marked global).
func (s *Store) ReferenceSymbol(name string) int {
	return s.symbolSlot(name)
}

// AddRelocation records a pending relocation against the current section
// at the given section-relative offset.
func (s *Store) AddRelocation(offset uint64, symbolIndex int, addend int64, kind RelocKind) error {
	sec, err := s.currentSection()
	if err != nil {
		return err
	}
	sec.Relocs = append(sec.Relocs, Relocation{Offset: offset, Symbol: symbolIndex, Addend: addend, Kind: kind})
	if VerboseMode {
		fmt.Fprintf(os.Stderr, "objfile: relocation in %s at %#x against symbol %d (kind %d, addend %d)\n",
			sec.Name, offset, symbolIndex, kind, addend)
	}
	return nil
}

// EmitInstruction appends encoded instruction bytes to the current section
// and files any RelocRequest Encode produced against it, translating each
// request's symbol name into a symbol-table index.
func (s *Store) EmitInstruction(bytes []byte, relocs []RelocRequest) error {
	base, err := s.EmitBytes(bytes)
	if err != nil {
		return err
	}
	if VerboseMode {
		sec, _ := s.currentSection()
		fmt.Fprintf(os.Stderr, "objfile: emitted %d bytes into %s at %#x\n", len(bytes), sec.Name, base)
	}
	for _, r := range relocs {
		if err := s.AddRelocation(base+uint64(r.Offset), s.ReferenceSymbol(r.Symbol), r.Addend, r.Kind); err != nil {
			return err
		}
	}
	return nil
}
