package objfile

import "errors"

// Sentinel errors returned by the encoder and the object store. Callers use
// errors.Is against these; the driver attaches source position information
// when it wraps them for the user-facing diagnostic.
var (
	ErrNoMatchingEncoding   = errors.New("no encoding matches this mnemonic and operand combination")
	ErrIllegalMemoryOperand = errors.New("illegal memory operand")
	ErrDisplacementOverflow = errors.New("displacement does not fit in 32 bits")
	ErrDuplicateSymbol      = errors.New("symbol already defined")
	ErrNoCurrentSection     = errors.New("no current section: a .section directive must come first")
	ErrUnknownMnemonic      = errors.New("unknown mnemonic")
)
