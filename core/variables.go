package core

import "encoding/binary"

// GetVar returns the value of the single-letter variable c (A..Z).
// Panics if c is not in that range; callers must validate variable names
// at the syntax level (component D's primary grammar rule only ever
// produces a validated VARLETTER), matching spec.md §4.C's "a variable
// name is strictly one upper-case letter."
func (in *Interpreter) GetVar(c byte) int16 {
	off := in.varOffset(c)
	return int16(binary.LittleEndian.Uint16(in.buf[off : off+2]))
}

// SetVar stores v into the single-letter variable c.
func (in *Interpreter) SetVar(c byte, v int16) {
	off := in.varOffset(c)
	binary.LittleEndian.PutUint16(in.buf[off:off+2], uint16(v))
}

func (in *Interpreter) varOffset(c byte) uint32 {
	if c < 'A' || c > 'Z' {
		panic("core: variable letter out of range")
	}
	return in.variablesBegin + uint32(c-'A')*varSize
}
