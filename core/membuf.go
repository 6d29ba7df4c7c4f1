package core

import (
	"encoding/binary"
	"fmt"
	"io"
)

// recordHeaderSize is the 3-byte (line_no uint16 LE, length uint8) header
// that precedes every stored program record. Mirrors spec.md §3's "Program
// record" layout; encoding/binary.LittleEndian is used the same way the
// teacher's vm.go decodes its own little-endian fields.
const recordHeaderSize = 3

// overflowSentinel is the invalid line-number sentinel from spec.md §4.G /
// §9: 65535 never denotes a real line.
const overflowSentinel = 65535

// MaxLineNumber is the largest valid program line number; the line editor
// and GOTO/GOSUB's line-number parse both reject anything above it as
// error 9 (spec.md §4.G's "treat 65535 as the invalid sentinel").
const MaxLineNumber = overflowSentinel - 1

// memLimitError reports an operation that would violate the buffer's
// region invariant (program_end ≤ stack_ptr ≤ top). Grounded on the
// teacher's memcore.go memLimitError: a small typed error naming the
// operation that overflowed, the bytes it needed and the bytes available.
type memLimitError struct {
	op   string
	need uint32
	have uint32
}

func (e memLimitError) Error() string {
	return fmt.Sprintf("%s needs %d bytes, only %d available", e.op, e.need, e.have)
}

// recordLen returns the on-buffer length of a stored record for the given
// body (which must already end in LF).
func recordLen(body []byte) int { return recordHeaderSize + len(body) }

// find returns the offset of the first record whose line number is >= lineNo,
// or programEnd if none qualifies. Binary-unnecessary linear scan: program
// sizes on this class of machine are small enough that a linear scan over
// records (not bytes) is the simplest correct implementation, matching the
// teacher's own preference for straightforward scans over premature
// optimization (see internals.go's lookup/wordOf linear walks).
func (in *Interpreter) find(lineNo uint16) uint32 {
	off := uint32(0)
	for off < in.programEnd {
		n, length := in.recordAt(off)
		if n >= lineNo {
			return off
		}
		off += uint32(length)
	}
	return in.programEnd
}

// recordAt reads the header at off, returning the stored line number and
// total record length.
func (in *Interpreter) recordAt(off uint32) (lineNo uint16, length uint8) {
	lineNo = binary.LittleEndian.Uint16(in.buf[off : off+2])
	length = in.buf[off+2]
	return lineNo, length
}

// recordBody returns the body bytes (including trailing LF) of the record at off.
func (in *Interpreter) recordBody(off uint32) []byte {
	_, length := in.recordAt(off)
	return in.buf[off+recordHeaderSize : off+uint32(length)]
}

// insert inserts a fully-formed record (header+body) at the correct sorted
// position, shifting the tail of the program region upward to make room.
// Any existing record with the same line number must already have been
// removed by the caller (per spec.md §4.G step 6).
func (in *Interpreter) insert(lineNo uint16, body []byte) error {
	room := uint32(recordLen(body))
	if in.programEnd+room > in.stackPtr {
		return memLimitError{op: "insert", need: room, have: in.stackPtr - in.programEnd}
	}

	at := in.find(lineNo)
	copy(in.buf[at+room:in.programEnd+room], in.buf[at:in.programEnd])

	binary.LittleEndian.PutUint16(in.buf[at:at+2], lineNo)
	in.buf[at+2] = byte(room)
	copy(in.buf[at+recordHeaderSize:at+room], body)

	in.programEnd += room
	return nil
}

// remove deletes the record with exactly lineNo, if present. No-op
// (returns false) if absent, per spec.md §4.B.
func (in *Interpreter) remove(lineNo uint16) bool {
	at := in.find(lineNo)
	if at == in.programEnd {
		return false
	}
	n, length := in.recordAt(at)
	if n != lineNo {
		return false
	}
	copy(in.buf[at:in.programEnd-uint32(length)], in.buf[at+uint32(length):in.programEnd])
	in.programEnd -= uint32(length)
	return true
}

// list writes every record from the first with line number >= lineNo
// through program_end as "<n> <body>" (body already ends in LF) to w.
func (in *Interpreter) list(lineNo uint16, w io.Writer) error {
	for off := in.find(lineNo); off < in.programEnd; {
		n, length := in.recordAt(off)
		if _, err := fmt.Fprintf(w, "%d ", n); err != nil {
			return err
		}
		if _, err := w.Write(in.recordBody(off)); err != nil {
			return err
		}
		off += uint32(length)
	}
	return nil
}

// MergeRecord implements spec.md §4.G steps 5-6: a numbered line with an
// empty body deletes any existing record with that number (a no-op if
// absent); a non-empty body replaces it (remove, then insert), keeping
// records sorted.
func (in *Interpreter) MergeRecord(lineNo uint16, body []byte) {
	if len(body) == 0 {
		in.remove(lineNo)
		return
	}
	full := make([]byte, len(body)+1)
	copy(full, body)
	full[len(body)] = '\n'

	in.remove(lineNo)
	if err := in.insert(lineNo, full); err != nil {
		in.errCode = ErrOutOfRange
		in.report()
	}
}

// save emits the same textual form as list, over the full program, to an
// external stream (EEPROM or serial), per spec.md §4.B.
func (in *Interpreter) save(w io.Writer) error {
	return in.list(0, w)
}

// freeProgramBytes reports the number of unused bytes between the program
// store and the variables region, for the MEM statement.
func (in *Interpreter) freeProgramBytes() uint32 {
	return in.variablesBegin - in.programEnd
}

// peek reads a single byte at the given buffer offset, per spec.md §4.D's
// PEEK function; an address at or past the end of the buffer is an error.
func (in *Interpreter) peek(addr uint32) (byte, error) {
	if addr >= in.memSize() {
		return 0, errOutOfRange
	}
	return in.buf[addr], nil
}

// poke stores a single byte at the given buffer offset, per the POKE
// statement (spec.md §4.E).
func (in *Interpreter) poke(addr uint32, value byte) error {
	if addr >= in.memSize() {
		return errOutOfRange
	}
	in.buf[addr] = value
	return nil
}
