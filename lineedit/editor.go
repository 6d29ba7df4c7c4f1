// Package lineedit implements the interactive line reader and ingest
// merge step: component G, spec.md §4.G. It decodes control keys on
// interactive input, normalizes case outside quoted spans, parses an
// optional leading line number, and merges the result into the
// interpreter's program store (or hands it back for direct execution).
package lineedit

import (
	"context"
	"errors"

	"github.com/go8bit/tinybasic/core"
	"github.com/go8bit/tinybasic/external"
	"github.com/go8bit/tinybasic/internal/srcqueue"
)

const (
	ctlBEL = 0x07
	ctlBS  = 0x08
	ctlLF  = 0x0a
	ctlCR  = 0x0d
	ctlESC = 0x1b
	ctlDEL = 0x7f
)

// maxLineLen bounds the working line buffer; spec.md §4.G: "buffer full
// produces BEL."
const maxLineLen = 255

// Editor reads lines from the active source (keyboard, or temporarily an
// EEPROM/serial store during ELOAD/SLOAD) and drives Ingest.
type Editor struct {
	in   *core.Interpreter
	char external.CharIO
	src  *srcqueue.Source

	line []byte
	pos  int
}

// New builds an Editor reading keyboard bytes through char and merging
// into in's program store.
func New(in *core.Interpreter, char external.CharIO) *Editor {
	return &Editor{in: in, char: char, src: srcqueue.New(char)}
}

// Next reads one line, merges it per spec.md §4.G, and reports whether to
// continue the REPL loop. ran is false on a permanent keyboard error
// (e.g. EOF), matching spec.md §6's "a reasonable hosted port returns 0 on
// EOF", and when ctx is done (err is then ctx's error).
func (ed *Editor) Next(ctx context.Context) (ran bool, err error) {
	if store, first, ok := ed.in.TakePendingLoad(); ok {
		ed.src.SwitchToStore(store)
		return ed.ingestFromStore(ctx, first)
	}

	line, eof, rerr := ed.readLine(ctx)
	if rerr != nil {
		return false, rerr
	}
	if eof {
		return false, nil
	}

	ed.merge(ctx, line)
	return true, nil
}

// ingestFromStore consumes a store-backed program listing already
// switched in by TakePendingLoad, one line at a time, until the store's
// terminating zero byte switches the source back to the keyboard. first is
// the byte the dispatcher already read from the store; it begins the first
// line (a 0 or LF there means that line is empty).
func (ed *Editor) ingestFromStore(ctx context.Context, first byte) (bool, error) {
	for {
		line, eof, err := ed.readLine(ctx)
		if err != nil {
			return false, err
		}
		if first != 0 && first != ctlLF {
			line = append([]byte{first}, line...)
		}
		first = 0
		ed.merge(ctx, line)
		if eof || !ed.src.FromStore() {
			break
		}
	}
	if ed.in.RunAfterLoad() {
		ed.in.RunProgram(ctx)
	}
	return true, nil
}

// merge implements spec.md §4.G steps 1-6: normalize case outside quotes,
// parse an optional leading line number, then either execute directly or
// insert/remove a program record.
func (ed *Editor) merge(ctx context.Context, raw []byte) {
	body := normalizeCase(raw)

	n, numDigits, ok := parseLeadingLineNumber(body)
	if !ok {
		ed.in.ExecuteDirect(ctx, string(body))
		return
	}
	if n > core.MaxLineNumber {
		ed.in.ReportLineNumberOverflow(body)
		return
	}

	rest := body[numDigits:]
	for len(rest) > 0 && rest[0] == ' ' {
		rest = rest[1:]
	}
	ed.in.MergeRecord(n, rest)
}

// parseLeadingLineNumber consumes digits into a u16 with saturation at
// 65535 (the overflow sentinel, spec.md §4.G/§9). Returns ok=false if body
// doesn't start with a digit.
func parseLeadingLineNumber(body []byte) (n uint16, consumed int, ok bool) {
	if len(body) == 0 || body[0] < '0' || body[0] > '9' {
		return 0, 0, false
	}
	var v uint32
	i := 0
	for i < len(body) && body[i] >= '0' && body[i] <= '9' {
		v = v*10 + uint32(body[i]-'0')
		if v > 65535 {
			v = 65535
		}
		i++
	}
	return uint16(v), i, true
}

// normalizeCase upper-cases every byte outside "..." or '...' quoted
// spans, per spec.md §4.G step 1.
func normalizeCase(raw []byte) []byte {
	out := make([]byte, len(raw))
	var quote byte
	for i, b := range raw {
		switch {
		case quote != 0:
			out[i] = b
			if b == quote {
				quote = 0
			}
		case b == '"' || b == '\'':
			quote = b
			out[i] = b
		case b >= 'a' && b <= 'z':
			out[i] = b - ('a' - 'A')
		default:
			out[i] = b
		}
	}
	return out
}

// readLine reads one line of input from the active source, decoding
// interactive control keys, and returns it without the trailing
// terminator. eof is true when the keyboard source is permanently
// exhausted or a store ingest has reached its end. A pending break
// discards the partial line, prints BREAK and returns an empty line.
func (ed *Editor) readLine(ctx context.Context) (line []byte, eof bool, err error) {
	ed.line = ed.line[:0]
	ed.pos = 0
	interactive := !ed.src.FromStore()

	for {
		if cerr := ctx.Err(); cerr != nil {
			return nil, false, cerr
		}
		if ed.in.Break != nil {
			select {
			case <-ed.in.Break.Break():
				for _, c := range []byte("BREAK\n") {
					ed.echo(c)
				}
				return nil, false, nil
			default:
			}
		}

		b, rerr := ed.src.ReadByte()
		if errors.Is(rerr, srcqueue.ErrSourceDone) {
			return append([]byte(nil), ed.line...), true, nil
		}
		if rerr != nil {
			return nil, true, nil
		}

		if !interactive {
			// EEPROM/serial ingest: terminal-like control chars are
			// ignored; only LF ends a line (spec.md §4.G).
			if b == ctlLF {
				return append([]byte(nil), ed.line...), false, nil
			}
			ed.line = append(ed.line, b)
			continue
		}

		switch b {
		case ctlCR, ctlLF:
			ed.echo(ctlCR)
			ed.echo(ctlLF)
			return append([]byte(nil), ed.line...), false, nil

		case ctlBS, ctlDEL:
			ed.backspace()

		case ctlESC:
			ed.handleEscape()

		default:
			if b < 0x20 {
				continue
			}
			ed.insert(b)
		}
	}
}

func (ed *Editor) echo(b byte) {
	if ed.char != nil {
		_ = ed.char.WriteByte(b)
	}
}

func (ed *Editor) insert(b byte) {
	if len(ed.line) >= maxLineLen {
		ed.echo(ctlBEL)
		return
	}
	ed.line = append(ed.line, 0)
	copy(ed.line[ed.pos+1:], ed.line[ed.pos:])
	ed.line[ed.pos] = b
	ed.pos++
	ed.redrawFrom(ed.pos - 1)
}

func (ed *Editor) backspace() {
	if ed.pos == 0 {
		ed.echo(ctlBEL)
		return
	}
	ed.pos--
	copy(ed.line[ed.pos:], ed.line[ed.pos+1:])
	ed.line = ed.line[:len(ed.line)-1]
	ed.redrawFrom(ed.pos)
}

// redrawFrom echoes the tail of the line starting at i, then backs the
// cursor up to ed.pos -- a backspace-only redraw, with no assumption of
// ANSI cursor addressing, matching a dumb-terminal-friendly line editor.
func (ed *Editor) redrawFrom(i int) {
	for j := i; j < len(ed.line); j++ {
		ed.echo(ed.line[j])
	}
	ed.echo(' ')
	for j := ed.pos; j <= len(ed.line); j++ {
		ed.echo(ctlBS)
	}
}

// handleEscape decodes the small set of ANSI cursor sequences the line
// editor understands: left/right arrow and HOME/END (spec.md §4.G).
func (ed *Editor) handleEscape() {
	b1, err := ed.src.ReadByte()
	if err != nil || b1 != '[' {
		return
	}
	b2, err := ed.src.ReadByte()
	if err != nil {
		return
	}
	switch b2 {
	case 'D': // left arrow
		if ed.pos > 0 {
			ed.pos--
			ed.echo(ctlBS)
		}
	case 'C': // right arrow
		if ed.pos < len(ed.line) {
			ed.echo(ed.line[ed.pos])
			ed.pos++
		}
	case 'H': // HOME
		for ed.pos > 0 {
			ed.pos--
			ed.echo(ctlBS)
		}
	case 'F': // END
		for ed.pos < len(ed.line) {
			ed.echo(ed.line[ed.pos])
			ed.pos++
		}
	}
}
