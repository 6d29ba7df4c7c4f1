package core

// cursor helpers operate on execLine/txtpos, the working copy of the
// current statement's source text (spec.md §3's execution cursor, minus
// current_line which is tracked separately as a program-buffer offset).

// atEnd reports whether there is no more statement text to read: either
// past the working line entirely, or sitting on its trailing LF (a
// terminator, never itself part of a statement).
func (in *Interpreter) atEnd() bool {
	return in.txtpos >= uint32(len(in.execLine)) || in.execLine[in.txtpos] == '\n'
}

func (in *Interpreter) current() byte {
	if in.atEnd() {
		return 0
	}
	return in.execLine[in.txtpos]
}

func (in *Interpreter) advance() { in.txtpos++ }

func (in *Interpreter) skipSpaces() {
	for !in.atEnd() && in.execLine[in.txtpos] == ' ' {
		in.txtpos++
	}
}

// matchKeyword tries t against execLine at the current cursor, advancing
// txtpos past the keyword and any trailing spaces on success.
func (in *Interpreter) matchKeyword(t keywordTable) (ordinal int, ok bool) {
	ordinal, next, ok := t.match(in.execLine, int(in.txtpos))
	if ok {
		in.txtpos = uint32(next)
	}
	return ordinal, ok
}

// expectByte consumes the single byte b, reporting the caller-supplied code
// if the current byte doesn't match.
func (in *Interpreter) expectByte(b byte, code ErrorCode) bool {
	in.skipSpaces()
	if in.current() != b {
		in.setError(code)
		return false
	}
	in.advance()
	return true
}
