package core

import (
	"context"
	"math/rand/v2"
	"strconv"

	"github.com/go8bit/tinybasic/external"
)

// postCondition is the dispatcher's choice of what happens next after a
// statement handler returns, per spec.md §4.E and §9's "a table mapping a
// keyword ordinal to a handler plus a fixed-ish set of post-conditions."
type postCondition int

const (
	pcDoNothing postCondition = iota
	pcNextStatement
	pcNextLine
	pcExecLine
	pcLoop
	pcPrompt
	pcWarmReset
)

// ExecuteDirect runs one line of direct-mode input: no leading line number,
// executed once and discarded (spec.md glossary, "Direct mode").
func (in *Interpreter) ExecuteDirect(ctx context.Context, line string) {
	in.currentLine = noCurrentLine
	in.execLine = append(in.execLine[:0], line...)
	if len(in.execLine) == 0 || in.execLine[len(in.execLine)-1] != '\n' {
		in.execLine = append(in.execLine, '\n')
	}
	in.txtpos = 0
	in.runUntilPrompt(ctx)
}

// RunProgram is equivalent to typing RUN at the prompt: a convenience entry
// point for callers (the line editor's run-after-load step, tests) that want
// to start execution without going through the line editor first.
func (in *Interpreter) RunProgram(ctx context.Context) {
	in.ExecuteDirect(ctx, "RUN\n")
}

// runUntilPrompt is the statement-by-statement driving loop shared by
// direct-mode execution and RUN. It alternates dispatching statements and
// acting on the returned postCondition until control returns to the
// prompt, per spec.md §5's "one synchronous loop that alternates between
// the line editor and the dispatcher."
func (in *Interpreter) runUntilPrompt(ctx context.Context) {
	in.delayCtx = ctx
	for {
		if in.checkBreak(ctx) {
			in.writeString("BREAK\n")
			return
		}

		if in.atEnd() {
			if in.currentLine == noCurrentLine {
				return
			}
			if !in.advanceToNextRecord() {
				return
			}
			continue
		}

		pc := in.dispatchStatement()
		switch pc {
		case pcDoNothing, pcExecLine:
			continue

		case pcNextStatement, pcLoop:
			// pcLoop resumes exactly where the FOR statement left off
			// (spec.md §4.E: FOR's frame resumes "just after" itself) --
			// same-line continuation if a ':' follows, otherwise the next
			// program line, so a multi-line FOR/NEXT body falls through
			// here identically to how it was first entered.
			in.skipSpaces()
			if in.current() == ':' {
				in.advance()
				continue
			}
			fallthrough

		case pcNextLine:
			if in.currentLine == noCurrentLine {
				return
			}
			if !in.advanceToNextRecord() {
				return
			}

		case pcPrompt:
			return

		case pcWarmReset:
			in.report()
			return
		}
	}
}

// checkBreak polls the asynchronous break source, per spec.md §5: "the
// core polls a break_flow flag at the top of every statement."
func (in *Interpreter) checkBreak(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		return true
	}
	if in.Break == nil {
		return false
	}
	select {
	case <-in.Break.Break():
		return true
	default:
		return false
	}
}

// jumpTo points the execution cursor at the record at off (or, for
// off==programEnd, effectively "past the end") and positions txtpos within
// its working copy. Used by GOTO/GOSUB/RUN (txt==0) and by NEXT's loop
// continuation (txt at the saved resume offset).
//
// off==noCurrentLine is the direct-mode case: a FOR or GOSUB frame pushed
// while executing the direct exec buffer has no program-store record to
// reload, so the existing execLine (the direct-mode line itself) is kept
// in place and only txtpos moves, instead of falling into the
// past-program-end case below and discarding it.
func (in *Interpreter) jumpTo(off, txt uint32) {
	in.currentLine = off
	if off == noCurrentLine {
		in.txtpos = txt
		return
	}
	if off >= in.programEnd {
		in.execLine = nil
		in.txtpos = 0
		return
	}
	in.execLine = append(in.execLine[:0], in.recordBody(off)...)
	in.txtpos = txt
}

// advanceToNextRecord moves to the record immediately following
// currentLine. Returns false if there is no such record (program_end
// reached), in which case the caller should return to the prompt.
func (in *Interpreter) advanceToNextRecord() bool {
	_, length := in.recordAt(in.currentLine)
	next := in.currentLine + uint32(length)
	if next >= in.programEnd {
		in.currentLine = noCurrentLine
		in.execLine = nil
		in.txtpos = 0
		return false
	}
	in.jumpTo(next, 0)
	return true
}

// dispatchStatement recognizes and runs exactly one statement starting at
// the current cursor. Error state is cleared at the start of each
// statement per spec.md §3.
func (in *Interpreter) dispatchStatement() postCondition {
	in.errCode = ErrNone
	in.skipSpaces()

	if in.atEnd() {
		return pcNextLine
	}

	if ord, ok := in.matchKeyword(commandTable); ok {
		pc := in.runCommand(command(ord))
		if in.errCode != ErrNone {
			return pcWarmReset
		}
		return pc
	}

	pc := in.dispatchAssignment()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	return pc
}

// parseVarLetter consumes exactly one identifier's worth of letters and
// validates it names a single variable, per spec.md §4.C: "a sequence of
// letters is an invalid variable name and must produce an explicit error."
func (in *Interpreter) parseVarLetter() (byte, bool) {
	start := in.txtpos
	for isLetter(in.current()) {
		in.advance()
	}
	name := in.execLine[start:in.txtpos]
	if len(name) == 0 {
		in.setError(ErrVariableExpected)
		return 0, false
	}
	if len(name) != 1 {
		in.setError(ErrInvalidVariableName)
		return 0, false
	}
	return name[0], true
}

func (in *Interpreter) dispatchAssignment() postCondition {
	v, ok := in.parseVarLetter()
	if !ok {
		return pcWarmReset
	}
	return in.finishAssignment(v)
}

func (in *Interpreter) finishAssignment(v byte) postCondition {
	if !in.expectByte('=', ErrOperatorExpected) {
		return pcWarmReset
	}
	val := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	in.SetVar(v, val)
	return pcNextStatement
}

// parseLineNumber consumes a decimal line number, used by GOTO/GOSUB. The
// overflow sentinel (65535) is the same invalid marker used by the line
// editor (spec.md §4.G, §9).
func (in *Interpreter) parseLineNumber() (uint16, bool) {
	in.skipSpaces()
	if !isDigit(in.current()) {
		in.setError(ErrInvalidLineNumber)
		return 0, false
	}
	var v uint32
	for isDigit(in.current()) {
		v = v*10 + uint32(in.current()-'0')
		if v > overflowSentinel {
			v = overflowSentinel
		}
		in.advance()
	}
	if v >= overflowSentinel {
		in.setError(ErrInvalidLineNumber)
		return 0, false
	}
	return uint16(v), true
}

// runCommand invokes the handler for the matched command ordinal.
func (in *Interpreter) runCommand(cmd command) postCondition {
	switch cmd {
	case cmdREM, cmdHashComment, cmdTickComment:
		in.txtpos = uint32(len(in.execLine))
		return pcNextLine

	case cmdLET:
		v, ok := in.parseVarLetter()
		if !ok {
			return pcWarmReset
		}
		return in.finishAssignment(v)

	case cmdIF:
		cond := in.evalExpr()
		if in.errCode != ErrNone {
			return pcWarmReset
		}
		if cond != 0 {
			return pcDoNothing
		}
		return pcNextLine

	case cmdGOTO:
		return in.runGOTO()

	case cmdGOSUB:
		return in.runGOSUB()

	case cmdRETURN:
		return in.runRETURN()

	case cmdFOR:
		return in.runFOR()

	case cmdNEXT:
		return in.runNEXT()

	case cmdINPUT:
		return in.runINPUT()

	case cmdPOKE:
		return in.runPOKE()

	case cmdPRINT, cmdPRINTAlias:
		return in.runPRINT()

	case cmdLIST:
		return in.runLIST()

	case cmdMEM:
		return in.runMEM()

	case cmdNEW:
		in.NewProgram()
		return pcPrompt

	case cmdRUN:
		if in.programEnd == 0 {
			return pcPrompt
		}
		in.jumpTo(0, 0)
		return pcExecLine

	case cmdEND, cmdSTOP:
		in.currentLine = noCurrentLine
		return pcPrompt

	case cmdRANDOMIZE:
		if in.Clock != nil {
			in.seedRNG(uint64(in.Clock.Now()))
		}
		return pcNextStatement

	case cmdRNDSEED:
		seed := in.evalExpr()
		if in.errCode != ErrNone {
			return pcWarmReset
		}
		in.seedRNG(uint64(uint16(seed)))
		return pcNextStatement

	case cmdDELAY:
		return in.runDELAY()

	case cmdCLS:
		if in.Screen != nil {
			in.Screen.Reset()
			in.Screen.Clear()
		}
		return pcNextStatement

	case cmdCOLOR:
		return in.runSetColor(true)

	case cmdPAPER:
		return in.runSetColor(false)

	case cmdLOCATE:
		return in.runLOCATE()

	case cmdPSET:
		return in.runPSET()

	case cmdPLAY:
		if in.Audio != nil {
			_ = in.Audio.WriteOpcode(external.AudioPlay)
		}
		return pcNextStatement

	case cmdSOUNDSTOP:
		if in.Audio != nil {
			_ = in.Audio.WriteOpcode(external.AudioStop)
		}
		return pcNextStatement

	case cmdTEMPO:
		return in.runTEMPO()

	case cmdMUSIC:
		return in.runMUSIC()

	case cmdPINDIR:
		return in.runPINDIR()

	case cmdPINDWRITE:
		return in.runPINDWRITE()

	case cmdELIST:
		return in.runELIST()

	case cmdEFORMAT:
		return in.runEFORMAT()

	case cmdELOAD:
		return in.runLoadFrom(in.EEPROM, true)

	case cmdESAVE:
		return in.runSaveTo(in.EEPROM)

	case cmdSLOAD:
		return in.runLoadFrom(in.Serial, false)

	case cmdSSAVE:
		return in.runSaveTo(in.Serial)
	}

	in.setError(ErrUnknownCommand)
	return pcWarmReset
}

func (in *Interpreter) runGOTO() postCondition {
	n, ok := in.parseLineNumber()
	if !ok {
		return pcWarmReset
	}
	off := in.find(n)
	if off >= in.programEnd {
		in.setError(ErrJumpPointNotFound)
		return pcWarmReset
	}
	in.jumpTo(off, 0)
	return pcExecLine
}

func (in *Interpreter) runGOSUB() postCondition {
	n, ok := in.parseLineNumber()
	if !ok {
		return pcWarmReset
	}
	target := in.find(n)
	if target >= in.programEnd {
		in.setError(ErrJumpPointNotFound)
		return pcWarmReset
	}
	if err := in.pushGosub(in.currentLine, in.txtpos); err != nil {
		in.setError(ErrStackOverflow)
		return pcWarmReset
	}
	in.jumpTo(target, 0)
	return pcExecLine
}

func (in *Interpreter) runRETURN() postCondition {
	line, txt, ok := in.doReturn()
	if !ok {
		in.setError(ErrJumpPointNotFound)
		return pcWarmReset
	}
	in.jumpTo(line, txt)
	return pcNextStatement
}

// runFOR parses "FOR v = a TO b [STEP s]" and pushes a FOR frame whose
// resume point is just after this statement, per spec.md §4.E.
func (in *Interpreter) runFOR() postCondition {
	v, ok := in.parseVarLetter()
	if !ok {
		return pcWarmReset
	}
	if !in.expectByte('=', ErrOperatorExpected) {
		return pcWarmReset
	}
	start := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	if _, ok := in.matchKeyword(forToTable); !ok {
		in.setError(ErrOperatorExpected)
		return pcWarmReset
	}
	terminal := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	step := int16(1)
	if _, ok := in.matchKeyword(forStepTable); ok {
		step = in.evalExpr()
		if in.errCode != ErrNone {
			return pcWarmReset
		}
	}

	in.SetVar(v, start)
	if err := in.pushFor(v, terminal, step, in.currentLine, in.txtpos); err != nil {
		in.setError(ErrStackOverflow)
		return pcWarmReset
	}
	return pcNextStatement
}

func (in *Interpreter) runNEXT() postCondition {
	v, ok := in.parseVarLetter()
	if !ok {
		return pcWarmReset
	}
	line, txt, cont, found := in.doNext(v)
	if !found {
		in.setError(ErrJumpPointNotFound)
		return pcWarmReset
	}
	if cont {
		in.jumpTo(line, txt)
		return pcLoop
	}
	return pcNextStatement
}

// runINPUT reads digits (plus an optional leading '-') from Char until LF,
// per spec.md §4.E.
func (in *Interpreter) runINPUT() postCondition {
	v, ok := in.parseVarLetter()
	if !ok {
		return pcWarmReset
	}
	if in.Char == nil {
		in.setError(ErrSyntax)
		return pcWarmReset
	}

	neg := false
	var val int32
	first := true
	for {
		b, err := in.Char.ReadByte()
		if err != nil {
			break
		}
		if b == '\n' {
			break
		}
		if first && b == '-' {
			neg = true
			first = false
			continue
		}
		first = false
		if !isDigit(b) {
			continue
		}
		val = val*10 + int32(b-'0')
	}
	if neg {
		val = -val
	}
	in.SetVar(v, int16(val))
	return pcNextStatement
}

func (in *Interpreter) runPOKE() postCondition {
	addr := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	if !in.expectByte(',', ErrSyntax) {
		return pcWarmReset
	}
	val := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	if val < 0 || val > 255 {
		in.setError(ErrExpectedByte)
		return pcWarmReset
	}
	if err := in.poke(uint32(uint16(addr)), byte(val)); err != nil {
		in.setError(ErrOutOfRange)
		return pcWarmReset
	}
	return pcNextStatement
}

// runPRINT evaluates a comma/semicolon-separated list of string literals
// and expressions, per spec.md §4.E.
func (in *Interpreter) runPRINT() postCondition {
	suppressNL := false
	for {
		in.skipSpaces()
		suppressNL = false

		switch c := in.current(); {
		case c == '"' || c == '\'':
			in.printQuoted(c)
			if in.errCode != ErrNone {
				return pcWarmReset
			}
		case c == ':' || c == '\n' || c == 0:
			if !suppressNL {
				in.writeString("\n")
			}
			return pcNextStatement
		default:
			v := in.evalExpr()
			if in.errCode != ErrNone {
				return pcWarmReset
			}
			in.writeString(strconv.Itoa(int(v)))
		}

		in.skipSpaces()
		switch in.current() {
		case ',':
			in.advance()
			in.writeString(" ")
		case ';':
			in.advance()
			suppressNL = true
			in.skipSpaces()
			if c := in.current(); c == ':' || c == '\n' || c == 0 {
				return pcNextStatement
			}
		default:
			if !suppressNL {
				in.writeString("\n")
			}
			return pcNextStatement
		}
	}
}

func (in *Interpreter) printQuoted(q byte) {
	in.advance()
	for !in.atEnd() && in.current() != q && in.current() != '\n' {
		in.writeBytes([]byte{in.current()})
		in.advance()
	}
	if in.current() == q {
		in.advance()
	}
}

func (in *Interpreter) runLIST() postCondition {
	n, hasNum := in.optionalLineNumber()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	start := uint16(0)
	if hasNum {
		start = n
	}
	if err := in.list(start, &stdoutShim{in: in}); err != nil {
		in.setError(ErrSyntax)
		return pcWarmReset
	}
	return pcNextStatement
}

func (in *Interpreter) optionalLineNumber() (uint16, bool) {
	in.skipSpaces()
	if !isDigit(in.current()) {
		return 0, false
	}
	n, ok := in.parseLineNumber()
	return n, ok
}

func (in *Interpreter) runMEM() postCondition {
	free := in.freeProgramBytes()
	in.writeString(strconv.FormatUint(uint64(free), 10))
	in.writeString(" bytes free, ")
	in.writeString(strconv.Itoa(in.persistentCapacity()))
	in.writeString(" bytes persistent\n")
	return pcNextStatement
}

func (in *Interpreter) persistentCapacity() int {
	if in.EEPROM == nil {
		return 0
	}
	return 0 // capacity is a property of the backing device, not modeled here.
}

func (in *Interpreter) runDELAY() postCondition {
	ms := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	if in.Clock != nil {
		_ = in.Clock.DelayMS(in.delayCtx, int(ms))
	}
	return pcNextStatement
}

func (in *Interpreter) runSetColor(pen bool) postCondition {
	v := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	if v < 0 || v > 127 {
		in.setError(ErrExpectedColor)
		return pcWarmReset
	}
	if in.Screen != nil {
		if pen {
			in.Screen.SetPen(byte(v))
		} else {
			in.Screen.SetPaper(byte(v))
		}
	}
	return pcNextLine
}

func (in *Interpreter) runLOCATE() postCondition {
	row := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	if !in.expectByte(',', ErrSyntax) {
		return pcWarmReset
	}
	col := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	if row < 0 || row > 23 || col < 0 || col > 31 {
		in.setError(ErrInvalidCoordinates)
		return pcWarmReset
	}
	if in.Screen != nil {
		in.Screen.Locate(byte(row), byte(col))
	}
	return pcNextLine
}

func (in *Interpreter) runPSET() postCondition {
	x := in.evalExpr()
	if in.errCode != ErrNone || !in.expectByte(',', ErrSyntax) {
		return pcWarmReset
	}
	y := in.evalExpr()
	if in.errCode != ErrNone || !in.expectByte(',', ErrSyntax) {
		return pcWarmReset
	}
	c := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	if x < 0 || x > 255 || y < 0 || y > 239 {
		in.setError(ErrInvalidCoordinates)
		return pcWarmReset
	}
	if c < 0 || c > 127 {
		in.setError(ErrExpectedColor)
		return pcWarmReset
	}
	if in.Screen != nil {
		in.Screen.Plot(byte(x), byte(y), byte(c))
	}
	return pcNextLine
}

// runTEMPO maps a user-facing BPM to the wire tempo enum, silently ignoring
// values outside the four supported tempos, matching the original
// firmware per SPEC_FULL.md.
func (in *Interpreter) runTEMPO() postCondition {
	n := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	var wire byte
	switch n {
	case 60:
		wire = 0
	case 120:
		wire = 8
	case 150:
		wire = 16
	case 180:
		wire = 24
	default:
		return pcNextStatement
	}
	if in.Audio != nil {
		_ = in.Audio.WriteOpcode(external.AudioSetTempo, wire)
	}
	return pcNextStatement
}

// runMUSIC parses the inline mini-language inside a quoted string: each
// character is one of Y/A enable, N/D disable, X/C clear, M/E insert
// notes (each followed by a channel digit, and for M/E a run of note
// tokens), per SPEC_FULL.md's audio section.
func (in *Interpreter) runMUSIC() postCondition {
	in.skipSpaces()
	q := in.current()
	if q != '"' && q != '\'' {
		in.setError(ErrSyntax)
		return pcWarmReset
	}
	in.advance()
	for !in.atEnd() && in.current() != q {
		tok := in.current()
		in.advance()
		if in.atEnd() || !isDigit(in.current()) {
			in.setError(ErrUnexpectedCharacter)
			return pcWarmReset
		}
		channel := in.current() - '0'
		in.advance()
		if channel < 1 || channel > 4 {
			in.setError(ErrUnexpectedCharacter)
			return pcWarmReset
		}
		switch tok {
		case 'Y', 'A':
			if in.Audio != nil {
				_ = in.Audio.WriteOpcode(external.AudioEnableChannel, channel)
			}
		case 'N', 'D':
			if in.Audio != nil {
				_ = in.Audio.WriteOpcode(external.AudioDisableChannel, channel)
			}
		case 'X', 'C':
			if in.Audio != nil {
				_ = in.Audio.WriteOpcode(external.AudioClearChannel, channel)
			}
		case 'M', 'E':
			if pc := in.parseNoteRun(q, channel); pc != pcNextStatement {
				return pc
			}
		default:
			in.setError(ErrUnexpectedCharacter)
			return pcWarmReset
		}
	}
	if in.current() == q {
		in.advance()
	}
	return pcNextStatement
}

// parseNoteRun reads zero or more note tokens following an M/E channel
// digit, stopping at delim (or end of input) the same way the channel
// tokens do. Each note is (octave 2..7, pitch, duration 1..8, effect
// 0..3), packed into the two wire bytes spec.md §6 describes: params =
// (duration-1) | (effect<<6), note = 24*(octave-2) + 2*(pitch-1), or 144
// for a rest (pitch 13).
func (in *Interpreter) parseNoteRun(delim, channel byte) postCondition {
	var operands []byte
	for !in.atEnd() && in.current() != delim {
		octave := in.current()
		if octave < '2' || octave > '7' {
			in.setError(ErrUnexpectedCharacter)
			return pcWarmReset
		}
		in.advance()
		pitch := in.getNotePitch()
		duration := in.getNoteDuration()
		effect := in.getNoteEffect()
		if in.errCode != ErrNone {
			return pcWarmReset
		}
		var note byte
		if pitch == 13 {
			note = 144
		} else {
			note = 24*(octave-'0'-2) + 2*(pitch-1)
		}
		params := (duration - 1) | (effect << 6)
		operands = append(operands, params, note)
	}
	if in.Audio != nil {
		_ = in.Audio.WriteOpcode(external.AudioInsertNotes, append([]byte{channel}, operands...)...)
	}
	return pcNextStatement
}

// getNotePitch reads a note letter (A-G, P for rest), with a trailing
// #/b modifier on the letters that have one, per the original firmware's
// get_note table.
func (in *Interpreter) getNotePitch() byte {
	if in.atEnd() {
		in.setError(ErrUnexpectedCharacter)
		return 0
	}
	c := in.current()
	in.advance()
	sharp := func(v byte) byte {
		if !in.atEnd() && in.current() == '#' {
			in.advance()
			return v + 1
		}
		return v
	}
	flat := func(sig, flatVal byte) byte {
		if !in.atEnd() && (in.current() == 'B' || in.current() == 'b') {
			in.advance()
			return flatVal
		}
		return sig
	}
	switch c {
	case 'C', 'c':
		return sharp(1)
	case 'D', 'd':
		return 3
	case 'E', 'e':
		return flat(5, 4)
	case 'F', 'f':
		return sharp(6)
	case 'G', 'g':
		return sharp(8)
	case 'A', 'a':
		return 10
	case 'B', 'b':
		return flat(12, 11)
	case 'P', 'p':
		return 13
	default:
		in.setError(ErrUnexpectedCharacter)
		return 0
	}
}

// getNoteDuration reads the single duration digit 1..8 (32nd notes
// through a half note).
func (in *Interpreter) getNoteDuration() byte {
	if in.atEnd() || in.current() < '1' || in.current() > '8' {
		in.setError(ErrUnexpectedCharacter)
		return 0
	}
	d := in.current() - '0'
	in.advance()
	return d
}

// getNoteEffect reads an optional trailing effect marker: '+' bend up,
// '-' bend down, '=' vibrato, or none of those for no effect. Unlike
// octave/pitch/duration this one is never an error -- its absence just
// means the note has no effect.
func (in *Interpreter) getNoteEffect() byte {
	if in.atEnd() {
		return 0
	}
	switch in.current() {
	case '=':
		in.advance()
		return 3
	case '-':
		in.advance()
		return 2
	case '+':
		in.advance()
		return 1
	default:
		return 0
	}
}

func (in *Interpreter) runPINDIR() postCondition {
	p := in.evalExpr()
	if in.errCode != ErrNone || !in.expectByte(',', ErrSyntax) {
		return pcWarmReset
	}
	d := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	if d != 0 && d != 1 {
		in.setError(ErrSyntax)
		return pcWarmReset
	}
	if in.GPIO == nil {
		in.setError(ErrPinIOError)
		return pcWarmReset
	}
	if err := in.GPIO.SetDirection(int(p), d == 1); err != nil {
		in.setError(ErrInvalidPin)
		return pcWarmReset
	}
	return pcNextLine
}

func (in *Interpreter) runPINDWRITE() postCondition {
	p := in.evalExpr()
	if in.errCode != ErrNone || !in.expectByte(',', ErrSyntax) {
		return pcWarmReset
	}
	v := in.evalExpr()
	if in.errCode != ErrNone {
		return pcWarmReset
	}
	if in.GPIO == nil {
		in.setError(ErrPinIOError)
		return pcWarmReset
	}
	if err := in.GPIO.DigitalWrite(int(p), v != 0); err != nil {
		in.setError(ErrPinIOError)
		return pcWarmReset
	}
	return pcNextLine
}

func (in *Interpreter) runELIST() postCondition {
	if in.EEPROM == nil {
		return pcNextLine
	}
	_ = in.EEPROM.Seek0()
	for {
		b, err := in.EEPROM.GetC()
		if err != nil || b == 0 {
			break
		}
		if b < 0x20 || b > 0x7e {
			if b != '\n' {
				b = '?'
			}
		}
		in.writeBytes([]byte{b})
	}
	return pcNextLine
}

func (in *Interpreter) runEFORMAT() postCondition {
	if in.EEPROM == nil {
		return pcNextLine
	}
	_ = in.EEPROM.Seek0()
	_ = in.EEPROM.PutC(0)
	return pcNextLine
}

func (in *Interpreter) runSaveTo(store external.PersistentStore) postCondition {
	if store == nil {
		return pcNextLine
	}
	_ = in.save(&storeWriter{store: store})
	_ = store.PutC(0)
	return pcNextLine
}

// runLoadFrom stages an ELOAD/SLOAD ingest request. requireDigit is ELOAD's
// "assume there's a program we can load" sniff (spec.md §4.B: error 9 if
// the first EEPROM byte isn't a digit); SLOAD has no such check in the
// original firmware -- it blindly switches the ingest source regardless of
// what the serial stream's first byte is.
func (in *Interpreter) runLoadFrom(store external.PersistentStore, requireDigit bool) postCondition {
	if store == nil {
		in.setError(ErrInvalidLineNumber)
		return pcWarmReset
	}
	_ = store.Seek0()
	first, err := store.GetC()
	if requireDigit && (err != nil || !isDigit(first)) {
		in.setError(ErrInvalidLineNumber)
		return pcWarmReset
	}
	if err != nil {
		first = 0
	}
	in.pendingLoadStore = store
	in.pendingLoadByte = first
	in.pendingLoadValid = true
	return pcWarmReset
}

// seedRNG reseeds the PRNG from a single 64-bit value, folding it into
// PCG's two-word seed so RNDSEED(x) is reproducible for a given x.
func (in *Interpreter) seedRNG(seed uint64) {
	in.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
