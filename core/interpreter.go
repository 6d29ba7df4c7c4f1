// Package core implements the language core of the BASIC dialect: the
// program store, variable store, expression evaluator, statement
// dispatcher, and control-flow stack. Character I/O, audio, GPIO, and
// persistent storage are reached only through the external package's
// interfaces.
package core

import (
	"context"
	"math/rand/v2"

	"github.com/go8bit/tinybasic/external"
	"github.com/go8bit/tinybasic/internal/logio"
)

// Default buffer geometry. A real port targets whatever RAM the host
// offers; these are sane defaults for a hosted build.
const (
	DefaultBufSize      = 4096
	DefaultStackReserve = 5 * 14 // bytes reserved for the FOR/GOSUB stack: five 14-byte FOR frames
	numVars             = 26
	varSize             = 2 // bytes per signed 16-bit variable
)

// noCurrentLine marks direct mode or a halted run: spec.md §3 calls this
// "current_line points at a record header (or null in direct mode)".
const noCurrentLine = ^uint32(0)

// Interpreter is the single threaded value representing all interpreter
// state: the flat program buffer, its three moving region boundaries, the
// execution cursor, and the external shims. It is passed by pointer to
// every statement handler; there is no other mutable global state.
type Interpreter struct {
	buf []byte

	programEnd     uint32
	variablesBegin uint32
	stackLimit     uint32
	stackPtr       uint32
	top            uint32

	// currentLine is the buffer offset of the record header currently
	// executing, or noCurrentLine in direct mode. execLine holds a working
	// copy of that record's body (or the direct-mode line), and txtpos
	// indexes into execLine -- not into buf -- for the next unread byte of
	// the current statement. Copying the line out of the packed program
	// region keeps evaluator/dispatcher code simple (plain byte-slice
	// indexing) without disturbing the packed on-buffer record layout that
	// Program Store invariants (spec.md §4.B) depend on.
	currentLine uint32
	execLine    []byte
	txtpos      uint32

	errCode ErrorCode
	errLine []byte // snapshot of the statement line that raised errCode
	errAt   uint32 // index into errLine for the caret

	stack []frame

	rng *rand.Rand

	// delayCtx is the context of the currently running statement loop,
	// threaded into DELAY's Clock.DelayMS suspension point (spec.md §5).
	delayCtx context.Context

	// Ingest-source handoff for ELOAD/SLOAD: the dispatcher only flags the
	// request (spec.md §4.B: "sets a 'source = external' flag on the
	// line-editor ingest path"); lineedit's ingest loop consumes it via
	// TakePendingLoad and actually switches input sources.
	pendingLoadStore external.PersistentStore
	pendingLoadByte  byte
	pendingLoadValid bool

	log *logio.Logger

	Char   external.CharIO
	Screen external.ScreenControl
	Audio  external.AudioSink
	GPIO   external.GPIO
	Clock  external.Clock
	Break  external.BreakSource

	// EEPROM and Serial are only accessed during ELOAD/ESAVE/SLOAD/SSAVE
	// and the line editor's ingest-source switch; see spec.md §5.
	EEPROM external.PersistentStore
	Serial external.PersistentStore

	runAfterLoad bool
}

// New constructs an Interpreter over a fresh buffer of the given size, with
// variables and control stack living at the top of the buffer and the
// program store growing up from offset zero.
func New(bufSize int, opts ...Option) *Interpreter {
	if bufSize <= 0 {
		bufSize = DefaultBufSize
	}
	in := &Interpreter{
		buf: make([]byte, bufSize),
		log: logio.New(),
		rng: rand.New(rand.NewPCG(1, 1)),
	}
	in.top = uint32(bufSize)
	in.variablesBegin = in.top - uint32(numVars*varSize)
	in.stackLimit = in.variablesBegin - DefaultStackReserve
	in.stackPtr = in.variablesBegin
	in.programEnd = 0
	in.currentLine = noCurrentLine

	for _, opt := range opts {
		opt.apply(in)
	}
	return in
}

// Option configures an Interpreter at construction time. Kept as a
// functional-options surface rather than a config struct so call sites read
// like the teacher's VMOption chain.
type Option interface{ apply(in *Interpreter) }

type optionFunc func(in *Interpreter)

func (f optionFunc) apply(in *Interpreter) { f(in) }

// WithCharIO sets the character I/O shim.
func WithCharIO(c external.CharIO) Option {
	return optionFunc(func(in *Interpreter) { in.Char = c })
}

// WithScreen sets the screen-control shim.
func WithScreen(s external.ScreenControl) Option {
	return optionFunc(func(in *Interpreter) { in.Screen = s })
}

// WithAudio sets the audio command-stream shim.
func WithAudio(a external.AudioSink) Option {
	return optionFunc(func(in *Interpreter) { in.Audio = a })
}

// WithGPIO sets the GPIO/ADC shim.
func WithGPIO(g external.GPIO) Option {
	return optionFunc(func(in *Interpreter) { in.GPIO = g })
}

// WithClock sets the free-running timer / delay shim.
func WithClock(c external.Clock) Option {
	return optionFunc(func(in *Interpreter) { in.Clock = c })
}

// WithBreakSource sets the asynchronous break-signal source.
func WithBreakSource(b external.BreakSource) Option {
	return optionFunc(func(in *Interpreter) { in.Break = b })
}

// WithEEPROM sets the EEPROM-backed persistent store.
func WithEEPROM(p external.PersistentStore) Option {
	return optionFunc(func(in *Interpreter) { in.EEPROM = p })
}

// WithSerial sets the serial-backed persistent store.
func WithSerial(p external.PersistentStore) Option {
	return optionFunc(func(in *Interpreter) { in.Serial = p })
}

// WithLogger overrides the default leveled logger.
func WithLogger(l *logio.Logger) Option {
	return optionFunc(func(in *Interpreter) { in.log = l })
}

// WithRunAfterLoad causes a RUN immediately after a successful ELOAD/SLOAD.
func WithRunAfterLoad(run bool) Option {
	return optionFunc(func(in *Interpreter) { in.runAfterLoad = run })
}

// ColdStart cold-starts the interpreter: empties the program store and clears
// every variable. Distinct from NEW (warm): see runCommand's handling of the
// NEW statement, which only empties the program store.
func (in *Interpreter) ColdStart() {
	in.programEnd = 0
	in.currentLine = noCurrentLine
	in.execLine = nil
	in.txtpos = 0
	in.errCode = ErrNone
	in.stack = in.stack[:0]
	in.stackPtr = in.variablesBegin
	for c := byte('A'); c <= 'Z'; c++ {
		in.SetVar(c, 0)
	}
}

// NewProgram empties the program store only, per the NEW statement's
// "keep variables undefined" contract (spec.md §4.E) -- which in practice
// means NEW leaves variables exactly as they were, unlike a cold start.
func (in *Interpreter) NewProgram() {
	in.programEnd = 0
	in.currentLine = noCurrentLine
	in.execLine = nil
	in.txtpos = 0
}

func (in *Interpreter) memSize() uint32 { return in.top }

// TakePendingLoad returns and clears any ELOAD/SLOAD request left by the
// dispatcher, for the line editor's ingest loop to act on.
func (in *Interpreter) TakePendingLoad() (store external.PersistentStore, firstByte byte, ok bool) {
	store, firstByte, ok = in.pendingLoadStore, in.pendingLoadByte, in.pendingLoadValid
	in.pendingLoadStore = nil
	in.pendingLoadValid = false
	return store, firstByte, ok
}

// RunAfterLoad reports whether an automatic RUN should follow the next
// completed ingest from EEPROM or serial.
func (in *Interpreter) RunAfterLoad() bool { return in.runAfterLoad }
