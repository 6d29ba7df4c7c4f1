package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/go8bit/tinybasic/internal/flushio"
	"github.com/go8bit/tinybasic/internal/runeio"
)

const ctrlC = 0x03

// terminal adapts the process's stdin/stdout to external.CharIO,
// external.ScreenControl, and external.BreakSource. Raw mode puts the
// terminal driver out of the way so the line editor sees every keystroke
// unbuffered and unechoed; a background reader goroutine decouples stdin
// reads from whatever the interpreter happens to be doing, so CTRL-C lands
// during a DELAY or a tight RUN loop, not just at the next read.
type terminal struct {
	out flushio.WriteFlusher

	oldState *term.State

	bytesCh chan byte
	breakCh chan struct{}
}

func newTerminal(ctx context.Context) (*terminal, error) {
	t := &terminal{
		out:     flushio.NewWriteFlusher(os.Stdout),
		bytesCh: make(chan byte, 64),
		breakCh: make(chan struct{}, 1),
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		st, err := term.MakeRaw(int(os.Stdin.Fd()))
		if err != nil {
			return nil, err
		}
		t.oldState = st
	}
	go t.readLoop(ctx)
	return t, nil
}

func (t *terminal) readLoop(ctx context.Context) {
	defer close(t.bytesCh)
	var b [1]byte
	for {
		n, err := os.Stdin.Read(b[:])
		if n > 0 {
			if b[0] == ctrlC {
				select {
				case t.breakCh <- struct{}{}:
				default:
				}
			} else {
				select {
				case t.bytesCh <- b[0]:
				case <-ctx.Done():
					return
				}
			}
		}
		if err != nil {
			return
		}
	}
}

// Restore puts the terminal back into whatever mode it was in before
// newTerminal put it in raw mode. A no-op if stdin wasn't a terminal.
func (t *terminal) Restore() error {
	if t.oldState != nil {
		return term.Restore(int(os.Stdin.Fd()), t.oldState)
	}
	return nil
}

func (t *terminal) ReadByte() (byte, error) {
	b, ok := <-t.bytesCh
	if !ok {
		return 0, io.EOF
	}
	return b, nil
}

func (t *terminal) WriteByte(b byte) error {
	if _, err := runeio.WriteANSIRune(t.out, rune(b)); err != nil {
		return err
	}
	return t.out.Flush()
}

func (t *terminal) Break() <-chan struct{} { return t.breakCh }

// ScreenControl is mapped onto a small subset of ANSI/VT100 escapes -- the
// closest hosted analogue to the homebrew machine's memory-mapped text and
// pixel screen (spec.md §6).
func (t *terminal) Reset()          { t.esc("\x1bc") }
func (t *terminal) Clear()          { t.esc("\x1b[2J\x1b[H") }
func (t *terminal) SetPen(c byte)   { t.esc(fmt.Sprintf("\x1b[38;5;%dm", c)) }
func (t *terminal) SetPaper(c byte) { t.esc(fmt.Sprintf("\x1b[48;5;%dm", c)) }
func (t *terminal) Locate(row, col byte) {
	t.esc(fmt.Sprintf("\x1b[%d;%dH", int(row)+1, int(col)+1))
}
func (t *terminal) Plot(x, y, color byte) {
	t.esc(fmt.Sprintf("\x1b[%d;%dH\x1b[48;5;%dm \x1b[0m", int(y)+1, int(x)+1, color))
}
func (t *terminal) CursorOn()  { t.esc("\x1b[?25h") }
func (t *terminal) CursorOff() { t.esc("\x1b[?25l") }
func (t *terminal) ScrollOn()  { t.esc("\x1b[r") }
func (t *terminal) ScrollOff() { t.esc("\x1b[1;1r") }

func (t *terminal) esc(s string) {
	_, _ = t.out.Write([]byte(s))
	_ = t.out.Flush()
}

// systemClock backs external.Clock with the host monotonic clock: Now()
// reports milliseconds since the clock was constructed (close enough to
// the homebrew machine's free-running timer for RANDOMIZE's seed), and
// DelayMS is a plain context-cancellable sleep.
type systemClock struct{ start time.Time }

func newSystemClock() *systemClock { return &systemClock{start: time.Now()} }

func (c *systemClock) Now() uint32 { return uint32(time.Since(c.start).Milliseconds()) }

func (c *systemClock) DelayMS(ctx context.Context, ms int) error {
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
