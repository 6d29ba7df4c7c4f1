package lineedit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go8bit/tinybasic/core"
	"github.com/go8bit/tinybasic/external"
)

func backgroundCtx() context.Context { return context.Background() }

func newLineEditorInterpreter(t *testing.T) (*core.Interpreter, *external.MemCharIO) {
	t.Helper()
	char := &external.MemCharIO{}
	in := core.New(2048, core.WithCharIO(char))
	in.ColdStart()
	return in, char
}

// L1: a line with no leading digits executes immediately and is never
// stored in the program.
func Test_editor_nonDigitLineExecutesImmediately(t *testing.T) {
	in, char := newLineEditorInterpreter(t)
	ed := New(in, char)

	char.Feed("print 1\r")
	ran, err := ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.Contains(t, char.String(), "1\n")

	char.Feed("list\r")
	ran, err = ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.NotContains(t, char.String(), "PRINT")
}

// L2: a leading line number above 65534 raises error 9 instead of being
// merged into the program store.
func Test_editor_lineNumberOverflowRaisesError9(t *testing.T) {
	in, char := newLineEditorInterpreter(t)
	ed := New(in, char)

	char.Feed("65535 print 1\r")
	ran, err := ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.Contains(t, char.String(), core.ErrInvalidLineNumber.String())

	char.Feed("list\r")
	ran, err = ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.NotContains(t, char.String(), "PRINT")
}

// The boundary case just below the overflow line is a normal store.
func Test_editor_maxLineNumberIsAccepted(t *testing.T) {
	in, char := newLineEditorInterpreter(t)
	ed := New(in, char)

	char.Feed("65534 print 1\r")
	ran, err := ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.NotContains(t, char.String(), core.ErrInvalidLineNumber.String())

	char.Feed("list\r")
	ran, err = ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.Contains(t, char.String(), "65534 PRINT 1")
}

// L3: case normalization applies outside quotes only.
func Test_editor_caseFoldingPreservesQuotedText(t *testing.T) {
	in, char := newLineEditorInterpreter(t)
	ed := New(in, char)

	char.Feed(`print "Hi There"` + "\r")
	ran, err := ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.Contains(t, char.String(), "Hi There\n")
	require.NotContains(t, char.String(), "HI THERE")
}

func Test_editor_caseFoldingInStoredLine(t *testing.T) {
	in, char := newLineEditorInterpreter(t)
	ed := New(in, char)

	char.Feed(`10 print "Hi"` + "\r")
	ran, err := ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)

	char.Feed("list\r")
	ran, err = ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.Contains(t, char.String(), `10 PRINT "Hi"`)
}

// Backspace erases the previously inserted byte.
func Test_editor_backspaceErasesLastChar(t *testing.T) {
	in, char := newLineEditorInterpreter(t)
	ed := New(in, char)

	char.Feed("A\x08B\r")
	ran, err := ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.Contains(t, char.String(), core.ErrOperatorExpected.String())
	require.NotContains(t, char.String(), core.ErrInvalidVariableName.String())
}

// Backspace at column zero is a no-op that rings the bell.
func Test_editor_backspaceAtStartRingsBell(t *testing.T) {
	in, char := newLineEditorInterpreter(t)
	ed := New(in, char)

	char.Feed("\x08A\r")
	ran, err := ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.Contains(t, char.String(), "\x07")
}

// A full working line refuses further input and rings the bell instead of
// overflowing maxLineLen.
func Test_editor_fullLineRingsBell(t *testing.T) {
	in, char := newLineEditorInterpreter(t)
	ed := New(in, char)

	line := make([]byte, 0, maxLineLen+2)
	for i := 0; i < maxLineLen+1; i++ {
		line = append(line, 'X')
	}
	line = append(line, '\r')
	char.Feed(string(line))

	ran, err := ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.Contains(t, char.String(), "\x07")
}

// Left-arrow repositions the cursor for a mid-line insert.
func Test_editor_leftArrowRepositionsCursor(t *testing.T) {
	in, char := newLineEditorInterpreter(t)
	ed := New(in, char)

	char.Feed("AC\x1b[DB\r")
	ran, err := ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.Contains(t, char.String(), core.ErrInvalidVariableName.String())
}

// HOME repositions the cursor to column zero.
func Test_editor_homeKeyRepositionsCursor(t *testing.T) {
	in, char := newLineEditorInterpreter(t)
	ed := New(in, char)

	char.Feed("BC\x1b[HA\r")
	ran, err := ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.True(t, ran)
	require.Contains(t, char.String(), core.ErrInvalidVariableName.String())
}

// Next reports eof once the keyboard source is exhausted.
func Test_editor_eofOnExhaustedKeyboard(t *testing.T) {
	in, char := newLineEditorInterpreter(t)
	ed := New(in, char)

	ran, err := ed.Next(backgroundCtx())
	require.NoError(t, err)
	require.False(t, ran)
}
