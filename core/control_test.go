package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go8bit/tinybasic/external"
)

func newDrivenInterpreter(t *testing.T) (*Interpreter, *external.MemCharIO) {
	t.Helper()
	char := &external.MemCharIO{}
	in := New(2048, WithCharIO(char))
	in.ColdStart()
	return in, char
}

// C1: FOR I=1 TO 3: PRINT I: NEXT I prints "1 2 3" (each on its own line)
// and leaves the stack empty.
func Test_control_forLoop(t *testing.T) {
	in, char := newDrivenInterpreter(t)
	in.ExecuteDirect(backgroundCtx(), "FOR I=1 TO 3: PRINT I: NEXT I\n")
	require.Equal(t, "1\n2\n3\n", char.String())
	require.Equal(t, 0, in.stackDepth())
}

// C2: a negative STEP counts down.
func Test_control_forLoopNegativeStep(t *testing.T) {
	in, char := newDrivenInterpreter(t)
	in.ExecuteDirect(backgroundCtx(), "FOR I=5 TO 1 STEP -2: PRINT I: NEXT I\n")
	require.Equal(t, "5\n3\n1\n", char.String())
	require.Equal(t, 0, in.stackDepth())
}

// C3: GOSUB ... RETURN resumes at the statement immediately after GOSUB.
func Test_control_gosubReturn(t *testing.T) {
	in, char := newDrivenInterpreter(t)
	in.MergeRecord(10, []byte("GOSUB 100"))
	in.MergeRecord(20, []byte("PRINT 2"))
	in.MergeRecord(30, []byte("END"))
	in.MergeRecord(100, []byte("PRINT 1"))
	in.MergeRecord(110, []byte("RETURN"))
	in.RunProgram(backgroundCtx())
	require.Equal(t, "1\n2\n", char.String())
}

// C4: RETURN without a matching GOSUB raises error 8.
func Test_control_returnWithoutGosub(t *testing.T) {
	in, char := newDrivenInterpreter(t)
	in.ExecuteDirect(backgroundCtx(), "RETURN\n")
	require.Contains(t, char.String(), ErrJumpPointNotFound.String())
}

// C5: nested FOR loops match inner-first by variable name.
func Test_control_nestedForMatchesByName(t *testing.T) {
	in, char := newDrivenInterpreter(t)
	in.ExecuteDirect(backgroundCtx(),
		"FOR J=1 TO 2: FOR I=1 TO 2: PRINT I: NEXT I: PRINT J: NEXT J\n")
	require.Equal(t, "1\n2\n1\n1\n2\n2\n", char.String())
	require.Equal(t, 0, in.stackDepth())
}

// C5 continued: NEXT for an outer variable while an inner FOR is still
// open (unmatched) is an error.
func Test_control_nextMismatchedVariable(t *testing.T) {
	in, char := newDrivenInterpreter(t)
	in.ExecuteDirect(backgroundCtx(), "FOR J=1 TO 1: FOR I=1 TO 1: NEXT J\n")
	require.Contains(t, char.String(), ErrJumpPointNotFound.String())
}

// C6: stack capacity supports at least 5 nested FOR frames; the 6th push
// raises error 3 (stack overflow).
func Test_control_forStackOverflow(t *testing.T) {
	in, char := newDrivenInterpreter(t)
	var prog string
	for i := 0; i < 6; i++ {
		prog += "FOR I=1 TO 1:"
	}
	in.ExecuteDirect(backgroundCtx(), prog+"\n")
	require.Contains(t, char.String(), ErrStackOverflow.String())
}

func Test_control_forStackSupportsFive(t *testing.T) {
	in, _ := newDrivenInterpreter(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, in.pushFor(byte('A'+i), 1, 1, 0, 0))
	}
	require.Equal(t, 5, in.stackDepth())
}

// A GOSUB entered from inside a FOR body that falls through into the
// matching NEXT without RETURNing leaves a GOSUB frame above the FOR
// frame; closing the loop must discard both, per spec.md §4.F's
// "set stack_ptr to the byte immediately after the matched frame" --
// not just the FOR frame, leaving the GOSUB frame to be returned to later.
func Test_control_nextDiscardsOrphanedGosubFrame(t *testing.T) {
	in, char := newDrivenInterpreter(t)
	in.MergeRecord(10, []byte("FOR I=1 TO 1"))
	in.MergeRecord(20, []byte("GOSUB 100"))
	in.MergeRecord(30, []byte("END"))
	in.MergeRecord(100, []byte("PRINT 1"))
	in.MergeRecord(110, []byte("NEXT I"))
	in.MergeRecord(120, []byte("RETURN"))
	in.RunProgram(backgroundCtx())

	require.Equal(t, 0, in.stackDepth())
	require.Contains(t, char.String(), ErrJumpPointNotFound.String())
}
