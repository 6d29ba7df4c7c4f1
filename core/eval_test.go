package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// eval parses and evaluates expr as a standalone expression, the way
// assignment/IF/PRINT statements do from the middle of a statement.
func eval(t *testing.T, in *Interpreter, expr string) int16 {
	t.Helper()
	in.errCode = ErrNone
	in.currentLine = noCurrentLine
	in.execLine = append(in.execLine[:0], expr...)
	in.execLine = append(in.execLine, '\n')
	in.txtpos = 0
	return in.evalExpr()
}

// E1: a*b wraps identically to two's-complement 16-bit multiplication.
func Test_eval_multiplyWraps(t *testing.T) {
	in := newTestInterpreter(t)
	in.SetVar('A', 30000)
	in.SetVar('B', 3)
	got := eval(t, in, "A*B")
	require.Equal(t, int16(24464), got) // 30000*3 = 90000 wraps to 90000-65536
}

// E2: a/0 raises error 11 and does not modify state (the left operand is
// returned unchanged).
func Test_eval_divisionByZero(t *testing.T) {
	in := newTestInterpreter(t)
	got := eval(t, in, "7/0")
	require.Equal(t, ErrDivisionByZero, in.errCode)
	require.Equal(t, int16(7), got)
}

// E3: relational operators return 0 or 1 and never chain.
func Test_eval_relationalNoChaining(t *testing.T) {
	in := newTestInterpreter(t)

	require.Equal(t, int16(1), eval(t, in, "1<2"))
	require.Equal(t, int16(0), eval(t, in, "2<1"))

	// "1<2<3" parses as "(1<2)" (=1) followed by an unconsumed "<3" that
	// the statement-level caller must reject; evalExpr itself only ever
	// evaluates one relop level, so it stops after the first comparison.
	in.errCode = ErrNone
	in.currentLine = noCurrentLine
	in.execLine = append(in.execLine[:0], "1<2<3\n"...)
	in.txtpos = 0
	got := in.evalExpr()
	require.Equal(t, int16(1), got)
	require.Less(t, int(in.txtpos), len(in.execLine)-1, "expression evaluator must not have consumed the trailing <3")
}

// E4: RND(n) for n<=0 is documented as an error.
func Test_eval_rndNonPositive(t *testing.T) {
	in := newTestInterpreter(t)
	eval(t, in, "RND(0)")
	require.Equal(t, ErrOutOfRange, in.errCode)

	in.errCode = ErrNone
	eval(t, in, "RND(-5)")
	require.Equal(t, ErrOutOfRange, in.errCode)
}

func Test_eval_rndInRange(t *testing.T) {
	in := newTestInterpreter(t)
	for i := 0; i < 50; i++ {
		v := eval(t, in, "RND(10)")
		require.NoError(t, errOf(in))
		require.GreaterOrEqual(t, v, int16(0))
		require.Less(t, v, int16(10))
	}
}

func errOf(in *Interpreter) error {
	if in.errCode == ErrNone {
		return nil
	}
	return errors.New(in.errCode.String())
}

// E5: variable lookup and the single-letter variable name invariant.
func Test_eval_variableLookup(t *testing.T) {
	in := newTestInterpreter(t)
	in.SetVar('A', 7)
	require.Equal(t, int16(8), eval(t, in, "A+1"))
}

// E5 continued: a multi-letter name is not a valid variable (spec.md
// §4.C), raising error 17 rather than silently truncating to one letter.
func Test_parseVarLetter_multiLetterIsError(t *testing.T) {
	in := newTestInterpreter(t)
	in.currentLine = noCurrentLine
	in.execLine = append(in.execLine[:0], "AB=1\n"...)
	in.txtpos = 0
	in.errCode = ErrNone

	_, ok := in.parseVarLetter()
	require.False(t, ok)
	require.Equal(t, ErrInvalidVariableName, in.errCode)
}

func Test_eval_abs(t *testing.T) {
	in := newTestInterpreter(t)
	require.Equal(t, int16(5), eval(t, in, "ABS(-5)"))
	require.Equal(t, int16(5), eval(t, in, "ABS(5)"))
	// ABS(INT16_MIN) wraps back to INT16_MIN -- see DESIGN.md.
	in.SetVar('A', -32768)
	require.Equal(t, int16(-32768), eval(t, in, "ABS(A)"))
}

func Test_eval_leadingZeroLiteral(t *testing.T) {
	in := newTestInterpreter(t)
	require.Equal(t, int16(0), eval(t, in, "0123"))
}

func Test_eval_peek(t *testing.T) {
	in := newTestInterpreter(t)
	require.NoError(t, in.poke(3, 200))
	require.Equal(t, int16(200), eval(t, in, "PEEK(3)"))
}
