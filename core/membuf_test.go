package core

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestInterpreter(t *testing.T) *Interpreter {
	t.Helper()
	return New(512)
}

// P1: every insert of (n, body) followed by list contains n exactly once,
// in numeric order among siblings.
func Test_MergeRecord_listOrder(t *testing.T) {
	in := newTestInterpreter(t)

	in.MergeRecord(20, []byte("PRINT 2"))
	in.MergeRecord(10, []byte("PRINT 1"))
	in.MergeRecord(30, []byte("PRINT 3"))

	var buf bytes.Buffer
	require.NoError(t, in.list(0, &buf))
	require.Equal(t, "10 PRINT 1\n20 PRINT 2\n30 PRINT 3\n", buf.String())
}

// P2: inserting (n, LF-only) is equivalent to remove(n).
func Test_MergeRecord_emptyBodyRemoves(t *testing.T) {
	in := newTestInterpreter(t)

	in.MergeRecord(10, []byte("PRINT 1"))
	in.MergeRecord(20, []byte("PRINT 2"))
	in.MergeRecord(10, nil)

	var buf bytes.Buffer
	require.NoError(t, in.list(0, &buf))
	require.Equal(t, "20 PRINT 2\n", buf.String())
}

// P3: save then load into an empty store reproduces the original listing
// byte-for-byte.
func Test_Save_roundTrip(t *testing.T) {
	in := newTestInterpreter(t)
	in.MergeRecord(10, []byte("LET A=1"))
	in.MergeRecord(20, []byte("PRINT A"))

	var saved bytes.Buffer
	require.NoError(t, in.save(&saved))

	out := newTestInterpreter(t)
	src := saved.String()
	for _, line := range bytes.SplitAfter([]byte(src), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		// Each saved line is "<n> <body>\n"; split off the leading number.
		i := bytes.IndexByte(line, ' ')
		require.True(t, i > 0)
		var n uint16
		for _, c := range line[:i] {
			n = n*10 + uint16(c-'0')
		}
		out.MergeRecord(n, bytes.TrimSuffix(line[i+1:], []byte("\n")))
	}

	var reSaved bytes.Buffer
	require.NoError(t, out.save(&reSaved))
	require.Equal(t, saved.String(), reSaved.String())
}

func Test_recordReplace(t *testing.T) {
	in := newTestInterpreter(t)
	in.MergeRecord(10, []byte("PRINT 1"))
	in.MergeRecord(10, []byte("PRINT 99"))

	var buf bytes.Buffer
	require.NoError(t, in.list(0, &buf))
	require.Equal(t, "10 PRINT 99\n", buf.String())
}

func Test_freeProgramBytes_shrinksOnInsert(t *testing.T) {
	in := newTestInterpreter(t)
	before := in.freeProgramBytes()
	in.MergeRecord(10, []byte("END"))
	after := in.freeProgramBytes()
	require.Less(t, after, before)
}

func Test_peekPoke_roundTrip(t *testing.T) {
	in := newTestInterpreter(t)
	require.NoError(t, in.poke(5, 42))
	b, err := in.peek(5)
	require.NoError(t, err)
	require.Equal(t, byte(42), b)

	_, err = in.peek(in.memSize())
	require.Error(t, err)
}
