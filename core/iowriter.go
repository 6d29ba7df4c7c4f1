package core

import "github.com/go8bit/tinybasic/external"

// stdoutShim adapts the interpreter's own Char output to io.Writer, for
// handlers (LIST) that want to reuse membuf.go's io.Writer-based list/save
// rather than duplicating the walk.
type stdoutShim struct{ in *Interpreter }

func (w *stdoutShim) Write(p []byte) (int, error) {
	w.in.writeBytes(p)
	return len(p), nil
}

// storeWriter adapts a PersistentStore to io.Writer, one PutC per byte, for
// ESAVE/SSAVE's reuse of membuf.go's save.
type storeWriter struct{ store external.PersistentStore }

func (w *storeWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		if err := w.store.PutC(b); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
