// Package srcqueue switches the line editor's byte source between the
// interactive keyboard and a persistent store during ELOAD/SLOAD ingest.
// Adapted from the teacher's internal/fileinput Input/Queue pattern
// (itself a queue of io.Readers for gothird's REPL/script inputs),
// specialized here to exactly two sources -- keyboard, and optionally one
// persistent store -- since spec.md §4.B only ever names EEPROM or serial
// as a single alternate ingest stream, never a queue of several.
package srcqueue

import (
	"errors"

	"github.com/go8bit/tinybasic/external"
)

// ErrSourceDone is returned by ReadByte when a store-backed ingest reaches
// its terminating zero byte (spec.md §6: "terminated by a single 0 byte").
// The source has already switched back to the keyboard by the time this
// error is returned.
var ErrSourceDone = errors.New("srcqueue: ingest source exhausted")

// Source is a ReadByte-only byte source that starts out reading the
// keyboard and can be redirected to a PersistentStore for the duration of
// an ELOAD/SLOAD.
type Source struct {
	keyboard  external.CharIO
	store     external.PersistentStore
	fromStore bool
}

// New wraps keyboard as the initial (and default) byte source.
func New(keyboard external.CharIO) *Source {
	return &Source{keyboard: keyboard}
}

// SwitchToStore begins reading from store instead of the keyboard, per
// spec.md §4.B's "sets a 'source = external' flag on the line-editor
// ingest path."
func (s *Source) SwitchToStore(store external.PersistentStore) {
	s.store = store
	s.fromStore = true
}

// FromStore reports whether the source is currently reading from a store.
func (s *Source) FromStore() bool { return s.fromStore }

// ReadByte reads the next byte from whichever source is active. Reading
// from a store, a zero byte ends the stream, switches back to the
// keyboard, and is reported as ErrSourceDone.
func (s *Source) ReadByte() (byte, error) {
	if !s.fromStore {
		return s.keyboard.ReadByte()
	}
	b, err := s.store.GetC()
	if err != nil {
		s.fromStore = false
		s.store = nil
		return 0, err
	}
	if b == 0 {
		s.fromStore = false
		s.store = nil
		return 0, ErrSourceDone
	}
	return b, nil
}
