package main

import (
	"errors"
	"io"
	"os"
)

// fileStore backs external.PersistentStore with a plain OS file, standing
// in for EEPROM/serial persistence on a hosted build (spec.md §1 places
// real hardware out of scope). GetC returns (0, nil) once the file's
// current read position reaches its end, matching the forward-sequential,
// never-errors-at-EOF contract every PersistentStore implementation shares.
type fileStore struct {
	f *os.File
}

func openFileStore(path string) (*fileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	return &fileStore{f: f}, nil
}

func (s *fileStore) GetC() (byte, error) {
	var b [1]byte
	n, err := s.f.Read(b[:])
	if n == 0 {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, err
	}
	return b[0], nil
}

func (s *fileStore) PutC(b byte) error {
	_, err := s.f.Write([]byte{b})
	return err
}

func (s *fileStore) Seek0() error {
	_, err := s.f.Seek(0, io.SeekStart)
	return err
}

func (s *fileStore) Close() error { return s.f.Close() }

// fileCharIO is a non-interactive CharIO for the "run"/"list" subcommands:
// reads come from a buffered reader (the program source file, or stdin for
// INPUT), writes go to stdout. There's no
// echo and no control-key decoding to perform since the source isn't a
// keyboard.
type fileCharIO struct {
	r io.ByteReader
	w io.Writer
}

func (c *fileCharIO) ReadByte() (byte, error) { return c.r.ReadByte() }

func (c *fileCharIO) WriteByte(b byte) error {
	_, err := c.w.Write([]byte{b})
	return err
}
