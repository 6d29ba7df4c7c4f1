package main

import (
	"errors"

	"github.com/go8bit/tinybasic/external"
	"github.com/go8bit/tinybasic/internal/logio"
)

// errGPIOUnsupported is returned by every noGPIO method: a hosted build has
// no physical pins to drive. The interpreter reports it as a pin error:
// ErrPinIOError for PINDWRITE, ErrInvalidPin for PINDIR, PINDREAD and
// PINAREAD.
var errGPIOUnsupported = errors.New("GPIO not available on this host")

type noGPIO struct{}

func (noGPIO) SetDirection(pin int, out bool) error { return errGPIOUnsupported }
func (noGPIO) DigitalRead(pin int) (bool, error)    { return false, errGPIOUnsupported }
func (noGPIO) DigitalWrite(pin int, high bool) error { return errGPIOUnsupported }
func (noGPIO) AnalogRead(pin int) (uint16, error)   { return 0, errGPIOUnsupported }

// logAudio stands in for a real audio chip: every opcode the interpreter
// emits is just logged, so PLAY/MUSIC/TEMPO statements run to completion
// and can be observed without any actual sound hardware.
type logAudio struct{ log *logio.Logger }

func (a logAudio) WriteOpcode(op external.AudioOp, operands ...byte) error {
	a.log.Printf("DEBUG", "audio opcode %d operands %v", op, operands)
	return nil
}
