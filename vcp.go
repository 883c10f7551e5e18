package slcand

import (
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"go.bug.st/serial"
)

// OpenPort opens the serial link to the host: 8N1 at the given baudrate with
// a short read timeout so the reader task keeps servicing its context. USB
// VCP devices can need a moment after enumeration, so opening is retried.
func OpenPort(port string, baudrate int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	var p serial.Port
	err := retry.Do(func() error {
		var err error
		p, err = serial.Open(port, mode)
		return err
	},
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open com port %q : %w", port, err)
	}
	p.SetReadTimeout(3 * time.Millisecond)
	p.ResetInputBuffer()
	p.ResetOutputBuffer()
	return p, nil
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
