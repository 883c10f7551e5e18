package slcand

import "fmt"

/*
Status register bit layout, as reported by the 'F' command:

	Bit 0 CAN receive FIFO queue full
	Bit 1 CAN transmit FIFO queue full
	Bit 2 Error warning (EI)
	Bit 3 Data Overrun (DOI)
	Bit 4 Not used.
	Bit 5 Error Passive (EPI)
	Bit 6 Arbitration Lost (ALI)
	Bit 7 Bus Error (BEI)

Flags latch: once set they stay set until the engine is built anew. The host
reads them with 'F' and decides what to do; the device never clears them on
its own.
*/
type StatusFlags struct {
	RxQueueFull     bool
	TxQueueFull     bool
	ErrorWarning    bool
	DataOverrun     bool
	ErrorPassive    bool
	ArbitrationLost bool
	BusError        bool
}

// Byte packs the flags into the wire register.
func (s StatusFlags) Byte() byte {
	var b byte
	if s.RxQueueFull {
		b |= 1 << 0
	}
	if s.TxQueueFull {
		b |= 1 << 1
	}
	if s.ErrorWarning {
		b |= 1 << 2
	}
	if s.DataOverrun {
		b |= 1 << 3
	}
	if s.ErrorPassive {
		b |= 1 << 5
	}
	if s.ArbitrationLost {
		b |= 1 << 6
	}
	if s.BusError {
		b |= 1 << 7
	}
	return b
}

// Hex renders the register as two uppercase hex digits.
func (s StatusFlags) Hex() []byte {
	return []byte(fmt.Sprintf("%02X", s.Byte()))
}
