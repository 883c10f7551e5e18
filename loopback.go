package slcand

import "github.com/canlabs/slcand/bittiming"

func init() {
	if err := RegisterDevice("loopback", NewLoopback); err != nil {
		panic(err)
	}
}

const loopbackMailboxes = 16

// Loopback is an in-memory CAN device: every transmitted frame comes back as
// a received one. Used for tests and for running the bridge without hardware.
type Loopback struct {
	cfg       *DeviceConfig
	mailbox   chan Frame
	bitrateHz uint32
	timing    bittiming.Timing
	enabled   bool
}

func NewLoopback(cfg *DeviceConfig) (Device, error) {
	return &Loopback{
		cfg:     cfg,
		mailbox: make(chan Frame, loopbackMailboxes),
	}, nil
}

func (l *Loopback) SetTiming(bitrateHz uint32, t bittiming.Timing) error {
	l.bitrateHz = bitrateHz
	l.timing = t
	return nil
}

// Bitrate returns the last programmed nominal bitrate in Hz.
func (l *Loopback) Bitrate() uint32 {
	return l.bitrateHz
}

func (l *Loopback) Enable() error {
	l.enabled = true
	return nil
}

func (l *Loopback) Disable() error {
	l.enabled = false
	return nil
}

func (l *Loopback) Transmit(f Frame) error {
	select {
	case l.mailbox <- f:
		return nil
	default:
		return ErrBufferOverrun
	}
}

func (l *Loopback) Receive() (Frame, bool, error) {
	select {
	case f := <-l.mailbox:
		return f, true, nil
	default:
		return Frame{}, false, nil
	}
}

func (l *Loopback) Close() error {
	return nil
}
