package slcand

import (
	"errors"
	"fmt"
	"time"
)

const (
	// CommandTerminator ends every inbound line and every successful
	// response.
	CommandTerminator = 0x0D
	// ErrorChar is the single-byte failure response, sent without a
	// terminator.
	ErrorChar = 0x07
)

const (
	hardwareVersion = 0xFA
	softwareVersion = 0x01
)

type VersionInfo struct {
	Hardware uint8
	Software uint8
}

type ChannelState uint8

const (
	Closed ChannelState = iota
	Open
)

func (s ChannelState) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Engine is the protocol state machine: it accumulates inbound bytes into
// lines, executes parsed commands against the channel controller and writes
// responses to the outbound queue. It owns the status register, version
// info, serial number and channel state exclusively; callers serialize
// access (see Bridge).
type Engine struct {
	bus *Controller

	state      ChannelState
	bitrate    Bitrate
	hasBitrate bool
	timestamps bool
	status     StatusFlags

	version      VersionInfo
	serialNumber [4]byte

	epoch  time.Time
	millis func() uint16 // timestamp source, swappable in tests
}

// NewEngine builds a freshly reset engine: channel closed, no bitrate
// selected, all status flags clear, timestamps off.
func NewEngine(bus *Controller) *Engine {
	e := &Engine{
		bus:          bus,
		version:      VersionInfo{Hardware: hardwareVersion, Software: softwareVersion},
		serialNumber: [4]byte{'F', '4', '4', '6'},
		epoch:        time.Now(),
	}
	e.millis = func() uint16 {
		return uint16(time.Since(e.epoch).Milliseconds() % 60000)
	}
	return e
}

func (e *Engine) Status() StatusFlags {
	return e.status
}

func (e *Engine) State() ChannelState {
	return e.state
}

// Bitrate returns the selected bitrate; ok is false until 'S' succeeds once.
func (e *Engine) Bitrate() (Bitrate, bool) {
	return e.bitrate, e.hasBitrate
}

func (e *Engine) TimestampsEnabled() bool {
	return e.timestamps
}

// HandleByte feeds one inbound serial byte into the accumulator. A
// terminator drains the rx queue in FIFO order and parses the line as a
// command; the queue is cleared whether or not parsing succeeds. Any other
// byte is appended; if the queue is full the byte is dropped, the
// rx-queue-full flag latches and ErrQueueFull comes back. The partial line
// stays queued and will fail to parse at the next terminator.
func (e *Engine) HandleByte(b byte, rx *Queue) (*Command, error) {
	if b == CommandTerminator {
		line := make([]byte, 0, rx.Len())
		for {
			v, ok := rx.Pop()
			if !ok {
				break
			}
			line = append(line, v)
		}
		return ParseCommand(line)
	}
	if err := rx.Push(b); err != nil {
		e.status.RxQueueFull = true
		return nil, err
	}
	return nil, nil
}

// Execute runs a parsed command to completion, returning the response bytes
// (possibly empty) or a typed error. Command execution never suspends.
func (e *Engine) Execute(cmd *Command) ([]byte, error) {
	switch cmd.Variant {
	case Setup:
		return e.runSetup(cmd)
	case OpenChannel:
		return e.runOpenChannel()
	case CloseChannel:
		return e.runCloseChannel()
	case TransmitFrame:
		return e.runTransmit(false, cmd)
	case TransmitExtendedFrame:
		return e.runTransmit(true, cmd)
	case ReadStatusFlags:
		return append([]byte{'F'}, e.status.Hex()...), nil
	case GetVersion:
		return []byte(fmt.Sprintf("V%02X%02X", e.version.Hardware, e.version.Software)), nil
	case GetSerialNumber:
		return append([]byte{'N'}, e.serialNumber[:]...), nil
	case EnableTimestamps:
		return e.runEnableTimestamps(cmd)
	case SetupWithBTR, TransmitRTRFrame, TransmitExtendedRTRFrame, SetAcceptanceCode, SetAcceptanceMask:
		return nil, fmt.Errorf("%w: %s", ErrNotImplemented, cmd.Variant)
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidCommand, cmd.Variant)
}

func (e *Engine) runSetup(cmd *Command) ([]byte, error) {
	if len(cmd.Args) < 1 {
		return nil, fmt.Errorf("%w: missing bitrate selector", ErrInvalidCommand)
	}
	br, err := BitrateFromSetup(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	if e.state == Open {
		return nil, fmt.Errorf("%w: channel is open", ErrInvalidCommand)
	}
	if err := e.bus.SetBitrate(br); err != nil {
		return nil, err
	}
	e.bitrate = br
	e.hasBitrate = true
	return nil, nil
}

func (e *Engine) runOpenChannel() ([]byte, error) {
	if err := e.bus.Enable(); err != nil {
		return nil, err
	}
	e.state = Open
	return nil, nil
}

func (e *Engine) runCloseChannel() ([]byte, error) {
	if err := e.bus.Disable(); err != nil {
		return nil, err
	}
	e.state = Closed
	return nil, nil
}

func (e *Engine) runTransmit(extended bool, cmd *Command) ([]byte, error) {
	f, err := unmarshalFrame(extended, cmd.Args)
	if err != nil {
		return nil, err
	}
	if err := e.bus.Transmit(f); err != nil {
		return nil, err
	}
	// Echo the frame back exactly as it would be rendered on receive.
	return f.Marshal(true), nil
}

func (e *Engine) runEnableTimestamps(cmd *Command) ([]byte, error) {
	if len(cmd.Args) < 1 {
		return nil, fmt.Errorf("%w: missing timestamp toggle", ErrInvalidCommand)
	}
	switch cmd.Args[0] {
	case '0':
		e.timestamps = false
	case '1':
		e.timestamps = true
	default:
		return nil, fmt.Errorf("%w: timestamp toggle %q", ErrInvalidCommand, cmd.Args[0])
	}
	return nil, nil
}

// WriteResponse applies the uniform response policy: a successful command
// appends its response bytes plus the terminator, a failed one appends the
// single error byte. A response that does not fit in the outbound queue is
// dropped whole (never truncated mid-line), the tx-queue-full flag latches
// and ErrQueueFull is returned; the queue indices are never corrupted.
func (e *Engine) WriteResponse(resp []byte, cmdErr error, tx *Queue) error {
	if cmdErr != nil {
		if err := tx.Push(ErrorChar); err != nil {
			e.status.TxQueueFull = true
			return err
		}
		return nil
	}
	if tx.Free() < len(resp)+1 {
		e.status.TxQueueFull = true
		return ErrQueueFull
	}
	for _, b := range resp {
		tx.Push(b)
	}
	tx.Push(CommandTerminator)
	return nil
}

// EncodeInbound renders a received CAN frame for the host, appending the
// four-digit millisecond timestamp (wrapping at one minute) when the host
// enabled timestamps with Z1.
func (e *Engine) EncodeInbound(f Frame) []byte {
	out := f.Marshal(true)
	if e.timestamps {
		out = append(out, fmt.Sprintf("%04X", e.millis())...)
	}
	return out
}

// PollInbound asks the controller for one pending frame and, if present,
// writes its encoding to the outbound queue. Runs only while the channel is
// open. Returns the frame for the caller's monitor output.
func (e *Engine) PollInbound(tx *Queue) (Frame, bool, error) {
	if e.state != Open {
		return Frame{}, false, nil
	}
	f, ok, err := e.bus.Receive()
	if err != nil || !ok {
		return Frame{}, false, err
	}
	if err := e.WriteResponse(e.EncodeInbound(f), nil, tx); err != nil {
		return f, true, err
	}
	return f, true, nil
}

// IsQueueFull reports whether err is the queue-capacity error, which the
// serial path treats as flag-and-drop rather than as a command failure.
func IsQueueFull(err error) bool {
	return errors.Is(err, ErrQueueFull)
}
