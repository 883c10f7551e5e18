package slcand

import "errors"

var (
	// ErrQueueFull is returned when a push would exceed a queue's capacity.
	// The offending byte or response is dropped, the queue itself is left
	// intact.
	ErrQueueFull = errors.New("queue full")
	// ErrInvalidCommand covers unknown command letters, empty lines and
	// malformed command arguments.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrNotImplemented is returned for commands the protocol accepts but
	// this device does not execute (RTR frames, BTR setup, acceptance
	// filters).
	ErrNotImplemented = errors.New("not implemented")
	// ErrBufferOverrun signals a full hardware mailbox on transmit.
	ErrBufferOverrun = errors.New("buffer overrun")

	ErrUnknownDevice = errors.New("unknown CAN device")
)
