package slcand

import "fmt"

type CommandVariant uint8

const (
	Setup CommandVariant = iota
	SetupWithBTR
	OpenChannel
	CloseChannel
	TransmitFrame
	TransmitExtendedFrame
	TransmitRTRFrame
	TransmitExtendedRTRFrame
	ReadStatusFlags
	SetAcceptanceCode
	SetAcceptanceMask
	GetVersion
	GetSerialNumber
	EnableTimestamps
)

var variantNames = map[CommandVariant]string{
	Setup:                    "Setup",
	SetupWithBTR:             "SetupWithBTR",
	OpenChannel:              "OpenChannel",
	CloseChannel:             "CloseChannel",
	TransmitFrame:            "TransmitFrame",
	TransmitExtendedFrame:    "TransmitExtendedFrame",
	TransmitRTRFrame:         "TransmitRTRFrame",
	TransmitExtendedRTRFrame: "TransmitExtendedRTRFrame",
	ReadStatusFlags:          "ReadStatusFlags",
	SetAcceptanceCode:        "SetAcceptanceCode",
	SetAcceptanceMask:        "SetAcceptanceMask",
	GetVersion:               "GetVersion",
	GetSerialNumber:          "GetSerialNumber",
	EnableTimestamps:         "EnableTimestamps",
}

func (v CommandVariant) String() string {
	if name, found := variantNames[v]; found {
		return name
	}
	return fmt.Sprintf("CommandVariant(%d)", uint8(v))
}

// Longest legal argument payload: 'T' carries 8 identifier digits, one
// length digit and up to 16 data digits.
const maxCommandArgs = 25

// Command is one terminated protocol line, split into its variant letter and
// raw argument bytes. Argument semantics are checked by the handler at run
// time, not here.
type Command struct {
	Variant CommandVariant
	Args    []byte
}

// ParseCommand classifies a terminated line by its first byte. Unknown
// letters, empty lines and oversized argument payloads are rejected here,
// before any state is touched.
func ParseCommand(line []byte) (*Command, error) {
	if len(line) == 0 {
		return nil, fmt.Errorf("%w: empty line", ErrInvalidCommand)
	}
	var variant CommandVariant
	switch line[0] {
	case 'S':
		variant = Setup
	case 's':
		variant = SetupWithBTR
	case 'O':
		variant = OpenChannel
	case 'C':
		variant = CloseChannel
	case 't':
		variant = TransmitFrame
	case 'T':
		variant = TransmitExtendedFrame
	case 'r':
		variant = TransmitRTRFrame
	case 'R':
		variant = TransmitExtendedRTRFrame
	case 'F':
		variant = ReadStatusFlags
	case 'M':
		variant = SetAcceptanceCode
	case 'm':
		variant = SetAcceptanceMask
	case 'V':
		variant = GetVersion
	case 'N':
		variant = GetSerialNumber
	case 'Z':
		variant = EnableTimestamps
	default:
		return nil, fmt.Errorf("%w: unknown command %q", ErrInvalidCommand, line[0])
	}
	if len(line)-1 > maxCommandArgs {
		return nil, fmt.Errorf("%w: %d argument bytes", ErrInvalidCommand, len(line)-1)
	}
	args := make([]byte, len(line)-1)
	copy(args, line[1:])
	return &Command{Variant: variant, Args: args}, nil
}
