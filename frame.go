package slcand

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

const (
	maxStandardID = 0x7FF      // 11 bit
	maxExtendedID = 0x1FFFFFFF // 29 bit
	maxFrameData  = 8
)

// Frame is a classical CAN frame with an 11-bit (standard) or 29-bit
// (extended) identifier and 0-8 data bytes.
type Frame struct {
	ID       uint32
	Extended bool
	Data     []byte
}

// NewFrame creates a standard frame and copies the data slice.
func NewFrame(id uint32, data []byte) Frame {
	d := make([]byte, len(data))
	copy(d, data)
	return Frame{ID: id, Data: d}
}

// NewExtendedFrame creates a 29-bit identifier frame and copies the data slice.
func NewExtendedFrame(id uint32, data []byte) Frame {
	f := NewFrame(id, data)
	f.Extended = true
	return f
}

// DLC returns the data length code.
func (f Frame) DLC() int {
	return len(f.Data)
}

func (f Frame) Validate() error {
	if len(f.Data) > maxFrameData {
		return fmt.Errorf("%w: %d data bytes", ErrInvalidCommand, len(f.Data))
	}
	limit := uint32(maxStandardID)
	if f.Extended {
		limit = maxExtendedID
	}
	if f.ID > limit {
		return fmt.Errorf("%w: identifier 0x%X out of range", ErrInvalidCommand, f.ID)
	}
	return nil
}

const hexDigits = "0123456789ABCDEF"

// Marshal renders the frame on the wire: optional type byte ('t' standard,
// 'T' extended), the identifier as 3 or 8 uppercase hex digits, one length
// digit and the data as uppercase hex pairs.
func (f Frame) Marshal(withType bool) []byte {
	buf := make([]byte, 0, 2+8+len(f.Data)*2)
	if f.Extended {
		if withType {
			buf = append(buf, 'T')
		}
		buf = append(buf, fmt.Sprintf("%08X", f.ID)...)
	} else {
		if withType {
			buf = append(buf, 't')
		}
		buf = append(buf, fmt.Sprintf("%03X", f.ID)...)
	}
	buf = append(buf, hexDigits[len(f.Data)])
	for _, b := range f.Data {
		buf = append(buf, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	return buf
}

// unmarshalFrame decodes the argument bytes of a transmit command. The
// identifier width, the length digit and the data length must all line up
// exactly, a frame is never parsed partially.
func unmarshalFrame(extended bool, args []byte) (Frame, error) {
	idLen, limit := 3, uint64(maxStandardID)
	if extended {
		idLen, limit = 8, maxExtendedID
	}
	if len(args) < idLen+1 {
		return Frame{}, fmt.Errorf("%w: short frame", ErrInvalidCommand)
	}
	id, err := strconv.ParseUint(string(args[:idLen]), 16, 32)
	if err != nil || id > limit {
		return Frame{}, fmt.Errorf("%w: bad identifier %q", ErrInvalidCommand, args[:idLen])
	}
	dlc := hexVal(args[idLen])
	if dlc < 0 || dlc > maxFrameData {
		return Frame{}, fmt.Errorf("%w: bad length digit %q", ErrInvalidCommand, args[idLen])
	}
	rest := args[idLen+1:]
	if len(rest) != dlc*2 {
		return Frame{}, fmt.Errorf("%w: %d data chars for DLC %d", ErrInvalidCommand, len(rest), dlc)
	}
	data, err := hex.DecodeString(string(rest))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: bad data %q", ErrInvalidCommand, rest)
	}
	return Frame{ID: uint32(id), Extended: extended, Data: data}, nil
}

func hexVal(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10
	}
	return -1
}

var (
	yellow = color.New(color.FgHiBlue).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
)

func (f Frame) String() string {
	var out strings.Builder
	if f.Extended {
		out.WriteString(fmt.Sprintf("0x%08X", f.ID))
	} else {
		out.WriteString(fmt.Sprintf("0x%03X", f.ID))
	}
	out.WriteString(" || " + strconv.Itoa(len(f.Data)) + " || ")
	var hexView strings.Builder
	for i, b := range f.Data {
		hexView.WriteString(fmt.Sprintf("%02X", b))
		if i != len(f.Data)-1 {
			hexView.WriteString(" ")
		}
	}
	out.WriteString(fmt.Sprintf("%-23s", hexView.String()))
	out.WriteString(" || ")
	out.WriteString(onlyPrintable(f.Data))
	return out.String()
}

func (f Frame) ColorString() string {
	var out strings.Builder
	if f.Extended {
		out.WriteString(green("0x%08X", f.ID))
	} else {
		out.WriteString(green("0x%03X", f.ID))
	}
	out.WriteString(" || " + strconv.Itoa(len(f.Data)) + " || ")
	var hexView strings.Builder
	for i, b := range f.Data {
		hexView.WriteString(fmt.Sprintf("%02X", b))
		if i != len(f.Data)-1 {
			hexView.WriteString(" ")
		}
	}
	out.WriteString(red("%-23s", hexView.String()))
	out.WriteString(" || ")
	out.WriteString(yellow(onlyPrintable(f.Data)))
	return out.String()
}

func onlyPrintable(data []byte) string {
	var out strings.Builder
	for _, b := range data {
		if b < 32 || b > 127 {
			out.WriteString("·")
		} else {
			out.WriteByte(b)
		}
	}
	return out.String()
}
