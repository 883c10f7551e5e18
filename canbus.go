package slcand

import (
	"fmt"

	"github.com/canlabs/slcand/bittiming"
)

// Bitrate is one of the nine nominal CAN bitrates selectable with the 'S'
// command. Whether a bitrate is actually reachable depends on the reference
// clock; with the stock 8 MHz clock 1 Mbit/s has no exact timing and setup
// fails with bittiming.ErrInvalidTiming.
type Bitrate uint8

const (
	Bitrate10k Bitrate = iota
	Bitrate20k
	Bitrate50k
	Bitrate100k
	Bitrate125k
	Bitrate250k
	Bitrate500k
	Bitrate800k
	Bitrate1M
)

var bitrateHz = [...]uint32{
	Bitrate10k:  10_000,
	Bitrate20k:  20_000,
	Bitrate50k:  50_000,
	Bitrate100k: 100_000,
	Bitrate125k: 125_000,
	Bitrate250k: 250_000,
	Bitrate500k: 500_000,
	Bitrate800k: 800_000,
	Bitrate1M:   1_000_000,
}

// Hz returns the nominal bitrate in bits per second.
func (b Bitrate) Hz() uint32 {
	return bitrateHz[b]
}

func (b Bitrate) String() string {
	return fmt.Sprintf("%dk", b.Hz()/1000)
}

// BitrateFromSetup maps the 'S' command argument '0'..'8' to a Bitrate.
func BitrateFromSetup(c byte) (Bitrate, error) {
	if c < '0' || c > '8' {
		return 0, fmt.Errorf("%w: bitrate selector %q", ErrInvalidCommand, c)
	}
	return Bitrate(c - '0'), nil
}

// Device is the CAN peripheral boundary. Transmit and Receive are mailbox
// style and never block; Receive reports ok=false when no frame is pending.
type Device interface {
	SetTiming(bitrateHz uint32, t bittiming.Timing) error
	Enable() error
	Disable() error
	Transmit(Frame) error
	Receive() (Frame, bool, error)
	Close() error
}

// DeviceConfig is passed to registered device constructors.
type DeviceConfig struct {
	Interface string // bus interface name, for backends that need one
	OnMessage func(string)
}

type NewDeviceFunc func(*DeviceConfig) (Device, error)

var deviceMap = map[string]NewDeviceFunc{}

// RegisterDevice adds a CAN device backend to the registry. Called from
// init(), duplicate names are a programming error.
func RegisterDevice(name string, fn NewDeviceFunc) error {
	if _, found := deviceMap[name]; found {
		return fmt.Errorf("device %q already registered", name)
	}
	deviceMap[name] = fn
	return nil
}

// OpenDevice creates a registered device backend by name.
func OpenDevice(name string, cfg *DeviceConfig) (Device, error) {
	fn, found := deviceMap[name]
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}
	if cfg.OnMessage == nil {
		cfg.OnMessage = func(string) {}
	}
	return fn(cfg)
}

// ListDevices returns the names of all registered device backends.
func ListDevices() []string {
	var out []string
	for name := range deviceMap {
		out = append(out, name)
	}
	return out
}

// Controller owns the CAN device handle and tracks whether the channel is
// live. All calls come from a single context at a time; the Bridge holds its
// lock across any command that reaches the controller.
type Controller struct {
	dev     Device
	clockHz uint32
	enabled bool
}

func NewController(dev Device, clockHz uint32) *Controller {
	return &Controller{dev: dev, clockHz: clockHz}
}

// SetBitrate resolves the bit timing for the controller's reference clock
// and programs the device. The channel is left disabled regardless of prior
// state; reopening after a bitrate change is explicit.
func (c *Controller) SetBitrate(br Bitrate) error {
	if c.enabled {
		if err := c.dev.Disable(); err != nil {
			return err
		}
		c.enabled = false
	}
	t, err := bittiming.Resolve(c.clockHz, br.Hz())
	if err != nil {
		return err
	}
	if err := c.dev.SetTiming(br.Hz(), t); err != nil {
		return fmt.Errorf("failed to program bit timing: %w", err)
	}
	return nil
}

// Enable opens the channel. Enabling an enabled channel is a no-op.
func (c *Controller) Enable() error {
	if c.enabled {
		return nil
	}
	if err := c.dev.Enable(); err != nil {
		return err
	}
	c.enabled = true
	return nil
}

// Disable closes the channel. Disabling a disabled channel is a no-op.
func (c *Controller) Disable() error {
	if !c.enabled {
		return nil
	}
	if err := c.dev.Disable(); err != nil {
		return err
	}
	c.enabled = false
	return nil
}

func (c *Controller) IsEnabled() bool {
	return c.enabled
}

// Transmit hands a frame to the device mailbox.
func (c *Controller) Transmit(f Frame) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return c.dev.Transmit(f)
}

// Receive polls the device for a pending frame without blocking.
func (c *Controller) Receive() (Frame, bool, error) {
	return c.dev.Receive()
}

func (c *Controller) Close() error {
	c.enabled = false
	return c.dev.Close()
}
