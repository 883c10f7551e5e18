package slcand

import (
	"errors"
	"testing"

	"github.com/canlabs/slcand/bittiming"
)

func newTestController(t *testing.T) (*Controller, *Loopback) {
	t.Helper()
	dev, err := OpenDevice("loopback", &DeviceConfig{})
	if err != nil {
		t.Fatalf("OpenDevice: %v", err)
	}
	return NewController(dev, 8_000_000), dev.(*Loopback)
}

func TestControllerSetBitrateLeavesDisabled(t *testing.T) {
	c, _ := newTestController(t)
	if err := c.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if err := c.SetBitrate(Bitrate250k); err != nil {
		t.Fatalf("set bitrate: %v", err)
	}
	if c.IsEnabled() {
		t.Error("channel still enabled after bitrate change")
	}
}

func TestControllerSetBitrateInvalidTiming(t *testing.T) {
	c, lo := newTestController(t)
	if err := c.SetBitrate(Bitrate1M); !errors.Is(err, bittiming.ErrInvalidTiming) {
		t.Fatalf("error = %v, want ErrInvalidTiming", err)
	}
	if lo.Bitrate() != 0 {
		t.Error("device programmed despite timing failure")
	}
}

func TestControllerEnableDisableIdempotent(t *testing.T) {
	c, _ := newTestController(t)
	for i := 0; i < 2; i++ {
		if err := c.Enable(); err != nil {
			t.Fatalf("enable #%d: %v", i+1, err)
		}
	}
	if !c.IsEnabled() {
		t.Fatal("not enabled")
	}
	for i := 0; i < 2; i++ {
		if err := c.Disable(); err != nil {
			t.Fatalf("disable #%d: %v", i+1, err)
		}
	}
	if c.IsEnabled() {
		t.Fatal("still enabled")
	}
}

func TestControllerTransmitValidates(t *testing.T) {
	c, lo := newTestController(t)
	if err := c.Transmit(Frame{ID: 0x800}); !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("error = %v, want ErrInvalidCommand", err)
	}
	if _, ok, _ := lo.Receive(); ok {
		t.Error("invalid frame reached the device")
	}
}

func TestControllerReceiveNonBlocking(t *testing.T) {
	c, lo := newTestController(t)
	if _, ok, err := c.Receive(); ok || err != nil {
		t.Fatalf("empty receive: ok=%v err=%v", ok, err)
	}
	lo.Transmit(NewFrame(0x42, []byte{1}))
	f, ok, err := c.Receive()
	if err != nil || !ok || f.ID != 0x42 {
		t.Fatalf("receive: %+v ok=%v err=%v", f, ok, err)
	}
}

func TestOpenDeviceUnknown(t *testing.T) {
	if _, err := OpenDevice("bogus", &DeviceConfig{}); !errors.Is(err, ErrUnknownDevice) {
		t.Fatalf("error = %v, want ErrUnknownDevice", err)
	}
}

func TestBitrateFromSetup(t *testing.T) {
	for c := byte('0'); c <= '8'; c++ {
		br, err := BitrateFromSetup(c)
		if err != nil {
			t.Fatalf("selector %q: %v", c, err)
		}
		if br != Bitrate(c-'0') {
			t.Fatalf("selector %q = %v", c, br)
		}
	}
	for _, c := range []byte{'9', 'a', ' ', 0} {
		if _, err := BitrateFromSetup(c); !errors.Is(err, ErrInvalidCommand) {
			t.Fatalf("selector %q error = %v, want ErrInvalidCommand", c, err)
		}
	}
}
