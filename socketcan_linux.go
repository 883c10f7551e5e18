//go:build linux

package slcand

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/candevice"
	"go.einride.tech/can/pkg/socketcan"

	"github.com/canlabs/slcand/bittiming"
)

func init() {
	if err := RegisterDevice("socketcan", NewSocketCAN); err != nil {
		panic(err)
	}
}

// SocketCAN backs the channel controller with a Linux SocketCAN interface.
// The kernel programs its own bit timing, so SetTiming only forwards the
// nominal bitrate the resolver validated. Receive is made non-blocking by a
// pump goroutine feeding a buffered channel.
type SocketCAN struct {
	cfg  *DeviceConfig
	dev  *candevice.Device
	conn net.Conn
	tx   *socketcan.Transmitter
	rx   *socketcan.Receiver

	mu      sync.Mutex
	recv    chan Frame
	stop    chan struct{}
	started bool
}

func NewSocketCAN(cfg *DeviceConfig) (Device, error) {
	dev, err := candevice.New(cfg.Interface)
	if err != nil {
		return nil, fmt.Errorf("failed to open can device %q: %w", cfg.Interface, err)
	}
	return &SocketCAN{
		cfg:  cfg,
		dev:  dev,
		recv: make(chan Frame, 64),
	}, nil
}

func (a *SocketCAN) SetTiming(bitrateHz uint32, _ bittiming.Timing) error {
	return a.dev.SetBitrate(bitrateHz)
}

func (a *SocketCAN) Enable() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	if err := a.dev.SetUp(); err != nil {
		return fmt.Errorf("failed to bring up %q: %w", a.cfg.Interface, err)
	}
	conn, err := socketcan.DialContext(context.Background(), "can", a.cfg.Interface)
	if err != nil {
		a.dev.SetDown()
		return fmt.Errorf("failed to dial %q: %w", a.cfg.Interface, err)
	}
	a.conn = conn
	a.tx = socketcan.NewTransmitter(conn)
	a.rx = socketcan.NewReceiver(conn)
	a.stop = make(chan struct{})
	a.started = true
	go a.recvManager(a.rx, a.stop)
	return nil
}

func (a *SocketCAN) Disable() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return nil
	}
	close(a.stop)
	a.conn.Close()
	a.started = false
	if err := a.dev.SetDown(); err != nil {
		return fmt.Errorf("failed to bring down %q: %w", a.cfg.Interface, err)
	}
	return nil
}

func (a *SocketCAN) Transmit(f Frame) error {
	a.mu.Lock()
	tx := a.tx
	started := a.started
	a.mu.Unlock()
	if !started {
		return ErrBufferOverrun
	}
	frame := can.Frame{
		ID:         f.ID,
		Length:     uint8(len(f.Data)),
		IsExtended: f.Extended,
	}
	copy(frame.Data[:], f.Data)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := tx.TransmitFrame(ctx, frame); err != nil {
		if ctx.Err() != nil {
			return ErrBufferOverrun
		}
		return fmt.Errorf("failed to transmit frame: %w", err)
	}
	return nil
}

func (a *SocketCAN) Receive() (Frame, bool, error) {
	select {
	case f := <-a.recv:
		return f, true, nil
	default:
		return Frame{}, false, nil
	}
}

func (a *SocketCAN) recvManager(rx *socketcan.Receiver, stop chan struct{}) {
	for rx.Receive() {
		select {
		case <-stop:
			return
		default:
		}
		f := rx.Frame()
		frame := Frame{
			ID:       f.ID,
			Extended: f.IsExtended,
			Data:     append([]byte(nil), f.Data[:f.Length]...),
		}
		select {
		case a.recv <- frame:
		default:
			a.cfg.OnMessage("dropped incoming frame, receive buffer full")
		}
	}
}

func (a *SocketCAN) Close() error {
	return a.Disable()
}

// FindDevices lists network interfaces that look like CAN devices.
func FindDevices() (dev []string) {
	iFaces, _ := net.Interfaces()
	for _, i := range iFaces {
		if len(i.Name) >= 3 && i.Name[:3] == "can" {
			dev = append(dev, i.Name)
		}
	}
	return
}
