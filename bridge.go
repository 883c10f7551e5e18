package slcand

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// BridgeConfig tunes the bridge's task periods and monitor callbacks.
// Zero values fall back to the steady-state defaults.
type BridgeConfig struct {
	PollInterval      time.Duration // CAN receive poll period
	FlushInterval     time.Duration // outbound queue drain period
	HeartbeatInterval time.Duration
	OnMessage         func(string)
	OnHeartbeat       func()
	Debug             bool
}

// Bridge runs the protocol engine between a serial byte stream and the CAN
// controller. It is the Go rendition of the firmware's interrupt/task model:
// the serial reader plays the receive interrupt, the poll and flush tasks
// are the periodically rescheduled timers, and one mutex stands in for
// interrupt masking — held only across a single queue or engine operation so
// no push or pop is ever interleaved with another context touching the same
// queue end.
//
// Queue ownership: rxQueue is produced and consumed solely on the serial
// reader's context. txQueue has two producers (command dispatch, CAN poll)
// and one consumer (flush), all under mu.
type Bridge struct {
	cfg    BridgeConfig
	engine *Engine
	port   io.ReadWriter

	mu      sync.Mutex
	rxQueue Queue
	txQueue Queue
}

func NewBridge(engine *Engine, port io.ReadWriter, cfg BridgeConfig) *Bridge {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Millisecond
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Millisecond
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 500 * time.Millisecond
	}
	if cfg.OnMessage == nil {
		cfg.OnMessage = func(s string) {
			log.Println(s)
		}
	}
	return &Bridge{
		cfg:    cfg,
		engine: engine,
		port:   port,
	}
}

// Run starts the bridge tasks and blocks until the context is cancelled or
// the serial port fails.
func (b *Bridge) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.serialReader(ctx) })
	g.Go(func() error { return b.canPoll(ctx) })
	g.Go(func() error { return b.flush(ctx) })
	g.Go(func() error { return b.heartbeat(ctx) })
	return g.Wait()
}

func (b *Bridge) serialReader(ctx context.Context) error {
	readBuf := make([]byte, 16)
	for ctx.Err() == nil {
		n, err := b.port.Read(readBuf)
		if err != nil {
			return fmt.Errorf("failed to read serial port: %w", err)
		}
		if n == 0 {
			continue
		}
		for _, v := range readBuf[:n] {
			b.handleByte(v)
		}
	}
	return ctx.Err()
}

// handleByte is the receive-interrupt body: accumulate, and on a complete
// line run the command and queue its response. Parse and handler errors
// become the error byte; a full rx queue is flag-and-drop only, the
// eventual terminator will reject the corrupted line.
func (b *Bridge) handleByte(v byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cmd, err := b.engine.HandleByte(v, &b.rxQueue)
	if err != nil {
		if IsQueueFull(err) {
			return
		}
		if b.cfg.Debug {
			b.cfg.OnMessage("<< rejected: " + err.Error())
		}
		if werr := b.engine.WriteResponse(nil, err, &b.txQueue); werr != nil {
			b.cfg.OnMessage("response dropped: " + werr.Error())
		}
		return
	}
	if cmd == nil {
		return
	}
	if b.cfg.Debug {
		b.cfg.OnMessage("<< " + cmd.Variant.String())
	}
	resp, cmdErr := b.engine.Execute(cmd)
	if werr := b.engine.WriteResponse(resp, cmdErr, &b.txQueue); werr != nil {
		b.cfg.OnMessage("response dropped: " + werr.Error())
	}
}

func (b *Bridge) canPoll(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			b.mu.Lock()
			f, ok, err := b.engine.PollInbound(&b.txQueue)
			b.mu.Unlock()
			if err != nil {
				b.cfg.OnMessage("can poll: " + err.Error())
				continue
			}
			if ok && b.cfg.Debug {
				b.cfg.OnMessage("<i> " + f.ColorString())
			}
		}
	}
}

// flush drains the outbound queue to the serial port. Drain time grows with
// queue depth; the queue capacity bounds it.
func (b *Bridge) flush(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.FlushInterval)
	defer ticker.Stop()
	out := make([]byte, 0, QueueSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			out = out[:0]
			b.mu.Lock()
			for {
				v, ok := b.txQueue.Pop()
				if !ok {
					break
				}
				out = append(out, v)
			}
			b.mu.Unlock()
			if len(out) == 0 {
				continue
			}
			if _, err := b.port.Write(out); err != nil {
				return fmt.Errorf("failed to write serial port: %w", err)
			}
		}
	}
}

func (b *Bridge) heartbeat(ctx context.Context) error {
	ticker := time.NewTicker(b.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if b.cfg.OnHeartbeat != nil {
				b.cfg.OnHeartbeat()
			}
		}
	}
}
