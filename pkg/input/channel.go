// Package input implements the producer-side drain of the reverse-direction
// input ring: load write_idx, replay every event the consumer has written
// since the last drain into the VMM's input injection API, then publish
// read_idx. The injection API itself is an external collaborator (spec
// §1); Injector is the narrow interface this package depends on, with a
// uinput-backed default adapter in this package's uinput.go grounded on
// api/pkg/desktop/uinput.go.
package input

import (
	"log/slog"
	"sync"

	"github.com/jukevm/juke/pkg/metrics"
	"github.com/jukevm/juke/pkg/wire"
)

// Injector is the VMM's input injection API, as seen by this package.
type Injector interface {
	MouseRel(dx, dy int32) error
	MouseAbs(x, y int32) error
	MouseButton(button uint8, pressed bool) error
	Key(scancode int32, pressed bool) error
	// Sync commits a batch of injected events. Called at most once per
	// Drain call, after every event in that batch has been injected.
	Sync() error
}

// Channel drains one input ring into an Injector.
type Channel struct {
	injector Injector
	logger   *slog.Logger
	metrics  *metrics.Counters

	mu    sync.Mutex
	ring  wire.InputRing
	wired bool
	read  uint32
}

// NewChannel creates an input channel. The ring isn't wired until SetRing
// is called (normally right after the framebuffer channel's on_gfx_switch
// allocates the region the ring lives in).
func NewChannel(injector Injector, logger *slog.Logger, m *metrics.Counters) *Channel {
	if m == nil {
		m = metrics.NewNopCounters()
	}
	return &Channel{
		injector: injector,
		logger:   logger.With("component", "input"),
		metrics:  m,
	}
}

// SetRing points the channel at a (possibly newly allocated) input ring and
// resets the local read cursor. Called whenever the framebuffer region is
// (re)created, since the input ring lives inside it.
func (c *Channel) SetRing(ring wire.InputRing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ring = ring
	c.wired = true
	c.read = 0
}

// Drain consumes every event visible at the moment write_idx is loaded,
// injects each in order, and — if at least one event was consumed —
// commits the batch via Injector.Sync and publishes read_idx. It never
// blocks: events written after the initial load are left for the next
// Drain call.
func (c *Channel) Drain() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.wired {
		return 0
	}

	w := c.ring.WriteIdx() // acquire
	r := c.read
	count := 0

	for r != w {
		ev := c.ring.EventAt(r)
		if err := c.inject(ev); err != nil {
			c.logger.Warn("input injection failed", "type", ev.Type, "err", err)
		}
		r++
		count++
	}

	if count > 0 {
		if err := c.injector.Sync(); err != nil {
			c.logger.Warn("input sync failed", "err", err)
		}
		c.read = r
		c.ring.StoreReadIdx(r) // release: publishes that these slots are free again
		c.metrics.InputEventsDrained.Add(float64(count))
	}
	return count
}

func (c *Channel) inject(ev wire.InputEvent) error {
	switch ev.Type {
	case wire.InputMouseRel:
		return c.injector.MouseRel(ev.X, ev.Y)
	case wire.InputMouseAbs:
		return c.injector.MouseAbs(ev.X, ev.Y)
	case wire.InputMouseBtn:
		return c.injector.MouseButton(ev.Button, ev.Pressed != 0)
	case wire.InputKey:
		return c.injector.Key(ev.X, ev.Pressed != 0)
	default:
		c.logger.Debug("unknown input event type", "type", ev.Type)
		return nil
	}
}
