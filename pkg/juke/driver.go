package juke

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jukevm/juke/pkg/audio"
	"github.com/jukevm/juke/pkg/framebuffer"
	"github.com/jukevm/juke/pkg/input"
	"github.com/jukevm/juke/pkg/metrics"
	"github.com/jukevm/juke/pkg/refresh"
	"github.com/jukevm/juke/pkg/wire"
)

// Config wires together the three channels' rendezvous sockets and the
// audio ring's format, the way a VMM integrator configures them once at
// startup.
type Config struct {
	FbSocket    string
	AudioSocket string
	Audio       wire.AudioSettings
}

// Driver aggregates the framebuffer, audio and input channels and the
// refresh tick that drives the framebuffer and input channels (the audio
// channel is driven by its own Write calls), the way
// api/pkg/desktop.Server aggregates its D-Bus sessions, input bridge and
// HTTP server behind one Run call.
type Driver struct {
	logger *slog.Logger

	Framebuffer *framebuffer.Channel
	Audio       *audio.Channel
	Input       *input.Channel
	Refresh     *refresh.Driver

	running atomic.Bool
	wg      sync.WaitGroup
}

// New constructs a Driver. injector is the VMM's input-injection
// collaborator (see pkg/input.Injector); prober reports the host's
// preferred refresh interval and may be nil.
func New(cfg Config, injector input.Injector, prober refresh.Prober, logger *slog.Logger, m *metrics.Counters) *Driver {
	if m == nil {
		m = metrics.NewNopCounters()
	}
	fb := framebuffer.NewChannel(cfg.FbSocket, logger, m)
	in := input.NewChannel(injector, logger, m)
	fb.OnInputRing(in.SetRing)

	au := audio.NewChannel(cfg.AudioSocket, cfg.Audio, logger, m)

	rd := refresh.New(prober, logger)
	rd.OnRefresh(fb.OnRefresh)
	rd.OnRefresh(func() { in.Drain() })

	return &Driver{
		logger:      logger.With("component", "driver"),
		Framebuffer: fb,
		Audio:       au,
		Input:       in,
		Refresh:     rd,
	}
}

// Run starts the refresh loop and blocks until ctx is cancelled, then
// releases every channel's resources.
func (d *Driver) Run(ctx context.Context) error {
	d.running.Store(true)
	d.logger.Info("driver started", "refresh_interval", d.Refresh.Interval())

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Refresh.Run(ctx)
	}()

	<-ctx.Done()
	d.running.Store(false)
	d.wg.Wait()

	var firstErr error
	if err := d.Framebuffer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := d.Audio.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	d.logger.Info("driver stopped")
	return firstErr
}

// IsRunning reports whether Run is currently active.
func (d *Driver) IsRunning() bool { return d.running.Load() }
