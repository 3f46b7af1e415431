// Package refresh implements the periodic tick that drives rendezvous
// retries, input drain and any other per-frame work, grounded on the
// ctx/ticker loop shape of api/pkg/desktop/damage_keepalive.go's
// runDamageKeepalive.
package refresh

import (
	"context"
	"log/slog"
	"time"
)

// minInterval and maxInterval bound the refresh period accepted from a
// Prober, per spec §4.6: a prober reporting 0 or an unreasonably long
// interval is replaced by defaultInterval rather than trusted outright.
const (
	minInterval     = time.Millisecond
	maxInterval     = 100 * time.Millisecond
	defaultInterval = 8 * time.Millisecond
)

// Prober reports the host's preferred refresh interval, e.g. queried from
// the display server's current mode. A Prober that can't determine one
// should return (0, false).
type Prober interface {
	ProbeInterval() (time.Duration, bool)
}

// ProberFunc adapts a function to a Prober.
type ProberFunc func() (time.Duration, bool)

// ProbeInterval implements Prober.
func (f ProberFunc) ProbeInterval() (time.Duration, bool) { return f() }

// Driver ticks at a clamped interval, invoking every registered hook each
// tick. Hooks are called in registration order and must not block.
type Driver struct {
	logger   *slog.Logger
	prober   Prober
	interval time.Duration
	hooks    []func()
}

// New creates a refresh driver. If prober is nil, or its first probe
// fails, defaultInterval is used.
func New(prober Prober, logger *slog.Logger) *Driver {
	interval := defaultInterval
	if prober != nil {
		if probed, ok := prober.ProbeInterval(); ok {
			interval = clamp(probed)
		}
	}
	return &Driver{
		logger:   logger.With("component", "refresh"),
		prober:   prober,
		interval: interval,
	}
}

func clamp(d time.Duration) time.Duration {
	if d < minInterval || d >= maxInterval {
		return defaultInterval
	}
	return d
}

// OnRefresh registers a hook to run on every tick.
func (d *Driver) OnRefresh(hook func()) {
	d.hooks = append(d.hooks, hook)
}

// Interval returns the currently active tick period.
func (d *Driver) Interval() time.Duration { return d.interval }

// Run ticks until ctx is done, invoking every registered hook each tick.
// Call in its own goroutine.
func (d *Driver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("refresh driver started", "interval", d.interval)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("refresh driver stopped")
			return
		case <-ticker.C:
			for _, hook := range d.hooks {
				hook()
			}
		}
	}
}
