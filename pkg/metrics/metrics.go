// Package metrics exposes the Prometheus counters used across channels.
// Registration failures are ignored, never fatal — observability
// never gates the data path (spec §7: no fatal path).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Counters groups the counters one Driver instance publishes.
type Counters struct {
	AudioFramesWritten   prometheus.Counter
	AudioFramesThrottled prometheus.Counter
	FbFramesPublished    prometheus.Counter
	CursorVersions       prometheus.Counter
	InputEventsDrained   prometheus.Counter
	RendezvousReconnects *prometheus.CounterVec
}

// NewCounters constructs and registers a fresh Counters set against reg. If
// reg is nil, prometheus.DefaultRegisterer is used.
func NewCounters(reg prometheus.Registerer) *Counters {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Counters{
		AudioFramesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "juke_audio_frames_written_total",
			Help: "PCM frames accepted into the audio ring.",
		}),
		AudioFramesThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "juke_audio_frames_throttled_total",
			Help: "PCM frames discarded by the rate-throttle fallback.",
		}),
		FbFramesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "juke_fb_frames_published_total",
			Help: "Dirty-rect publications (frame_counter increments).",
		}),
		CursorVersions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "juke_cursor_versions_total",
			Help: "Cursor shape publications (cursor_version increments).",
		}),
		InputEventsDrained: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "juke_input_events_drained_total",
			Help: "Input events drained from the consumer-written ring.",
		}),
		RendezvousReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "juke_rendezvous_reconnects_total",
			Help: "Successful rendezvous connect()+send_fd() completions, by channel.",
		}, []string{"channel"}),
	}
	for _, collector := range []prometheus.Collector{
		c.AudioFramesWritten, c.AudioFramesThrottled, c.FbFramesPublished,
		c.CursorVersions, c.InputEventsDrained, c.RendezvousReconnects,
	} {
		_ = reg.Register(collector) // duplicate registration is non-fatal; see NewNopCounters for tests
	}
	return c
}

// NewNopCounters returns a Counters set backed by unregistered collectors,
// for use in tests and demos that don't want a shared global registry.
func NewNopCounters() *Counters {
	return NewCounters(prometheus.NewRegistry())
}
