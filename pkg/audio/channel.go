// Package audio implements the producer side of the audio channel: a
// header-qualified PCM ring with rate-controlled fallback when the ring is
// full or the consumer is absent, mirroring the "never block the caller,
// downgrade and log" shape of api/pkg/desktop/audio_stream.go's
// Start/forwardFrames, but for a raw PCM ring instead of a GStreamer
// pipeline.
package audio

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jukevm/juke/pkg/juke"
	"github.com/jukevm/juke/pkg/memregion"
	"github.com/jukevm/juke/pkg/metrics"
	"github.com/jukevm/juke/pkg/rendezvous"
	"github.com/jukevm/juke/pkg/ringbuf"
	"github.com/jukevm/juke/pkg/wire"
)

// Channel is one audio output stream: one memfd-backed PCM ring plus its
// rendezvous connection.
type Channel struct {
	settings wire.AudioSettings
	logger   *slog.Logger
	metrics  *metrics.Counters
	conn     *rendezvous.Connector

	mu     sync.Mutex
	region *memregion.Region
	header wire.AudioHeader

	clockLast time.Time
	clockOwed float64
}

// NewChannel creates an audio channel for the given settings. The memfd is
// not allocated until the first call to Write, per spec §4.3's "Idempotent:
// only allocates on first voice".
func NewChannel(socketPath string, settings wire.AudioSettings, logger *slog.Logger, m *metrics.Counters) *Channel {
	if m == nil {
		m = metrics.NewNopCounters()
	}
	return &Channel{
		settings: settings,
		logger:   logger.With("component", "audio"),
		metrics:  m,
		conn:     rendezvous.New(socketPath, logger.With("component", "audio-rendezvous"), m.RendezvousReconnects, "audio"),
	}
}

// allocated reports whether the memfd has been created. Caller must hold mu.
func (c *Channel) allocated() bool { return c.region != nil }

// initOutLocked allocates and initializes the region. Caller must hold mu.
func (c *Channel) initOutLocked() error {
	if c.allocated() {
		return nil
	}
	size := wire.AudioRegionSize(c.settings)
	region, err := memregion.Create("juke-audio", size)
	if err != nil {
		return juke.Degraded(err)
	}
	header := wire.NewAudioHeader(region.Data)
	header.Init(c.settings)
	c.region = region
	c.header = header
	c.conn.Reset()
	c.logger.Info("audio region allocated", "size", size, "ring_frames", c.settings.RingFrames)
	return nil
}

// Write accepts up to len(buf) bytes of interleaved PCM from the VMM audio
// front-end, returning the number of bytes actually accepted. The return
// value is always a multiple of the frame size and never exceeds len(buf).
// Write never blocks: when the region isn't allocated yet, the consumer has
// disabled playback, or the ring is full, the shortfall is paced out via
// rate_throttle so the caller's cadence stays real-time.
func (c *Channel) Write(buf []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.allocated() {
		if err := c.initOutLocked(); err != nil {
			c.logger.Warn("audio init_out failed, falling back to rate throttle", "err", err)
			return c.rateThrottleLocked(len(buf))
		}
	}

	c.conn.Tick(c.region.Fd)

	if !c.header.Enabled() {
		return c.rateThrottleLocked(len(buf))
	}

	r := c.header.ReadIdx() // acquire: synchronizes with the consumer's release store
	w := c.header.WriteIdx()
	n := c.settings.RingFrames
	frameBytes := c.settings.FrameBytes()

	free := ringbuf.Free(w, r, n)
	maxFrames := uint32(len(buf)) / frameBytes
	toWrite := free
	if maxFrames < toWrite {
		toWrite = maxFrames
	}
	if toWrite == 0 {
		return c.rateThrottleLocked(len(buf))
	}

	ring := c.header.Ring(c.settings)
	offset := ringbuf.Offset(w, n, int(frameBytes))
	ringbuf.CopyIn(ring, offset, buf[:toWrite*frameBytes])
	c.header.StoreWriteIdx(w + toWrite) // release: publishes the samples just copied

	c.metrics.AudioFramesWritten.Add(float64(toWrite))
	// A real write advances real time too; reset the throttle clock so a
	// subsequent shortfall doesn't get credited for time spent producing.
	c.clockLast = time.Now()
	c.clockOwed = 0
	return int(toWrite * frameBytes)
}

// rateThrottleLocked models the passage of wall-clock time worth of
// samples, returning how many bytes of buf should be treated as "consumed"
// even though they were discarded. Caller must hold mu.
func (c *Channel) rateThrottleLocked(length int) int {
	now := time.Now()
	if c.clockLast.IsZero() {
		c.clockLast = now
		return 0
	}
	elapsed := now.Sub(c.clockLast).Seconds()
	c.clockLast = now

	bytesPerSec := float64(c.settings.SampleRate) * float64(c.settings.FrameBytes())
	c.clockOwed += elapsed * bytesPerSec
	if c.clockOwed > float64(length) {
		c.clockOwed = float64(length)
	}

	frameBytes := float64(c.settings.FrameBytes())
	frames := math.Floor(c.clockOwed / frameBytes)
	accepted := int(frames * frameBytes)
	c.clockOwed -= float64(accepted)
	c.metrics.AudioFramesThrottled.Add(frames)
	return accepted
}

// EnableOut restarts the local rate-control clock. It never touches the
// enabled field in the header: that field is consumer-owned (spec §4.3),
// and this method's only job is to stop the next rate_throttle call from
// crediting time elapsed before the front-end actually resumed.
func (c *Channel) EnableOut() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clockLast = time.Time{}
	c.clockOwed = 0
}

// SetVolume release-stores muted/volume_left/volume_right. A no-op if the
// region hasn't been allocated yet.
func (c *Channel) SetVolume(left, right uint32, muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.allocated() {
		return
	}
	c.header.SetVolume(left, right, muted)
}

// Close releases the memfd and rendezvous connection.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.Reset()
	if c.region != nil {
		err := c.region.Close()
		c.region = nil
		return err
	}
	return nil
}
