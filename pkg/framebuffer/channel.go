// Package framebuffer implements the producer side of the graphics channel:
// a memfd-backed surface plus hardware-cursor slab and dirty-rect/frame-
// counter publish protocol, grounded on the allocate-on-(re)configure shape
// of api/pkg/drm/manager.go's handleLeaseRequest and the callback-driven
// update path of api/pkg/desktop/shared_video_source.go.
package framebuffer

import (
	"log/slog"
	"sync"

	"github.com/jukevm/juke/pkg/juke"
	"github.com/jukevm/juke/pkg/memregion"
	"github.com/jukevm/juke/pkg/metrics"
	"github.com/jukevm/juke/pkg/rendezvous"
	"github.com/jukevm/juke/pkg/wire"
)

// Channel is one graphics output surface: one memfd-backed region (header +
// cursor slab + embedded input ring + pixel buffer) plus its rendezvous
// connection.
type Channel struct {
	socketPath string
	logger     *slog.Logger
	metrics    *metrics.Counters
	conn       *rendezvous.Connector

	// onInputRing, if set, is called with the new input ring every time the
	// region is (re)allocated, so an input.Channel can stay wired to
	// whichever region currently backs this surface.
	onInputRing func(wire.InputRing)

	mu             sync.Mutex
	region         *memregion.Region
	header         wire.FbHeader
	inputRing      wire.InputRing
	width, height  uint32
	stride, format uint32
}

// NewChannel creates a framebuffer channel. No region exists until the
// first OnGfxSwitch call.
func NewChannel(socketPath string, logger *slog.Logger, m *metrics.Counters) *Channel {
	if m == nil {
		m = metrics.NewNopCounters()
	}
	return &Channel{
		socketPath: socketPath,
		logger:     logger.With("component", "framebuffer"),
		metrics:    m,
		conn:       rendezvous.New(socketPath, logger.With("component", "framebuffer-rendezvous"), m.RendezvousReconnects, "framebuffer"),
	}
}

// OnInputRing registers a callback invoked with the channel's input ring
// whenever the backing region is (re)allocated. Call before the first
// OnGfxSwitch to avoid missing the initial wiring.
func (c *Channel) OnInputRing(fn func(wire.InputRing)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInputRing = fn
}

func (c *Channel) allocated() bool { return c.region != nil }

// OnGfxSwitch (re)allocates the region for the given surface geometry,
// copies the entire current surface into it, and republishes a fresh
// rendezvous handshake. Called whenever the guest's display mode changes.
// pixels is the full current surface contents, row-major at the given
// stride; it is copied into the pixel buffer before the region is shared so
// a consumer that maps it right after the switch sees the real surface
// instead of zeros (spec §4.4's "copy the entire surface contents" step,
// mirroring juke-shmem.c:267-270). Per spec §4.4, the memfd itself is only
// reallocated when the new geometry needs more space than the current
// mapping (juke-shmem.c:222); a same-or-shrinking switch reuses the
// existing fd so the consumer isn't forced through another rendezvous
// round trip.
func (c *Channel) OnGfxSwitch(width, height, stride, format uint32, pixels []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := wire.FbRegionSize(stride, height)
	if c.region == nil || size > c.region.Size() {
		region, err := memregion.Create("juke-fb", size)
		if err != nil {
			return juke.Degraded(err)
		}
		if c.region != nil {
			_ = c.region.Close()
		}
		c.region = region
		c.conn.Reset()
	}

	header := wire.NewFbHeader(c.region.Data)
	header.Init(width, height, stride, format)
	ring := wire.NewInputRing(wire.InputRingBytes(c.region.Data))
	ring.Reset()

	c.header = header
	c.inputRing = ring
	c.width, c.height, c.stride, c.format = width, height, stride, format

	copy(wire.PixelBuffer(c.region.Data, stride, height), pixels)

	c.logger.Info("framebuffer region allocated",
		"width", width, "height", height, "stride", stride, "format", format, "size", size)

	if c.onInputRing != nil {
		c.onInputRing(ring)
	}

	c.conn.Tick(c.region.Fd)
	return nil
}

// OnGfxUpdate copies the rows [y, y+hh) of the dirty band into the pixel
// buffer and publishes the frame. pixels is the surface's full backing
// buffer, row-major at the surface's stride, not a cropped buffer holding
// only the dirty columns: spec §4.4 requires copying the entire row stride
// for each row in the dirty band, not just the dirty column span, since a
// narrower column-range copy risks partial-row visibility under weak
// ordering (juke-shmem.c:189-190's memcpy(dst + row*stride, src +
// row*stride, stride)). x and w are still recorded via SetDirtyRect for the
// consumer's damage tracking; they no longer bound the copy itself. A
// no-op if no region has been allocated yet.
func (c *Channel) OnGfxUpdate(x, y, w, hh uint32, pixels []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.allocated() {
		return
	}

	dst := wire.PixelBuffer(c.region.Data, c.stride, c.height)
	stride := int(c.stride)
	for row := uint32(0); row < hh; row++ {
		off := int(y+row) * stride
		if off+stride > len(pixels) || off+stride > len(dst) {
			break
		}
		copy(dst[off:off+stride], pixels[off:off+stride])
	}

	c.header.SetDirtyRect(x, y, w, hh)
	c.header.PublishFrame()
	c.metrics.FbFramesPublished.Inc()

	c.conn.Tick(c.region.Fd)
}

// OnCursorDefine writes a new cursor shape into the fixed 64x64 RGBA slab
// and publishes it. pixels must be exactly wire.CursorBytes long; shapes
// smaller than 64x64 are expected to be pre-padded by the caller (spec
// §4.4's fixed-size cursor slab has no partial-shape encoding).
func (c *Channel) OnCursorDefine(width, height uint32, hotX, hotY int32, pixels []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.allocated() {
		return
	}
	slab := wire.CursorPixels(c.region.Data)
	n := copy(slab, pixels)
	for ; n < len(slab); n++ {
		slab[n] = 0
	}
	c.header.SetCursorShape(width, height, hotX, hotY)
	c.header.PublishCursor()
	c.metrics.CursorVersions.Inc()
}

// OnMouseSet publishes the console subsystem's cursor position and
// visibility. No cursor_version bump: the consumer correlates position
// against frame_counter, per wire.FbHeader.SetMousePosition.
func (c *Channel) OnMouseSet(x, y int32, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.allocated() {
		return
	}
	c.header.SetMousePosition(x, y, visible)
}

// OnRefresh retries the rendezvous handshake for the current region. Called
// by the refresh driver on every tick; a no-op before the first
// OnGfxSwitch and once the consumer already has the current fd.
func (c *Channel) OnRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.allocated() {
		return
	}
	c.conn.Tick(c.region.Fd)
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

