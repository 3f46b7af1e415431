package framebuffer

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jukevm/juke/pkg/wire"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOnGfxSwitchAllocatesAndInitsHeader(t *testing.T) {
	c := NewChannel(t.TempDir()+"/fb.sock", testLogger(), nil)
	defer c.Close()

	pixels := make([]byte, 640*4*480)
	err := c.OnGfxSwitch(640, 480, 640*4, wire.FormatXRGB8888, pixels)
	require.NoError(t, err)
	assert.True(t, c.allocated())

	width, height, stride, format := c.header.Geometry()
	assert.Equal(t, uint32(640), width)
	assert.Equal(t, uint32(480), height)
	assert.Equal(t, uint32(640*4), stride)
	assert.Equal(t, uint32(wire.FormatXRGB8888), format)
}

func TestOnGfxSwitchCopiesEntireSurface(t *testing.T) {
	c := NewChannel(t.TempDir()+"/fb.sock", testLogger(), nil)
	defer c.Close()

	surface := make([]byte, 4*16) // 4 rows of 16-byte stride
	for i := range surface {
		surface[i] = byte(i)
	}

	require.NoError(t, c.OnGfxSwitch(4, 4, 16, wire.FormatXRGB8888, surface))

	pixels := wire.PixelBuffer(c.region.Data, c.stride, c.height)
	assert.Equal(t, surface, pixels)
}

func TestOnGfxSwitchWiresInputRingCallback(t *testing.T) {
	c := NewChannel(t.TempDir()+"/fb.sock", testLogger(), nil)
	defer c.Close()

	var got *wire.InputRing
	c.OnInputRing(func(r wire.InputRing) {
		got = &r
	})

	require.NoError(t, c.OnGfxSwitch(320, 240, 320*4, wire.FormatXRGB8888, nil))
	require.NotNil(t, got)
	assert.Equal(t, uint32(0), got.WriteIdx())
}

func TestOnGfxUpdatePublishesFrame(t *testing.T) {
	c := NewChannel(t.TempDir()+"/fb.sock", testLogger(), nil)
	defer c.Close()

	require.NoError(t, c.OnGfxSwitch(4, 4, 16, wire.FormatXRGB8888, nil))

	// A full-surface buffer (4 rows of 16-byte stride); only row 1 differs
	// from what's already in the region, but the dirty band only covers it.
	surface := make([]byte, 4*16)
	for i := range surface[16:32] {
		surface[16+i] = byte(i + 1)
	}
	c.OnGfxUpdate(0, 1, 2, 1, surface)

	assert.Equal(t, uint64(1), c.header.FrameCounter())
	x, y, w, hh := c.header.DirtyRect()
	assert.Equal(t, uint32(0), x)
	assert.Equal(t, uint32(1), y)
	assert.Equal(t, uint32(2), w)
	assert.Equal(t, uint32(1), hh)

	pixels := wire.PixelBuffer(c.region.Data, c.stride, c.height)
	assert.Equal(t, surface[16:32], pixels[16:32], "entire row stride copied, not just the dirty column span")
	assert.Equal(t, make([]byte, 16), pixels[0:16], "rows outside the dirty band are untouched")
}

func TestOnGfxUpdateBeforeSwitchIsNoop(t *testing.T) {
	c := NewChannel(t.TempDir()+"/fb.sock", testLogger(), nil)
	defer c.Close()
	c.OnGfxUpdate(0, 0, 1, 1, []byte{1, 2, 3, 4}) // must not panic
}

func TestOnCursorDefineAndOnMouseSet(t *testing.T) {
	c := NewChannel(t.TempDir()+"/fb.sock", testLogger(), nil)
	defer c.Close()
	require.NoError(t, c.OnGfxSwitch(640, 480, 640*4, wire.FormatXRGB8888, nil))

	pixels := make([]byte, wire.CursorBytes)
	for i := range pixels {
		pixels[i] = 0xFF
	}
	c.OnCursorDefine(32, 32, -2, -2, pixels)

	assert.Equal(t, uint32(1), c.header.CursorVersion())
	width, height, hotX, hotY := c.header.CursorMeta()
	assert.Equal(t, uint32(32), width)
	assert.Equal(t, uint32(32), height)
	assert.Equal(t, int32(-2), hotX)
	assert.Equal(t, int32(-2), hotY)

	c.OnMouseSet(50, 60, true)
	x, y, visible := c.header.CursorPosition()
	assert.Equal(t, int32(50), x)
	assert.Equal(t, int32(60), y)
	assert.True(t, visible)
	assert.Equal(t, uint32(1), c.header.CursorVersion(), "mouse position never bumps cursor_version")
}

func TestOnGfxSwitchReallocatesOnGrowth(t *testing.T) {
	c := NewChannel(t.TempDir()+"/fb.sock", testLogger(), nil)
	defer c.Close()

	require.NoError(t, c.OnGfxSwitch(640, 480, 640*4, wire.FormatXRGB8888, nil))
	firstFd := c.region.Fd

	require.NoError(t, c.OnGfxSwitch(1920, 1080, 1920*4, wire.FormatXRGB8888, nil))
	assert.NotEqual(t, firstFd, c.region.Fd)
	width, height, _, _ := c.header.Geometry()
	assert.Equal(t, uint32(1920), width)
	assert.Equal(t, uint32(1080), height)
}

func TestOnGfxSwitchReusesRegionWhenNotGrowing(t *testing.T) {
	c := NewChannel(t.TempDir()+"/fb.sock", testLogger(), nil)
	defer c.Close()

	require.NoError(t, c.OnGfxSwitch(640, 480, 640*4, wire.FormatXRGB8888, nil))
	firstFd := c.region.Fd

	// Same total region size (stride*height), different geometry (e.g. a
	// rotated mode): must not reallocate the memfd or force another
	// rendezvous round trip.
	require.NoError(t, c.OnGfxSwitch(480, 640, 480*4, wire.FormatXRGB8888, nil))
	assert.Equal(t, firstFd, c.region.Fd)
	width, height, _, _ := c.header.Geometry()
	assert.Equal(t, uint32(480), width)
	assert.Equal(t, uint32(640), height)
}
