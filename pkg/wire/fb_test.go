package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFbRegionSizeLayout(t *testing.T) {
	require.Equal(t, 80, FbHeaderSize)
	require.Equal(t, CursorDim*CursorDim*4, CursorBytes)
	require.Equal(t, 16+InputRingSlots*InputEventSize, InputRingSize)

	stride, height := uint32(1920*4), uint32(1080)
	got := FbRegionSize(stride, height)
	want := FbHeaderSize + CursorBytes + InputRingSize + int(stride)*int(height)
	assert.Equal(t, want, got)
}

func TestFbHeaderInitAndGeometry(t *testing.T) {
	buf := make([]byte, FbRegionSize(800, 600))
	h := NewFbHeader(buf)
	h.Init(200, 600, 800, FormatXRGB8888)

	assert.Equal(t, uint64(0), h.FrameCounter())
	width, height, stride, format := h.Geometry()
	assert.Equal(t, uint32(200), width)
	assert.Equal(t, uint32(600), height)
	assert.Equal(t, uint32(800), stride)
	assert.Equal(t, uint32(FormatXRGB8888), format)

	x, y, w, hh := h.DirtyRect()
	assert.Equal(t, uint32(0), x)
	assert.Equal(t, uint32(0), y)
	assert.Equal(t, uint32(200), w)
	assert.Equal(t, uint32(600), hh)
}

func TestFbHeaderPublishFrameIncrementsCounter(t *testing.T) {
	buf := make([]byte, FbRegionSize(800, 600))
	h := NewFbHeader(buf)
	h.Init(800, 600, 3200, FormatXRGB8888)

	h.SetDirtyRect(10, 20, 30, 40)
	v1 := h.PublishFrame()
	assert.Equal(t, uint64(1), v1)
	assert.Equal(t, uint64(1), h.FrameCounter())

	x, y, w, hh := h.DirtyRect()
	assert.Equal(t, uint32(10), x)
	assert.Equal(t, uint32(20), y)
	assert.Equal(t, uint32(30), w)
	assert.Equal(t, uint32(40), hh)

	v2 := h.PublishFrame()
	assert.Equal(t, uint64(2), v2)
}

func TestFbHeaderCursorPublishRoundTrip(t *testing.T) {
	buf := make([]byte, FbRegionSize(800, 600))
	h := NewFbHeader(buf)
	h.Init(800, 600, 3200, FormatXRGB8888)

	h.SetCursorShape(32, 32, -4, -4)
	v := h.PublishCursor()
	assert.Equal(t, uint32(1), v)

	width, height, hotX, hotY := h.CursorMeta()
	assert.Equal(t, uint32(32), width)
	assert.Equal(t, uint32(32), height)
	assert.Equal(t, int32(-4), hotX)
	assert.Equal(t, int32(-4), hotY)

	h.SetMousePosition(100, 200, true)
	x, y, visible := h.CursorPosition()
	assert.Equal(t, int32(100), x)
	assert.Equal(t, int32(200), y)
	assert.True(t, visible)

	h.SetMousePosition(0, 0, false)
	_, _, visible = h.CursorPosition()
	assert.False(t, visible)
}

func TestCursorPixelsAndPixelBufferDontOverlap(t *testing.T) {
	stride, height := uint32(400), uint32(300)
	buf := make([]byte, FbRegionSize(stride, height))

	cursor := CursorPixels(buf)
	pixels := PixelBuffer(buf, stride, height)
	ring := InputRingBytes(buf)

	assert.Len(t, cursor, CursorBytes)
	assert.Len(t, pixels, int(stride)*int(height))
	assert.Len(t, ring, InputRingSize)

	cursor[0] = 0xAB
	assert.NotEqual(t, byte(0xAB), pixels[0])
	assert.NotEqual(t, byte(0xAB), ring[0])
}
