// Package wire defines the binary-stable shared-memory layouts used by the
// framebuffer, audio and input regions. Offsets and sizes here are ABI: a
// consumer built independently of this module maps the same bytes and reads
// them with this same layout, so nothing here may change without a version
// bump (FbVersion / AudioVersion).
package wire

import (
	"sync/atomic"
	"unsafe"
)

// FbMagic identifies a framebuffer region ("JUKE" little-endian).
const FbMagic uint32 = 0x454B554A

// FbVersion is the current framebuffer header layout version.
const FbVersion uint32 = 3

// CursorDim is the fixed edge length of the cursor pixel slab.
const CursorDim = 64

// CursorBytes is the size in bytes of the fixed RGBA cursor slab.
const CursorBytes = CursorDim * CursorDim * 4

// InputRingSlots is the number of InputEvent slots in the input ring.
const InputRingSlots = 256

// InputEventSize is the on-wire size of a single InputEvent, in bytes.
const InputEventSize = 12

// Pixel format codes for FbHeader's format field. Producer and consumer
// must agree out of band (or via FbHeader.Geometry) on which is in use;
// the wire layout carries the code but not a palette or colorspace.
const (
	FormatXRGB8888 uint32 = 1
	FormatARGB8888 uint32 = 2
	FormatRGB565   uint32 = 3
)

// Field offsets within FbHeader. Each is part of the ABI.
const (
	fbOffMagic         = 0
	fbOffVersion       = 4
	fbOffWidth         = 8
	fbOffHeight        = 12
	fbOffStride        = 16
	fbOffFormat        = 20
	fbOffFrameCounter  = 24 // 8-byte aligned
	fbOffDirtyX        = 32
	fbOffDirtyY        = 36
	fbOffDirtyW        = 40
	fbOffDirtyH        = 44
	fbOffCursorVersion = 48
	fbOffCursorX       = 52
	fbOffCursorY       = 56
	fbOffCursorVisible = 60
	fbOffCursorWidth   = 64
	fbOffCursorHeight  = 68
	fbOffCursorHotX    = 72
	fbOffCursorHotY    = 76

	// FbHeaderSize is the total size of FbHeader, in bytes.
	FbHeaderSize = 80
)

// Input ring offsets, relative to the start of the embedded InputRing block.
const (
	inputOffWriteIdx = 0
	inputOffReadIdx  = 4
	// 8 bytes padding to the slot array
	inputOffSlots = 16

	// InputRingSize is the total size of the embedded input ring block.
	InputRingSize = inputOffSlots + InputRingSlots*InputEventSize
)

// Framebuffer region layout offsets, relative to region start.
const (
	FbCursorPixelsOffset = FbHeaderSize
	FbInputRingOffset    = FbCursorPixelsOffset + CursorBytes
	FbPixelBufferOffset  = FbInputRingOffset + InputRingSize
)

// FbRegionSize returns the total size a framebuffer region must be
// allocated at for the given stride and height.
func FbRegionSize(stride, height uint32) int {
	return FbPixelBufferOffset + int(stride)*int(height)
}

// FbHeader is a view over the framebuffer header embedded at the start of a
// mapped region. It does not own the backing bytes; callers must keep the
// mapping alive for as long as a FbHeader referencing it is in use.
type FbHeader struct {
	buf []byte
}

// NewFbHeader wraps the header embedded at the start of buf. buf must be at
// least FbHeaderSize bytes.
func NewFbHeader(buf []byte) FbHeader {
	return FbHeader{buf: buf}
}

func (h FbHeader) u32(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&h.buf[off]))
}

func (h FbHeader) i32(off int) *int32 {
	return (*int32)(unsafe.Pointer(&h.buf[off]))
}

func (h FbHeader) u64(off int) *uint64 {
	return (*uint64)(unsafe.Pointer(&h.buf[off]))
}

// Magic returns the magic field. Read once, at first mapping, by the consumer.
func (h FbHeader) Magic() uint32 { return atomic.LoadUint32(h.u32(fbOffMagic)) }

// Version returns the version field.
func (h FbHeader) Version() uint32 { return atomic.LoadUint32(h.u32(fbOffVersion)) }

// Geometry returns width, height, stride and the opaque pixel format code.
func (h FbHeader) Geometry() (width, height, stride, format uint32) {
	return atomic.LoadUint32(h.u32(fbOffWidth)),
		atomic.LoadUint32(h.u32(fbOffHeight)),
		atomic.LoadUint32(h.u32(fbOffStride)),
		atomic.LoadUint32(h.u32(fbOffFormat))
}

// FrameCounter loads the frame counter with acquire semantics. The consumer
// must call this before reading pixel/dirty-rect data to observe the
// producer's writes that happened-before the publishing store.
func (h FbHeader) FrameCounter() uint64 { return atomic.LoadUint64(h.u64(fbOffFrameCounter)) }

// DirtyRect loads the last-published dirty rectangle.
func (h FbHeader) DirtyRect() (x, y, w, hh uint32) {
	return atomic.LoadUint32(h.u32(fbOffDirtyX)),
		atomic.LoadUint32(h.u32(fbOffDirtyY)),
		atomic.LoadUint32(h.u32(fbOffDirtyW)),
		atomic.LoadUint32(h.u32(fbOffDirtyH))
}

// CursorVersion loads the cursor version with acquire semantics.
func (h FbHeader) CursorVersion() uint32 { return atomic.LoadUint32(h.u32(fbOffCursorVersion)) }

// CursorMeta loads the cursor metadata published alongside CursorVersion.
func (h FbHeader) CursorMeta() (width, height uint32, hotX, hotY int32) {
	return atomic.LoadUint32(h.u32(fbOffCursorWidth)),
		atomic.LoadUint32(h.u32(fbOffCursorHeight)),
		atomic.LoadInt32(h.i32(fbOffCursorHotX)),
		atomic.LoadInt32(h.i32(fbOffCursorHotY))
}

// CursorPosition loads the latest cursor position and visibility.
func (h FbHeader) CursorPosition() (x, y int32, visible bool) {
	x = atomic.LoadInt32(h.i32(fbOffCursorX))
	y = atomic.LoadInt32(h.i32(fbOffCursorY))
	visible = atomic.LoadUint32(h.u32(fbOffCursorVisible)) != 0
	return
}

// --- producer-owned writers. Every field in FbHeader is producer-owned;
// the consumer only ever loads. These are split out mainly so call sites in
// pkg/framebuffer read as "the producer is publishing X", matching the
// disjoint-ownership-views design note in spec.md §9. ---

// Init writes geometry and resets every counter. Called once per
// surface-configuration epoch, before the region is shared with a consumer.
func (h FbHeader) Init(width, height, stride, format uint32) {
	atomic.StoreUint32(h.u32(fbOffMagic), FbMagic)
	atomic.StoreUint32(h.u32(fbOffVersion), FbVersion)
	atomic.StoreUint32(h.u32(fbOffWidth), width)
	atomic.StoreUint32(h.u32(fbOffHeight), height)
	atomic.StoreUint32(h.u32(fbOffStride), stride)
	atomic.StoreUint32(h.u32(fbOffFormat), format)
	atomic.StoreUint32(h.u32(fbOffDirtyX), 0)
	atomic.StoreUint32(h.u32(fbOffDirtyY), 0)
	atomic.StoreUint32(h.u32(fbOffDirtyW), width)
	atomic.StoreUint32(h.u32(fbOffDirtyH), height)
	atomic.StoreUint32(h.u32(fbOffCursorVersion), 0)
	atomic.StoreInt32(h.i32(fbOffCursorX), 0)
	atomic.StoreInt32(h.i32(fbOffCursorY), 0)
	atomic.StoreUint32(h.u32(fbOffCursorVisible), 0)
	atomic.StoreUint32(h.u32(fbOffCursorWidth), 0)
	atomic.StoreUint32(h.u32(fbOffCursorHeight), 0)
	atomic.StoreInt32(h.i32(fbOffCursorHotX), 0)
	atomic.StoreInt32(h.i32(fbOffCursorHotY), 0)
	// frame_counter is last: a consumer racing the mapping sees either the
	// old (zero, on first alloc) or new counter, never a geometry field
	// that doesn't match the surface it's about to read.
	atomic.StoreUint64(h.u64(fbOffFrameCounter), 0)
}

// SetDirtyRect records the last region written. Must be followed by
// PublishFrame, whose release store is the publication fence for this call.
func (h FbHeader) SetDirtyRect(x, y, w, hh uint32) {
	atomic.StoreUint32(h.u32(fbOffDirtyX), x)
	atomic.StoreUint32(h.u32(fbOffDirtyY), y)
	atomic.StoreUint32(h.u32(fbOffDirtyW), w)
	atomic.StoreUint32(h.u32(fbOffDirtyH), hh)
}

// PublishFrame bumps frame_counter with release semantics, fencing every
// write that happened-before it (pixel data and SetDirtyRect).
func (h FbHeader) PublishFrame() uint64 {
	return atomic.AddUint64(h.u64(fbOffFrameCounter), 1)
}

// SetCursorShape writes cursor metadata ahead of a PublishCursor call.
func (h FbHeader) SetCursorShape(width, height uint32, hotX, hotY int32) {
	atomic.StoreUint32(h.u32(fbOffCursorWidth), width)
	atomic.StoreUint32(h.u32(fbOffCursorHeight), height)
	atomic.StoreInt32(h.i32(fbOffCursorHotX), hotX)
	atomic.StoreInt32(h.i32(fbOffCursorHotY), hotY)
}

// PublishCursor bumps cursor_version with release semantics.
func (h FbHeader) PublishCursor() uint32 {
	return atomic.AddUint32(h.u32(fbOffCursorVersion), 1)
}

// SetMousePosition writes position/visibility and fences with a release
// store on cursor_visible (the last field written). No version bump: the consumer
// correlates position updates against the frame counter, not cursor_version.
func (h FbHeader) SetMousePosition(x, y int32, visible bool) {
	var v uint32
	if visible {
		v = 1
	}
	atomic.StoreInt32(h.i32(fbOffCursorX), x)
	atomic.StoreInt32(h.i32(fbOffCursorY), y)
	atomic.StoreUint32(h.u32(fbOffCursorVisible), v)
}

// CursorPixels returns the fixed 64x64 RGBA cursor slab within buf.
func CursorPixels(buf []byte) []byte {
	return buf[FbCursorPixelsOffset : FbCursorPixelsOffset+CursorBytes]
}

// PixelBuffer returns the surface pixel region within buf, sized stride*height.
func PixelBuffer(buf []byte, stride, height uint32) []byte {
	start := FbPixelBufferOffset
	end := start + int(stride)*int(height)
	return buf[start:end]
}

// InputRingBytes returns the embedded input ring block within buf.
func InputRingBytes(buf []byte) []byte {
	return buf[FbInputRingOffset : FbInputRingOffset+InputRingSize]
}
