package wire

import (
	"sync/atomic"
	"unsafe"
)

// InputEvent types.
const (
	InputMouseRel uint8 = 1
	InputMouseAbs uint8 = 2
	InputMouseBtn uint8 = 3
	InputKey      uint8 = 4
)

// InputEvent is the 12-byte wire format for one input-ring slot.
//
//	MouseRel: X, Y hold (dx, dy)
//	MouseAbs: X, Y hold (x, y) in [0, width) x [0, height)
//	MouseBtn: Button holds the button index, Pressed the state
//	Key:      X holds the scancode, Pressed the key state
type InputEvent struct {
	Type    uint8
	Button  uint8
	Pressed uint8
	// Reserved is unused wire padding, kept so InputEvent stays 12 bytes.
	Reserved uint8
	X        int32
	Y        int32
}

// InputRing is a view over the 256-slot SPSC ring embedded in a framebuffer
// region. The consumer writes events and owns write_idx; the producer
// drains them and owns read_idx.
type InputRing struct {
	buf []byte // the InputRingSize block, see InputRingBytes
}

// NewInputRing wraps the input ring block embedded in buf.
func NewInputRing(buf []byte) InputRing {
	return InputRing{buf: buf}
}

func (r InputRing) writeIdxPtr() *uint32 {
	return (*uint32)(unsafe.Pointer(&r.buf[inputOffWriteIdx]))
}

func (r InputRing) readIdxPtr() *uint32 {
	return (*uint32)(unsafe.Pointer(&r.buf[inputOffReadIdx]))
}

// WriteIdx loads write_idx with acquire semantics (producer-side read).
func (r InputRing) WriteIdx() uint32 { return atomic.LoadUint32(r.writeIdxPtr()) }

// ReadIdx loads read_idx (consumer-side read).
func (r InputRing) ReadIdx() uint32 { return atomic.LoadUint32(r.readIdxPtr()) }

// StoreReadIdx publishes read_idx with release semantics (producer-side,
// after injecting the batch of events it makes visible).
func (r InputRing) StoreReadIdx(v uint32) { atomic.StoreUint32(r.readIdxPtr(), v) }

// StoreWriteIdx publishes write_idx with release semantics (consumer-side).
func (r InputRing) StoreWriteIdx(v uint32) { atomic.StoreUint32(r.writeIdxPtr(), v) }

// Reset zeroes both indices. Called by the producer on region (re)creation.
func (r InputRing) Reset() {
	atomic.StoreUint32(r.writeIdxPtr(), 0)
	atomic.StoreUint32(r.readIdxPtr(), 0)
}

func slotOffset(i uint32) int {
	return inputOffSlots + int(i&(InputRingSlots-1))*InputEventSize
}

// EventAt reads the event at ring index i (mod InputRingSlots). Plain read:
// the writer must never mutate a slot the reader hasn't consumed past, which
// holds as long as free-space accounting (ringbuf.Free) is respected.
func (r InputRing) EventAt(i uint32) InputEvent {
	off := slotOffset(i)
	return InputEvent{
		Type:     r.buf[off],
		Button:   r.buf[off+1],
		Pressed:  r.buf[off+2],
		Reserved: r.buf[off+3],
		X:        int32(le32(r.buf[off+4 : off+8])),
		Y:        int32(le32(r.buf[off+8 : off+12])),
	}
}

// PutEventAt writes an event at ring index i (mod InputRingSlots). Used by
// the consumer side (or a cooperating test writer) before advancing
// write_idx.
func (r InputRing) PutEventAt(i uint32, ev InputEvent) {
	off := slotOffset(i)
	r.buf[off] = ev.Type
	r.buf[off+1] = ev.Button
	r.buf[off+2] = ev.Pressed
	r.buf[off+3] = ev.Reserved
	putLe32(r.buf[off+4:off+8], uint32(ev.X))
	putLe32(r.buf[off+8:off+12], uint32(ev.Y))
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLe32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
