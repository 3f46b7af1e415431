package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputRingPutEventRoundTrip(t *testing.T) {
	buf := make([]byte, InputRingSize)
	ring := NewInputRing(buf)
	ring.Reset()

	assert.Equal(t, uint32(0), ring.WriteIdx())
	assert.Equal(t, uint32(0), ring.ReadIdx())

	ev := InputEvent{Type: InputMouseAbs, X: 640, Y: 480}
	ring.PutEventAt(0, ev)
	ring.StoreWriteIdx(1)

	assert.Equal(t, uint32(1), ring.WriteIdx())
	got := ring.EventAt(0)
	assert.Equal(t, ev, got)

	ring.StoreReadIdx(1)
	assert.Equal(t, uint32(1), ring.ReadIdx())
}

func TestInputRingWrapsAtSlotCount(t *testing.T) {
	buf := make([]byte, InputRingSize)
	ring := NewInputRing(buf)

	ev := InputEvent{Type: InputKey, X: 30, Pressed: 1}
	ring.PutEventAt(InputRingSlots, ev) // index InputRingSlots wraps to slot 0
	got := ring.EventAt(0)
	assert.Equal(t, ev, got)
}

func TestInputEventEncodesNegativeCoordinates(t *testing.T) {
	buf := make([]byte, InputRingSize)
	ring := NewInputRing(buf)

	ev := InputEvent{Type: InputMouseRel, X: -5, Y: -12}
	ring.PutEventAt(3, ev)
	got := ring.EventAt(3)
	assert.Equal(t, int32(-5), got.X)
	assert.Equal(t, int32(-12), got.Y)
}
