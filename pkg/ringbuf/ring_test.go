package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsedAndFree(t *testing.T) {
	tests := []struct {
		name     string
		w, r, n  uint32
		wantUsed uint32
		wantFree uint32
	}{
		{"empty", 0, 0, 8, 0, 7},
		{"full minus one reserved slot", 7, 0, 8, 7, 0},
		{"wrapped once", 2, 6, 8, 4, 3},
		{"indices wrapped past 32 bits", 1<<32 - 2, 1<<32 - 6, 8, 4, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantUsed, Used(tt.w, tt.r, tt.n))
			assert.Equal(t, tt.wantFree, Free(tt.w, tt.r, tt.n))
		})
	}
}

func TestUsedPlusFreeAlwaysLeavesOneSlotReserved(t *testing.T) {
	const n = 16
	for r := uint32(0); r < n; r++ {
		for w := uint32(0); w < n; w++ {
			assert.Equal(t, uint32(n-1), Used(w, r, n)+Free(w, r, n))
		}
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(0, 8, 12))
	assert.Equal(t, 12, Offset(1, 8, 12))
	assert.Equal(t, 0, Offset(8, 8, 12), "wraps at capacity")
	assert.Equal(t, 12, Offset(9, 8, 12))
}

func TestCopyInOutRoundTrip(t *testing.T) {
	ring := make([]byte, 16)
	src := []byte{1, 2, 3, 4, 5, 6}

	n := CopyIn(ring, 12, src) // wraps: 4 bytes at [12:16], 2 bytes at [0:2]
	require.Equal(t, len(src), n)

	dst := make([]byte, len(src))
	n = CopyOut(ring, 12, dst, len(src))
	require.Equal(t, len(src), n)
	assert.Equal(t, src, dst)
}

func TestCopyInOutNoWrap(t *testing.T) {
	ring := make([]byte, 16)
	src := []byte{9, 9, 9, 9}

	CopyIn(ring, 0, src)
	dst := make([]byte, len(src))
	CopyOut(ring, 0, dst, len(src))
	assert.Equal(t, src, dst)
}
