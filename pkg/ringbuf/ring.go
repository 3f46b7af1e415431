// Package ringbuf implements the SPSC ring index arithmetic shared by the
// audio and input channels: free-running 32-bit indices, power-of-two
// capacity, one slot reserved to disambiguate empty from full.
package ringbuf

// Used returns the number of occupied slots given free-running write/read
// indices and a power-of-two capacity n, using 32-bit wraparound
// subtraction.
func Used(w, r, n uint32) uint32 {
	return (w - r) & (n - 1)
}

// Free returns the number of slots available to write, reserving exactly
// one slot so a full ring is never indistinguishable from an empty one.
func Free(w, r, n uint32) uint32 {
	return n - Used(w, r, n) - 1
}

// Offset returns the byte offset of logical slot index i within a ring of
// capacity n (slots), where each slot is slotBytes wide.
func Offset(i, n uint32, slotBytes int) int {
	return int(i&(n-1)) * slotBytes
}

// CopyIn copies src into ring (capacity ringBytes, measured in bytes) at
// byte offset start, wrapping around the end of the ring if necessary. It
// returns the number of bytes copied, which is always len(src) as long as
// the caller has already checked there's enough free space.
func CopyIn(ring []byte, start int, src []byte) int {
	ringBytes := len(ring)
	if start+len(src) <= ringBytes {
		return copy(ring[start:], src)
	}
	first := ringBytes - start
	n := copy(ring[start:], src[:first])
	n += copy(ring[:len(src)-first], src[first:])
	return n
}

// CopyOut copies n bytes out of ring starting at byte offset start into dst,
// wrapping around the end of the ring if necessary. dst must have room for
// n bytes.
func CopyOut(ring []byte, start int, dst []byte, n int) int {
	ringBytes := len(ring)
	if start+n <= ringBytes {
		return copy(dst, ring[start:start+n])
	}
	first := ringBytes - start
	c := copy(dst, ring[start:])
	c += copy(dst[first:], ring[:n-first])
	return c
}
