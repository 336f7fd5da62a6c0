package yamux

import "math"

// saturatingAddUint32 adds b to a, clamping at math.MaxUint32 instead of
// wrapping. A send window that would overflow uint32 is a protocol
// error, so callers check the clamp and react accordingly.
func saturatingAddUint32(a, b uint32) (sum uint32, overflowed bool) {
	if a > math.MaxUint32-b {
		return math.MaxUint32, true
	}
	return a + b, false
}
