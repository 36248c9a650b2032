package snapshots

import (
	"math"
	"time"
)

// ValidRate reports whether fps can be used to compute a stride.
func ValidRate(fps float64) bool {
	return fps > 0 && !math.IsNaN(fps) && !math.IsInf(fps, 0)
}

// ComputeStride returns the number of source frames per interval:
// floor(floor(fps) * interval in seconds), never less than 1.
// The product is taken in integer nanoseconds so exact products do not round down.
// The second result is false when fps is degenerate, in which case the stride is 1.
// Rates below 1 fps floor to zero frames per second and count as degenerate.
func ComputeStride(fps float64, interval time.Duration) (int, bool) {
	if !ValidRate(fps) || fps < 1 {
		return 1, false
	}
	stride := int(int64(math.Floor(fps)) * interval.Nanoseconds() / int64(time.Second))
	if stride < 1 {
		stride = 1
	}
	return stride, true
}
