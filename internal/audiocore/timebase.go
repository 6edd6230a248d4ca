package audiocore

import (
	"math"
	"math/bits"
	"time"
)

// RescaleRound returns a*b/c rounded to the nearest integer, halfway cases
// away from zero. The product is computed in 128 bits; results that do not
// fit in an int64 saturate. c must be positive.
func RescaleRound(a, b, c int64) int64 {
	if c <= 0 {
		return 0
	}
	neg := (a < 0) != (b < 0)
	ua, ub := absU64(a), absU64(b)

	hi, lo := bits.Mul64(ua, ub)
	lo, carry := bits.Add64(lo, uint64(c)/2, 0)
	hi += carry
	if hi >= uint64(c) {
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, uint64(c))
	if q > math.MaxInt64 {
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	if neg {
		return -int64(q)
	}
	return int64(q)
}

func absU64(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}

// NumSamples converts a duration to a sample count at the given rate.
func NumSamples(sampleRate int, d time.Duration) int64 {
	return RescaleRound(int64(d), int64(sampleRate), int64(time.Second))
}

// SamplesToMicros converts a sample count at the given rate to microseconds.
func SamplesToMicros(pts int64, sampleRate int) int64 {
	return RescaleRound(pts, int64(time.Second/time.Microsecond), int64(sampleRate))
}
