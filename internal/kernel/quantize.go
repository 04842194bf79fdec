package kernel

import "math"

// MidGray is the single output level of a one-level palette.
const MidGray = 128

// QuantizeIndex maps v in [0, 1] onto one of levels indices: the value is
// scaled to the level grid and rounded up when its fractional part
// exceeds threshold.
func QuantizeIndex(v float64, levels int, threshold float64) int {
	if levels <= 1 {
		return 0
	}
	scaled := clamp01(v) * float64(levels-1)
	base := math.Floor(scaled)
	idx := int(base)
	if scaled-base > threshold {
		idx++
	}
	return clampInt(idx, 0, levels-1)
}

// LevelValue returns the 8-bit output value of level idx.
func LevelValue(idx, levels int) uint8 {
	if levels <= 1 {
		return MidGray
	}
	return uint8(math.Round(float64(idx) * 255 / float64(levels-1)))
}

// Nearest returns the closest representable level of v and its 8-bit value.
func Nearest(v float64, levels int) (int, uint8) {
	idx := QuantizeIndex(v, levels, 0.5)
	return idx, LevelValue(idx, levels)
}
