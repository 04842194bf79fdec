package diffusion

import (
	"github.com/makeworld-the-better-one/dither/v2"
)

// Tap is one neighbour that receives a share of a cell's residual.
type Tap struct {
	DX, DY int
	W      float64
}

// Taps flattens an error diffusion matrix scaled by strength into
// neighbour offsets relative to the current cell.
func Taps(m dither.ErrorDiffusionMatrix, strength float64) []Tap {
	m = dither.ErrorDiffusionStrength(m, float32(strength))
	cur := 0
	if len(m) > 0 {
		for i, w := range m[0] {
			if w != 0 {
				cur = i - 1
				break
			}
		}
	}
	var taps []Tap
	for dy, row := range m {
		for x, w := range row {
			if w == 0 || (dy == 0 && x <= cur) {
				continue
			}
			taps = append(taps, Tap{DX: x - cur, DY: dy, W: float64(w)})
		}
	}
	return taps
}

// FloydSteinberg returns the Floyd-Steinberg taps scaled by amplify.
func FloydSteinberg(amplify float64) []Tap {
	return Taps(dither.FloydSteinberg, amplify)
}
