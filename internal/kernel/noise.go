package kernel

import "math"

// Salts separate the independent random streams drawn per cell.
const (
	SaltJitterX uint32 = iota + 1
	SaltJitterY
	SaltDisplace
	SaltTurbulenceX
	SaltTurbulenceY
	SaltChroma
	SaltRotation
	SaltWave
	SaltThreshold
	SaltBitDepth
	SaltPalette      // +channel
	SaltPaletteDir   = SaltPalette + 8 // +channel
	SaltDiffusion    = SaltPalette + 16
	SaltDiffusionDir = SaltPalette + 24
)

// Hash mixes a seed, a cell coordinate and a salt into 32 well-distributed
// bits. It is the single source of randomness for every chaos effect, so a
// fixed seed always reproduces the same frame.
func Hash(seed uint32, x, y int, salt uint32) uint32 {
	h := seed ^ (salt * 0x9E3779B9)
	h ^= uint32(x) * 0x85EBCA6B
	h = h<<13 | h>>19
	h ^= uint32(y) * 0xC2B2AE35
	h = h<<17 | h>>15
	h *= 0x27D4EB2F
	// murmur3 finalizer
	h ^= h >> 16
	h *= 0x85EBCA6B
	h ^= h >> 13
	h *= 0xC2B2AE35
	h ^= h >> 16
	return h
}

// Unit returns a uniform value in [0, 1).
func Unit(seed uint32, x, y int, salt uint32) float64 {
	return float64(Hash(seed, x, y, salt)>>8) / (1 << 24)
}

// Signed returns a uniform value in [-1, 1).
func Signed(seed uint32, x, y int, salt uint32) float64 {
	return Unit(seed, x, y, salt)*2 - 1
}

// valueNoise is smooth lattice noise in [0, 1): hashed corners blended with
// a smoothstep.
func valueNoise(seed uint32, fx, fy float64, salt uint32) float64 {
	x0, y0 := math.Floor(fx), math.Floor(fy)
	tx, ty := fx-x0, fy-y0
	tx = tx * tx * (3 - 2*tx)
	ty = ty * ty * (3 - 2*ty)
	ix, iy := int(x0), int(y0)

	a := Unit(seed, ix, iy, salt)
	b := Unit(seed, ix+1, iy, salt)
	c := Unit(seed, ix, iy+1, salt)
	d := Unit(seed, ix+1, iy+1, salt)

	top := a + (b-a)*tx
	bottom := c + (d-c)*tx
	return top + (bottom-top)*ty
}
