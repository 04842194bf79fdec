package params

import (
	"fmt"
	"strings"
)

// Algorithm selects the quantization strategy used for a render.
type Algorithm int

const (
	// NoDither rounds each channel to the nearest level.
	NoDither Algorithm = iota
	// Bayer2x2 uses the 2x2 recursive ordered matrix.
	Bayer2x2
	// Bayer4x4 uses the 4x4 recursive ordered matrix.
	Bayer4x4
	// Bayer8x8 uses the 8x8 recursive ordered matrix.
	Bayer8x8
	// Cluster4x4 uses a 4x4 clustered-dot matrix.
	Cluster4x4
	// Cluster8x8 uses an 8x8 clustered-dot matrix.
	Cluster8x8
	// BlueNoise uses a precomputed blue-noise threshold tile.
	BlueNoise
	// FloydSteinberg uses two-pass error diffusion.
	FloydSteinberg

	algorithmCount // sentinel for validation
)

var algorithmNames = [algorithmCount]string{
	"none", "bayer2x2", "bayer4x4", "bayer8x8",
	"cluster4x4", "cluster8x8", "blue-noise", "floyd-steinberg",
}

// aliases accepted by ParseAlgorithm in addition to the canonical names.
var algorithmAliases = map[string]Algorithm{
	"nodither":       NoDither,
	"no-dither":      NoDither,
	"bluenoise":      BlueNoise,
	"floydsteinberg": FloydSteinberg,
	"fs":             FloydSteinberg,
}

// Algorithms returns every algorithm in declaration order.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, algorithmCount)
	for a := NoDither; a < algorithmCount; a++ {
		out = append(out, a)
	}
	return out
}

// String returns the canonical name of the algorithm.
func (a Algorithm) String() string {
	if a.Valid() {
		return algorithmNames[a]
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a is a known algorithm.
func (a Algorithm) Valid() bool {
	return a >= 0 && a < algorithmCount
}

// Diffusion reports whether the algorithm needs the two-pass engine.
func (a Algorithm) Diffusion() bool {
	return a == FloydSteinberg
}

// ParseAlgorithm resolves a canonical name or alias, case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range algorithmNames {
		if name == key {
			return Algorithm(i), nil
		}
	}
	if a, ok := algorithmAliases[key]; ok {
		return a, nil
	}
	return NoDither, fmt.Errorf("unknown algorithm %q", s)
}

func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid algorithm %d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *Algorithm) UnmarshalText(text []byte) error {
	parsed, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
