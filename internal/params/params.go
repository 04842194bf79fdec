// Package params defines the immutable parameter snapshot that fully
// describes one render.
package params

import (
	"errors"
	"fmt"
	"math"
)

// MaxUIColorDepth is the largest level count offered by interactive controls.
// The model itself accepts up to MaxColorDepth.
const MaxUIColorDepth = 32

// MaxColorDepth is the largest accepted level count (full 8-bit range).
const MaxColorDepth = 256

// ErrOutOfRange is returned when a field value falls outside its range.
var ErrOutOfRange = errors.New("params: value out of range")

// Params is a snapshot of every input needed to render one frame.
// It is a value type: all methods return modified copies.
type Params struct {
	Brightness float64   `json:"brightness" yaml:"brightness"`
	Contrast   float64   `json:"contrast" yaml:"contrast"`
	PixelScale int       `json:"pixel_scale" yaml:"pixel_scale"`
	ColorDepth int       `json:"color_depth" yaml:"color_depth"`
	Algorithm  Algorithm `json:"algorithm" yaml:"algorithm"`
	Grayscale  bool      `json:"grayscale" yaml:"grayscale"`

	OffsetJitter    float64 `json:"offset_jitter" yaml:"offset_jitter"`
	PatternRotation float64 `json:"pattern_rotation" yaml:"pattern_rotation"`

	ErrorAmplify    float64 `json:"error_amplify" yaml:"error_amplify"`
	ErrorRandomness float64 `json:"error_randomness" yaml:"error_randomness"`

	ThresholdNoise float64 `json:"threshold_noise" yaml:"threshold_noise"`
	WaveDistortion float64 `json:"wave_distortion" yaml:"wave_distortion"`

	PixelDisplace    float64 `json:"pixel_displace" yaml:"pixel_displace"`
	Turbulence       float64 `json:"turbulence" yaml:"turbulence"`
	ChromaAberration float64 `json:"chroma_aberration" yaml:"chroma_aberration"`

	BitDepthChaos    float64 `json:"bit_depth_chaos" yaml:"bit_depth_chaos"`
	PaletteRandomize float64 `json:"palette_randomize" yaml:"palette_randomize"`

	Seed uint32 `json:"seed" yaml:"seed"`
}

// Default returns neutral pre-processing, four levels, no dithering and
// neutral chaos.
func Default() Params {
	return Params{
		Brightness:   0,
		Contrast:     1,
		PixelScale:   1,
		ColorDepth:   4,
		Algorithm:    NoDither,
		ErrorAmplify: 1,
	}
}

// Identity returns parameters whose render reproduces the source.
func Identity() Params {
	p := Default()
	p.ColorDepth = MaxColorDepth
	return p
}

// ResetChaos returns a copy with every chaos field at its neutral value.
func (p Params) ResetChaos() Params {
	p.OffsetJitter = 0
	p.PatternRotation = 0
	p.ErrorAmplify = 1
	p.ErrorRandomness = 0
	p.ThresholdNoise = 0
	p.WaveDistortion = 0
	p.PixelDisplace = 0
	p.Turbulence = 0
	p.ChromaAberration = 0
	p.BitDepthChaos = 0
	p.PaletteRandomize = 0
	return p
}

// ChaosNeutral reports whether no chaos effect is active.
func (p Params) ChaosNeutral() bool {
	return p == p.ResetChaos()
}

// WithSeed returns a copy carrying the given seed.
func (p Params) WithSeed(seed uint32) Params {
	p.Seed = seed
	return p
}

// With returns a copy with field f set to v. Integer fields are rounded;
// boolean fields treat any non-zero value as true.
func (p Params) With(f Field, v float64) (Params, error) {
	spec, ok := fieldSpecs[f]
	if !ok {
		return p, fmt.Errorf("params: unknown field %d", int(f))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return p, fmt.Errorf("%w: %s is not finite", ErrOutOfRange, spec.name)
	}
	if spec.integer {
		v = math.Round(v)
	}
	if v < spec.min || v > spec.max {
		return p, fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfRange, spec.name, v, spec.min, spec.max)
	}
	spec.store(&p, v)
	return p, nil
}

// Get returns the numeric value of field f.
func (p Params) Get(f Field) float64 {
	spec, ok := fieldSpecs[f]
	if !ok {
		return math.NaN()
	}
	return spec.load(&p)
}

// Validate checks that every field lies within its range.
func (p Params) Validate() error {
	for _, f := range Fields() {
		spec := fieldSpecs[f]
		v := spec.load(&p)
		if math.IsNaN(v) || v < spec.min || v > spec.max {
			return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfRange, spec.name, v, spec.min, spec.max)
		}
	}
	return nil
}

// Clamp returns a copy with every field forced into its range.
// NaN values fall back to the default for that field.
func (p Params) Clamp() Params {
	def := Default()
	for _, f := range Fields() {
		spec := fieldSpecs[f]
		v := spec.load(&p)
		if math.IsNaN(v) {
			v = spec.load(&def)
		}
		if spec.integer {
			v = math.Round(v)
		}
		v = math.Max(spec.min, math.Min(spec.max, v))
		spec.store(&p, v)
	}
	return p
}
