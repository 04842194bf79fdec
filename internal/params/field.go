package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Field identifies one settable member of Params.
type Field int

const (
	FieldBrightness Field = iota
	FieldContrast
	FieldPixelScale
	FieldColorDepth
	FieldAlgorithm
	FieldGrayscale
	FieldOffsetJitter
	FieldPatternRotation
	FieldErrorAmplify
	FieldErrorRandomness
	FieldThresholdNoise
	FieldWaveDistortion
	FieldPixelDisplace
	FieldTurbulence
	FieldChromaAberration
	FieldBitDepthChaos
	FieldPaletteRandomize

	fieldCount
)

type fieldSpec struct {
	name     string
	min, max float64
	integer  bool
	chaos    bool
	load     func(*Params) float64
	store    func(*Params, float64)
}

func floatField(name string, min, max float64, chaos bool, ptr func(*Params) *float64) fieldSpec {
	return fieldSpec{
		name: name, min: min, max: max, chaos: chaos,
		load:  func(p *Params) float64 { return *ptr(p) },
		store: func(p *Params, v float64) { *ptr(p) = v },
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var fieldSpecs = map[Field]fieldSpec{
	FieldBrightness: floatField("brightness", -1, 1, false, func(p *Params) *float64 { return &p.Brightness }),
	FieldContrast:   floatField("contrast", 0, 4, false, func(p *Params) *float64 { return &p.Contrast }),
	FieldPixelScale: {
		name: "pixel_scale", min: 1, max: 20, integer: true,
		load:  func(p *Params) float64 { return float64(p.PixelScale) },
		store: func(p *Params, v float64) { p.PixelScale = int(v) },
	},
	FieldColorDepth: {
		name: "color_depth", min: 1, max: MaxColorDepth, integer: true,
		load:  func(p *Params) float64 { return float64(p.ColorDepth) },
		store: func(p *Params, v float64) { p.ColorDepth = int(v) },
	},
	FieldAlgorithm: {
		name: "algorithm", min: 0, max: float64(algorithmCount - 1), integer: true,
		load:  func(p *Params) float64 { return float64(p.Algorithm) },
		store: func(p *Params, v float64) { p.Algorithm = Algorithm(v) },
	},
	FieldGrayscale: {
		name: "grayscale", min: 0, max: 1, integer: true,
		load:  func(p *Params) float64 { return boolToFloat(p.Grayscale) },
		store: func(p *Params, v float64) { p.Grayscale = v != 0 },
	},
	FieldOffsetJitter:     floatField("offset_jitter", 0, 1, true, func(p *Params) *float64 { return &p.OffsetJitter }),
	FieldPatternRotation:  floatField("pattern_rotation", 0, 1, true, func(p *Params) *float64 { return &p.PatternRotation }),
	FieldErrorAmplify:     floatField("error_amplify", 0.5, 3, true, func(p *Params) *float64 { return &p.ErrorAmplify }),
	FieldErrorRandomness:  floatField("error_randomness", 0, 1, true, func(p *Params) *float64 { return &p.ErrorRandomness }),
	FieldThresholdNoise:   floatField("threshold_noise", 0, 1, true, func(p *Params) *float64 { return &p.ThresholdNoise }),
	FieldWaveDistortion:   floatField("wave_distortion", 0, 1, true, func(p *Params) *float64 { return &p.WaveDistortion }),
	FieldPixelDisplace:    floatField("pixel_displace", 0, 100, true, func(p *Params) *float64 { return &p.PixelDisplace }),
	FieldTurbulence:       floatField("turbulence", 0, 1, true, func(p *Params) *float64 { return &p.Turbulence }),
	FieldChromaAberration: floatField("chroma_aberration", 0, 20, true, func(p *Params) *float64 { return &p.ChromaAberration }),
	FieldBitDepthChaos:    floatField("bit_depth_chaos", 0, 1, true, func(p *Params) *float64 { return &p.BitDepthChaos }),
	FieldPaletteRandomize: floatField("palette_randomize", 0, 1, true, func(p *Params) *float64 { return &p.PaletteRandomize }),
}

// Fields returns every settable field in declaration order.
func Fields() []Field {
	out := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		out = append(out, f)
	}
	return out
}

// ChaosFields returns the fields reset by ResetChaos.
func ChaosFields() []Field {
	var out []Field
	for _, f := range Fields() {
		if fieldSpecs[f].chaos {
			out = append(out, f)
		}
	}
	return out
}

func (f Field) String() string {
	if spec, ok := fieldSpecs[f]; ok {
		return spec.name
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// Range returns the inclusive bounds of the field.
func (f Field) Range() (lo, hi float64) {
	spec := fieldSpecs[f]
	return spec.min, spec.max
}

// ParseField resolves a field name. Dashes and underscores are
// interchangeable and a "chaos." prefix is ignored.
func ParseField(s string) (Field, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimPrefix(key, "chaos.")
	key = strings.ReplaceAll(key, "-", "_")
	for f, spec := range fieldSpecs {
		if spec.name == key {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown parameter %q", s)
}

// WithString sets a field from its textual form. Algorithm accepts names,
// grayscale accepts booleans, every other field a number.
func (p Params) WithString(f Field, s string) (Params, error) {
	s = strings.TrimSpace(s)
	switch f {
	case FieldAlgorithm:
		a, err := ParseAlgorithm(s)
		if err != nil {
			if n, nerr := strconv.Atoi(s); nerr == nil {
				return p.With(f, float64(n))
			}
			return p, err
		}
		return p.With(f, float64(a))
	case FieldGrayscale:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return p, fmt.Errorf("grayscale: %w", err)
		}
		return p.With(f, boolToFloat(b))
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return p, fmt.Errorf("%s: %w", f, err)
	}
	return p.With(f, v)
}

// ParseAssignment parses "field=value" and applies it to p.
func (p Params) ParseAssignment(s string) (Params, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return p, fmt.Errorf("expected field=value, got %q", s)
	}
	f, err := ParseField(name)
	if err != nil {
		return p, err
	}
	return p.WithString(f, value)
}
