package kernel

import (
	"math"

	"github.com/AnyUserName/ditherkit/internal/compute"
	"github.com/AnyUserName/ditherkit/internal/params"
)

const (
	jitterRadius    = 4.0  // source pixels per unit jitter, times pixel scale
	displaceBand    = 4    // cells per glitch band
	turbulenceScale = 24.0 // source pixels per noise lattice cell
	turbulenceReach = 16.0 // source pixels at turbulence 1
	waveFrequency   = 0.35 // radians per cell
	waveReach       = 6.0  // source pixels at wave distortion 1, times pixel scale
	sampleTilt      = math.Pi / 12
)

// Frame is the per-render view a kernel evaluates against: the source
// texture, the parameters and everything derived from them once, such as
// the cell grid, the chroma offset and the pattern rotation.
//
// Kernels address cells: with pixel scale s, cell (cx, cy) covers the
// output block [cx*s, cx*s+s) × [cy*s, cy*s+s).
type Frame struct {
	src   *compute.Texture
	p     params.Params
	scale int
	cols  int
	rows  int

	chromaDX, chromaDY float64
	rotate             bool
	rotSin, rotCos     float64
	wavePhaseX         float64
	wavePhaseY         float64

	// sampling-side rotation and wave, shared by every algorithm
	tilt             bool
	tiltSin, tiltCos float64
	centerX, centerY float64
	waveSample       bool
}

// NewFrame derives a frame from a source texture and clamped parameters.
func NewFrame(src *compute.Texture, p params.Params) *Frame {
	p = p.Clamp()
	scale := max(p.PixelScale, 1)
	f := &Frame{
		src:   src,
		p:     p,
		scale: scale,
		cols:  (src.Width + scale - 1) / scale,
		rows:  (src.Height + scale - 1) / scale,
	}
	if p.ChromaAberration > 0 {
		theta := Unit(p.Seed, 0, 0, SaltChroma) * 2 * math.Pi
		f.chromaDX = p.ChromaAberration * math.Cos(theta)
		f.chromaDY = p.ChromaAberration * math.Sin(theta)
	}
	if p.PatternRotation > 0 {
		u := 0.5 + 0.5*Unit(p.Seed, 0, 0, SaltRotation)
		theta := p.PatternRotation * 2 * math.Pi * u
		f.rotate = true
		f.rotSin, f.rotCos = math.Sincos(theta)

		dir := 1.0
		if Hash(p.Seed, 1, 0, SaltRotation)&1 == 1 {
			dir = -1
		}
		tilt := dir * p.PatternRotation * sampleTilt * (0.5 + 0.5*Unit(p.Seed, 2, 0, SaltRotation))
		f.tilt = true
		f.tiltSin, f.tiltCos = math.Sincos(tilt)
		f.centerX = float64(src.Width-1) / 2
		f.centerY = float64(src.Height-1) / 2
	}
	if p.WaveDistortion > 0 {
		f.wavePhaseX = Unit(p.Seed, 0, 0, SaltWave) * 2 * math.Pi
		f.wavePhaseY = Unit(p.Seed, 1, 0, SaltWave) * 2 * math.Pi
		// Ordered patterns take the wave in MatrixCoord; the rest have no
		// matrix to bend, so the sampling coordinate carries it.
		f.waveSample = p.Algorithm == params.NoDither || p.Algorithm.Diffusion()
	}
	return f
}

// Params returns the clamped parameters the frame was built from.
func (f *Frame) Params() params.Params { return f.p }

// Grid returns the number of cell columns and rows.
func (f *Frame) Grid() (cols, rows int) { return f.cols, f.rows }

// Block returns the output pixel rectangle covered by a cell, clipped to
// the texture.
func (f *Frame) Block(cx, cy int) (x0, y0, x1, y1 int) {
	x0, y0 = cx*f.scale, cy*f.scale
	return x0, y0, min(x0+f.scale, f.src.Width), min(y0+f.scale, f.src.Height)
}

// Sample returns the preprocessed colour of a cell as RGB in [0, 1] plus
// the source alpha. Warps move the sampling coordinate, then the colour
// gets brightness, contrast and the optional grayscale conversion.
func (f *Frame) Sample(cx, cy int) (rgb [3]float64, alpha uint8) {
	p := &f.p
	s := float64(f.scale)
	px := float64(cx)*s + (s-1)/2
	py := float64(cy)*s + (s-1)/2

	if p.OffsetJitter > 0 {
		reach := p.OffsetJitter * jitterRadius * s
		px += Signed(p.Seed, cx, cy, SaltJitterX) * reach
		py += Signed(p.Seed, cx, cy, SaltJitterY) * reach
	}
	if f.tilt {
		dx, dy := px-f.centerX, py-f.centerY
		px = f.centerX + dx*f.tiltCos - dy*f.tiltSin
		py = f.centerY + dx*f.tiltSin + dy*f.tiltCos
	}
	if f.waveSample {
		amp := p.WaveDistortion * waveReach * s
		px += math.Sin(float64(cy)*waveFrequency+f.wavePhaseX) * amp
		py += math.Sin(float64(cx)*waveFrequency+f.wavePhaseY) * amp
	}
	if p.PixelDisplace > 0 {
		band := cy / displaceBand
		px += Signed(p.Seed, band, 0, SaltDisplace) * p.PixelDisplace
	}
	if p.Turbulence > 0 {
		nx := valueNoise(p.Seed, px/turbulenceScale, py/turbulenceScale, SaltTurbulenceX) - 0.5
		ny := valueNoise(p.Seed, px/turbulenceScale, py/turbulenceScale, SaltTurbulenceY) - 0.5
		px += nx * 2 * p.Turbulence * turbulenceReach
		py += ny * 2 * p.Turbulence * turbulenceReach
	}

	g := f.fetch(px, py)
	r, b := g, g
	if f.chromaDX != 0 || f.chromaDY != 0 {
		r = f.fetch(px+f.chromaDX, py+f.chromaDY)
		b = f.fetch(px-f.chromaDX, py-f.chromaDY)
	}

	rgb = [3]float64{
		f.tone(r.R),
		f.tone(g.G),
		f.tone(b.B),
	}
	if p.Grayscale {
		l := 0.299*rgb[0] + 0.587*rgb[1] + 0.114*rgb[2]
		rgb = [3]float64{l, l, l}
	}
	return rgb, g.A
}

// fetch samples the source with nearest filtering and edge clamping.
func (f *Frame) fetch(px, py float64) pixel {
	x := clampInt(int(math.Floor(px+0.5)), 0, f.src.Width-1)
	y := clampInt(int(math.Floor(py+0.5)), 0, f.src.Height-1)
	c := f.src.At(x, y)
	return pixel{c.R, c.G, c.B, c.A}
}

type pixel struct{ R, G, B, A uint8 }

func (f *Frame) tone(c uint8) float64 {
	v := float64(c) / 255
	v = (v-0.5)*f.p.Contrast + 0.5 + f.p.Brightness
	return clamp01(v)
}

// MatrixCoord maps a cell to its threshold-matrix coordinate after the
// pattern rotation and wave distortion effects.
func (f *Frame) MatrixCoord(cx, cy, n int) (int, int) {
	if !f.rotate && f.p.WaveDistortion == 0 {
		return cx, cy
	}
	x, y := float64(cx), float64(cy)
	if f.rotate {
		x, y = x*f.rotCos-y*f.rotSin, x*f.rotSin+y*f.rotCos
	}
	if w := f.p.WaveDistortion; w > 0 {
		amp := w * float64(n)
		dx := math.Sin(float64(cy)*waveFrequency+f.wavePhaseX) * amp
		dy := math.Sin(float64(cx)*waveFrequency+f.wavePhaseY) * amp
		x += dx
		y += dy
	}
	return int(math.Floor(x + 0.5)), int(math.Floor(y + 0.5))
}

// Levels returns the number of output levels per channel for a cell.
// Bit-depth chaos randomly drops one level; a dropped binary cell has a
// single level and renders mid-gray.
func (f *Frame) Levels(cx, cy int) int {
	l := f.p.ColorDepth
	if f.p.BitDepthChaos > 0 && l > 1 && Unit(f.p.Seed, cx, cy, SaltBitDepth) < f.p.BitDepthChaos {
		l--
	}
	return l
}

// ThresholdNoise returns the signed offset added to a cell's threshold.
func (f *Frame) ThresholdNoise(cx, cy int) float64 {
	if f.p.ThresholdNoise == 0 {
		return 0
	}
	return Signed(f.p.Seed, cx, cy, SaltThreshold) * 0.5 * f.p.ThresholdNoise
}

// Perturb applies palette randomization to a quantized level index:
// with probability paletteRandomize the channel moves one level up or down.
func (f *Frame) Perturb(idx, levels, cx, cy, ch int) int {
	pr := f.p.PaletteRandomize
	if pr == 0 || levels < 2 {
		return idx
	}
	salt := uint32(ch)
	if Unit(f.p.Seed, cx, cy, SaltPalette+salt) >= pr {
		return idx
	}
	if Hash(f.p.Seed, cx, cy, SaltPaletteDir+salt)&1 == 0 {
		idx--
	} else {
		idx++
	}
	return clampInt(idx, 0, levels-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
