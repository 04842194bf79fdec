// Package kernel holds the per-pixel dither kernels: ordered threshold
// matrices, blue noise and the shared sampling and quantization steps.
// Every kernel is a pure function of the source, the parameters and the
// cell coordinate, so cells can be evaluated in any order and in parallel.
package kernel

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/AnyUserName/ditherkit/internal/params"
)

// ErrNotPerPixel is returned by For for algorithms that carry state
// between pixels and therefore cannot run as an independent kernel.
var ErrNotPerPixel = errors.New("kernel: algorithm is not per-pixel")

// Kernel evaluates the output colour of one cell.
type Kernel interface {
	Algorithm() params.Algorithm
	Evaluate(f *Frame, cx, cy int) color.NRGBA
}

// For returns the kernel for an ordered algorithm.
func For(a params.Algorithm) (Kernel, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("kernel: unknown algorithm %d", int(a))
	}
	if a.Diffusion() {
		return nil, fmt.Errorf("%w: %s", ErrNotPerPixel, a)
	}
	m := MatrixFor(a)
	if m == nil {
		return nil, fmt.Errorf("kernel: no matrix for %s", a)
	}
	return &ordered{alg: a, m: m}, nil
}

type ordered struct {
	alg params.Algorithm
	m   *Matrix
}

func (k *ordered) Algorithm() params.Algorithm { return k.alg }

func (k *ordered) Evaluate(f *Frame, cx, cy int) color.NRGBA {
	rgb, alpha := f.Sample(cx, cy)
	levels := f.Levels(cx, cy)
	if levels <= 1 {
		return color.NRGBA{R: MidGray, G: MidGray, B: MidGray, A: alpha}
	}

	mx, my := f.MatrixCoord(cx, cy, k.m.N)
	t := k.m.At(mx, my) + f.ThresholdNoise(cx, cy)

	var out [3]uint8
	for ch, v := range rgb {
		idx := QuantizeIndex(v, levels, t)
		idx = f.Perturb(idx, levels, cx, cy, ch)
		out[ch] = LevelValue(idx, levels)
	}
	return color.NRGBA{R: out[0], G: out[1], B: out[2], A: alpha}
}

// Apply evaluates k for the cells of rows [row0, row1) and fills their
// output blocks in dst, which must match the frame's source size.
func Apply(k Kernel, f *Frame, dst Target, row0, row1 int) {
	for cy := row0; cy < row1; cy++ {
		for cx := 0; cx < f.cols; cx++ {
			x0, y0, x1, y1 := f.Block(cx, cy)
			dst.FillBlock(x0, y0, x1, y1, k.Evaluate(f, cx, cy))
		}
	}
}

// Target receives kernel output.
type Target interface {
	FillBlock(x0, y0, x1, y1 int, c color.NRGBA)
}
