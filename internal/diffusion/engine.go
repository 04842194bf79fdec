// Package diffusion runs Floyd-Steinberg error diffusion as two parallel
// passes over the cell grid.
//
// Pass one quantizes every even row concurrently. Each row carries its
// residual to the right within the row and deposits the downward shares
// into the following odd row of the error buffer. After a full barrier,
// pass two quantizes every odd row, reading the deposited residual. Odd
// rows cannot reach the even row below, which is already final, so their
// downward shares are folded into the right-hand neighbour. Shares that
// leave the grid are dropped.
package diffusion

import (
	"context"
	"fmt"
	"image/color"

	"github.com/AnyUserName/ditherkit/internal/compute"
	"github.com/AnyUserName/ditherkit/internal/kernel"
	"github.com/AnyUserName/ditherkit/internal/params"
)

// Dispatcher runs fn(0..n-1) in parallel and returns after every call has
// completed.
type Dispatcher interface {
	Dispatch(ctx context.Context, label string, n int, fn func(i int)) error
}

// Pass labels reported to the dispatcher.
const (
	LabelEvenRows = "diffusion/even"
	LabelOddRows  = "diffusion/odd"
)

// Run diffuses the frame into dst. eb must match the frame's cell grid
// and is cleared before use.
func Run(ctx context.Context, d Dispatcher, f *kernel.Frame, eb *compute.ErrorBuffer, dst kernel.Target) error {
	cols, rows := f.Grid()
	if eb.Width != cols || eb.Height != rows {
		return fmt.Errorf("diffusion: error buffer %dx%d does not match grid %dx%d", eb.Width, eb.Height, cols, rows)
	}
	clear(eb.Data)

	p := f.Params()
	r := &rowRunner{
		f:    f,
		p:    p,
		eb:   eb,
		dst:  dst,
		taps: FloydSteinberg(p.ErrorAmplify),
		cols: cols,
		rows: rows,
	}

	if err := d.Dispatch(ctx, LabelEvenRows, (rows+1)/2, func(i int) {
		r.row(2*i, false)
	}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.Dispatch(ctx, LabelOddRows, rows/2, func(i int) {
		r.row(2*i+1, true)
	})
}

type rowRunner struct {
	f    *kernel.Frame
	p    params.Params
	eb   *compute.ErrorBuffer
	dst  kernel.Target
	taps []Tap
	cols int
	rows int
}

// row quantizes one row left to right. fold marks a second-pass row whose
// downward shares go to the right neighbour instead.
func (r *rowRunner) row(cy int, fold bool) {
	inbound := r.eb.Row(cy)
	var below []float32
	if !fold && cy+1 < r.rows {
		below = r.eb.Row(cy + 1)
	}
	ahead := make([]float64, r.cols*3)
	weights := make([]float64, len(r.taps))

	for cx := 0; cx < r.cols; cx++ {
		rgb, alpha := r.f.Sample(cx, cy)
		x0, y0, x1, y1 := r.f.Block(cx, cy)
		levels := r.f.Levels(cx, cy)
		if levels <= 1 {
			r.dst.FillBlock(x0, y0, x1, y1, color.NRGBA{R: kernel.MidGray, G: kernel.MidGray, B: kernel.MidGray, A: alpha})
			continue
		}

		r.cellWeights(cx, cy, weights)
		threshold := 0.5 + r.f.ThresholdNoise(cx, cy)

		var out [3]uint8
		for ch := 0; ch < 3; ch++ {
			i := cx*3 + ch
			v := rgb[ch] + float64(inbound[i]) + ahead[i]
			idx := kernel.QuantizeIndex(v, levels, threshold)
			idx = r.f.Perturb(idx, levels, cx, cy, ch)
			out[ch] = kernel.LevelValue(idx, levels)

			residual := clampUnit(v - float64(out[ch])/255)
			for t, tap := range r.taps {
				share := residual * weights[t]
				tx := cx + tap.DX
				switch {
				case tap.DY == 0 || fold:
					if tap.DY != 0 {
						tx = cx + 1
					}
					if tx < r.cols {
						ahead[tx*3+ch] += share
					}
				case below != nil && tx >= 0 && tx < r.cols:
					below[tx*3+ch] += float32(share)
				}
			}
		}
		r.dst.FillBlock(x0, y0, x1, y1, color.NRGBA{R: out[0], G: out[1], B: out[2], A: alpha})
	}
}

// cellWeights fills w with the tap weights for a cell. Error randomness
// jitters each weight and renormalizes to the unperturbed total.
func (r *rowRunner) cellWeights(cx, cy int, w []float64) {
	var total float64
	for i, t := range r.taps {
		w[i] = t.W
		total += t.W
	}
	rnd := r.p.ErrorRandomness
	if rnd == 0 {
		return
	}
	var jittered float64
	for i := range w {
		w[i] *= 1 + rnd*kernel.Signed(r.p.Seed, cx, cy, kernel.SaltDiffusion+uint32(i))
		jittered += w[i]
	}
	if jittered < 1e-9 {
		for i, t := range r.taps {
			w[i] = t.W
		}
		return
	}
	scale := total / jittered
	for i := range w {
		w[i] *= scale
	}
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
