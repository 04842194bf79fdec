// Package render turns a source image and a parameter snapshot into a
// dithered image on a compute device.
package render

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/AnyUserName/ditherkit/internal/compute"
	"github.com/AnyUserName/ditherkit/internal/diffusion"
	"github.com/AnyUserName/ditherkit/internal/kernel"
	"github.com/AnyUserName/ditherkit/internal/logging"
	"github.com/AnyUserName/ditherkit/internal/params"
)

// Device is the subset of *compute.Device a render needs.
type Device interface {
	Upload(img *image.NRGBA) (*compute.Texture, error)
	NewTexture(w, h int) (*compute.Texture, error)
	NewErrorBuffer(w, h int) (*compute.ErrorBuffer, error)
	Dispatch(ctx context.Context, label string, n int, fn func(i int)) error
	Readback(t *compute.Texture) (*image.NRGBA, error)
	Release(resources ...compute.Resource)
}

// Renderer executes renders on a shared device. It is safe for concurrent
// use; each call owns its own buffers.
type Renderer struct {
	dev Device
}

// New returns a renderer bound to dev.
func New(dev Device) *Renderer {
	return &Renderer{dev: dev}
}

// Render produces a new image from src and p. Neither argument is
// modified. The returned error wraps one of ErrInput,
// ErrResourceExhausted, ErrDeviceFault or ErrCancelled. Device memory
// acquired by the call is released on every path.
func (r *Renderer) Render(ctx context.Context, src *image.NRGBA, p params.Params) (*image.NRGBA, error) {
	start := time.Now()
	log := logging.With(logging.ComponentRender).With("request_id", uuid.NewString())

	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrInput)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, classify("before upload", err)
	}

	in, err := r.dev.Upload(src)
	if err != nil {
		return nil, classify("upload", err)
	}
	defer r.dev.Release(in)

	out, err := r.dev.NewTexture(in.Width, in.Height)
	if err != nil {
		return nil, classify("allocate output", err)
	}
	defer r.dev.Release(out)

	frame := kernel.NewFrame(in, p)
	cols, rows := frame.Grid()

	if err := ctx.Err(); err != nil {
		return nil, classify("before dispatch", err)
	}

	if p.Algorithm.Diffusion() {
		eb, err := r.dev.NewErrorBuffer(cols, rows)
		if err != nil {
			return nil, classify("allocate error buffer", err)
		}
		defer r.dev.Release(eb)

		if err := diffusion.Run(ctx, r.dev, frame, eb, out); err != nil {
			return nil, classify("diffuse", err)
		}
	} else {
		k, err := kernel.For(p.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInput, err)
		}
		label := "kernel/" + p.Algorithm.String()
		if err := r.dev.Dispatch(ctx, label, rows, func(i int) {
			kernel.Apply(k, frame, out, i, i+1)
		}); err != nil {
			return nil, classify("dispatch", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, classify("before readback", err)
	}
	img, err := r.dev.Readback(out)
	if err != nil {
		return nil, classify("readback", err)
	}

	log.Debug("render complete",
		"algorithm", p.Algorithm.String(),
		"size", fmt.Sprintf("%dx%d", in.Width, in.Height),
		"seed", p.Seed,
		"duration", time.Since(start))
	return img, nil
}
