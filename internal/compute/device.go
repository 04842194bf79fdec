// Package compute provides the data-parallel execution device used by the
// render pipeline: a long-lived worker pool, budgeted buffer allocation and
// barrier-complete dispatch.
package compute

import (
	"context"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
)

// DefaultMemoryBudget caps the bytes a device may hold at once.
const DefaultMemoryBudget int64 = 1 << 30

// Config configures a Device.
type Config struct {
	Workers      int   // 0 = GOMAXPROCS
	MemoryBudget int64 // bytes, 0 = DefaultMemoryBudget
}

// Stats is a point-in-time view of device usage.
type Stats struct {
	Workers        int
	AllocatedBytes int64
	PeakBytes      int64
	Dispatches     int64
	Faults         int64
}

// Resource is a device allocation that must be handed back with Release.
type Resource interface {
	release() int64
}

func (t *Texture) release() int64 {
	n := t.bytes()
	t.Pix = nil
	return n
}

func (b *ErrorBuffer) release() int64 {
	n := b.bytes()
	b.Data = nil
	return n
}

// Device executes kernels on a shared worker pool. It is safe for
// concurrent use; the pool and configuration are read-only after creation.
type Device struct {
	budget int64
	pool   *WorkerPool

	mu     sync.RWMutex // held for reading by dispatches, for writing by Close
	closed bool

	allocated  atomic.Int64
	peak       atomic.Int64
	dispatches atomic.Int64
	faults     atomic.Int64
}

// NewDevice creates a device and starts its worker pool.
func NewDevice(cfg Config) *Device {
	budget := cfg.MemoryBudget
	if budget <= 0 {
		budget = DefaultMemoryBudget
	}
	return &Device{
		budget: budget,
		pool:   NewWorkerPool(cfg.Workers),
	}
}

func (d *Device) reserve(n int64) error {
	for {
		cur := d.allocated.Load()
		if n < 0 || cur+n > d.budget {
			return fmt.Errorf("%w: need %d bytes, %d of %d in use", ErrOutOfMemory, n, cur, d.budget)
		}
		if d.allocated.CompareAndSwap(cur, cur+n) {
			next := cur + n
			for {
				p := d.peak.Load()
				if next <= p || d.peak.CompareAndSwap(p, next) {
					break
				}
			}
			return nil
		}
	}
}

func bufferSize(w, h, bytesPerCell int) (int64, error) {
	if w <= 0 || h <= 0 {
		return 0, fmt.Errorf("compute: invalid dimensions %dx%d", w, h)
	}
	n := int64(w) * int64(h)
	if n > (1<<62)/int64(bytesPerCell) {
		return 0, fmt.Errorf("%w: %dx%d overflows", ErrOutOfMemory, w, h)
	}
	return n * int64(bytesPerCell), nil
}

func (d *Device) checkOpen() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDeviceClosed
	}
	return nil
}

// NewTexture allocates a zeroed w×h RGBA8 texture.
func (d *Device) NewTexture(w, h int) (*Texture, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	size, err := bufferSize(w, h, 4)
	if err != nil {
		return nil, err
	}
	if err := d.reserve(size); err != nil {
		return nil, err
	}
	return &Texture{Width: w, Height: h, Stride: w * 4, Pix: make([]uint8, size)}, nil
}

// Upload copies img into a new device texture. img is only read.
func (d *Device) Upload(img *image.NRGBA) (*Texture, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	b := img.Bounds()
	size, err := bufferSize(b.Dx(), b.Dy(), 4)
	if err != nil {
		return nil, err
	}
	if err := d.reserve(size); err != nil {
		return nil, err
	}
	return textureFromImage(img), nil
}

// NewErrorBuffer allocates a zeroed w×h residual buffer.
func (d *Device) NewErrorBuffer(w, h int) (*ErrorBuffer, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	size, err := bufferSize(w, h, 12)
	if err != nil {
		return nil, err
	}
	if err := d.reserve(size); err != nil {
		return nil, err
	}
	return &ErrorBuffer{Width: w, Height: h, Data: make([]float32, w*h*3)}, nil
}

// Release returns allocations to the budget. Releasing twice is harmless.
func (d *Device) Release(resources ...Resource) {
	for _, r := range resources {
		if r == nil {
			continue
		}
		d.allocated.Add(-r.release())
	}
}

// Dispatch runs fn(i) for every i in [0, n) on the worker pool and returns
// once all invocations have finished, which makes it a full barrier between
// consecutive dispatches. Invocations observe ctx cooperatively: once it is
// done, remaining items are skipped and ctx.Err() is returned. A panic in fn
// is reported as a *FaultError.
func (d *Device) Dispatch(ctx context.Context, label string, n int, fn func(i int)) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrDeviceClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var fault atomic.Pointer[FaultError]
	work := make([]func(), n)
	for i := range n {
		work[i] = func() {
			if fault.Load() != nil || ctx.Err() != nil {
				return
			}
			defer func() {
				if r := recover(); r != nil {
					fault.CompareAndSwap(nil, &FaultError{Label: label, Index: i, Cause: r})
				}
			}()
			fn(i)
		}
	}

	d.dispatches.Add(1)
	if !d.pool.ExecuteAll(work) {
		return ErrDeviceClosed
	}
	if f := fault.Load(); f != nil {
		d.faults.Add(1)
		return f
	}
	return ctx.Err()
}

// Readback copies a texture into a freshly allocated image.
func (d *Device) Readback(t *Texture) (*image.NRGBA, error) {
	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	if t.Pix == nil {
		return nil, &FaultError{Label: "readback", Index: -1, Cause: "texture already released"}
	}
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	for y := 0; y < t.Height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+t.Width*4], t.Pix[y*t.Stride:])
	}
	return img, nil
}

// Stats returns current usage counters.
func (d *Device) Stats() Stats {
	return Stats{
		Workers:        d.pool.Workers(),
		AllocatedBytes: d.allocated.Load(),
		PeakBytes:      d.peak.Load(),
		Dispatches:     d.dispatches.Load(),
		Faults:         d.faults.Load(),
	}
}

// Close waits for in-flight dispatches, then stops the worker pool.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.pool.Close()
}
