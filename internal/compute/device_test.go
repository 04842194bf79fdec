package compute

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
)

func newTestDevice(t *testing.T, budget int64) *Device {
	t.Helper()
	d := NewDevice(Config{Workers: 4, MemoryBudget: budget})
	t.Cleanup(d.Close)
	return d
}

func TestDevice_AllocationBudget(t *testing.T) {
	d := newTestDevice(t, 1000)

	tex, err := d.NewTexture(10, 10) // 400 bytes
	if err != nil {
		t.Fatalf("NewTexture: %v", err)
	}
	if _, err := d.NewTexture(20, 20); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
	if got := d.Stats().AllocatedBytes; got != 400 {
		t.Errorf("allocated = %d, want 400", got)
	}

	d.Release(tex)
	d.Release(tex)
	if got := d.Stats().AllocatedBytes; got != 0 {
		t.Errorf("allocated after release = %d, want 0", got)
	}
	if got := d.Stats().PeakBytes; got != 400 {
		t.Errorf("peak = %d, want 400", got)
	}
}

func TestDevice_InvalidDimensions(t *testing.T) {
	d := newTestDevice(t, 0)
	if _, err := d.NewTexture(0, 5); err == nil {
		t.Error("expected error for zero width")
	}
	if _, err := d.NewErrorBuffer(-1, 5); err == nil {
		t.Error("expected error for negative width")
	}
}

func TestDevice_UploadReadback(t *testing.T) {
	d := newTestDevice(t, 0)

	src := image.NewNRGBA(image.Rect(2, 3, 6, 6)) // non-zero origin
	for y := 3; y < 6; y++ {
		for x := 2; x < 6; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 9, A: 255})
		}
	}

	tex, err := d.Upload(src)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Release(tex)

	if tex.Width != 4 || tex.Height != 3 {
		t.Fatalf("texture size %dx%d", tex.Width, tex.Height)
	}
	if got := tex.At(0, 0); got != (color.NRGBA{R: 2, G: 3, B: 9, A: 255}) {
		t.Errorf("At(0,0) = %v", got)
	}

	out, err := d.Readback(tex)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.NRGBAAt(3, 2); got != (color.NRGBA{R: 5, G: 5, B: 9, A: 255}) {
		t.Errorf("readback (3,2) = %v", got)
	}

	// The readback must not alias device memory.
	tex.Set(0, 0, color.NRGBA{})
	if out.NRGBAAt(0, 0).R != 2 {
		t.Error("readback aliases texture memory")
	}
}

func TestDevice_DispatchRunsEveryItem(t *testing.T) {
	d := newTestDevice(t, 0)

	seen := make([]atomic.Int32, 300)
	err := d.Dispatch(context.Background(), "test", len(seen), func(i int) {
		seen[i].Add(1)
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := range seen {
		if seen[i].Load() != 1 {
			t.Fatalf("item %d ran %d times", i, seen[i].Load())
		}
	}
}

func TestDevice_DispatchFault(t *testing.T) {
	d := newTestDevice(t, 0)

	err := d.Dispatch(context.Background(), "boom", 10, func(i int) {
		if i == 7 {
			panic("kernel exploded")
		}
	})
	var fault *FaultError
	if !errors.As(err, &fault) {
		t.Fatalf("expected FaultError, got %v", err)
	}
	if fault.Label != "boom" || fault.Index != 7 {
		t.Errorf("unexpected fault %+v", fault)
	}
	if d.Stats().Faults != 1 {
		t.Errorf("faults = %d, want 1", d.Stats().Faults)
	}

	// The pool survives a fault.
	if err := d.Dispatch(context.Background(), "after", 4, func(int) {}); err != nil {
		t.Errorf("dispatch after fault: %v", err)
	}
}

func TestDevice_DispatchCancelled(t *testing.T) {
	d := newTestDevice(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	var ran atomic.Int32
	err := d.Dispatch(ctx, "cancel", 1000, func(i int) {
		if ran.Add(1) == 5 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ran.Load() >= 1000 {
		t.Error("cancellation did not skip remaining work")
	}

	if err := d.Dispatch(ctx, "dead", 3, func(int) { t.Error("ran with cancelled ctx") }); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDevice_Closed(t *testing.T) {
	d := NewDevice(Config{Workers: 2})
	d.Close()
	d.Close()

	if _, err := d.NewTexture(1, 1); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("NewTexture: got %v", err)
	}
	if err := d.Dispatch(context.Background(), "x", 1, func(int) {}); !errors.Is(err, ErrDeviceClosed) {
		t.Errorf("Dispatch: got %v", err)
	}
}

func TestTexture_FillBlockClips(t *testing.T) {
	tex := &Texture{Width: 3, Height: 3, Stride: 12, Pix: make([]uint8, 36)}
	c := color.NRGBA{R: 1, G: 2, B: 3, A: 4}
	tex.FillBlock(2, 2, 5, 5, c)
	if tex.At(2, 2) != c {
		t.Error("block not filled")
	}
	if tex.At(1, 1) != (color.NRGBA{}) {
		t.Error("fill leaked outside block")
	}
}
