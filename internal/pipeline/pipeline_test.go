package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/ditherkit/internal/compute"
	"github.com/AnyUserName/ditherkit/internal/manifest"
	"github.com/AnyUserName/ditherkit/internal/profile"
	"github.com/AnyUserName/ditherkit/internal/render"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func newRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	dev := compute.NewDevice(compute.Config{Workers: 2})
	t.Cleanup(dev.Close)
	return render.New(dev)
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	writePNG(t, path, 12, 9)
	img, err := LoadImage(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 12, 9) {
		t.Errorf("bounds = %v", img.Bounds())
	}
	if got := img.NRGBAAt(3, 2); got != (color.NRGBA{R: 21, G: 10, B: 90, A: 255}) {
		t.Errorf("pixel = %v", got)
	}

	if _, err := LoadImage(filepath.Join(dir, "missing.png")); !errors.Is(err, render.ErrInput) {
		t.Errorf("missing file err = %v", err)
	}
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadImage(bad); !errors.Is(err, render.ErrInput) {
		t.Errorf("corrupt file err = %v", err)
	}
}

func TestFit(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	if Fit(img, 40, 20) != img {
		t.Error("same size should return the input")
	}
	if got := Fit(img, 10, 5).Bounds(); got != image.Rect(0, 0, 10, 5) {
		t.Errorf("fitted bounds = %v", got)
	}
}

func TestScanImages(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 2, 2)
	writePNG(t, filepath.Join(dir, "sub", "a.png"), 2, 2)
	writePNG(t, filepath.Join(dir, ".hidden", "c.png"), 2, 2)
	writePNG(t, filepath.Join(dir, "out", "d.png"), 2, 2)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	sources, err := ScanImages(dir, filepath.Join(dir, "out"))
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != 2 {
		t.Fatalf("found %d sources: %+v", len(sources), sources)
	}
	if sources[0].Key != "b" || sources[1].Key != "sub/a" {
		t.Errorf("keys = %q, %q", sources[0].Key, sources[1].Key)
	}
	if sources[1].RelPath != "sub/a.png" || sources[1].Format != "png" {
		t.Errorf("source = %+v", sources[1])
	}
}

func TestPipeline_RunAndReproduce(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writePNG(t, filepath.Join(in, "one.png"), 32, 24)
	writePNG(t, filepath.Join(in, "nested", "two.png"), 80, 40)

	prof := profile.Get("glitch")
	prof.MaxWidth = 64
	r := newRenderer(t)

	m, err := New(Config{InputDir: in, OutputDir: out, Profile: prof, Workers: 2, Renderer: r}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Renders) != 2 || m.Stats.TotalRenders != 2 || m.Stats.Failed != 0 {
		t.Fatalf("manifest stats = %+v", m.Stats)
	}

	two := m.Renders["nested/two"]
	if two.Output.Width != 64 || two.Output.Height != 32 {
		t.Errorf("two output = %dx%d, want 64x32", two.Output.Width, two.Output.Height)
	}
	if two.Source.Width != 80 {
		t.Errorf("source width = %d", two.Source.Width)
	}
	if two.Params.Seed == 0 {
		t.Error("render seed not recorded")
	}

	if err := manifest.WriteJSON(m, filepath.Join(out, manifest.FileName)); err != nil {
		t.Fatal(err)
	}
	if errs := manifest.Validate(m, out); len(errs) != 0 {
		t.Fatalf("validate: %v", errs)
	}

	for key, rec := range m.Renders {
		got, err := Reproduce(context.Background(), r, m, key)
		if err != nil {
			t.Fatalf("reproduce %s: %v", key, err)
		}
		if got != rec.Output.PixelHash {
			t.Errorf("%s: reproduced %s, recorded %s", key, got, rec.Output.PixelHash)
		}
	}
}

func TestPipeline_FixedSeed(t *testing.T) {
	in := t.TempDir()
	writePNG(t, filepath.Join(in, "a.png"), 16, 16)
	r := newRenderer(t)
	prof := profile.Get("glitch")

	run := func() manifest.Record {
		m, err := New(Config{InputDir: in, OutputDir: t.TempDir(), Profile: prof, Seed: 99, Renderer: r}).Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return m.Renders["a"]
	}
	a, b := run(), run()
	if a.Params.Seed != 99 || a.Output.PixelHash != b.Output.PixelHash {
		t.Errorf("fixed seed runs differ: %+v vs %+v", a.Output, b.Output)
	}
}

func TestPipeline_PartialFailure(t *testing.T) {
	in := t.TempDir()
	writePNG(t, filepath.Join(in, "good.png"), 8, 8)
	if err := os.WriteFile(filepath.Join(in, "broken.png"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := New(Config{InputDir: in, OutputDir: t.TempDir(), Profile: profile.Get("default"), Renderer: newRenderer(t)}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Renders) != 1 || m.Stats.Failed != 1 {
		t.Errorf("renders=%d failed=%d", len(m.Renders), m.Stats.Failed)
	}
}

func TestPipeline_AllFailed(t *testing.T) {
	in := t.TempDir()
	if err := os.WriteFile(filepath.Join(in, "broken.png"), []byte("nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(Config{InputDir: in, OutputDir: t.TempDir(), Profile: profile.Get("default"), Renderer: newRenderer(t)}).Run(context.Background())
	if err == nil {
		t.Fatal("expected error when every image fails")
	}
}

func TestPipeline_UnknownFormat(t *testing.T) {
	in := t.TempDir()
	writePNG(t, filepath.Join(in, "a.png"), 4, 4)
	prof := profile.Get("default")
	prof.Format = "heic"
	_, err := New(Config{InputDir: in, OutputDir: t.TempDir(), Profile: prof, Renderer: newRenderer(t)}).Run(context.Background())
	if err == nil {
		t.Fatal("expected unavailable format error")
	}
}

func TestReproduce_UnknownKey(t *testing.T) {
	m := manifest.New("x")
	if _, err := Reproduce(context.Background(), newRenderer(t), m, "nope"); err == nil {
		t.Fatal("expected error")
	}
}
