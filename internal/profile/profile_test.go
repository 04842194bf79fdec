package profile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AnyUserName/ditherkit/internal/params"
)

func TestBuiltinPresetsValid(t *testing.T) {
	c := Builtin()
	for _, name := range c.Names() {
		p, _ := c.Lookup(name)
		if err := p.Params.Validate(); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if p.Name != name {
			t.Errorf("%s: name field = %q", name, p.Name)
		}
	}
}

func TestGetFallback(t *testing.T) {
	p := Get("does-not-exist")
	if p.Name != "does-not-exist" {
		t.Errorf("name = %q, want requested name", p.Name)
	}
	if p.Params != Get(DefaultName).Params {
		t.Error("unknown preset should use default parameters")
	}
}

func TestLoad_MergesAndOverrides(t *testing.T) {
	c := Builtin()
	yml := `
presets:
  poster:
    description: three-level posterize
    format: tiff
    params:
      algorithm: none
      color_depth: 3
      contrast: 1.5
  gameboy:
    params:
      pixel_scale: 5
`
	if err := c.Load([]byte(yml)); err != nil {
		t.Fatal(err)
	}

	poster, ok := c.Lookup("poster")
	if !ok {
		t.Fatal("poster not loaded")
	}
	if poster.Format != "tiff" || poster.Quality != 90 {
		t.Errorf("poster export = %s/%d", poster.Format, poster.Quality)
	}
	if poster.Params.Algorithm != params.NoDither || poster.Params.ColorDepth != 3 || poster.Params.Contrast != 1.5 {
		t.Errorf("poster params = %+v", poster.Params)
	}
	if poster.Params.PixelScale != 1 || poster.Params.ErrorAmplify != 1 {
		t.Error("omitted fields should keep defaults")
	}

	gb, _ := c.Lookup("gameboy")
	if gb.Params.PixelScale != 5 {
		t.Errorf("override pixel_scale = %d", gb.Params.PixelScale)
	}
	if !gb.Params.Grayscale || gb.MaxWidth != 640 {
		t.Error("override should keep the built-in's other fields")
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	c := Builtin()
	err := c.Load([]byte("presets:\n  bad:\n    params:\n      contrast: 9\n"))
	if !errors.Is(err, params.ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
	if _, ok := c.Lookup("bad"); ok {
		t.Error("invalid preset was registered")
	}
	if err := c.Load([]byte("presets: [")); err == nil {
		t.Error("expected parse error")
	}
	if err := c.Load([]byte("presets:\n  x:\n    params:\n      algorithm: sierra\n")); err == nil {
		t.Error("expected unknown algorithm error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	if err := os.WriteFile(path, []byte("presets:\n  mine:\n    quality: 70\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := Builtin()
	if err := c.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if p, ok := c.Lookup("mine"); !ok || p.Quality != 70 {
		t.Errorf("mine = %+v, %v", p, ok)
	}
	if err := c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		max, w, h, ww, wh int
	}{
		{0, 1000, 500, 1000, 500},
		{640, 320, 200, 320, 200},
		{640, 1280, 720, 640, 360},
		{10, 4000, 1, 10, 1},
	}
	for _, tt := range tests {
		p := Profile{MaxWidth: tt.max}
		w, h := p.TargetSize(tt.w, tt.h)
		if w != tt.ww || h != tt.wh {
			t.Errorf("TargetSize(%d,%d) max %d = %dx%d, want %dx%d", tt.w, tt.h, tt.max, w, h, tt.ww, tt.wh)
		}
	}
}
