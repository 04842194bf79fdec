package encoder

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{A: 255})
			}
		}
	}
	return img
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"PNG":   "png",
		".jpg":  "jpeg",
		"tif":   "tiff",
		" Webp": "webp",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
	if got := FormatFromPath("out/frame.JPG"); got != "jpeg" {
		t.Errorf("FormatFromPath = %q", got)
	}
}

func TestRegistry_InProcessFormats(t *testing.T) {
	r := NewRegistry()
	for _, f := range []string{"png", "gif", "jpeg", "tiff", "bmp"} {
		if r.Get(f) == nil {
			t.Errorf("%s encoder missing", f)
		}
	}
	if _, err := r.Lookup("heic"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Lookup(heic) err = %v", err)
	}
}

func TestLosslessRoundTrip(t *testing.T) {
	src := checker(9, 7)
	decoders := map[string]func([]byte) (image.Image, error){
		"png":  func(b []byte) (image.Image, error) { return png.Decode(bytes.NewReader(b)) },
		"tiff": func(b []byte) (image.Image, error) { return tiff.Decode(bytes.NewReader(b)) },
		"bmp":  func(b []byte) (image.Image, error) { return bmp.Decode(bytes.NewReader(b)) },
	}
	r := NewRegistry()
	for format, decode := range decoders {
		data, err := r.Get(format).Encode(src, 0)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		img, err := decode(data)
		if err != nil {
			t.Fatalf("%s decode: %v", format, err)
		}
		for y := 0; y < 7; y++ {
			for x := 0; x < 9; x++ {
				r1, g1, b1, _ := img.At(x, y).RGBA()
				r2, g2, b2, _ := src.At(x, y).RGBA()
				if r1 != r2 || g1 != g2 || b1 != b2 {
					t.Fatalf("%s: pixel (%d,%d) changed", format, x, y)
				}
			}
		}
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.jpg")
	n, err := NewRegistry().Write(checker(16, 16), path, "", 75)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != n {
		t.Errorf("reported %d bytes, file has %d", n, len(data))
	}
	if _, err := jpeg.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("written file is not a jpeg: %v", err)
	}
}

func TestExternalEncoder_Missing(t *testing.T) {
	e := NewWebPEncoder()
	e.tool = "ditherkit-no-such-tool"
	if e.Available() {
		t.Skip("tool unexpectedly present")
	}
	if _, err := e.Encode(checker(2, 2), 80); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
}

func TestWebPArgs(t *testing.T) {
	e := NewWebPEncoder()
	lossless := e.args(100, "a.png", "b.webp")
	if !contains(lossless, "-lossless") {
		t.Errorf("quality 100 should be lossless: %v", lossless)
	}
	lossy := e.args(80, "a.png", "b.webp")
	if contains(lossy, "-lossless") || !contains(lossy, "80") {
		t.Errorf("quality 80 args = %v", lossy)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestGIFEncoder_ExactPalette(t *testing.T) {
	src := checker(9, 7)
	src.SetNRGBA(4, 4, color.NRGBA{R: 10, G: 200, B: 30, A: 20})
	data, err := (&GIFEncoder{}).Encode(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	got, err := gif.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 7; y++ {
		for x := 0; x < 9; x++ {
			want := src.NRGBAAt(x, y)
			if x == 4 && y == 4 {
				want = color.NRGBA{}
			}
			if c := color.NRGBAModel.Convert(got.At(x, y)).(color.NRGBA); c != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, c, want)
			}
		}
	}
}

func TestGIFEncoder_ManyColours(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 77, A: 255})
		}
	}
	data, err := (&GIFEncoder{}).Encode(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := gif.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 32 || cfg.Height != 32 {
		t.Errorf("size = %dx%d", cfg.Width, cfg.Height)
	}
}
