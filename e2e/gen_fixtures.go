//go:build ignore

// gen_fixtures writes test images that exercise dithering: smooth ramps
// for banding, hard edges for diffusion artifacts, translucency for
// alpha pass-through.
// Usage: go run gen_fixtures.go <output_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	if err := os.MkdirAll(filepath.Join(dir, "edges"), 0o755); err != nil {
		fail(err)
	}

	fixtures := map[string]*image.NRGBA{
		"gray-ramp.png":       grayRamp(256, 64),
		"hue-sweep.jpg":       hueSweep(320, 180),
		"edges/checker.png":   checker(128, 128, 16),
		"edges/circle.png":    circle(160, 160),
		"translucent-dot.png": translucentDot(96, 96),
	}
	for name, img := range fixtures {
		path := filepath.Join(dir, name)
		var err error
		if filepath.Ext(name) == ".jpg" {
			err = writeJPEG(path, img)
		} else {
			err = writePNG(path, img)
		}
		if err != nil {
			fail(err)
		}
	}
	fmt.Fprintf(os.Stderr, "[gen_fixtures] created %d fixtures in %s\n", len(fixtures), dir)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "gen_fixtures:", err)
	os.Exit(1)
}

func grayRamp(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / (w - 1))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func hueSweep(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		light := 1 - float64(y)/float64(h)
		for x := 0; x < w; x++ {
			hue := float64(x) / float64(w) * 6
			c := func(off float64) uint8 {
				v := math.Abs(math.Mod(hue+off, 6)-3) - 1
				v = math.Max(0, math.Min(1, v))
				return uint8(255 * v * light)
			}
			img.SetNRGBA(x, y, color.NRGBA{R: c(0), G: c(4), B: c(2), A: 255})
		}
	}
	return img
}

func checker(w, h, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 30, G: 30, B: 30, A: 255}
			if (x/cell+y/cell)%2 == 0 {
				c = color.NRGBA{R: 230, G: 220, B: 200, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func circle(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	cx, cy, r := float64(w)/2, float64(h)/2, float64(min(w, h))/3
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: 240, G: 240, B: 240, A: 255}
			if math.Hypot(float64(x)-cx, float64(y)-cy) < r {
				c = color.NRGBA{R: 200, G: 40, B: 60, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func translucentDot(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	cx, cy := float64(w)/2, float64(h)/2
	maxD := math.Hypot(cx, cy)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy) / maxD
			img.SetNRGBA(x, y, color.NRGBA{R: 40, G: 90, B: 220, A: uint8(255 * (1 - d))})
		}
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func writeJPEG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, img, &jpeg.Options{Quality: 92})
}
