package pipeline

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/AnyUserName/ditherkit/internal/render"
)

// LoadImage decodes an image file into a fresh RGBA8 buffer, honouring
// EXIF orientation. Decode failures wrap render.ErrInput.
func LoadImage(path string) (*image.NRGBA, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", render.ErrInput, path, err)
	}
	return toNRGBA(img), nil
}

// toNRGBA returns img as a zero-origin *image.NRGBA, copying when needed.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// Fit scales img down to w×h with Lanczos resampling. It returns img
// unchanged when the size already matches.
func Fit(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}
