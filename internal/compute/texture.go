package compute

import (
	"image"
	"image/color"
)

// Texture is a device-owned RGBA8 pixel buffer (non-premultiplied).
type Texture struct {
	Width, Height int
	Stride        int
	Pix           []uint8
}

// At returns the pixel at (x, y). Coordinates must be in bounds.
func (t *Texture) At(x, y int) color.NRGBA {
	i := y*t.Stride + x*4
	s := t.Pix[i : i+4 : i+4]
	return color.NRGBA{R: s[0], G: s[1], B: s[2], A: s[3]}
}

// Set writes the pixel at (x, y). Coordinates must be in bounds.
func (t *Texture) Set(x, y int, c color.NRGBA) {
	i := y*t.Stride + x*4
	s := t.Pix[i : i+4 : i+4]
	s[0], s[1], s[2], s[3] = c.R, c.G, c.B, c.A
}

// FillBlock writes c into the block [x0,x1)×[y0,y1), clipped to the texture.
func (t *Texture) FillBlock(x0, y0, x1, y1 int, c color.NRGBA) {
	x1 = min(x1, t.Width)
	y1 = min(y1, t.Height)
	for y := y0; y < y1; y++ {
		row := t.Pix[y*t.Stride:]
		for x := x0; x < x1; x++ {
			s := row[x*4 : x*4+4 : x*4+4]
			s[0], s[1], s[2], s[3] = c.R, c.G, c.B, c.A
		}
	}
}

func (t *Texture) bytes() int64 { return int64(len(t.Pix)) }

// ErrorBuffer holds per-channel floating-point residuals for error
// diffusion, three floats (R, G, B) per cell.
type ErrorBuffer struct {
	Width, Height int
	Data          []float32
}

// Row returns the residuals of row y, 3*Width floats.
func (b *ErrorBuffer) Row(y int) []float32 {
	return b.Data[y*b.Width*3 : (y+1)*b.Width*3]
}

func (b *ErrorBuffer) bytes() int64 { return int64(len(b.Data)) * 4 }

func textureFromImage(img *image.NRGBA) *Texture {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	t := &Texture{Width: w, Height: h, Stride: w * 4, Pix: make([]uint8, w*h*4)}
	for y := 0; y < h; y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(t.Pix[y*t.Stride:(y+1)*t.Stride], src[:w*4])
	}
	return t
}
