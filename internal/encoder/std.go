package encoder

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
)

// PNGEncoder encodes images to PNG. Dithered output has few distinct
// colours, so best compression pays off.
type PNGEncoder struct{}

func (e *PNGEncoder) Format() string    { return "png" }
func (e *PNGEncoder) Extension() string { return "png" }
func (e *PNGEncoder) Available() bool   { return true }

func (e *PNGEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JPEGEncoder encodes images to JPEG. Alpha is dropped.
type JPEGEncoder struct{}

func (e *JPEGEncoder) Format() string    { return "jpeg" }
func (e *JPEGEncoder) Extension() string { return "jpg" }
func (e *JPEGEncoder) Available() bool   { return true }

func (e *JPEGEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: clampQuality(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GIFEncoder encodes images to a single-frame GIF. Frames with at most 256
// distinct colours are stored exactly; larger palettes are mapped to the
// nearest Plan 9 colour.
type GIFEncoder struct{}

func (e *GIFEncoder) Format() string    { return "gif" }
func (e *GIFEncoder) Extension() string { return "gif" }
func (e *GIFEncoder) Available() bool   { return true }

func (e *GIFEncoder) Encode(img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	if err := gif.Encode(&buf, toPaletted(img), nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// toPaletted converts img to a paletted image. Pixels under half opacity
// become fully transparent.
func toPaletted(img image.Image) *image.Paletted {
	b := img.Bounds()
	index := make(map[color.NRGBA]uint8)
	var pal color.Palette
	exact := true

	for y := b.Min.Y; y < b.Max.Y && exact; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := opaqueOrClear(color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA))
			if _, ok := index[c]; ok {
				continue
			}
			if len(pal) == 256 {
				exact = false
				break
			}
			index[c] = uint8(len(pal))
			pal = append(pal, c)
		}
	}

	if !exact {
		out := image.NewPaletted(b, palette.Plan9)
		draw.Draw(out, b, img, b.Min, draw.Src)
		return out
	}
	out := image.NewPaletted(b, pal)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := opaqueOrClear(color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA))
			out.SetColorIndex(x, y, index[c])
		}
	}
	return out
}

func opaqueOrClear(c color.NRGBA) color.NRGBA {
	if c.A < 128 {
		return color.NRGBA{}
	}
	c.A = 255
	return c
}
