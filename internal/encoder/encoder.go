// Package encoder exports rendered images. In-process encoders cover png,
// jpeg, tiff and bmp; webp and avif shell out to their reference tools
// when installed.
package encoder

import (
	"errors"
	"image"
)

// ErrUnavailable is returned for formats with no usable encoder.
var ErrUnavailable = errors.New("encoder: format unavailable")

// DefaultQuality is used when a lossy encoder gets quality outside 1-100.
const DefaultQuality = 90

// Encoder encodes an image to a specific format.
type Encoder interface {
	// Format returns the output format name (e.g. "png", "webp").
	Format() string

	// Encode converts the image to bytes at the given quality (1-100).
	// Lossless encoders ignore quality.
	Encode(img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (cwebp, avifenc) may not be installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}

func clampQuality(q int) int {
	if q <= 0 || q > 100 {
		return DefaultQuality
	}
	return q
}
