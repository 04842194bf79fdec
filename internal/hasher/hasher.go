// Package hasher computes xxHash64 digests of files and decoded pixels.
package hasher

import (
	"encoding/binary"
	"encoding/hex"
	"image"
	"io"

	"github.com/cespare/xxhash/v2"
)

// DigestLen is the hex length used for manifest digests (64 bits).
const DigestLen = 16

// ContentHash computes the xxHash64 of data and returns a hex string
// truncated to the given length.
func ContentHash(data []byte, hexLen int) string {
	return format(xxhash.Sum64(data), hexLen)
}

// ContentHashReader computes xxHash64 from a reader, streaming.
func ContentHashReader(r io.Reader, hexLen int) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return format(h.Sum64(), hexLen), nil
}

// PixelHash digests the dimensions and RGBA rows of img. Two images with
// equal pixels hash equal regardless of stride or origin, which makes the
// digest independent of the file format the image was exported to.
func PixelHash(img *image.NRGBA) string {
	b := img.Bounds()
	h := xxhash.New()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[:4], uint32(b.Dx()))
	binary.BigEndian.PutUint32(dims[4:], uint32(b.Dy()))
	h.Write(dims[:])
	rowLen := b.Dx() * 4
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		h.Write(img.Pix[off : off+rowLen])
	}
	return format(h.Sum64(), DigestLen)
}

func format(v uint64, hexLen int) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	full := hex.EncodeToString(b[:])
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
