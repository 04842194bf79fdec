package encoder

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
)

// Atomic counter for unique temp file names across goroutines.
var tempCounter atomic.Int64

// ExternalEncoder encodes by writing a temporary PNG and running a
// command-line tool on it. Availability is probed once via PATH.
type ExternalEncoder struct {
	format string
	tool   string
	hint   string
	args   func(quality int, src, dst string) []string

	once sync.Once
	path string
}

// NewWebPEncoder returns an encoder backed by cwebp. Quality 100 selects
// lossless mode, which keeps dither patterns exact.
func NewWebPEncoder() *ExternalEncoder {
	return &ExternalEncoder{
		format: "webp",
		tool:   "cwebp",
		hint:   "brew install webp / apt install webp",
		args: func(q int, src, dst string) []string {
			args := []string{"-quiet", "-mt", "-m", "6"}
			if q >= 100 {
				args = append(args, "-lossless")
			} else {
				args = append(args, "-q", strconv.Itoa(q))
			}
			return append(args, src, "-o", dst)
		},
	}
}

// NewAVIFEncoder returns an encoder backed by avifenc.
func NewAVIFEncoder() *ExternalEncoder {
	return &ExternalEncoder{
		format: "avif",
		tool:   "avifenc",
		hint:   "brew install libavif / apt install libavif-bin",
		args: func(q int, src, dst string) []string {
			// avifenc: 0 is best, 63 worst.
			aq := strconv.Itoa(63 - q*63/100)
			return []string{"--min", aq, "--max", aq, "--speed", "6", "-j", "all", src, dst}
		},
	}
}

func (e *ExternalEncoder) Format() string    { return e.format }
func (e *ExternalEncoder) Extension() string { return e.format }

func (e *ExternalEncoder) Available() bool {
	e.once.Do(func() {
		if path, err := exec.LookPath(e.tool); err == nil {
			e.path = path
		}
	})
	return e.path != ""
}

func (e *ExternalEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if !e.Available() {
		return nil, fmt.Errorf("%w: %s not found in PATH; install with: %s", ErrUnavailable, e.tool, e.hint)
	}

	id := tempCounter.Add(1)
	srcFile, err := os.CreateTemp("", fmt.Sprintf("ditherkit_%s_src_%d_*.png", e.format, id))
	if err != nil {
		return nil, fmt.Errorf("create temp: %w", err)
	}
	srcPath := srcFile.Name()
	defer os.Remove(srcPath)

	dstFile, err := os.CreateTemp("", fmt.Sprintf("ditherkit_%s_dst_%d_*.%s", e.format, id, e.format))
	if err != nil {
		srcFile.Close()
		return nil, fmt.Errorf("create temp: %w", err)
	}
	dstPath := dstFile.Name()
	dstFile.Close()
	defer os.Remove(dstPath)

	if err := png.Encode(srcFile, img); err != nil {
		srcFile.Close()
		return nil, fmt.Errorf("encode temp png: %w", err)
	}
	if err := srcFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp png: %w", err)
	}

	cmd := exec.Command(e.path, e.args(clampQuality(quality), srcPath, dstPath)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", e.tool, err, string(out))
	}
	return os.ReadFile(dstPath)
}
