package encoder

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
)

// priority is the order formats are listed in.
var priority = []string{"png", "gif", "webp", "tiff", "bmp", "jpeg", "avif"}

var aliases = map[string]string{
	"jpg": "jpeg",
	"tif": "tiff",
}

// Registry holds all available encoders keyed by format.
type Registry struct {
	encoders map[string]Encoder
}

// NewRegistry creates a registry, probing all encoders for availability.
func NewRegistry() *Registry {
	r := &Registry{encoders: make(map[string]Encoder)}
	all := []Encoder{
		&PNGEncoder{},
		&GIFEncoder{},
		NewWebPEncoder(),
		&TIFFEncoder{},
		&BMPEncoder{},
		&JPEGEncoder{},
		NewAVIFEncoder(),
	}
	for _, enc := range all {
		if enc.Available() {
			r.encoders[enc.Format()] = enc
		}
	}
	return r
}

// Normalize lower-cases a format name and resolves aliases such as jpg.
func Normalize(format string) string {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	if a, ok := aliases[f]; ok {
		return a
	}
	return f
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) string {
	return Normalize(filepath.Ext(path))
}

// Get returns an encoder for the given format, or nil if unavailable.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[Normalize(format)]
}

// Lookup is Get with an error for unknown or missing formats.
func (r *Registry) Lookup(format string) (Encoder, error) {
	if enc := r.Get(format); enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: %q (have %s)", ErrUnavailable, format, strings.Join(r.Available(), ", "))
}

// Available returns all available format names in priority order.
func (r *Registry) Available() []string {
	var result []string
	for _, f := range priority {
		if _, ok := r.encoders[f]; ok {
			result = append(result, f)
		}
	}
	return result
}

// Write encodes img and writes it to path. An empty format is derived
// from the path's extension. It returns the number of bytes written.
func (r *Registry) Write(img image.Image, path, format string, quality int) (int, error) {
	if format == "" {
		format = FormatFromPath(path)
	}
	enc, err := r.Lookup(format)
	if err != nil {
		return 0, err
	}
	data, err := enc.Encode(img, quality)
	if err != nil {
		return 0, fmt.Errorf("encode %s: %w", enc.Format(), err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return len(data), nil
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	avail := r.Available()
	if len(avail) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(avail, ", "))
}

var defaultRegistry = NewRegistry()

// Write encodes img to path with the default registry.
func Write(img image.Image, path, format string, quality int) (int, error) {
	return defaultRegistry.Write(img, path, format, quality)
}

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }
