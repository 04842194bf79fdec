package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/AnyUserName/ditherkit/internal/hasher"
	"github.com/AnyUserName/ditherkit/internal/manifest"
)

// Reproduce re-renders one manifest record from its source and recorded
// parameters and returns the pixel digest of the new frame.
func Reproduce(ctx context.Context, r Renderer, m *manifest.Manifest, key string) (string, error) {
	rec, ok := m.Renders[key]
	if !ok {
		return "", fmt.Errorf("no render %q in manifest", key)
	}
	img, err := LoadImage(filepath.Join(m.InputDir, filepath.FromSlash(rec.Source.Path)))
	if err != nil {
		return "", err
	}
	fitted := Fit(img, rec.Output.Width, rec.Output.Height)
	out, err := r.Render(ctx, fitted, rec.Params)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", key, err)
	}
	return hasher.PixelHash(out), nil
}
