package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/AnyUserName/ditherkit/internal/hasher"
	"github.com/AnyUserName/ditherkit/internal/manifest"
	"github.com/AnyUserName/ditherkit/internal/params"
)

// processResult holds the result of rendering a single source image.
type processResult struct {
	key    string
	record manifest.Record
	err    error
}

// processImage loads, fits, renders and exports one source.
func (p *Pipeline) processImage(ctx context.Context, src Source) processResult {
	result := processResult{key: src.Key}
	start := time.Now()

	raw, err := os.ReadFile(src.AbsPath)
	if err != nil {
		result.err = fmt.Errorf("read %s: %w", src.RelPath, err)
		return result
	}
	img, err := LoadImage(src.AbsPath)
	if err != nil {
		result.err = err
		return result
	}
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	prof := p.cfg.Profile
	w, h := prof.TargetSize(srcW, srcH)
	fitted := Fit(img, w, h)

	seed := p.cfg.Seed
	if seed == 0 {
		seed = params.NewSeed()
	}
	rp := prof.Params.WithSeed(seed)

	out, err := p.cfg.Renderer.Render(ctx, fitted, rp)
	if err != nil {
		result.err = fmt.Errorf("render %s: %w", src.RelPath, err)
		return result
	}

	enc, err := p.registry.Lookup(prof.Format)
	if err != nil {
		result.err = err
		return result
	}
	data, err := enc.Encode(out, prof.Quality)
	if err != nil {
		result.err = fmt.Errorf("encode %s as %s: %w", src.RelPath, enc.Format(), err)
		return result
	}

	pixelHash := hasher.PixelHash(out)
	// key.w.h.hash.ext keeps renders of different sizes or seeds apart.
	relPath := fmt.Sprintf("%s.%d.%d.%s.%s", src.Key, w, h, pixelHash[:8], enc.Extension())
	outPath := filepath.Join(p.cfg.OutputDir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		result.err = fmt.Errorf("create output dir: %w", err)
		return result
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		result.err = fmt.Errorf("write %s: %w", relPath, err)
		return result
	}

	result.record = manifest.Record{
		ID: uuid.NewString(),
		Source: manifest.SourceInfo{
			Path:   src.RelPath,
			Width:  srcW,
			Height: srcH,
			Format: src.Format,
			Size:   src.Size,
			Hash:   hasher.ContentHash(raw, hasher.DigestLen),
		},
		Params: rp,
		Output: manifest.Output{
			Path:      relPath,
			Format:    enc.Format(),
			Width:     w,
			Height:    h,
			Size:      int64(len(data)),
			Hash:      hasher.ContentHash(data, hasher.DigestLen),
			PixelHash: pixelHash,
		},
		DurationMS: float64(time.Since(start).Microseconds()) / 1000,
	}
	return result
}
