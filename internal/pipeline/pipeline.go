// Package pipeline loads source images and runs batch renders: scan a
// directory, render every image with a preset, export the frames and
// record them in a manifest.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/AnyUserName/ditherkit/internal/encoder"
	"github.com/AnyUserName/ditherkit/internal/logging"
	"github.com/AnyUserName/ditherkit/internal/manifest"
	"github.com/AnyUserName/ditherkit/internal/params"
	"github.com/AnyUserName/ditherkit/internal/profile"
)

// Renderer renders one frame. *render.Renderer satisfies it.
type Renderer interface {
	Render(ctx context.Context, src *image.NRGBA, p params.Params) (*image.NRGBA, error)
}

// Config holds all parameters for a batch run.
type Config struct {
	InputDir  string
	OutputDir string
	Profile   profile.Profile
	Workers   int    // images rendered concurrently, 0 = NumCPU
	Seed      uint32 // fixed seed for every image, 0 = fresh seed per image
	Renderer  Renderer
}

// Pipeline orchestrates batch rendering.
type Pipeline struct {
	cfg      Config
	registry *encoder.Registry
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	return &Pipeline{
		cfg:      cfg,
		registry: encoder.Default(),
	}
}

// Run renders every image under the input directory and returns the
// manifest. Individual failures are logged and counted; Run fails only
// when nothing could be rendered.
func (p *Pipeline) Run(ctx context.Context) (*manifest.Manifest, error) {
	log := logging.With(logging.ComponentBatch)
	log.Debug("encoders", "available", p.registry.Available())

	if _, err := p.registry.Lookup(p.cfg.Profile.Format); err != nil {
		return nil, err
	}

	sources, err := ScanImages(p.cfg.InputDir, p.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", p.cfg.InputDir)
	}
	log.Info("found images", "count", len(sources))

	results := make([]processResult, len(sources))
	var wg sync.WaitGroup
	sem := make(chan struct{}, p.cfg.Workers)

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ctx.Err(); err != nil {
				results[idx] = processResult{key: s.Key, err: err}
				return
			}
			log.Debug("rendering", "source", s.RelPath)
			results[idx] = p.processImage(ctx, s)
			if results[idx].err == nil {
				log.Debug("done", "source", s.RelPath, "output", results[idx].record.Output.Path)
			}
		}(i, src)
	}
	wg.Wait()

	m := manifest.New(p.cfg.Profile.Name)
	m.InputDir = p.cfg.InputDir
	m.BuildInfo = &manifest.BuildInfo{Workers: p.cfg.Workers}

	var failed int
	for _, r := range results {
		if r.err != nil {
			failed++
			log.Error("render failed", "source", r.key, "error", r.err)
			continue
		}
		m.Renders[r.key] = r.record
	}
	if failed == len(sources) {
		return nil, fmt.Errorf("all %d images failed to render", failed)
	}
	if failed > 0 {
		log.Warn("partial failure", "failed", failed, "total", len(sources))
	}

	m.Stats.Failed = failed
	m.ComputeStats()
	return m, nil
}
