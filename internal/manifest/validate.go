package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/ditherkit/internal/hasher"
)

// Validate checks a manifest against the files under baseDir and returns
// one message per problem, in a stable order.
func Validate(m *Manifest, baseDir string) []string {
	var errs []string

	if m.Version != SupportedManifestVersion {
		errs = append(errs, fmt.Sprintf("unsupported manifest version: %d", m.Version))
	}

	keys := make([]string, 0, len(m.Renders))
	for k := range m.Renders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seenPaths := map[string]string{}
	for _, key := range keys {
		r := m.Renders[key]
		if r.Source.Width <= 0 || r.Source.Height <= 0 {
			errs = append(errs, fmt.Sprintf("render %q: invalid source dimensions %dx%d",
				key, r.Source.Width, r.Source.Height))
		}
		if err := r.Params.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("render %q: %v", key, err))
		}
		o := r.Output
		if o.Format == "" {
			errs = append(errs, fmt.Sprintf("render %q: empty output format", key))
		}
		if o.Width <= 0 || o.Height <= 0 {
			errs = append(errs, fmt.Sprintf("render %q: invalid output dimensions %dx%d", key, o.Width, o.Height))
		}
		if o.PixelHash == "" {
			errs = append(errs, fmt.Sprintf("render %q: missing pixel hash", key))
		}
		if o.Path == "" {
			errs = append(errs, fmt.Sprintf("render %q: missing output path", key))
			continue
		}
		if other, dup := seenPaths[o.Path]; dup {
			errs = append(errs, fmt.Sprintf("render %q: output path %q also used by %q", key, o.Path, other))
		}
		seenPaths[o.Path] = key

		full := filepath.Join(baseDir, o.Path)
		data, err := os.ReadFile(full)
		if err != nil {
			errs = append(errs, fmt.Sprintf("render %q: file not found: %s", key, o.Path))
			continue
		}
		if o.Size > 0 && int64(len(data)) != o.Size {
			errs = append(errs, fmt.Sprintf("render %q: size mismatch: manifest=%d, disk=%d", key, o.Size, len(data)))
		}
		if o.Hash != "" && hasher.ContentHash(data, len(o.Hash)) != o.Hash {
			errs = append(errs, fmt.Sprintf("render %q: file hash mismatch", key))
		}
	}

	if m.Stats.TotalRenders != len(m.Renders) {
		errs = append(errs, fmt.Sprintf("stats.total_renders mismatch: %d != %d", m.Stats.TotalRenders, len(m.Renders)))
	}
	return errs
}
