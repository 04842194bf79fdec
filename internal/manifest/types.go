// Package manifest records batch renders: which source went through which
// parameters (seed included) into which output file, with digests that let
// a later run verify or reproduce every frame.
package manifest

import "github.com/AnyUserName/ditherkit/internal/params"

// FileName is the manifest's name inside an output directory.
const FileName = "ditherkit.manifest.json"

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1

// Manifest is the top-level output of a batch run.
type Manifest struct {
	Version     int               `json:"version"`
	GeneratedAt string            `json:"generated_at"`
	Preset      string            `json:"preset"`
	InputDir    string            `json:"input_dir"`
	BasePath    string            `json:"base_path"`
	BuildInfo   *BuildInfo        `json:"build_info,omitempty"`
	Renders     map[string]Record `json:"renders"`
	Stats       Stats             `json:"stats"`
}

// BuildInfo captures run-time settings for diagnostics.
type BuildInfo struct {
	Workers       int   `json:"workers"`
	DeviceWorkers int   `json:"device_workers"`
	PeakBytes     int64 `json:"peak_bytes"`
}

// Record describes one source image and the frame rendered from it.
type Record struct {
	ID         string        `json:"id"`
	Source     SourceInfo    `json:"source"`
	Params     params.Params `json:"params"`
	Output     Output        `json:"output"`
	DurationMS float64       `json:"duration_ms"`
}

// SourceInfo holds metadata about the source image.
type SourceInfo struct {
	Path   string `json:"path"` // relative to input_dir
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
	Size   int64  `json:"size"`
	Hash   string `json:"hash"` // xxhash64 of the file bytes
}

// Output is the exported frame.
type Output struct {
	Path      string `json:"path"` // relative to base_path
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Size      int64  `json:"size"`       // bytes on disk
	Hash      string `json:"hash"`       // xxhash64 of the file bytes
	PixelHash string `json:"pixel_hash"` // xxhash64 of the rendered pixels
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64   `json:"total_input_bytes"`
	TotalOutputBytes int64   `json:"total_output_bytes"`
	TotalRenders     int     `json:"total_renders"`
	TotalDurationMS  float64 `json:"total_duration_ms"`
	Failed           int     `json:"failed,omitempty"`
}
