package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AnyUserName/ditherkit/internal/hasher"
	"github.com/AnyUserName/ditherkit/internal/params"
)

func sampleRecord(path string, data []byte) Record {
	p := params.Default()
	p.Algorithm = params.BlueNoise
	p.Seed = 4242
	return Record{
		ID:     "0b6f2c1e-7a51-4d2e-9f7c-1f1c2a3b4c5d",
		Source: SourceInfo{Path: "cat.jpg", Width: 800, Height: 600, Format: "jpeg", Size: 100000, Hash: "00ff00ff00ff00ff"},
		Params: p,
		Output: Output{
			Path: path, Format: "png", Width: 800, Height: 600,
			Size: int64(len(data)), Hash: hasher.ContentHash(data, hasher.DigestLen), PixelHash: "abcdef0123456789",
		},
		DurationMS: 12.5,
	}
}

func TestManifestRoundtrip(t *testing.T) {
	m := New("glitch")
	m.InputDir = "/tmp/in"
	m.BuildInfo = &BuildInfo{Workers: 4, DeviceWorkers: 8, PeakBytes: 1 << 20}
	m.Renders["cat"] = sampleRecord("cat.png", []byte("pixels"))

	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	if err := WriteJSON(m, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	m2, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if m2.Version != SupportedManifestVersion {
		t.Errorf("version: got %d, want %d", m2.Version, SupportedManifestVersion)
	}
	if m2.Preset != "glitch" || m2.InputDir != "/tmp/in" {
		t.Errorf("header: %+v", m2)
	}
	if m2.BuildInfo == nil || m2.BuildInfo.DeviceWorkers != 8 {
		t.Fatal("build_info not preserved")
	}

	r, ok := m2.Renders["cat"]
	if !ok {
		t.Fatal("render cat missing")
	}
	if r.Params.Algorithm != params.BlueNoise || r.Params.Seed != 4242 {
		t.Errorf("params: %+v", r.Params)
	}
	if m2.Stats.TotalRenders != 1 || m2.Stats.TotalInputBytes != 100000 || m2.Stats.TotalDurationMS != 12.5 {
		t.Errorf("stats: %+v", m2.Stats)
	}
}

func TestManifestAlgorithmByName(t *testing.T) {
	m := New("x")
	m.Renders["a"] = sampleRecord("a.png", nil)
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"algorithm":"blue-noise"`) {
		t.Errorf("algorithm not encoded by name: %s", data)
	}
}

func TestManifestIgnoresUnknownFields(t *testing.T) {
	raw := `{
		"version": 1,
		"generated_at": "2025-01-01T00:00:00Z",
		"preset": "test",
		"base_path": "./",
		"future_field": "should be ignored",
		"build_info": { "workers": 8, "new_flag": true },
		"stats": { "total_renders": 0, "new_stat": 42 }
	}`
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ReadJSON(path)
	if err != nil {
		t.Fatalf("read with unknown fields: %v", err)
	}
	if m.BuildInfo == nil || m.BuildInfo.Workers != 8 {
		t.Error("build_info not parsed correctly")
	}
	if m.Renders == nil {
		t.Error("renders map should be initialised")
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	data := []byte("frame bytes")
	if err := os.WriteFile(filepath.Join(dir, "cat.png"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	m := New("default")
	m.Renders["cat"] = sampleRecord("cat.png", data)
	m.ComputeStats()
	if errs := Validate(m, dir); len(errs) != 0 {
		t.Fatalf("valid manifest reported errors: %v", errs)
	}

	broken := sampleRecord("missing.png", data)
	broken.Params.Contrast = 99
	m.Renders["dog"] = broken
	tampered := sampleRecord("cat.png", []byte("other, longer bytes"))
	m.Renders["eel"] = tampered

	errs := Validate(m, dir)
	joined := strings.Join(errs, "\n")
	for _, want := range []string{
		`render "dog": params: value out of range`,
		`render "dog": file not found`,
		`render "eel": output path "cat.png" also used by "cat"`,
		`render "eel": size mismatch`,
		`render "eel": file hash mismatch`,
		"stats.total_renders mismatch",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
}
