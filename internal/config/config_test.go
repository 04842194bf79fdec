package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AnyUserName/ditherkit/internal/compute"
	"github.com/AnyUserName/ditherkit/internal/session"
)

func TestGet_FileIndirection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DK_TEST_VALUE", "")
	t.Setenv("DK_TEST_VALUE_FILE", path)
	if got := Get("DK_TEST_VALUE", "def"); got != "from-file" {
		t.Errorf("Get = %q, want from-file", got)
	}

	t.Setenv("DK_TEST_VALUE", "direct")
	if got := Get("DK_TEST_VALUE", "def"); got != "direct" {
		t.Errorf("Get = %q, want direct", got)
	}
}

func TestTypedGetters(t *testing.T) {
	tests := []struct {
		name string
		val  string
		run  func() any
		want any
	}{
		{"int", "12", func() any { return GetInt("DK_T", 3) }, 12},
		{"int bad", "x", func() any { return GetInt("DK_T", 3) }, 3},
		{"int64 suffix", "64M", func() any { return GetInt64("DK_T", 1) }, int64(64 << 20)},
		{"int64 lower", "2g", func() any { return GetInt64("DK_T", 1) }, int64(2 << 30)},
		{"int64 bad", "lots", func() any { return GetInt64("DK_T", 1) }, int64(1)},
		{"float", "0.25", func() any { return GetFloat("DK_T", 1) }, 0.25},
		{"bool yes", "YES", func() any { return GetBool("DK_T", false) }, true},
		{"bool no", "0", func() any { return GetBool("DK_T", true) }, false},
		{"bool junk", "maybe", func() any { return GetBool("DK_T", true) }, true},
		{"duration ms", "75", func() any { return GetDuration("DK_T", time.Second) }, 75 * time.Millisecond},
		{"duration unit", "1.5s", func() any { return GetDuration("DK_T", time.Second) }, 1500 * time.Millisecond},
		{"duration bad", "soon", func() any { return GetDuration("DK_T", time.Second) }, time.Second},
		{"unset", "", func() any { return GetInt("DK_T", 9) }, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DK_T", tt.val)
			if got := tt.run(); got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvWorkers, EnvDelay, EnvMemoryBudget, EnvLogLevel, EnvNoColor, EnvPresetFile} {
		t.Setenv(k, "")
		t.Setenv(k+"_FILE", "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg != Default() {
		t.Errorf("Load() = %+v, want %+v", cfg, Default())
	}
	if cfg.Delay != session.DefaultDelay || cfg.MemoryBudget != compute.DefaultMemoryBudget {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvWorkers, "3")
	t.Setenv(EnvDelay, "120ms")
	t.Setenv(EnvMemoryBudget, "256M")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvNoColor, "1")
	t.Setenv(EnvPresetFile, "presets.yaml")

	cfg := Load()
	want := Config{
		Workers:      3,
		Delay:        120 * time.Millisecond,
		MemoryBudget: 256 << 20,
		LogLevel:     slog.LevelDebug,
		NoColor:      true,
		PresetFile:   "presets.yaml",
	}
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoad_RejectsNonsense(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvWorkers, "-4")
	t.Setenv(EnvDelay, "-5ms")
	t.Setenv(EnvMemoryBudget, "0")
	cfg := Load()
	if cfg.Workers != 0 || cfg.Delay != session.DefaultDelay || cfg.MemoryBudget != compute.DefaultMemoryBudget {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoadDotenv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("DITHERKIT_WORKERS=5\nDK_DOTENV_ONLY=yes\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DK_DOTENV_ONLY", "")
	os.Unsetenv(EnvWorkers)
	os.Unsetenv("DK_DOTENV_ONLY")

	if err := LoadDotenv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatal(err)
	}
	if got := Load().Workers; got != 5 {
		t.Errorf("workers = %d, want 5", got)
	}
	if !GetBool("DK_DOTENV_ONLY", false) {
		t.Error("dotenv value not loaded")
	}
}
