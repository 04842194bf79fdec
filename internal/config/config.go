// Package config reads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"

	"github.com/AnyUserName/ditherkit/internal/compute"
	"github.com/AnyUserName/ditherkit/internal/logging"
	"github.com/AnyUserName/ditherkit/internal/session"
)

// Environment variable names.
const (
	EnvWorkers      = "DITHERKIT_WORKERS"
	EnvDelay        = "DITHERKIT_DEBOUNCE"
	EnvMemoryBudget = "DITHERKIT_MEMORY_BUDGET"
	EnvLogLevel     = "DITHERKIT_LOG_LEVEL"
	EnvNoColor      = "NO_COLOR" // any non-empty value disables color
	EnvPresetFile   = "DITHERKIT_PRESETS"
)

// Config holds settings shared by every command.
type Config struct {
	Workers      int           // device workers, 0 = GOMAXPROCS
	Delay        time.Duration // live-mode debounce delay
	MemoryBudget int64         // device memory budget in bytes
	LogLevel     slog.Level
	NoColor      bool
	PresetFile   string // optional YAML preset file
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Delay:        session.DefaultDelay,
		MemoryBudget: compute.DefaultMemoryBudget,
		LogLevel:     slog.LevelInfo,
	}
}

// LoadDotenv loads variables from the given .env files (".env" if none)
// without overriding ones already set. A missing file is not an error.
func LoadDotenv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads the configuration from the environment. Malformed or
// out-of-range values keep their defaults.
func Load() Config {
	def := Default()
	cfg := Config{
		Workers:      max(GetInt(EnvWorkers, def.Workers), 0),
		Delay:        GetDuration(EnvDelay, def.Delay),
		MemoryBudget: GetInt64(EnvMemoryBudget, def.MemoryBudget),
		LogLevel:     def.LogLevel,
		NoColor:      Get(EnvNoColor, "") != "",
		PresetFile:   Get(EnvPresetFile, def.PresetFile),
	}
	if cfg.Delay < 0 {
		cfg.Delay = def.Delay
	}
	if cfg.MemoryBudget <= 0 {
		cfg.MemoryBudget = def.MemoryBudget
	}
	if lvl := Get(EnvLogLevel, ""); lvl != "" {
		cfg.LogLevel = logging.ParseLevel(lvl)
	}
	return cfg
}
