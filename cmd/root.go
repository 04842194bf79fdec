package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/ditherkit/internal/compute"
	"github.com/AnyUserName/ditherkit/internal/config"
	"github.com/AnyUserName/ditherkit/internal/logging"
	"github.com/AnyUserName/ditherkit/internal/profile"
	"github.com/AnyUserName/ditherkit/internal/render"
)

var (
	version = "0.1.0"
	verbose bool
	noColor bool

	deviceWorkers int
	presetFile    string

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "ditherkit",
	Short: "Ordered and error-diffusion dithering with controlled chaos",
	Long: `ditherkit renders images through ordered (Bayer, clustered-dot,
blue-noise) and Floyd-Steinberg dithering with a parallel compute device,
plus seeded chaos effects: jitter, displacement, turbulence, chroma split,
threshold noise and palette randomization.

Render a single image, batch a directory into a manifest, or tweak
parameters live with debounced re-rendering.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.IntVar(&deviceWorkers, "device-workers", 0, "compute device workers (0 = GOMAXPROCS)")
	pf.StringVar(&presetFile, "presets", "", "YAML file with extra presets")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"ditherkit %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// setup loads .env and environment settings, applies flag overrides and
// installs the logger.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotenv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg = config.Load()

	flags := cmd.Flags()
	if flags.Changed("device-workers") {
		cfg.Workers = deviceWorkers
	}
	if flags.Changed("presets") {
		cfg.PresetFile = presetFile
	}
	if noColor {
		cfg.NoColor = true
	}
	if verbose {
		cfg.LogLevel = logging.ParseLevel("debug")
	}

	logging.SetLogger(logging.New(os.Stderr, logging.Options{
		Level:   cfg.LogLevel,
		NoColor: cfg.NoColor,
	}))
	setColor(cfg.NoColor)

	logging.With(logging.ComponentConfig).Debug("config",
		"workers", cfg.Workers,
		"debounce", cfg.Delay,
		"memory_budget", cfg.MemoryBudget,
		"presets", cfg.PresetFile,
	)
	return nil
}

// newRenderer creates a compute device from the loaded config. The caller
// closes the device.
func newRenderer() (*render.Renderer, *compute.Device) {
	dev := compute.NewDevice(compute.Config{
		Workers:      cfg.Workers,
		MemoryBudget: cfg.MemoryBudget,
	})
	return render.New(dev), dev
}

// presets returns the built-in catalog extended with the configured
// preset file, if any.
func presets() (*profile.Catalog, error) {
	c := profile.Builtin()
	if cfg.PresetFile != "" {
		if err := c.LoadFile(cfg.PresetFile); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// lookupPreset resolves a preset name, failing on unknown names.
func lookupPreset(name string) (profile.Profile, error) {
	c, err := presets()
	if err != nil {
		return profile.Profile{}, err
	}
	p, ok := c.Lookup(name)
	if !ok {
		return profile.Profile{}, fmt.Errorf("unknown preset %q (available: %v)", name, c.Names())
	}
	return p, nil
}

// interruptContext derives a context cancelled on Ctrl-C.
func interruptContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}
