package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/ditherkit/internal/logging"
	"github.com/AnyUserName/ditherkit/internal/manifest"
	"github.com/AnyUserName/ditherkit/internal/pipeline"
	"github.com/AnyUserName/ditherkit/internal/profile"
)

var (
	batchOutDir  string
	batchPreset  string
	batchWorkers int
	batchSet     []string
	batchSeed    uint32
	batchFormat  string
	batchQuality int
	batchWidth   int
)

var batchCmd = &cobra.Command{
	Use:   "batch <input_dir>",
	Short: "Dither every image in a directory and write a manifest",
	Long: `Scans the input directory for images (png, jpg, jpeg, webp, gif, bmp,
tiff), renders each one with a preset and writes the frames plus a manifest
recording the exact parameters and seed of every render.

Output filenames carry the pixel digest: <key>.<w>.<h>.<hash>.ext`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVarP(&batchOutDir, "out", "o", "./ditherkit_out", "output directory")
	f.StringVarP(&batchPreset, "preset", "p", profile.DefaultName, "render preset")
	f.IntVarP(&batchWorkers, "workers", "j", 0, "images rendered in parallel (0 = NumCPU)")
	f.StringArrayVarP(&batchSet, "set", "s", nil, "parameter override field=value (repeatable)")
	f.Uint32Var(&batchSeed, "seed", 0, "chaos seed for every image (0 = random per image)")
	f.StringVarP(&batchFormat, "format", "f", "", "output format (default from preset)")
	f.IntVarP(&batchQuality, "quality", "q", 0, "quality 1-100 (0 = preset default)")
	f.IntVarP(&batchWidth, "width", "w", -1, "max width (-1 = preset default, 0 = keep size)")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	start := time.Now()
	log := logging.With(logging.ComponentBatch)

	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(batchOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	prof, err := lookupPreset(batchPreset)
	if err != nil {
		return err
	}
	if batchFormat != "" {
		prof.Format = batchFormat
	}
	if batchQuality > 0 {
		prof.Quality = batchQuality
	}
	if batchWidth >= 0 {
		prof.MaxWidth = batchWidth
	}
	if prof.Params, err = applyOverrides(prof.Params, batchSet); err != nil {
		return err
	}

	log.Debug("batch", "input", absInput, "output", absOutput, "preset", prof.Name,
		"algorithm", prof.Params.Algorithm, "format", prof.Format)

	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx, stop := interruptContext(cmd)
	defer stop()

	r, dev := newRenderer()
	defer dev.Close()

	m, err := pipeline.New(pipeline.Config{
		InputDir:  absInput,
		OutputDir: absOutput,
		Profile:   prof,
		Workers:   batchWorkers,
		Seed:      batchSeed,
		Renderer:  r,
	}).Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	ds := dev.Stats()
	m.BuildInfo.DeviceWorkers = ds.Workers
	m.BuildInfo.PeakBytes = ds.PeakBytes

	manifestPath := filepath.Join(absOutput, manifest.FileName)
	if err := manifest.WriteJSON(m, manifestPath); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	printBatchReport(m, time.Since(start))
	return nil
}

func printBatchReport(m *manifest.Manifest, elapsed time.Duration) {
	fmt.Println()
	headerColor.Println("╔══════════════════════════════════════════════════╗")
	headerColor.Println("║            ditherkit batch complete              ║")
	headerColor.Println("╚══════════════════════════════════════════════════╝")
	fmt.Println()

	stats := m.Stats
	fmt.Printf("  Preset:      %s\n", m.Preset)
	fmt.Printf("  Renders:     %d\n", stats.TotalRenders)
	if stats.Failed > 0 {
		failColor.Printf("  Failed:      %d\n", stats.Failed)
	}
	fmt.Printf("  Input size:  %s\n", formatBytes(stats.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(stats.TotalOutputBytes))
	fmt.Printf("  Render time: %s total\n", (time.Duration(stats.TotalDurationMS * float64(time.Millisecond))).Round(time.Millisecond))
	fmt.Printf("  Wall time:   %s\n", elapsed.Round(time.Millisecond))

	if m.BuildInfo != nil {
		fmt.Printf("  Workers:     %d images × %d device workers (peak %s)\n",
			m.BuildInfo.Workers, m.BuildInfo.DeviceWorkers, formatBytes(m.BuildInfo.PeakBytes))
	}
	fmt.Println()

	// Slowest renders.
	if len(m.Renders) > 0 {
		type renderTime struct {
			key string
			ms  float64
			w   int
			h   int
		}
		items := make([]renderTime, 0, len(m.Renders))
		for key, r := range m.Renders {
			items = append(items, renderTime{key, r.DurationMS, r.Output.Width, r.Output.Height})
		}
		sort.Slice(items, func(i, j int) bool {
			if items[i].ms != items[j].ms {
				return items[i].ms > items[j].ms
			}
			return items[i].key < items[j].key
		})
		n := min(len(items), 10)
		fmt.Printf("  Top %d slowest:\n", n)
		for _, it := range items[:n] {
			fmt.Printf("    %-40s %5dx%-5d %8.1f ms\n", truncKey(it.key, 40), it.w, it.h, it.ms)
		}
		fmt.Println()
	}

	fmt.Printf("  Formats:     %s\n", strings.Join(outputFormats(m), ", "))
	data, _ := json.Marshal(m)
	fmt.Printf("  Manifest:    %s (%s)\n", manifest.FileName, formatBytes(int64(len(data))))
	fmt.Println()
}

func outputFormats(m *manifest.Manifest) []string {
	set := map[string]bool{}
	for _, r := range m.Renders {
		set[r.Output.Format] = true
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
