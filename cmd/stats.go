package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/ditherkit/internal/manifest"
	"github.com/AnyUserName/ditherkit/internal/params"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_manifest>",
	Short: "Display statistics for a batch output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// manifestPath accepts a manifest file or a directory containing one.
func manifestPath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, manifest.FileName)
	}
	return path, nil
}

func runStats(_ *cobra.Command, args []string) error {
	path, err := manifestPath(args[0])
	if err != nil {
		return err
	}
	m, err := manifest.ReadJSON(path)
	if err != nil {
		return err
	}
	printStats(m)
	return nil
}

type countBytes struct {
	count int
	bytes int64
}

func printStats(m *manifest.Manifest) {
	fmt.Println()
	fmt.Printf("  Manifest version: %d\n", m.Version)
	fmt.Printf("  Generated:        %s\n", m.GeneratedAt)
	fmt.Printf("  Preset:           %s\n", m.Preset)
	if m.BuildInfo != nil {
		fmt.Printf("  Workers:          %d images × %d device workers\n",
			m.BuildInfo.Workers, m.BuildInfo.DeviceWorkers)
		fmt.Printf("  Device peak:      %s\n", formatBytes(m.BuildInfo.PeakBytes))
	}
	fmt.Println()

	s := m.Stats
	fmt.Printf("  Total renders:    %d\n", s.TotalRenders)
	if s.Failed > 0 {
		failColor.Printf("  Failed:           %d\n", s.Failed)
	}
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if s.TotalRenders > 0 {
		fmt.Printf("  Mean render:      %.1f ms\n", s.TotalDurationMS/float64(s.TotalRenders))
	}
	fmt.Println()

	formats := map[string]countBytes{}
	algorithms := map[string]countBytes{}
	chaotic := 0
	for _, r := range m.Renders {
		fs := formats[r.Output.Format]
		fs.count++
		fs.bytes += r.Output.Size
		formats[r.Output.Format] = fs

		as := algorithms[r.Params.Algorithm.String()]
		as.count++
		as.bytes += r.Output.Size
		algorithms[r.Params.Algorithm.String()] = as

		if !r.Params.ChaosNeutral() {
			chaotic++
		}
	}

	printBreakdown("Format breakdown:", formats)
	printBreakdown("Algorithm breakdown:", algorithms)
	fmt.Printf("  Chaos active:     %d / %d renders\n", chaotic, len(m.Renders))

	var warnings []string
	for key, r := range m.Renders {
		if r.Output.PixelHash == "" {
			warnings = append(warnings, fmt.Sprintf("render %q missing pixel hash", key))
		}
		if r.Params.ColorDepth == params.MaxColorDepth && r.Params.ChaosNeutral() {
			warnings = append(warnings, fmt.Sprintf("render %q reproduces its source unchanged", key))
		}
	}
	sort.Strings(warnings)
	if len(warnings) > 0 {
		fmt.Println()
		warnColor.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			warnColor.Printf("    ⚠ %s\n", w)
		}
	}
	fmt.Println()
}

func printBreakdown(title string, groups map[string]countBytes) {
	names := make([]string, 0, len(groups))
	for n := range groups {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Printf("  %s\n", title)
	for _, n := range names {
		g := groups[n]
		fmt.Printf("    %-12s  %4d files  %s\n", n, g.count, formatBytes(g.bytes))
	}
	fmt.Println()
}
