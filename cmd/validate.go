package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/ditherkit/internal/manifest"
	"github.com/AnyUserName/ditherkit/internal/pipeline"
)

var validateReproduce bool

var validateCmd = &cobra.Command{
	Use:   "validate <out_dir_or_manifest>",
	Short: "Validate a manifest and check referenced files",
	Long: `Checks that every render in a manifest is well formed and that its
output file exists with the recorded size and digest.

With --reproduce every frame is rendered again from its source and its
recorded parameters, and the pixel digest must match.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateReproduce, "reproduce", false, "re-render every frame and compare pixel digests")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, err := manifestPath(args[0])
	if err != nil {
		return err
	}
	m, err := manifest.ReadJSON(path)
	if err != nil {
		return err
	}

	errs := manifest.Validate(m, filepath.Join(filepath.Dir(path), m.BasePath))
	if validateReproduce {
		errs = append(errs, reproduceAll(cmd, m)...)
	}

	if len(errs) == 0 {
		okColor.Println("  ✓ Manifest is valid")
		okColor.Printf("  ✓ %d renders, all files present\n", m.Stats.TotalRenders)
		if validateReproduce {
			okColor.Println("  ✓ every frame reproduced bit-exactly")
		}
		return nil
	}

	failColor.Printf("  ✗ Manifest has %d error(s):\n", len(errs))
	for _, e := range errs {
		fmt.Printf("    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func reproduceAll(cmd *cobra.Command, m *manifest.Manifest) []string {
	ctx, stop := interruptContext(cmd)
	defer stop()

	r, dev := newRenderer()
	defer dev.Close()

	keys := make([]string, 0, len(m.Renders))
	for k := range m.Renders {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []string
	for _, key := range keys {
		got, err := pipeline.Reproduce(ctx, r, m, key)
		if err != nil {
			errs = append(errs, fmt.Sprintf("render %q: reproduce: %v", key, err))
			continue
		}
		if want := m.Renders[key].Output.PixelHash; got != want {
			errs = append(errs, fmt.Sprintf("render %q: pixel hash mismatch: manifest=%s, rendered=%s", key, want, got))
		}
	}
	return errs
}
