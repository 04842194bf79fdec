package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/ditherkit/internal/encoder"
	"github.com/AnyUserName/ditherkit/internal/hasher"
	"github.com/AnyUserName/ditherkit/internal/logging"
	"github.com/AnyUserName/ditherkit/internal/params"
	"github.com/AnyUserName/ditherkit/internal/pipeline"
	"github.com/AnyUserName/ditherkit/internal/profile"
)

var (
	renderOut     string
	renderPreset  string
	renderSet     []string
	renderSeed    uint32
	renderFormat  string
	renderQuality int
	renderWidth   int
)

var renderCmd = &cobra.Command{
	Use:   "render <input>",
	Short: "Dither a single image",
	Long: `Renders one image with a preset, optionally overriding individual
parameters with --set field=value (repeatable), and writes the result.

The output format follows --format, then the output file extension, then
the preset.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOut, "out", "o", "", "output file (default <input>.dither.<ext>)")
	f.StringVarP(&renderPreset, "preset", "p", profile.DefaultName, "render preset")
	f.StringArrayVarP(&renderSet, "set", "s", nil, "parameter override field=value (repeatable)")
	f.Uint32Var(&renderSeed, "seed", 0, "chaos seed (0 = random)")
	f.StringVarP(&renderFormat, "format", "f", "", "output format")
	f.IntVarP(&renderQuality, "quality", "q", 0, "quality 1-100 (0 = preset default)")
	f.IntVarP(&renderWidth, "width", "w", -1, "max width (-1 = preset default, 0 = keep size)")
	rootCmd.AddCommand(renderCmd)
}

// applyOverrides applies field=value assignments in order.
func applyOverrides(p params.Params, sets []string) (params.Params, error) {
	for _, s := range sets {
		next, err := p.ParseAssignment(s)
		if err != nil {
			return p, fmt.Errorf("--set %s: %w", s, err)
		}
		p = next
	}
	return p, nil
}

// outputTarget resolves the output path and format.
func outputTarget(input, out, format, presetFormat string) (string, string) {
	if format == "" && out != "" {
		format = encoder.FormatFromPath(out)
	}
	if format == "" {
		format = presetFormat
	}
	format = encoder.Normalize(format)
	if out == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		ext := format
		if enc := encoder.Default().Get(format); enc != nil {
			ext = enc.Extension()
		}
		out = base + ".dither." + ext
	}
	return out, format
}

func runRender(cmd *cobra.Command, args []string) error {
	input := args[0]
	log := logging.With(logging.ComponentRender)
	start := time.Now()

	prof, err := lookupPreset(renderPreset)
	if err != nil {
		return err
	}
	if renderQuality > 0 {
		prof.Quality = renderQuality
	}
	if renderWidth >= 0 {
		prof.MaxWidth = renderWidth
	}
	p, err := applyOverrides(prof.Params, renderSet)
	if err != nil {
		return err
	}
	seed := renderSeed
	if seed == 0 {
		seed = params.NewSeed()
	}
	p = p.WithSeed(seed)

	img, err := pipeline.LoadImage(input)
	if err != nil {
		return err
	}
	b := img.Bounds()
	w, h := prof.TargetSize(b.Dx(), b.Dy())
	img = pipeline.Fit(img, w, h)

	ctx, stop := interruptContext(cmd)
	defer stop()

	r, dev := newRenderer()
	defer dev.Close()

	out, err := r.Render(ctx, img, p)
	if err != nil {
		return err
	}

	outPath, format := outputTarget(input, renderOut, renderFormat, prof.Format)
	n, err := encoder.Write(out, outPath, format, prof.Quality)
	if err != nil {
		return err
	}
	log.Debug("rendered", "input", input, "output", outPath, "device", dev.Stats())

	fmt.Println()
	headerColor.Println("  ditherkit render complete")
	fmt.Println()
	fmt.Printf("  Input:      %s (%dx%d)\n", input, b.Dx(), b.Dy())
	fmt.Printf("  Output:     %s (%dx%d, %s, %s)\n", outPath, w, h, format, formatBytes(int64(n)))
	fmt.Printf("  Preset:     %s\n", prof.Name)
	fmt.Printf("  Algorithm:  %s, %d levels\n", p.Algorithm, p.ColorDepth)
	fmt.Printf("  Seed:       %d\n", p.Seed)
	fmt.Printf("  Pixels:     %s\n", hasher.PixelHash(out))
	dimColor.Printf("  Time:       %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Println()
	return nil
}
