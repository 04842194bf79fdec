package cmd

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AnyUserName/ditherkit/internal/encoder"
	"github.com/AnyUserName/ditherkit/internal/logging"
	"github.com/AnyUserName/ditherkit/internal/params"
	"github.com/AnyUserName/ditherkit/internal/pipeline"
	"github.com/AnyUserName/ditherkit/internal/profile"
	"github.com/AnyUserName/ditherkit/internal/session"
)

var (
	liveOut     string
	livePreset  string
	liveSet     []string
	liveDelay   time.Duration
	livePreview int
	liveWatch   bool
)

var liveCmd = &cobra.Command{
	Use:   "live <input>",
	Short: "Tweak parameters interactively with debounced re-rendering",
	Long: `Loads an image and reads commands from stdin, one per line:

  field=value    change one parameter (e.g. algorithm=bayer8x8, pixel_displace=12)
  reset          return every chaos parameter to neutral
  params         print the current parameters as YAML
  status         print the render state
  save <path>    write the current frame to a file
  quit           exit

Changes are coalesced and only the newest frame is written. Each render
draws a fresh chaos seed. With --watch the source is reloaded whenever the
input file changes on disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runLive,
}

func init() {
	f := liveCmd.Flags()
	f.StringVarP(&liveOut, "out", "o", "", "frame output file (default <input>.live.png)")
	f.StringVarP(&livePreset, "preset", "p", profile.DefaultName, "starting preset")
	f.StringArrayVarP(&liveSet, "set", "s", nil, "starting parameter override field=value (repeatable)")
	f.DurationVar(&liveDelay, "delay", 0, "debounce delay (0 = config default)")
	f.IntVar(&livePreview, "preview-width", 0, "also write a downscaled preview this wide (0 = off)")
	f.BoolVar(&liveWatch, "watch", true, "reload the source when the input file changes")
	rootCmd.AddCommand(liveCmd)
}

type liveFrame struct {
	img *image.NRGBA
	p   params.Params
}

// frameWriter writes published frames off the session goroutine. Only the
// newest pending frame is kept.
type frameWriter struct {
	path    string
	format  string
	quality int
	preview int
	frames  chan liveFrame
	done    chan struct{}
}

func newFrameWriter(path, format string, quality, preview int) *frameWriter {
	w := &frameWriter{
		path:    path,
		format:  format,
		quality: quality,
		preview: preview,
		frames:  make(chan liveFrame, 1),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// publish is called from a single goroutine, so the retry send never blocks.
func (w *frameWriter) publish(img *image.NRGBA, p params.Params) {
	f := liveFrame{img: img, p: p}
	select {
	case w.frames <- f:
	default:
		select {
		case <-w.frames:
		default:
		}
		w.frames <- f
	}
}

func (w *frameWriter) run() {
	defer close(w.done)
	log := logging.With(logging.ComponentExport)
	for f := range w.frames {
		n, err := encoder.Write(f.img, w.path, w.format, w.quality)
		if err != nil {
			log.Error("write frame", "path", w.path, "error", err)
			continue
		}
		log.Info("frame", "path", w.path, "bytes", n, "algorithm", f.p.Algorithm, "seed", f.p.Seed)

		if w.preview > 0 && f.img.Bounds().Dx() > w.preview {
			small := imaging.Resize(f.img, w.preview, 0, imaging.NearestNeighbor)
			if _, err := encoder.Write(small, previewPath(w.path), w.format, w.quality); err != nil {
				log.Error("write preview", "error", err)
			}
		}
	}
}

func (w *frameWriter) close() {
	close(w.frames)
	<-w.done
}

func previewPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".preview" + ext
}

func runLive(cmd *cobra.Command, args []string) error {
	input, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	log := logging.With(logging.ComponentLive)

	prof, err := lookupPreset(livePreset)
	if err != nil {
		return err
	}
	start, err := applyOverrides(prof.Params, liveSet)
	if err != nil {
		return err
	}
	out := liveOut
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + ".live.png"
	}
	outPath, format := outputTarget(input, out, "", prof.Format)

	src, err := loadLiveSource(input, prof)
	if err != nil {
		return err
	}

	delay := cfg.Delay
	if liveDelay > 0 {
		delay = liveDelay
	}

	r, dev := newRenderer()
	defer dev.Close()

	writer := newFrameWriter(outPath, format, prof.Quality, livePreview)
	defer writer.close()

	s := session.New(session.Config{
		Renderer:  r,
		Delay:     delay,
		Params:    &start,
		OnPublish: writer.publish,
	})
	defer s.Close()

	if err := s.LoadSource(src); err != nil {
		return err
	}

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if liveWatch {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(input)); err != nil {
			return fmt.Errorf("watch %s: %w", filepath.Dir(input), err)
		}
		events, watchErrs = watcher.Events, watcher.Errors
	}

	ctx, stop := interruptContext(cmd)
	defer stop()

	lines := readLines(ctx, cmd.InOrStdin())
	printLiveBanner(cmd.OutOrStdout(), input, outPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := liveCommand(s, line, cmd.OutOrStdout()); quit {
				return nil
			}
		case ev := <-events:
			if filepath.Clean(ev.Name) != input || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			img, err := loadLiveSource(input, prof)
			if err != nil {
				log.Warn("reload failed", "path", input, "error", err)
				continue
			}
			if err := s.LoadSource(img); err != nil {
				log.Warn("reload failed", "path", input, "error", err)
				continue
			}
			log.Info("source reloaded", "path", input)
		case err := <-watchErrs:
			log.Warn("watch error", "error", err)
		}
	}
}

func printLiveBanner(w io.Writer, input, outPath string) {
	fmt.Fprintf(w, "  live: %s -> %s (type \"help\" for commands)\n", filepath.Base(input), outPath)
}

func loadLiveSource(path string, prof profile.Profile) (*image.NRGBA, error) {
	img, err := pipeline.LoadImage(path)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	w, h := prof.TargetSize(b.Dx(), b.Dy())
	return pipeline.Fit(img, w, h), nil
}

// readLines forwards trimmed, non-empty lines from r until EOF or ctx ends.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			select {
			case ch <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// liveCommand executes one command line. It reports whether to exit.
func liveCommand(s *session.Session, line string, w io.Writer) bool {
	word, rest, _ := strings.Cut(line, " ")
	switch strings.ToLower(word) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(w, "  field=value | reset | params | status | save <path> | quit")
	case "reset":
		if err := s.ResetChaosParameters(); err != nil {
			failColor.Fprintf(w, "  ✗ %v\n", err)
		}
	case "params":
		data, err := yaml.Marshal(s.Status().Params)
		if err != nil {
			failColor.Fprintf(w, "  ✗ %v\n", err)
			break
		}
		fmt.Fprint(w, string(data))
	case "status":
		printLiveStatus(w, s.Status())
	case "save":
		path := strings.TrimSpace(rest)
		img := s.CurrentOutput()
		switch {
		case path == "":
			failColor.Fprintln(w, "  ✗ usage: save <path>")
		case img == nil:
			warnColor.Fprintln(w, "  no frame yet")
		default:
			n, err := encoder.Write(img, path, encoder.FormatFromPath(path), encoder.DefaultQuality)
			if err != nil {
				failColor.Fprintf(w, "  ✗ %v\n", err)
				break
			}
			okColor.Fprintf(w, "  ✓ saved %s (%s)\n", path, formatBytes(int64(n)))
		}
	default:
		if err := setLiveParameter(s, line); err != nil {
			failColor.Fprintf(w, "  ✗ %v\n", err)
		}
	}
	return false
}

// setLiveParameter applies one field=value assignment as a single-field
// change.
func setLiveParameter(s *session.Session, line string) error {
	name, value, ok := strings.Cut(line, "=")
	if !ok {
		return fmt.Errorf("unknown command %q", line)
	}
	f, err := params.ParseField(name)
	if err != nil {
		return err
	}
	p, err := s.Status().Params.WithString(f, value)
	if err != nil {
		return err
	}
	return s.SetParameter(f, p.Get(f))
}

func printLiveStatus(w io.Writer, st session.Status) {
	fmt.Fprintf(w, "  state:      %s\n", st.State)
	fmt.Fprintf(w, "  algorithm:  %s, %d levels\n", st.Params.Algorithm, st.Params.ColorDepth)
	fmt.Fprintf(w, "  generation: %d (published %d)\n", st.Generation, st.PublishedGeneration)
	fmt.Fprintf(w, "  renders:    %d dispatched, %d published, %d cancelled, %d failed\n",
		st.Dispatched, st.Published, st.Cancelled, st.Failed)
	if st.LastError != nil {
		failColor.Fprintf(w, "  last error: %v\n", st.LastError)
	}
}
