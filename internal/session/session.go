// Package session coalesces rapid parameter changes into renders.
//
// A Session owns the current parameters, the source image and the last
// published output. Every change restarts a debounce timer; when it fires
// the newest parameters are rendered with a fresh seed. A render that is
// still running at that point is cancelled, and the replacement starts only
// after it has drained, so at most one render is active at a time. Only the
// newest dispatched render may publish; anything cancelled or superseded is
// discarded.
//
// All state is owned by a single goroutine. Public methods post work to it
// and wait for the result.
package session

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/AnyUserName/ditherkit/internal/logging"
	"github.com/AnyUserName/ditherkit/internal/params"
	"github.com/AnyUserName/ditherkit/internal/render"
)

// DefaultDelay is the debounce interval used when Config.Delay is zero.
const DefaultDelay = 50 * time.Millisecond

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session: closed")

// Renderer produces an output image. *render.Renderer satisfies it.
type Renderer interface {
	Render(ctx context.Context, src *image.NRGBA, p params.Params) (*image.NRGBA, error)
}

// Config configures a Session.
type Config struct {
	Renderer Renderer
	Clock    clock.Clock   // nil = wall clock
	Delay    time.Duration // 0 = DefaultDelay
	Seed     func() uint32 // nil = params.NewSeed
	Params   *params.Params

	// OnPublish is called on the session goroutine each time a render is
	// published. It must not call back into the Session except for
	// CurrentOutput and Status.
	OnPublish func(img *image.NRGBA, p params.Params)
}

// job is one dispatched render.
type job struct {
	gen       uint64
	params    params.Params
	cancel    context.CancelFunc
	cancelled bool
}

// Session schedules renders for one source image.
type Session struct {
	renderer  Renderer
	clock     clock.Clock
	delay     time.Duration
	seed      func() uint32
	onPublish func(*image.NRGBA, params.Params)

	events    chan func()
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	renders   sync.WaitGroup

	// loop-owned
	params   params.Params
	source   *image.NRGBA
	timer    *clock.Timer
	timerSeq uint64
	inflight *job
	restart  bool
	gen      uint64
	current  *image.NRGBA
	counters counters

	mu     sync.RWMutex
	output *image.NRGBA
	status Status
}

type counters struct {
	dispatched, published, cancelled, failed int
	lastError                                error
	publishedGen                             uint64
}

// New starts a session. It panics if cfg.Renderer is nil.
func New(cfg Config) *Session {
	if cfg.Renderer == nil {
		panic("session: nil Renderer")
	}
	s := &Session{
		renderer:  cfg.Renderer,
		clock:     cfg.Clock,
		delay:     cfg.Delay,
		seed:      cfg.Seed,
		onPublish: cfg.OnPublish,
		events:    make(chan func()),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
		params:    params.Default(),
	}
	if s.clock == nil {
		s.clock = clock.New()
	}
	if s.delay <= 0 {
		s.delay = DefaultDelay
	}
	if s.seed == nil {
		s.seed = params.NewSeed
	}
	if cfg.Params != nil {
		s.params = cfg.Params.Clamp()
	}
	s.syncStatus()
	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.stopped)
	for {
		select {
		case fn := <-s.events:
			fn()
			s.syncStatus()
		case <-s.quit:
			s.stopTimer()
			if s.inflight != nil {
				s.cancelJob(s.inflight)
			}
			s.restart = false
			s.syncStatus()
			return
		}
	}
}

// post hands fn to the session goroutine. It reports false once the
// session is closed.
func (s *Session) post(fn func()) bool {
	select {
	case s.events <- fn:
		return true
	case <-s.quit:
		return false
	}
}

// call runs fn on the session goroutine and waits for its result.
func (s *Session) call(fn func() error) error {
	errc := make(chan error, 1)
	if !s.post(func() {
		err := fn()
		s.syncStatus()
		errc <- err
	}) {
		return ErrClosed
	}
	select {
	case err := <-errc:
		return err
	case <-s.quit:
		return ErrClosed
	}
}

// SetParameter changes one field and restarts the debounce timer.
// Out-of-range values are rejected and leave the session unchanged.
func (s *Session) SetParameter(f params.Field, v float64) error {
	return s.call(func() error {
		p, err := s.params.With(f, v)
		if err != nil {
			return err
		}
		s.params = p
		s.schedule()
		return nil
	})
}

// SetParams replaces every field and restarts the debounce timer.
func (s *Session) SetParams(p params.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.call(func() error {
		s.params = p
		s.schedule()
		return nil
	})
}

// ResetChaosParameters returns every chaos field to neutral and restarts
// the debounce timer.
func (s *Session) ResetChaosParameters() error {
	return s.call(func() error {
		s.params = s.params.ResetChaos()
		s.schedule()
		return nil
	})
}

// LoadSource replaces the source image. Any pending or running render is
// cancelled, the current output is cleared and a render of the new source
// starts without waiting for the debounce delay.
func (s *Session) LoadSource(img *image.NRGBA) error {
	if img == nil || img.Bounds().Empty() {
		return render.ErrInput
	}
	return s.call(func() error {
		s.stopTimer()
		s.source = img
		s.current = nil
		s.counters.publishedGen = 0
		s.counters.lastError = nil

		if s.inflight != nil {
			s.cancelJob(s.inflight)
			s.restart = true
			return nil
		}
		s.dispatch()
		return nil
	})
}

// CurrentOutput returns the last published image, or nil. A failed render
// leaves the previous image in place; see Status().LastError for the
// failure. The image must be treated as read-only.
func (s *Session) CurrentOutput() *image.NRGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.output
}

// Close cancels outstanding work and waits for it to drain. It is safe to
// call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.stopped
	s.renders.Wait()
}

func (s *Session) schedule() {
	s.stopTimer()
	s.timerSeq++
	seq := s.timerSeq
	s.timer = s.clock.AfterFunc(s.delay, func() {
		s.post(func() { s.fire(seq) })
	})
}

func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerSeq++
}

// fire runs when the debounce delay elapses.
func (s *Session) fire(seq uint64) {
	if seq != s.timerSeq {
		return
	}
	s.timer = nil
	if s.inflight != nil {
		logging.With(logging.ComponentSession).Debug("superseding render", "generation", s.inflight.gen)
		s.cancelJob(s.inflight)
		s.restart = true
		return
	}
	s.dispatch()
}

func (s *Session) cancelJob(j *job) {
	if !j.cancelled {
		j.cancelled = true
		j.cancel()
	}
}

func (s *Session) dispatch() {
	if s.source == nil {
		return
	}
	s.gen++
	p := s.params.WithSeed(s.seed())
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{gen: s.gen, params: p, cancel: cancel}
	s.inflight = j
	s.counters.dispatched++

	src := s.source
	s.renders.Add(1)
	go func() {
		defer s.renders.Done()
		img, err := s.renderer.Render(ctx, src, p)
		s.post(func() { s.finish(j, img, err) })
	}()
}

// finish handles a completed render on the session goroutine.
func (s *Session) finish(j *job, img *image.NRGBA, err error) {
	log := logging.With(logging.ComponentSession)
	s.inflight = nil
	cancelled := j.cancelled
	j.cancel()

	switch {
	case cancelled || errors.Is(err, render.ErrCancelled):
		s.counters.cancelled++
	case err != nil:
		s.counters.failed++
		s.counters.lastError = err
		log.Warn("render failed", "generation", j.gen, "error", err)
	case j.gen == s.gen:
		s.counters.published++
		s.counters.publishedGen = j.gen
		s.counters.lastError = nil
		s.current = img
		log.Debug("published", "generation", j.gen, "seed", j.params.Seed)
		if s.onPublish != nil {
			s.syncStatus()
			s.onPublish(img, j.params)
		}
	default:
		s.counters.cancelled++
	}

	if s.restart {
		s.restart = false
		s.dispatch()
	}
}
