package session

import "github.com/AnyUserName/ditherkit/internal/params"

// State is the scheduler state.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateRendering:
		return "rendering"
	default:
		return "unknown"
	}
}

// Status is a point-in-time view of a session.
type Status struct {
	State     State
	Params    params.Params // current, unseeded parameters
	HasSource bool

	Generation          uint64 // newest dispatched render
	PublishedGeneration uint64 // render behind CurrentOutput, 0 if none

	Dispatched int
	Published  int
	Cancelled  int
	Failed     int

	// LastError is the most recent render failure since the last
	// successful publish. Cancellations are not recorded.
	LastError error
}

// Status returns the current session status.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) state() State {
	switch {
	case s.inflight != nil:
		return StateRendering
	case s.timer != nil:
		return StateDebouncing
	default:
		return StateIdle
	}
}

// syncStatus copies loop-owned state into the snapshot read by Status and
// CurrentOutput.
func (s *Session) syncStatus() {
	st := Status{
		State:               s.state(),
		Params:              s.params,
		HasSource:           s.source != nil,
		Generation:          s.gen,
		PublishedGeneration: s.counters.publishedGen,
		Dispatched:          s.counters.dispatched,
		Published:           s.counters.published,
		Cancelled:           s.counters.cancelled,
		Failed:              s.counters.failed,
		LastError:           s.counters.lastError,
	}
	s.mu.Lock()
	s.status = st
	s.output = s.current
	s.mu.Unlock()
}
