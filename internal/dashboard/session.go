package dashboard

import (
	"sync"
	"time"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/analysis"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/errors"
	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/monitoring"
)

// Recorder counts recomputations.
type Recorder interface {
	IncrementRecompute()
}

// Session owns one store and one state. Events are applied one at a time;
// every accepted event re-renders from the raw evaluations.
type Session struct {
	mu       sync.RWMutex
	store    *analysis.Store
	state    State
	snapshot Snapshot

	logger   *monitoring.Logger
	recorder Recorder
}

// NewSession starts a session over store with the initial state. logger and
// recorder may be nil.
func NewSession(store *analysis.Store, logger *monitoring.Logger, recorder Recorder) *Session {
	if store == nil {
		store = analysis.EmptyStore("")
	}
	s := &Session{
		store:    store,
		logger:   logger,
		recorder: recorder,
	}
	s.state = NewState(store)
	s.render("init")
	return s
}

// Dispatch applies ev and returns the new snapshot. A rejected event leaves
// the session untouched.
func (s *Session) Dispatch(ev Event) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := Apply(s.state, ev)
	if err != nil {
		return s.snapshot, err
	}
	s.state = next
	s.render(string(ev.Type()))
	return s.snapshot, nil
}

// Replace swaps in a freshly loaded store and resets the state, filters
// included, to its initial value.
func (s *Session) Replace(store *analysis.Store) Snapshot {
	if store == nil {
		store = analysis.EmptyStore("")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.store = store
	s.state = NewState(store)
	s.render("reload")
	return s.snapshot
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Session) Store() *analysis.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// Feature returns the current matrix entry for name.
func (s *Session) Feature(name string) (MatrixPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.snapshot.Matrix {
		if p.Name == name {
			return p, nil
		}
	}
	return MatrixPoint{}, errors.NewNotFoundError("feature", name)
}

// render must be called with mu held.
func (s *Session) render(trigger string) {
	start := time.Now()
	s.snapshot = Render(s.store, s.state)

	if s.recorder != nil {
		s.recorder.IncrementRecompute()
	}
	if s.logger != nil {
		s.logger.RecomputeLogger(trigger, len(s.snapshot.Matrix), time.Since(start))
	}
}
