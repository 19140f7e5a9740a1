package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yegors/wxdash/internal/weather"
	"github.com/yegors/wxdash/pkg/logger"
)

// Fetch outcomes written to the search log
const (
	OutcomeResolved   = "resolved"
	OutcomeFailed     = "failed"
	OutcomeSuperseded = "superseded"
	OutcomeDisposed   = "disposed"
)

// Fetch kinds written to the search log
const (
	KindInitial = "initial"
	KindSearch  = "search"
)

// SearchRecord describes one finished fetch of a session
type SearchRecord struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Seq         uint64    `json:"seq"`
	Query       string    `json:"query"`
	Kind        string    `json:"kind"`
	Outcome     string    `json:"outcome"`
	Error       string    `json:"error,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
	ResolvedAt  time.Time `json:"resolved_at"`
	LatencyMs   int64     `json:"latency_ms"`
}

// Recorder persists finished fetches
type Recorder interface {
	RecordSearch(ctx context.Context, record *SearchRecord) error
}

// ChangeFunc is called on the session goroutine whenever the rendered view changes
type ChangeFunc func(State)

const eventBufferSize = 16

type inflight struct {
	fetch   Fetch
	started time.Time
	cancel  context.CancelFunc
}

// Session runs one dashboard: it owns the State, applies events one at a time
// on its own goroutine and executes the fetches that Update asks for.
type Session struct {
	id       string
	provider weather.Provider
	recorder Recorder
	onChange ChangeFunc
	logger   *logger.Logger

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once

	// Owned by the run goroutine
	state   State
	current *inflight

	// Copy of state for readers on other goroutines
	mu       sync.RWMutex
	snapshot State
}

// NewSession creates a session. recorder and onChange may be nil.
func NewSession(id string, provider weather.Provider, recorder Recorder, onChange ChangeFunc, log *logger.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:       id,
		provider: provider,
		recorder: recorder,
		onChange: onChange,
		logger:   log.Named("dashboard-session").With(logger.String("session_id", id)),
		events:   make(chan Event, eventBufferSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    Initial(),
		snapshot: Initial(),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Start launches the event loop and mounts the dashboard
func (s *Session) Start() {
	s.once.Do(func() {
		s.logger.Debug("Starting dashboard session")
		go s.run()
		s.Dispatch(Mount{})
	})
}

// Dispatch queues an event. It returns false once the session is disposed.
func (s *Session) Dispatch(ev Event) bool {
	select {
	case <-s.ctx.Done():
		return false
	default:
	}

	select {
	case s.events <- ev:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// Dispose tears the session down, cancels any pending fetch and waits for the
// event loop to exit. No state change is applied or reported afterwards.
func (s *Session) Dispose() {
	s.once.Do(func() {
		// Never started: nothing to wait for
		close(s.done)
	})
	s.cancel()
	<-s.done
}

// Done is closed when the event loop has exited
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// State returns the latest state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Session) run() {
	defer close(s.done)

	for {
		select {
		case <-s.ctx.Done():
			s.apply(Dispose{})
			return
		case ev := <-s.events:
			if s.ctx.Err() != nil {
				// Disposed while the event was queued
				s.apply(Dispose{})
				return
			}
			s.apply(ev)
			if s.state.Disposed {
				s.cancel()
				return
			}
		}
	}
}

// apply runs one transition and its side effects
func (s *Session) apply(ev Event) {
	prev := s.state
	next, fetch := Update(prev, ev)

	switch e := ev.(type) {
	case Resolved:
		if s.current != nil && prev.Pending == e.Seq && next.Pending == 0 {
			outcome := OutcomeResolved
			if e.Err != nil {
				outcome = OutcomeFailed
			}
			s.finish(outcome, e.Err)
		}
	case Dispose:
		if s.current != nil {
			s.finish(OutcomeDisposed, nil)
		}
	}

	if fetch != nil && s.current != nil {
		s.logger.Debug("Superseding pending fetch",
			logger.Uint64("old_seq", s.current.fetch.Seq),
			logger.Uint64("new_seq", fetch.Seq))
		s.finish(OutcomeSuperseded, nil)
	}

	s.state = next
	s.mu.Lock()
	s.snapshot = next
	s.mu.Unlock()

	if fetch != nil {
		s.startFetch(*fetch)
	}

	if !next.Disposed && !prev.SameView(next) {
		s.logger.Debug("Dashboard view changed",
			logger.String("from", string(prev.Phase)),
			logger.String("to", string(next.Phase)),
			logger.Uint64("seq", next.Seq))
		if s.onChange != nil {
			s.onChange(next)
		}
	}
}

// startFetch runs the provider lookup on its own goroutine and reports back as Resolved
func (s *Session) startFetch(f Fetch) {
	ctx, cancel := context.WithCancel(s.ctx)
	s.current = &inflight{fetch: f, started: time.Now(), cancel: cancel}

	s.logger.Debug("Starting fetch",
		logger.Uint64("seq", f.Seq),
		logger.String("location", f.Location),
		logger.Bool("initial", f.Initial))

	go func() {
		snapshot, err := s.provider.Current(ctx, f.Location)
		if ctx.Err() != nil {
			// Superseded or disposed, the result must not be applied
			return
		}

		select {
		case s.events <- Resolved{Seq: f.Seq, Snapshot: snapshot, Err: err}:
		case <-s.ctx.Done():
		}
	}()
}

// finish cancels the in-flight fetch and writes it to the search log
func (s *Session) finish(outcome string, err error) {
	cur := s.current
	s.current = nil
	cur.cancel()

	if s.recorder == nil {
		return
	}

	now := time.Now()
	kind := KindSearch
	if cur.fetch.Initial {
		kind = KindInitial
	}
	record := &SearchRecord{
		SessionID:   s.id,
		Seq:         cur.fetch.Seq,
		Query:       cur.fetch.Location,
		Kind:        kind,
		Outcome:     outcome,
		RequestedAt: cur.started,
		ResolvedAt:  now,
		LatencyMs:   now.Sub(cur.started).Milliseconds(),
	}
	if err != nil {
		record.Error = err.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.recorder.RecordSearch(ctx, record); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Failed to record search", logger.Error(err), logger.Uint64("seq", record.Seq))
	}
}
