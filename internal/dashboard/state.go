package dashboard

import (
	"strings"

	"github.com/yegors/wxdash/internal/weather"
)

// Phase is the coarse view state of a dashboard
type Phase string

const (
	PhaseLoading Phase = "loading" // no snapshot to display, a fetch is pending
	PhaseReady   Phase = "ready"   // a snapshot is displayed
	PhaseFailed  Phase = "failed"  // the only fetch so far failed, nothing to display
)

// ActivationKey submits the search when pressed in the search input
const ActivationKey = "Enter"

// State is the complete view state of one dashboard.
// A State is never modified after it is returned from Update.
type State struct {
	Phase    Phase
	Snapshot *weather.Snapshot // nil until the first successful resolution
	Query    string            // current text of the search input
	Seq      uint64            // sequence number of the most recently issued fetch
	Pending  uint64            // sequence number of the in-flight fetch, 0 when idle
	Err      string            // message of the last failed resolution, if any
	Disposed bool
}

// Initial returns the state of a freshly created dashboard
func Initial() State {
	return State{Phase: PhaseLoading}
}

// SameView reports whether two states render identically apart from the
// search input, whose text lives in the browser already
func (s State) SameView(o State) bool {
	return s.Phase == o.Phase && s.Snapshot == o.Snapshot && s.Err == o.Err && s.Disposed == o.Disposed
}

// Event is an input to the state machine
type Event interface {
	event()
}

// Mount is delivered once when the dashboard is attached to a viewer
type Mount struct{}

// QueryChanged carries the new text of the search input
type QueryChanged struct {
	Query string
}

// Submit is the explicit search action. A non-blank Query replaces the
// current input text before submitting.
type Submit struct {
	Query string
}

// KeyPress is a key pressed while the search input has focus
type KeyPress struct {
	Key string
}

// Resolved reports the outcome of the fetch with sequence number Seq
type Resolved struct {
	Seq      uint64
	Snapshot *weather.Snapshot
	Err      error
}

// Dispose is delivered when the viewer goes away
type Dispose struct{}

func (Mount) event()        {}
func (QueryChanged) event() {}
func (Submit) event()       {}
func (KeyPress) event()     {}
func (Resolved) event()     {}
func (Dispose) event()      {}

// Fetch asks the runtime to look up Location and report back with Resolved{Seq}.
// An empty Location means the provider's default location.
type Fetch struct {
	Seq      uint64
	Location string
	Initial  bool
}

// Update applies ev to s and returns the next state, plus the fetch to start if any.
// Any fetch in flight when a new one is returned is superseded and must be discarded.
func Update(s State, ev Event) (State, *Fetch) {
	if s.Disposed {
		return s, nil
	}

	switch e := ev.(type) {
	case Mount:
		if s.Seq != 0 {
			// Already mounted
			return s, nil
		}
		return s.startFetch("", true)

	case QueryChanged:
		s.Query = e.Query
		return s, nil

	case Submit:
		if strings.TrimSpace(e.Query) != "" {
			s.Query = e.Query
		}
		return s.submit()

	case KeyPress:
		if e.Key != ActivationKey {
			return s, nil
		}
		return s.submit()

	case Resolved:
		if e.Seq == 0 || e.Seq != s.Pending {
			// Stale or unknown resolution
			return s, nil
		}
		s.Pending = 0
		if e.Err != nil {
			s.Err = e.Err.Error()
			if s.Snapshot != nil {
				s.Phase = PhaseReady
			} else {
				s.Phase = PhaseFailed
			}
			return s, nil
		}
		s.Snapshot = e.Snapshot
		s.Err = ""
		s.Phase = PhaseReady
		return s, nil

	case Dispose:
		s.Disposed = true
		s.Pending = 0
		return s, nil
	}

	return s, nil
}

// submit starts a search for the trimmed query; blank queries are ignored
func (s State) submit() (State, *Fetch) {
	query := strings.TrimSpace(s.Query)
	if query == "" {
		return s, nil
	}
	return s.startFetch(query, false)
}

func (s State) startFetch(location string, initial bool) (State, *Fetch) {
	s.Seq++
	s.Pending = s.Seq
	s.Phase = PhaseLoading
	s.Err = ""
	return s, &Fetch{Seq: s.Seq, Location: location, Initial: initial}
}
