package stream

import (
	"context"
	"sync"
)

// Outcome classifies how a session's read loop ended. It replaces
// sentinel-error comparisons: callers branch on the value instead of
// matching strings.
type Outcome int

const (
	// OutcomeOK means the stream ended normally, via a final event or a
	// clean transport close.
	OutcomeOK Outcome = iota
	// OutcomeCancelled means the caller cancelled the session.
	OutcomeCancelled
	// OutcomeFailed means the transport or the server failed the
	// session; State().Error carries the reason.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session owns one in-flight analysis stream: its state, its transport
// cancellation handle, and the read loop draining the response body.
// Sessions are independent; a client may run several concurrently.
type Session struct {
	mu        sync.Mutex
	state     State
	cancelled bool
	outcome   Outcome

	obsMu    sync.Mutex
	onUpdate func(State)

	cancel context.CancelFunc
	done   chan struct{}
}

// State returns a snapshot of the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Done is closed when the read loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the read loop has exited and reports how it ended.
func (s *Session) Wait() Outcome {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Cancel aborts the in-flight transport and marks the session
// cancelled. The read loop observes the abort at its next read and
// exits without touching the state again. Cancelling an already
// terminal session is a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		s.cancel()
		return
	}
	s.cancelled = true
	s.state.Error = "Analysis cancelled"
	s.state.IsStreaming = false
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.notify(snapshot)
	s.cancel()
}

// apply dispatches one event into the state machine and reports whether
// the session is now terminal. Events after cancellation or a terminal
// state are dropped.
func (s *Session) apply(ev Event) (terminal bool) {
	s.mu.Lock()
	if s.cancelled || s.state.Terminal() {
		s.mu.Unlock()
		return true
	}
	s.state = Reduce(s.state, ev)
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.notify(snapshot)
	return snapshot.Terminal()
}

// fail records a fatal session error unless the session already ended.
func (s *Session) fail(msg string) {
	s.mu.Lock()
	if s.cancelled || s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.state.Error = msg
	s.state.IsStreaming = false
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.notify(snapshot)
}

// finish settles the outcome once the read loop is done. If the
// transport closed without a terminal event, streaming is switched off
// as a safety net.
func (s *Session) finish() {
	s.mu.Lock()
	if s.cancelled {
		s.outcome = OutcomeCancelled
		s.mu.Unlock()
		return
	}

	var late *State
	if s.state.IsStreaming {
		s.state.IsStreaming = false
		snapshot := s.state.clone()
		late = &snapshot
	}
	if s.state.Error != "" {
		s.outcome = OutcomeFailed
	} else {
		s.outcome = OutcomeOK
	}
	s.mu.Unlock()

	if late != nil {
		s.notify(*late)
	}
}

func (s *Session) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// notify delivers a snapshot to the observer. Calls are serialized so
// observers see updates in event order.
func (s *Session) notify(snapshot State) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	if s.onUpdate != nil {
		s.onUpdate(snapshot)
	}
}
