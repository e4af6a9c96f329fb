package stream

import "encoding/json"

// StatusUpdate is the latest progress report from the server.
type StatusUpdate struct {
	Step     string `json:"step"`
	Message  string `json:"message"`
	Progress int    `json:"progress"`
}

// State is the observable state of one analysis session. It is created
// at session start, folded forward by each decoded event, and becomes
// immutable once terminal.
type State struct {
	// IsStreaming is true from request start until a terminal event or
	// failure.
	IsStreaming bool `json:"is_streaming"`

	// Status is the latest progress report.
	Status *StatusUpdate `json:"status,omitempty"`

	// Metrics accumulates named scores merged incrementally. It is
	// never replaced wholesale except by a metrics_complete event.
	Metrics map[string]any `json:"metrics"`

	// Error is the human-readable failure string. Once set, terminal.
	Error string `json:"error,omitempty"`

	// Server-assigned identifiers, zero until known.
	AnalysisID int64 `json:"analysis_id,omitempty"`
	JobID      int64 `json:"job_id,omitempty"`

	// ParsedJob is set only by the terminal final event and is opaque
	// to the session.
	ParsedJob json.RawMessage `json:"parsed_job,omitempty"`

	// Progress is 0-100. The server intends it to be monotonic; the
	// session does not enforce that.
	Progress int `json:"progress"`
}

// NewState returns the initial shape of a session: streaming, with a
// synthetic initializing status at progress zero.
func NewState() State {
	return State{
		IsStreaming: true,
		Status: &StatusUpdate{
			Step:    "initializing",
			Message: "Starting analysis...",
		},
		Metrics: map[string]any{},
	}
}

// Terminal reports whether the state can no longer change.
func (s State) Terminal() bool {
	return !s.IsStreaming
}

// clone returns a snapshot safe to hand to observers while the session
// keeps mutating its own copy.
func (s State) clone() State {
	out := s
	if s.Status != nil {
		status := *s.Status
		out.Status = &status
	}
	if s.Metrics != nil {
		metrics := make(map[string]any, len(s.Metrics))
		for k, v := range s.Metrics {
			metrics[k] = v
		}
		out.Metrics = metrics
	}
	return out
}
