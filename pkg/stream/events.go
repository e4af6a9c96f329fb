package stream

import "encoding/json"

// AnalyzePath is the streaming analysis endpoint, shared by the client
// and the server mux.
const AnalyzePath = "/api/jobs/analyses/stream_analyze_dream_job/"

// dataPrefix marks significant records in the wire framing. Lines
// without it (keep-alives, blank separators) are skipped.
const dataPrefix = "data: "

// EventType discriminates wire events.
type EventType string

const (
	EventStatus          EventType = "status"
	EventPartialAnalysis EventType = "partial_analysis"
	EventPartialMetric   EventType = "partial_metric"
	EventMetricsComplete EventType = "metrics_complete"
	EventComplete        EventType = "complete"
	EventFinal           EventType = "final"
	EventError           EventType = "error"
)

// Event is one decoded record of the analysis stream. Which fields are
// populated depends on Type; unknown types are carried through so the
// dispatcher can log them.
type Event struct {
	Type EventType `json:"type"`

	// status
	Step    string `json:"step,omitempty"`
	Message string `json:"message,omitempty"`

	// status, partial_analysis, partial_metric, metrics_complete, complete
	Progress *int `json:"progress,omitempty"`

	// partial_metric carries a partial mapping, metrics_complete the full one
	Metrics map[string]any `json:"metrics,omitempty"`

	// partial_analysis
	Content           string `json:"content,omitempty"`
	AccumulatedLength int    `json:"accumulated_length,omitempty"`

	// complete
	AnalysisID int64 `json:"analysis_id,omitempty"`

	// final
	ParsedJob json.RawMessage `json:"parsed_job,omitempty"`
	JobID     int64           `json:"job_id,omitempty"`

	// error
	Err string `json:"error,omitempty"`
}

// ErrorText returns the human-readable failure carried by an error
// event, preferring the message over the raw error field.
func (e Event) ErrorText() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err
}

// Constructors below build the events the server emits. The client only
// ever decodes.

func StatusEvent(step, message string, progress int) Event {
	return Event{Type: EventStatus, Step: step, Message: message, Progress: &progress}
}

func PartialAnalysisEvent(content string, accumulated, progress int) Event {
	return Event{Type: EventPartialAnalysis, Content: content, AccumulatedLength: accumulated, Progress: &progress}
}

func PartialMetricEvent(metrics map[string]any, progress int) Event {
	return Event{Type: EventPartialMetric, Metrics: metrics, Progress: &progress}
}

func MetricsCompleteEvent(metrics map[string]any, progress int) Event {
	return Event{Type: EventMetricsComplete, Metrics: metrics, Progress: &progress}
}

func CompleteEvent(analysisID int64, message string, progress int) Event {
	return Event{Type: EventComplete, AnalysisID: analysisID, Message: message, Progress: &progress}
}

func FinalEvent(parsedJob json.RawMessage, jobID int64) Event {
	return Event{Type: EventFinal, ParsedJob: parsedJob, JobID: jobID}
}

func ErrorEvent(err string) Event {
	return Event{Type: EventError, Err: err, Message: "Analysis failed: " + err}
}

// Encode renders the event as one wire record, framing included.
func (e Event) Encode() ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	record := make([]byte, 0, len(dataPrefix)+len(payload)+2)
	record = append(record, dataPrefix...)
	record = append(record, payload...)
	record = append(record, '\n', '\n')
	return record, nil
}
