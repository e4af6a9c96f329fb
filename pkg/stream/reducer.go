package stream

// Reduce folds one decoded event into a state and returns the next
// state. It is pure: the input state is not modified, and applying the
// same event twice from the same state yields the same result. Events
// arriving after a terminal state are ignored entirely, which is what
// keeps late buffered records from mutating a finished session.
func Reduce(s State, ev Event) State {
	if s.Terminal() {
		return s
	}

	switch ev.Type {
	case EventStatus:
		progress := s.Progress
		if ev.Progress != nil {
			progress = *ev.Progress
		}
		s.Status = &StatusUpdate{Step: ev.Step, Message: ev.Message, Progress: progress}
		s.Progress = progress

	case EventPartialMetric:
		// Shallow merge, later fields win on collision.
		merged := make(map[string]any, len(s.Metrics)+len(ev.Metrics))
		for k, v := range s.Metrics {
			merged[k] = v
		}
		for k, v := range ev.Metrics {
			merged[k] = v
		}
		s.Metrics = merged
		if ev.Progress != nil {
			s.Progress = *ev.Progress
		}

	case EventMetricsComplete:
		// Wholesale replacement, not a merge.
		replaced := make(map[string]any, len(ev.Metrics))
		for k, v := range ev.Metrics {
			replaced[k] = v
		}
		s.Metrics = replaced
		if ev.Progress != nil {
			s.Progress = *ev.Progress
		}

	case EventComplete:
		s.AnalysisID = ev.AnalysisID
		s.Progress = 100
		s.Status = &StatusUpdate{Step: "complete", Message: ev.Message, Progress: 100}

	case EventFinal:
		s.ParsedJob = ev.ParsedJob
		s.JobID = ev.JobID
		s.IsStreaming = false

	case EventError:
		s.Error = ev.ErrorText()
		s.IsStreaming = false

	default:
		// partial_analysis and unrecognized types leave the state
		// untouched.
	}

	return s
}
