// Package analyzer runs the server-side analysis pipeline: it gathers
// the candidate profile, structures the job description, streams a
// model completion while emitting progress records, coerces the final
// document, and persists the result. Follow-up chat on a stored
// analysis lives here too.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/skillsetz/careercraft/pkg/analysis"
	"github.com/skillsetz/careercraft/pkg/profile"
	"github.com/skillsetz/careercraft/pkg/provider"
	"github.com/skillsetz/careercraft/pkg/storage"
	"github.com/skillsetz/careercraft/pkg/stream"
)

// Progress milestones of the streaming pipeline. Partial records
// interpolate between analyzing and processing.
const (
	progressGathering  = 10
	progressGathered   = 20
	progressAnalyzing  = 30
	progressProcessing = 90
	progressMetrics    = 95
	progressComplete   = 100
)

// Partial record cadence, counted in model chunks.
const (
	analysisChunkInterval = 10
	metricChunkInterval   = 20
)

// ProfileSource supplies the current candidate profile. Both the live
// file watcher and a fixed profile satisfy it.
type ProfileSource interface {
	Current() *profile.Profile
}

// StaticProfile adapts a fixed profile into a ProfileSource.
type StaticProfile struct {
	Profile *profile.Profile
}

func (s StaticProfile) Current() *profile.Profile { return s.Profile }

// Analyzer drives analyses against one model provider and one store.
type Analyzer struct {
	provider provider.Provider
	store    storage.Store
	profiles ProfileSource
	logger   *zap.Logger
}

// New creates an Analyzer. All four dependencies are required.
func New(p provider.Provider, store storage.Store, profiles ProfileSource, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		provider: p,
		store:    store,
		profiles: profiles,
		logger:   logger,
	}
}

// StreamAnalyze runs one full analysis, delivering every progress and
// result record through emit in wire order. A pipeline failure is
// reported as a trailing error record and returned; an emit failure
// means the client is gone and aborts the run.
func (a *Analyzer) StreamAnalyze(ctx context.Context, req stream.Request, emit func(stream.Event) error) error {
	err := a.streamAnalyze(ctx, req, emit)
	if err == nil {
		return nil
	}

	a.logger.Error("analysis failed",
		zap.Error(err),
		zap.String("provider", a.provider.Name()),
	)
	if emitErr := emit(stream.ErrorEvent(err.Error())); emitErr != nil {
		a.logger.Debug("error record not delivered", zap.Error(emitErr))
	}
	return err
}

func (a *Analyzer) streamAnalyze(ctx context.Context, req stream.Request, emit func(stream.Event) error) error {
	if strings.TrimSpace(req.JobDescription) == "" {
		return fmt.Errorf("job description is required")
	}

	if err := emit(stream.StatusEvent("gathering_context", "Gathering your profile information...", progressGathering)); err != nil {
		return err
	}

	prof := a.profiles.Current()
	if prof == nil {
		prof = &profile.Profile{}
	}
	gathered := fmt.Sprintf("Analyzed %d skills and %d work experiences", len(prof.Skills), len(prof.WorkExperiences))
	if err := emit(stream.StatusEvent("context_gathered", gathered, progressGathered)); err != nil {
		return err
	}

	// The job is structured and optionally saved up front so its row
	// exists even when the analysis itself fails later.
	parsedJob, err := a.ParseJob(ctx, req.JobDescription)
	if err != nil {
		return err
	}

	var jobID int64
	if req.SaveJob {
		jobID, err = a.store.PutJob(ctx, parsedJob)
		if err != nil {
			return fmt.Errorf("save job: %w", err)
		}
	}

	if err := emit(stream.StatusEvent("analyzing", "AI is analyzing your fit for this role...", progressAnalyzing)); err != nil {
		return err
	}

	var accumulated strings.Builder
	chunks := 0
	if _, err := a.provider.Stream(ctx, analysisPrompt(prof, req), func(chunk string) error {
		accumulated.WriteString(chunk)
		chunks++

		if chunks%analysisChunkInterval == 0 {
			progress := min(progressAnalyzing+chunks/analysisChunkInterval, 80)
			if err := emit(stream.PartialAnalysisEvent(chunk, accumulated.Len(), progress)); err != nil {
				return err
			}
		}
		if chunks%metricChunkInterval == 0 {
			if metrics := extractPartialMetrics(accumulated.String()); len(metrics) > 0 {
				progress := min(40+(chunks/metricChunkInterval)*5, 85)
				if err := emit(stream.PartialMetricEvent(metrics, progress)); err != nil {
					return err
				}
			}
		}
		return nil
	}); err != nil {
		return fmt.Errorf("analysis stream: %w", err)
	}

	if err := emit(stream.StatusEvent("processing", "Processing analysis results...", progressProcessing)); err != nil {
		return err
	}

	raw := accumulated.String()
	doc, err := analysis.ExtractObject(raw)
	if err != nil {
		a.logger.Warn("model output unparseable, using fallback document",
			zap.Error(err),
			zap.Int("accumulated_length", len(raw)),
		)
		doc = analysis.Fallback()
	}

	result := analysis.FromDocument(doc)
	result.JobID = jobID
	result.AdditionalContext = req.AdditionalContext
	result.FullAnalysis = raw
	result.Provider = a.provider.Name()
	result.Model = a.provider.Model()

	if err := emit(stream.MetricsCompleteEvent(result.Metrics.Document(result.EligibilityLevel), progressMetrics)); err != nil {
		return err
	}

	analysisID, err := a.store.PutAnalysis(ctx, result)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	a.logger.Info("analysis complete",
		zap.Int64("analysis_id", analysisID),
		zap.Int64("job_id", jobID),
		zap.Int("match_score", result.MatchScore),
		zap.String("eligibility", result.EligibilityLevel),
		zap.Int("chunks", chunks),
	)

	if err := emit(stream.CompleteEvent(analysisID, "Analysis complete!", progressComplete)); err != nil {
		return err
	}

	jobPayload, err := json.Marshal(parsedJob)
	if err != nil {
		return fmt.Errorf("encode parsed job: %w", err)
	}
	return emit(stream.FinalEvent(jobPayload, jobID))
}

// partialMetricPatterns matches score fields inside raw, still-growing
// model output.
var partialMetricPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(analysis.PartialMetricFields))
	for _, field := range analysis.PartialMetricFields {
		patterns[field] = regexp.MustCompile(`"` + field + `"\s*:\s*(\d+)`)
	}
	return patterns
}()

// extractPartialMetrics probes accumulated output for scores that have
// already streamed past, so clients can show metrics before the
// document closes. Returns nil when nothing matches yet.
func extractPartialMetrics(accumulated string) map[string]any {
	var metrics map[string]any
	for _, field := range analysis.PartialMetricFields {
		match := partialMetricPatterns[field].FindStringSubmatch(accumulated)
		if match == nil {
			continue
		}
		value, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if metrics == nil {
			metrics = make(map[string]any, len(analysis.PartialMetricFields))
		}
		metrics[field] = value
	}
	return metrics
}
