package analyzer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/skillsetz/careercraft/pkg/analysis"
)

// ParseJob structures a free-text job description with one model call.
// Unusable model output degrades to a minimal job built from the raw
// description; only provider failures surface as errors.
func (a *Analyzer) ParseJob(ctx context.Context, description string) (*analysis.ParsedJob, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("job description is required")
	}

	out, err := a.provider.Complete(ctx, parsePrompt(description))
	if err != nil {
		return nil, fmt.Errorf("parse job: %w", err)
	}

	doc, err := analysis.ExtractObject(analysis.StripFences(out))
	if err != nil {
		a.logger.Warn("job parse output unusable, keeping raw description", zap.Error(err))
		return fallbackJob(description), nil
	}

	job := analysis.ParsedJobFromDocument(doc)
	if job.Title == "" {
		job.Title = jobTitle(description)
	}
	if job.Description == "" {
		job.Description = description
	}
	return job, nil
}

func fallbackJob(description string) *analysis.ParsedJob {
	return &analysis.ParsedJob{
		Title:          jobTitle(description),
		Description:    description,
		RequiredSkills: []string{},
	}
}

// jobTitle guesses a title from the first non-empty line of a raw
// description.
func jobTitle(description string) string {
	for _, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 120 {
			line = line[:120]
		}
		return line
	}
	return "Untitled role"
}
