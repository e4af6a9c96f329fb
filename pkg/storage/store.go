// Package storage persists analyses, parsed jobs, chat transcripts, and
// the skill assessment records (question bank, attempts, proficiencies,
// certificates). Two backends exist: an in-memory store for tests and
// credential-free runs, and a SQLite store for durable single-node
// deployments. Both satisfy Store and are covered by one shared
// conformance suite.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/skillsetz/careercraft/pkg/analysis"
	"github.com/skillsetz/careercraft/pkg/assessment"
)

// Store is the persistence interface for the careercraft system.
type Store interface {
	// PutAnalysis stores an analysis and returns its assigned ID. The
	// ID is also written back to the value.
	PutAnalysis(ctx context.Context, a *analysis.Analysis) (int64, error)

	// GetAnalysis retrieves an analysis by ID. Returns ErrNotFound if
	// it doesn't exist.
	GetAnalysis(ctx context.Context, id int64) (*analysis.Analysis, error)

	// ListAnalyses returns analyses newest first, up to limit.
	// limit <= 0 means no limit.
	ListAnalyses(ctx context.Context, limit int) ([]*analysis.Analysis, error)

	// DeleteAnalysis removes an analysis and its chat transcript.
	// Returns ErrNotFound if it doesn't exist.
	DeleteAnalysis(ctx context.Context, id int64) error

	// PutJob stores a parsed job and returns its assigned ID. The ID
	// is also written back to the value.
	PutJob(ctx context.Context, j *analysis.ParsedJob) (int64, error)

	// GetJob retrieves a job by ID. Returns ErrNotFound if it doesn't
	// exist.
	GetJob(ctx context.Context, id int64) (*analysis.ParsedJob, error)

	// ListJobs returns jobs newest first, up to limit. limit <= 0
	// means no limit.
	ListJobs(ctx context.Context, limit int) ([]*analysis.ParsedJob, error)

	// DeleteJob removes a job and its similarity vector. Returns
	// ErrNotFound if it doesn't exist.
	DeleteJob(ctx context.Context, id int64) error

	// SimilarJobs returns up to limit stored jobs ranked by similarity
	// to the given job, nearest first, never including the job itself.
	// limit <= 0 means a default of 10.
	SimilarJobs(ctx context.Context, id int64, limit int) ([]*analysis.ParsedJob, error)

	// AppendMessage appends one chat message to an analysis transcript.
	// Returns ErrNotFound if the analysis doesn't exist.
	AppendMessage(ctx context.Context, analysisID int64, msg ChatMessage) error

	// Messages returns the chat transcript for an analysis in append
	// order.
	Messages(ctx context.Context, analysisID int64) ([]ChatMessage, error)

	// PutQuestion stores an assessment question and returns its
	// assigned ID. The ID is also written back to the value.
	PutQuestion(ctx context.Context, q *assessment.Question) (int64, error)

	// Questions returns every question for a skill and level, active or
	// not, oldest first. Skill matching is case-insensitive.
	Questions(ctx context.Context, skill string, level int) ([]*assessment.Question, error)

	// ClearQuestions deletes every question for a skill across all
	// levels and returns how many were removed.
	ClearQuestions(ctx context.Context, skill string) (int, error)

	// SaveAssessment inserts the assessment when its ID is zero and
	// updates it otherwise. The assigned ID is written back to the
	// value. Updating an unknown ID returns ErrNotFound.
	SaveAssessment(ctx context.Context, a *assessment.Assessment) (int64, error)

	// GetAssessment retrieves an assessment attempt by ID. Returns
	// ErrNotFound if it doesn't exist.
	GetAssessment(ctx context.Context, id int64) (*assessment.Assessment, error)

	// ListAssessments returns a user's attempts newest first. An empty
	// skill matches all skills; otherwise matching is case-insensitive.
	ListAssessments(ctx context.Context, userID, skill string) ([]*assessment.Assessment, error)

	// UpsertProficiency stores the proficiency for (user, skill),
	// replacing any previous record. UpdatedAt is stamped on write.
	UpsertProficiency(ctx context.Context, p *assessment.Proficiency) error

	// ListProficiencies returns a user's proficiencies ordered by skill.
	ListProficiencies(ctx context.Context, userID string) ([]*assessment.Proficiency, error)

	// SaveCertificate stores a certificate keyed by its public ID.
	SaveCertificate(ctx context.Context, c *assessment.Certificate) error

	// GetCertificate retrieves a certificate by its public ID. Returns
	// ErrNotFound if it doesn't exist.
	GetCertificate(ctx context.Context, id string) (*assessment.Certificate, error)

	// ListCertificates returns a user's certificates newest first.
	ListCertificates(ctx context.Context, userID string) ([]*assessment.Certificate, error)

	// Close closes the store and releases any resources.
	Close() error
}

// Chat transcript roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of an analysis follow-up conversation.
type ChatMessage struct {
	Role      string    `json:"role"` // RoleUser or RoleAssistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrNotFound is returned when a record doesn't exist in the store.
type ErrNotFound struct {
	Kind string // "analysis", "job", "assessment", or "certificate"
	ID   int64
	Name string // set instead of ID for string-keyed records
}

func (e ErrNotFound) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
	}
	if e.ID == 0 {
		return e.Kind + " not found"
	}

	return fmt.Sprintf("%s not found: %d", e.Kind, e.ID)
}
