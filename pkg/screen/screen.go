// Package screen runs bulk resume screening. Sessions arrive on a
// RabbitMQ queue, each resume in the session is downloaded from object
// storage and scored against the job description by a Gemini agent,
// and the collected results land back in Postgres.
package screen

import (
	"time"

	"github.com/google/uuid"

	"github.com/skillsetz/careercraft/pkg/screen/database"
)

// Queue and exchange names shared with the uploading service.
const (
	SessionQueue   = "sessions"
	UpdateExchange = "session_updates"
)

// Session lifecycle states. The uploader writes queued; the worker
// owns the rest.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Session is the queue message that starts one screening batch. The
// uploader persists the session and its resumes to Postgres before
// publishing it.
type Session struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	JobTitle       string    `json:"job_title"`
	JobDescription string    `json:"job_description"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Resume is a stored resume row awaiting screening.
type Resume = database.Resume

// Result is one candidate's score against the session's job. A resume
// that could not be processed produces an entry with IsErrorResult set
// instead of failing the batch.
type Result struct {
	CandidateName string   `json:"candidate_name"`
	Email         string   `json:"candidate_email"`
	MatchScore    int      `json:"match_score"`
	Verdict       string   `json:"verdict"`
	Strengths     []string `json:"strengths"`
	Gaps          []string `json:"gaps"`
	Summary       string   `json:"summary"`

	IsErrorResult bool   `json:"is_error_result"`
	Error         string `json:"error,omitempty"`
}

// Results collects every Result for a session in resume order.
type Results struct {
	SessionID uuid.UUID `json:"session_id"`
	Results   []Result  `json:"results"`
}

// R2Config locates the bucket holding uploaded resumes. Cloudflare R2
// speaks the S3 API; the account ID only shapes the endpoint URL.
type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}
