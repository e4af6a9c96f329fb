// Package assessment implements skill verification: leveled question
// banks, timed assessments with sequential level gating, scoring, and
// certificates that back verified proficiencies.
package assessment

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Engine constants.
const (
	QuestionsPerLevel = 20
	PassingPercentage = 70.0
	TimeLimitHours    = 2
	MaxLevel          = 5
)

// QuestionType selects how an answer is validated.
type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	CodeSnippet    QuestionType = "CODE_SNIPPET"
	Scenario       QuestionType = "SCENARIO"
)

// Status of an assessment attempt.
type Status string

const (
	StatusInProgress Status = "IN_PROGRESS"
	StatusPassed     Status = "PASSED"
	StatusFailed     Status = "FAILED"
	StatusExpired    Status = "EXPIRED"
)

// Proficiency levels, ordered weakest to strongest.
const (
	Beginner     = "BEGINNER"
	Intermediate = "INTERMEDIATE"
	Advanced     = "ADVANCED"
	Expert       = "EXPERT"
)

// LevelToProficiency maps a passed assessment level to the proficiency
// it verifies. Levels 4 and 5 both certify EXPERT.
var LevelToProficiency = map[int]string{
	1: Beginner,
	2: Intermediate,
	3: Advanced,
	4: Expert,
	5: Expert,
}

// proficiencyRank orders proficiencies for upgrade-only updates.
var proficiencyRank = map[string]int{
	Beginner:     1,
	Intermediate: 2,
	Advanced:     3,
	Expert:       4,
}

// Question is one entry of the assessment bank.
type Question struct {
	ID          int64        `json:"id"`
	Skill       string       `json:"skill"`
	Level       int          `json:"level"` // 1..5
	Type        QuestionType `json:"question_type"`
	Text        string       `json:"question_text"`
	CodeSnippet string       `json:"code_snippet,omitempty"`
	Choices     []string     `json:"options,omitempty"`
	// CorrectAnswer is the answer key; for SCENARIO questions it is the
	// phrase the answer must contain.
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation,omitempty"`
	Points        int    `json:"points"`
	TimeLimit     int    `json:"time_limit_seconds,omitempty"`
	Active        bool   `json:"is_active"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Assessment is one attempt at a (skill, level) pair.
type Assessment struct {
	ID     int64  `json:"id"`
	UserID string `json:"user_id"`
	Skill  string `json:"skill"`
	Level  int    `json:"level"`
	Status Status `json:"status"`

	QuestionIDs       []int64 `json:"question_ids"`
	TotalQuestions    int     `json:"total_questions"`
	QuestionsAnswered int     `json:"questions_answered"`
	TotalPoints       int     `json:"total_points"`
	PointsEarned      int     `json:"points_earned"`
	Percentage        float64 `json:"percentage_score"`

	Attempt     int       `json:"attempt_number"`
	StartedAt   time.Time `json:"started_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

// Proficiency is a verified skill level on the candidate profile.
type Proficiency struct {
	UserID     string    `json:"user_id"`
	Skill      string    `json:"skill"`
	Level      string    `json:"proficiency_level"`
	Verified   bool      `json:"is_verified"`
	VerifiedBy string    `json:"verified_by,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

// Certificate records a passed assessment.
type Certificate struct {
	ID       string    `json:"certificate_id"`
	UserID   string    `json:"user_id"`
	Skill    string    `json:"skill"`
	Level    int       `json:"level"`
	Score    float64   `json:"score_achieved"`
	IssuedAt time.Time `json:"issued_at"`
	Active   bool      `json:"is_active"`
}

// VerifiedBy is the issuer string stamped on proficiencies verified by
// a passed assessment.
func VerifiedBy(level int) string {
	return fmt.Sprintf("CareerCraft Assessment - Level %d", level)
}

// Store is the persistence the engine and importer need. The storage
// package's backends satisfy it.
type Store interface {
	PutQuestion(ctx context.Context, q *Question) (int64, error)
	Questions(ctx context.Context, skill string, level int) ([]*Question, error)
	ClearQuestions(ctx context.Context, skill string) (int, error)

	SaveAssessment(ctx context.Context, a *Assessment) (int64, error)
	GetAssessment(ctx context.Context, id int64) (*Assessment, error)
	ListAssessments(ctx context.Context, userID, skill string) ([]*Assessment, error)

	UpsertProficiency(ctx context.Context, p *Proficiency) error
	ListProficiencies(ctx context.Context, userID string) ([]*Proficiency, error)

	SaveCertificate(ctx context.Context, c *Certificate) error
	GetCertificate(ctx context.Context, id string) (*Certificate, error)
	ListCertificates(ctx context.Context, userID string) ([]*Certificate, error)
}

// ValidateAnswer grades one answer against its question. Answers are
// compared trimmed and lowercased; SCENARIO answers pass when they
// contain the expected phrase. Returns correctness and points earned.
func ValidateAnswer(q *Question, answer string) (bool, int) {
	correct := strings.ToLower(strings.TrimSpace(q.CorrectAnswer))
	given := strings.ToLower(strings.TrimSpace(answer))

	var ok bool
	switch q.Type {
	case Scenario:
		ok = given != "" && strings.Contains(given, correct)
	default:
		ok = given != "" && given == correct
	}

	if !ok {
		return false, 0
	}
	return true, q.Points
}
