package assessment

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine runs assessments against one store.
type Engine struct {
	store  Store
	logger *zap.Logger
}

func NewEngine(store Store, logger *zap.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// Result is the outcome of a submitted assessment.
type Result struct {
	Assessment  *Assessment  `json:"assessment"`
	Passed      bool         `json:"passed"`
	Certificate *Certificate `json:"certificate,omitempty"`
	Reviews     []Review     `json:"reviews"`
}

// Review explains the grading of one question after submission.
type Review struct {
	QuestionID    int64  `json:"question_id"`
	Correct       bool   `json:"correct"`
	PointsEarned  int    `json:"points_earned"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation,omitempty"`
}

// Progress summarizes a candidate's standing on one skill.
type Progress struct {
	Skill         string          `json:"skill"`
	HighestPassed int             `json:"highest_passed_level"`
	Unlocked      []int           `json:"unlocked_levels"`
	LevelScores   map[int]float64 `json:"level_scores"`
	Certificates  int             `json:"certificates_count"`
	Attempts      int             `json:"total_attempts"`
}

// Start opens a new attempt at a (skill, level) pair. Level 1 is
// always available; higher levels require a passed attempt one level
// below. An unexpired in-progress attempt for the skill blocks new
// ones. Returns the attempt plus its selected questions, answer keys
// included, so callers must scrub them before display.
func (e *Engine) Start(ctx context.Context, userID, skill string, level int) (*Assessment, []*Question, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return nil, nil, fmt.Errorf("skill is required")
	}
	if level < 1 || level > MaxLevel {
		return nil, nil, fmt.Errorf("level must be between 1 and %d", MaxLevel)
	}

	attempts, err := e.store.ListAssessments(ctx, userID, skill)
	if err != nil {
		return nil, nil, fmt.Errorf("list assessments: %w", err)
	}

	now := time.Now().UTC()
	for _, a := range attempts {
		if a.Status != StatusInProgress {
			continue
		}
		if now.After(a.ExpiresAt) {
			a.Status = StatusExpired
			if _, err := e.store.SaveAssessment(ctx, a); err != nil {
				return nil, nil, fmt.Errorf("expire assessment: %w", err)
			}
			e.logger.Info("assessment expired",
				zap.Int64("assessment_id", a.ID),
				zap.String("skill", a.Skill),
			)
			continue
		}
		return nil, nil, fmt.Errorf("an assessment for %s is already in progress", skill)
	}

	if level > 1 && !hasPassed(attempts, level-1) {
		return nil, nil, fmt.Errorf("you must pass level %d before attempting level %d", level-1, level)
	}

	bank, err := e.store.Questions(ctx, skill, level)
	if err != nil {
		return nil, nil, fmt.Errorf("load questions: %w", err)
	}
	var active []*Question
	for _, q := range bank {
		if q.Active {
			active = append(active, q)
		}
	}
	if len(active) < QuestionsPerLevel {
		return nil, nil, fmt.Errorf("insufficient questions for %s level %d: need %d, found %d",
			skill, level, QuestionsPerLevel, len(active))
	}

	selected := sample(active, QuestionsPerLevel)

	totalPoints := 0
	ids := make([]int64, 0, len(selected))
	for _, q := range selected {
		totalPoints += q.Points
		ids = append(ids, q.ID)
	}

	attempt := 1
	for _, a := range attempts {
		if a.Level == level {
			attempt++
		}
	}

	a := &Assessment{
		UserID:         userID,
		Skill:          skill,
		Level:          level,
		Status:         StatusInProgress,
		QuestionIDs:    ids,
		TotalQuestions: len(selected),
		TotalPoints:    totalPoints,
		Attempt:        attempt,
		StartedAt:      now,
		ExpiresAt:      now.Add(TimeLimitHours * time.Hour),
	}
	if _, err := e.store.SaveAssessment(ctx, a); err != nil {
		return nil, nil, fmt.Errorf("save assessment: %w", err)
	}

	e.logger.Info("assessment started",
		zap.Int64("assessment_id", a.ID),
		zap.String("skill", skill),
		zap.Int("level", level),
		zap.Int("attempt", attempt),
	)
	return a, selected, nil
}

// Submit grades an in-progress attempt. Unanswered questions score
// zero. Past the time limit the attempt flips to EXPIRED unscored. A
// passing score upgrades the verified proficiency and issues a
// certificate.
func (e *Engine) Submit(ctx context.Context, assessmentID int64, answers map[int64]string) (*Result, error) {
	a, err := e.store.GetAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusInProgress {
		return nil, fmt.Errorf("assessment is not in progress")
	}

	now := time.Now().UTC()
	if now.After(a.ExpiresAt) {
		a.Status = StatusExpired
		if _, err := e.store.SaveAssessment(ctx, a); err != nil {
			return nil, fmt.Errorf("expire assessment: %w", err)
		}
		return nil, fmt.Errorf("assessment has expired")
	}

	bank, err := e.store.Questions(ctx, a.Skill, a.Level)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[int64]*Question, len(bank))
	for _, q := range bank {
		byID[q.ID] = q
	}

	var (
		earned   int
		answered int
		reviews  = make([]Review, 0, len(a.QuestionIDs))
	)
	for _, qid := range a.QuestionIDs {
		q, ok := byID[qid]
		if !ok {
			return nil, fmt.Errorf("question %d is no longer available", qid)
		}
		answer, gave := answers[qid]
		if gave {
			answered++
		}
		correct, points := ValidateAnswer(q, answer)
		earned += points
		reviews = append(reviews, Review{
			QuestionID:    qid,
			Correct:       correct,
			PointsEarned:  points,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}

	percentage := 0.0
	if a.TotalPoints > 0 {
		percentage = math.Round(float64(earned)/float64(a.TotalPoints)*100*100) / 100
	}
	passed := percentage >= PassingPercentage

	a.QuestionsAnswered = answered
	a.PointsEarned = earned
	a.Percentage = percentage
	a.CompletedAt = now
	if passed {
		a.Status = StatusPassed
	} else {
		a.Status = StatusFailed
	}
	if _, err := e.store.SaveAssessment(ctx, a); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	result := &Result{Assessment: a, Passed: passed, Reviews: reviews}
	if passed {
		cert := &Certificate{
			ID:       certificateID(a.Skill, a.Level),
			UserID:   a.UserID,
			Skill:    a.Skill,
			Level:    a.Level,
			Score:    percentage,
			IssuedAt: now,
			Active:   true,
		}
		if err := e.store.SaveCertificate(ctx, cert); err != nil {
			return nil, fmt.Errorf("save certificate: %w", err)
		}
		result.Certificate = cert

		if err := e.verifySkill(ctx, a.UserID, a.Skill, a.Level); err != nil {
			return nil, fmt.Errorf("verify skill: %w", err)
		}
	}

	e.logger.Info("assessment submitted",
		zap.Int64("assessment_id", a.ID),
		zap.String("skill", a.Skill),
		zap.Int("level", a.Level),
		zap.Float64("percentage", percentage),
		zap.Bool("passed", passed),
	)
	return result, nil
}

// History lists a candidate's attempts, newest first. Empty skill
// means all skills.
func (e *Engine) History(ctx context.Context, userID, skill string) ([]*Assessment, error) {
	return e.store.ListAssessments(ctx, userID, skill)
}

// UnlockedLevels returns the levels open to the candidate for a skill.
// Level 1 is always open; each further level needs the previous one
// passed.
func (e *Engine) UnlockedLevels(ctx context.Context, userID, skill string) ([]int, error) {
	attempts, err := e.store.ListAssessments(ctx, userID, skill)
	if err != nil {
		return nil, err
	}

	unlocked := []int{1}
	for level := 2; level <= MaxLevel; level++ {
		if !hasPassed(attempts, level-1) {
			break
		}
		unlocked = append(unlocked, level)
	}
	return unlocked, nil
}

// Progress summarizes attempts, unlocked levels, best scores, and
// certificates for one skill.
func (e *Engine) Progress(ctx context.Context, userID, skill string) (*Progress, error) {
	attempts, err := e.store.ListAssessments(ctx, userID, skill)
	if err != nil {
		return nil, err
	}
	unlocked, err := e.UnlockedLevels(ctx, userID, skill)
	if err != nil {
		return nil, err
	}

	highest := 0
	scores := make(map[int]float64)
	for _, a := range attempts {
		if a.Status != StatusPassed {
			continue
		}
		if a.Level > highest {
			highest = a.Level
		}
		if a.Percentage > scores[a.Level] {
			scores[a.Level] = a.Percentage
		}
	}

	certs, err := e.store.ListCertificates(ctx, userID)
	if err != nil {
		return nil, err
	}
	certCount := 0
	for _, c := range certs {
		if c.Active && strings.EqualFold(c.Skill, skill) {
			certCount++
		}
	}

	return &Progress{
		Skill:         skill,
		HighestPassed: highest,
		Unlocked:      unlocked,
		LevelScores:   scores,
		Certificates:  certCount,
		Attempts:      len(attempts),
	}, nil
}

// Verify looks up a certificate by ID.
func (e *Engine) Verify(ctx context.Context, certificateID string) (*Certificate, error) {
	return e.store.GetCertificate(ctx, certificateID)
}

func hasPassed(attempts []*Assessment, level int) bool {
	for _, a := range attempts {
		if a.Level == level && a.Status == StatusPassed {
			return true
		}
	}
	return false
}

// verifySkill upserts the proficiency implied by a passed level.
// Proficiency never downgrades; verification metadata always updates.
func (e *Engine) verifySkill(ctx context.Context, userID, skill string, level int) error {
	target := LevelToProficiency[level]

	current, err := e.store.ListProficiencies(ctx, userID)
	if err != nil {
		return err
	}

	prof := &Proficiency{
		UserID:     userID,
		Skill:      skill,
		Level:      target,
		Verified:   true,
		VerifiedBy: VerifiedBy(level),
	}
	for _, p := range current {
		if !strings.EqualFold(p.Skill, skill) {
			continue
		}
		if proficiencyRank[p.Level] > proficiencyRank[target] {
			prof.Level = p.Level
		}
		prof.Skill = p.Skill
		break
	}
	return e.store.UpsertProficiency(ctx, prof)
}

func sample(bank []*Question, n int) []*Question {
	shuffled := make([]*Question, len(bank))
	copy(shuffled, bank)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:n]
}

func certificateID(skill string, level int) string {
	code := strings.ToUpper(strings.TrimSpace(skill))
	if runes := []rune(code); len(runes) > 3 {
		code = string(runes[:3])
	}
	u := uuid.New()
	return fmt.Sprintf("CC-%s-L%d-%X", code, level, u[:4])
}
