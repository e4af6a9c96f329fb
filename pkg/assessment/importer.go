package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ImportStats reports what an import run did.
type ImportStats struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Invalid int `json:"invalid"`
	Cleared int `json:"cleared"`
}

// importRecord is one entry of a question bank file. Level tolerates
// both the numeric form and the legacy "LEVEL_N" strings found in
// older bank exports.
type importRecord struct {
	Skill            string          `json:"skill"`
	Level            json.RawMessage `json:"level"`
	QuestionType     string          `json:"question_type"`
	QuestionText     string          `json:"question_text"`
	CodeSnippet      string          `json:"code_snippet"`
	Options          []string        `json:"options"`
	CorrectAnswer    string          `json:"correct_answer"`
	Explanation      string          `json:"explanation"`
	Points           *int            `json:"points"`
	TimeLimitSeconds *int            `json:"time_limit_seconds"`
	IsActive         *bool           `json:"is_active"`
}

var questionTypes = map[QuestionType]bool{
	MultipleChoice: true,
	TrueFalse:      true,
	CodeSnippet:    true,
	Scenario:       true,
}

// ImportQuestions loads a JSON array of questions into the bank.
// Duplicates, judged on (skill, level, text), are skipped; invalid
// records are logged and counted but do not abort the run. With clear
// set, the bank for every skill named in the file is emptied first.
func ImportQuestions(ctx context.Context, store Store, r io.Reader, clear bool, logger *zap.Logger) (*ImportStats, error) {
	var records []importRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}

	stats := &ImportStats{}

	if clear {
		cleared := map[string]bool{}
		for _, rec := range records {
			key := strings.ToLower(strings.TrimSpace(rec.Skill))
			if key == "" || cleared[key] {
				continue
			}
			cleared[key] = true
			n, err := store.ClearQuestions(ctx, rec.Skill)
			if err != nil {
				return nil, fmt.Errorf("clear questions for %s: %w", rec.Skill, err)
			}
			stats.Cleared += n
		}
	}

	// existing texts per (skill, level), loaded lazily
	known := map[string]map[string]bool{}

	for i, rec := range records {
		q, err := rec.question()
		if err != nil {
			logger.Warn("skipping invalid question record",
				zap.Int("index", i),
				zap.Error(err),
			)
			stats.Invalid++
			continue
		}

		key := fmt.Sprintf("%s|%d", strings.ToLower(q.Skill), q.Level)
		texts, ok := known[key]
		if !ok {
			existing, err := store.Questions(ctx, q.Skill, q.Level)
			if err != nil {
				return nil, fmt.Errorf("load existing questions: %w", err)
			}
			texts = make(map[string]bool, len(existing))
			for _, e := range existing {
				texts[e.Text] = true
			}
			known[key] = texts
		}
		if texts[q.Text] {
			stats.Skipped++
			continue
		}

		if _, err := store.PutQuestion(ctx, q); err != nil {
			return nil, fmt.Errorf("save question: %w", err)
		}
		texts[q.Text] = true
		stats.Created++
	}

	logger.Info("question import complete",
		zap.Int("created", stats.Created),
		zap.Int("skipped", stats.Skipped),
		zap.Int("invalid", stats.Invalid),
		zap.Int("cleared", stats.Cleared),
	)
	return stats, nil
}

func (r importRecord) question() (*Question, error) {
	skill := strings.TrimSpace(r.Skill)
	if skill == "" {
		return nil, fmt.Errorf("skill is required")
	}

	level, err := parseLevel(r.Level)
	if err != nil {
		return nil, err
	}
	if level < 1 || level > MaxLevel {
		return nil, fmt.Errorf("level %d out of range", level)
	}

	qt := QuestionType(strings.ToUpper(strings.TrimSpace(r.QuestionType)))
	if !questionTypes[qt] {
		return nil, fmt.Errorf("unknown question type %q", r.QuestionType)
	}

	text := strings.TrimSpace(r.QuestionText)
	if text == "" {
		return nil, fmt.Errorf("question text is required")
	}
	if strings.TrimSpace(r.CorrectAnswer) == "" {
		return nil, fmt.Errorf("correct answer is required")
	}

	q := &Question{
		Skill:         skill,
		Level:         level,
		Type:          qt,
		Text:          text,
		CodeSnippet:   r.CodeSnippet,
		Choices:       r.Options,
		CorrectAnswer: r.CorrectAnswer,
		Explanation:   r.Explanation,
		Points:        10,
		TimeLimit:     120,
		Active:        true,
	}
	if r.Points != nil {
		q.Points = *r.Points
	}
	if r.TimeLimitSeconds != nil {
		q.TimeLimit = *r.TimeLimitSeconds
	}
	if r.IsActive != nil {
		q.Active = *r.IsActive
	}
	return q, nil
}

func parseLevel(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("level is required")
	}

	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unrecognized level %s", raw)
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "LEVEL_")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unrecognized level %q", s)
	}
	return n, nil
}
