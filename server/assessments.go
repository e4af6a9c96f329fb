package server

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/skillsetz/careercraft/pkg/assessment"
	"github.com/skillsetz/careercraft/pkg/storage"
)

// questionView is a Question with the answer key and explanation
// stripped. Candidates taking an assessment must never see either.
type questionView struct {
	ID          int64                   `json:"id"`
	Skill       string                  `json:"skill"`
	Level       int                     `json:"level"`
	Type        assessment.QuestionType `json:"question_type"`
	Text        string                  `json:"question_text"`
	CodeSnippet string                  `json:"code_snippet,omitempty"`
	Choices     []string                `json:"options,omitempty"`
	Points      int                     `json:"points"`
	TimeLimit   int                     `json:"time_limit_seconds,omitempty"`
}

func viewQuestions(questions []*assessment.Question) []questionView {
	views := make([]questionView, len(questions))
	for i, q := range questions {
		views[i] = questionView{
			ID:          q.ID,
			Skill:       q.Skill,
			Level:       q.Level,
			Type:        q.Type,
			Text:        q.Text,
			CodeSnippet: q.CodeSnippet,
			Choices:     q.Choices,
			Points:      q.Points,
			TimeLimit:   q.TimeLimit,
		}
	}
	return views
}

type startAssessmentRequest struct {
	UserID string `json:"user_id"`
	Skill  string `json:"skill"`
	Level  int    `json:"level"`
}

func (s *Server) handleStartAssessment(c *fiber.Ctx) error {
	var req startAssessmentRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "user_id is required"})
	}

	attempt, questions, err := s.engine.Start(c.Context(), req.UserID, req.Skill, req.Level)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(map[string]any{
		"assessment": attempt,
		"questions":  viewQuestions(questions),
	})
}

type submitAssessmentRequest struct {
	Answers map[int64]string `json:"answers"`
}

func (s *Server) handleSubmitAssessment(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid assessment id"})
	}

	var req submitAssessmentRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}

	result, err := s.engine.Submit(c.Context(), id, req.Answers)
	if err != nil {
		var missing storage.ErrNotFound
		if errors.As(err, &missing) {
			return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: missing.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}

	return c.JSON(result)
}

func (s *Server) handleListAssessments(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "user_id parameter required"})
	}

	attempts, err := s.engine.History(c.Context(), userID, c.Query("skill"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(map[string]any{
		"count":       len(attempts),
		"assessments": attempts,
	})
}

func (s *Server) handleAssessmentProgress(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	skill := c.Query("skill")
	if userID == "" || skill == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "user_id and skill parameters required"})
	}

	progress, err := s.engine.Progress(c.Context(), userID, skill)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(progress)
}

func (s *Server) handleListProficiencies(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "user_id parameter required"})
	}

	proficiencies, err := s.store.ListProficiencies(c.Context(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(map[string]any{
		"count":         len(proficiencies),
		"proficiencies": proficiencies,
	})
}

func (s *Server) handleListCertificates(c *fiber.Ctx) error {
	userID := c.Query("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "user_id parameter required"})
	}

	certificates, err := s.store.ListCertificates(c.Context(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(map[string]any{
		"count":        len(certificates),
		"certificates": certificates,
	})
}

// handleVerifyCertificate is the public check an employer runs against
// a certificate ID printed on a resume.
func (s *Server) handleVerifyCertificate(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "certificate id required"})
	}

	cert, err := s.engine.Verify(c.Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(map[string]any{
		"valid":       cert.Active,
		"certificate": cert,
	})
}
