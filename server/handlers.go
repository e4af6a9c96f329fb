package server

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleListAnalyses(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	analyses, err := s.store.ListAnalyses(c.Context(), limit)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(map[string]any{
		"count":    len(analyses),
		"analyses": analyses,
	})
}

func (s *Server) handleGetAnalysis(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid analysis id"})
	}
	stored, err := s.store.GetAnalysis(c.Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(stored)
}

func (s *Server) handleDeleteAnalysis(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid analysis id"})
	}
	if err := s.store.DeleteAnalysis(c.Context(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListJobs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	jobs, err := s.store.ListJobs(c.Context(), limit)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(map[string]any{
		"count": len(jobs),
		"jobs":  jobs,
	})
}

func (s *Server) handleGetJob(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid job id"})
	}
	job, err := s.store.GetJob(c.Context(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(job)
}

func (s *Server) handleDeleteJob(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid job id"})
	}
	if err := s.store.DeleteJob(c.Context(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSimilarJobs(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid job id"})
	}
	limit := c.QueryInt("limit", 5)
	jobs, err := s.store.SimilarJobs(c.Context(), id, limit)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(map[string]any{
		"count": len(jobs),
		"jobs":  jobs,
	})
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response   string `json:"response"`
	AnalysisID int64  `json:"analysis_id"`
}

// handleChat answers a follow-up question about a stored analysis.
// The transcript lives in the store, so the conversation survives
// restarts.
func (s *Server) handleChat(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid analysis id"})
	}

	var req chatRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "message is required"})
	}

	reply, err := s.analyzer.Chat(c.Context(), id, req.Message)
	if err != nil {
		return s.respondError(c, err)
	}

	return c.JSON(chatResponse{Response: reply, AnalysisID: id})
}
