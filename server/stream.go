package server

import (
	"bufio"
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/skillsetz/careercraft/pkg/stream"
)

// handleStreamAnalyze runs the full analysis pipeline and streams its
// progress as data-framed JSON events.
func (s *Server) handleStreamAnalyze(c *fiber.Ctx) error {
	var req stream.Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}
	if req.JobDescription == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "job_description is required"})
	}

	s.logger.Debug("received analysis request",
		zap.Int("description_length", len(req.JobDescription)),
		zap.Bool("save_job", req.SaveJob),
	)

	// Set up streaming response headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Transfer-Encoding", "chunked")

	// Use Fiber's streaming response with proper bufio.Writer signature
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The request context is recycled once this handler returns,
		// so the pipeline runs on its own context. A disconnected
		// client surfaces as a flush error, which aborts the run.
		emit := func(ev stream.Event) error {
			record, err := ev.Encode()
			if err != nil {
				return err
			}
			if _, err := w.Write(record); err != nil {
				return err
			}
			return w.Flush()
		}
		if err := s.analyzer.StreamAnalyze(context.Background(), req, emit); err != nil {
			s.logger.Warn("analysis stream ended with error", zap.Error(err))
		}
	}))

	return nil
}
