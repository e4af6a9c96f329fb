// Package server provides the careercraft HTTP API: the streaming
// analysis endpoint, job and analysis CRUD with follow-up chat, and
// the skill assessment surface. Routes, auth, and error shapes follow
// the JSON-over-fiber conventions of the rest of the system.
package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/skillsetz/careercraft/pkg/analyzer"
	"github.com/skillsetz/careercraft/pkg/assessment"
	"github.com/skillsetz/careercraft/pkg/profile"
	"github.com/skillsetz/careercraft/pkg/provider"
	"github.com/skillsetz/careercraft/pkg/storage"
)

// Server is the careercraft API server. It owns the store, the
// analysis pipeline, and the assessment engine, and serves them over
// one fiber app.
type Server struct {
	config   Config
	store    storage.Store
	analyzer *analyzer.Analyzer
	engine   *assessment.Engine
	watcher  *profile.Watcher
	logger   *zap.Logger
	app      *fiber.App
}

// New creates a Server from its configuration.
func New(config Config, logger *zap.Logger) (*Server, error) {
	var (
		store storage.Store
		err   error
	)
	if config.DBPath != "" {
		store, err = storage.NewSQLiteStore(config.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		logger.Info("using SQLite storage", zap.String("path", config.DBPath))
	} else {
		store = storage.NewMemoryStore()
		logger.Info("using in-memory storage")
	}

	prov, err := provider.New(context.Background(), provider.Config{
		Provider: config.Provider.Name,
		Model:    config.Provider.Model,
		APIKey:   config.Provider.APIKey,
		BaseURL:  config.Provider.BaseURL,
	}, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create provider: %w", err)
	}
	logger.Info("using provider",
		zap.String("provider", prov.Name()),
		zap.String("model", prov.Model()),
	)

	var profiles analyzer.ProfileSource = analyzer.StaticProfile{}
	var watcher *profile.Watcher
	if config.ProfilePath != "" {
		watcher, err = profile.Watch(config.ProfilePath, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("load profile: %w", err)
		}
		profiles = watcher
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Enable streaming
		StreamRequestBody: true,
	})

	s := &Server{
		config:   config,
		store:    store,
		analyzer: analyzer.New(prov, store, profiles, logger),
		engine:   assessment.NewEngine(store, logger),
		watcher:  watcher,
		logger:   logger,
		app:      app,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Use(s.logRequest)

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	api := s.app.Group("/api", s.requireToken)

	// Analysis routes register before jobs so "analyses" never binds
	// to a :id parameter.
	api.Post("/jobs/analyses/stream_analyze_dream_job/", s.handleStreamAnalyze)
	api.Get("/jobs/analyses/", s.handleListAnalyses)
	api.Get("/jobs/analyses/:id/", s.handleGetAnalysis)
	api.Delete("/jobs/analyses/:id/", s.handleDeleteAnalysis)
	api.Post("/jobs/analyses/:id/chat/", s.handleChat)

	api.Get("/jobs/", s.handleListJobs)
	api.Get("/jobs/:id/", s.handleGetJob)
	api.Delete("/jobs/:id/", s.handleDeleteJob)
	api.Get("/jobs/:id/similar/", s.handleSimilarJobs)

	api.Post("/profiles/assessments/start/", s.handleStartAssessment)
	api.Post("/profiles/assessments/:id/submit/", s.handleSubmitAssessment)
	api.Get("/profiles/assessments/", s.handleListAssessments)
	api.Get("/profiles/assessments/progress/", s.handleAssessmentProgress)
	api.Get("/profiles/proficiencies/", s.handleListProficiencies)
	api.Get("/profiles/certificates/", s.handleListCertificates)
	api.Get("/profiles/certificates/:id/verify/", s.handleVerifyCertificate)
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown stops the listener, letting in-flight requests finish.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Close releases the server's resources.
func (s *Server) Close() error {
	if s.watcher != nil {
		s.watcher.Close()
	}
	return s.store.Close()
}

// requireToken enforces bearer auth on /api routes when a token is
// configured.
func (s *Server) requireToken(c *fiber.Ctx) error {
	if s.config.Token == "" {
		return c.Next()
	}
	if c.Get(fiber.HeaderAuthorization) != "Bearer "+s.config.Token {
		return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Error: "unauthorized"})
	}
	return c.Next()
}

func (s *Server) logRequest(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Info("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("duration", time.Since(start)),
	)
	return err
}

type errorResponse struct {
	Error string `json:"error"`
}

func paramID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

// respondError maps storage misses to 404 and everything else to an
// opaque 500, logging the detail server-side.
func (s *Server) respondError(c *fiber.Ctx, err error) error {
	var missing storage.ErrNotFound
	if errors.As(err, &missing) {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: missing.Error()})
	}

	s.logger.Error("request failed",
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal error"})
}
