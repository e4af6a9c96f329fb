// Command careercraftd serves the CareerCraft HTTP API: streaming job
// analysis, saved analyses and jobs, chat, and skill assessments.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skillsetz/careercraft/pkg/logger"
	"github.com/skillsetz/careercraft/server"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to TOML config file")
	listenAddr := flag.String("listen", "", "Address to listen on (overrides config)")
	dbPath := flag.String("db", "", "Path to SQLite database (overrides config; default: in-memory)")
	profilePath := flag.String("profile", "", "Path to candidate profile YAML (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	_ = godotenv.Load()

	config := server.DefaultConfig()
	var configErr error
	if *configPath != "" {
		config, configErr = server.LoadConfig(*configPath)
	}
	applyEnv(&config)
	if *listenAddr != "" {
		config.ListenAddr = *listenAddr
	}
	if *dbPath != "" {
		config.DBPath = *dbPath
	}
	if *profilePath != "" {
		config.ProfilePath = *profilePath
	}
	if *debug {
		config.Debug = true
	}

	// Set up logger
	logger := logger.NewLogger(config.Debug)
	defer logger.Sync()

	if configErr != nil {
		logger.Fatal("failed to load config", zap.Error(configErr))
	}

	logger.Info("careercraft server starting",
		zap.String("listen", config.ListenAddr),
		zap.String("db", config.DBPath),
		zap.String("profile", config.ProfilePath),
		zap.Bool("debug", config.Debug),
	)

	s, err := server.New(config, logger)
	if err != nil {
		logger.Fatal("failed to create server", zap.Error(err))
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run()
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return s.Shutdown()
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// applyEnv folds environment credentials over the file config so
// secrets can stay out of it.
func applyEnv(config *server.Config) {
	if v := os.Getenv("CAREERCRAFT_TOKEN"); v != "" {
		config.Token = v
	}
	if v := os.Getenv("CAREERCRAFT_PROVIDER"); v != "" {
		config.Provider.Name = v
	}
	if config.Provider.APIKey == "" {
		switch config.Provider.Name {
		case "openai":
			config.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		case "gemini":
			config.Provider.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
}
