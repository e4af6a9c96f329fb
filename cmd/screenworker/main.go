// Command screenworker runs the bulk resume screening consumer pool.
// Configuration comes from the environment (a local .env file is
// loaded when present): DB_URL, RABBITMQ_URL, R2_ACCOUNT_ID,
// R2_BUCKET, R2_ACCESS_KEY, R2_SECRET_KEY, GOOGLE_API_KEY, and
// optionally SCREEN_WORKERS and DEBUG.
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/skillsetz/careercraft/pkg/logger"
	"github.com/skillsetz/careercraft/pkg/screen"
	"github.com/skillsetz/careercraft/pkg/screen/database"
)

const defaultWorkers = 3

func main() {
	_ = godotenv.Load()

	logger := logger.NewLogger(os.Getenv("DEBUG") != "")
	defer logger.Sync()

	dbURL := mustEnv(logger, "DB_URL")
	amqpURL := mustEnv(logger, "RABBITMQ_URL")
	r2 := screen.R2Config{
		AccountID: mustEnv(logger, "R2_ACCOUNT_ID"),
		Bucket:    mustEnv(logger, "R2_BUCKET"),
		AccessKey: mustEnv(logger, "R2_ACCESS_KEY"),
		SecretKey: mustEnv(logger, "R2_SECRET_KEY"),
	}
	apiKey := mustEnv(logger, "GOOGLE_API_KEY")

	workers := defaultWorkers
	if raw := os.Getenv("SCREEN_WORKERS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			logger.Fatal("invalid SCREEN_WORKERS", zap.String("value", raw))
		}
		workers = n
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Fatal("failed to open postgres", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		logger.Fatal("failed to build aws config", zap.Error(err))
	}

	agent, err := screen.NewAgent(ctx, apiKey)
	if err != nil {
		logger.Fatal("failed to create screening agent", zap.Error(err))
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		logger.Fatal("failed to connect to rabbitmq", zap.Error(err))
	}
	defer conn.Close()

	worker := screen.NewWorker(screen.WorkerConfig{
		DB:      database.New(db),
		Objects: screen.NewObjectStore(awsCfg, r2),
		Agent:   agent,
		AMQPURL: amqpURL,
		Updates: conn,
		Logger:  logger,
	})

	logger.Info("screening worker pool starting",
		zap.Int("workers", workers),
		zap.String("queue", screen.SessionQueue),
	)
	worker.Run(ctx, workers)
	logger.Info("screening worker pool stopped")
}

func mustEnv(logger *zap.Logger, key string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Fatal("missing required environment variable", zap.String("key", key))
	}
	return v
}
