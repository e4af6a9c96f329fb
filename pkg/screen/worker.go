package screen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/skillsetz/careercraft/pkg/analysis"
	"github.com/skillsetz/careercraft/pkg/resume"
	"github.com/skillsetz/careercraft/pkg/screen/database"
)

// Worker consumes screening sessions from the queue and writes scored
// results back to Postgres.
type Worker struct {
	db      *database.Queries
	objects *ObjectStore
	agent   *Agent
	amqpURL string
	updates *amqp.Connection
	logger  *zap.Logger
}

// WorkerConfig wires the worker's external services. Updates is a
// dedicated publisher connection, separate from the per-goroutine
// consumer connections.
type WorkerConfig struct {
	DB      *database.Queries
	Objects *ObjectStore
	Agent   *Agent
	AMQPURL string
	Updates *amqp.Connection
	Logger  *zap.Logger
}

func NewWorker(cfg WorkerConfig) *Worker {
	return &Worker{
		db:      cfg.DB,
		objects: cfg.Objects,
		agent:   cfg.Agent,
		amqpURL: cfg.AMQPURL,
		updates: cfg.Updates,
		logger:  cfg.Logger,
	}
}

// Run starts the consumer pool and blocks until the context is
// cancelled and in-flight sessions have drained. Deliveries are
// auto-acked, so an accepted session always runs to completion on a
// background context; cancellation only stops intake.
func (w *Worker) Run(ctx context.Context, workers int) {
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := range workers {
		id := i + 1
		go func() {
			defer wg.Done()
			if err := w.consume(ctx, id); err != nil {
				w.logger.Error("consumer stopped", zap.Int("worker", id), zap.Error(err))
			}
		}()
	}
	wg.Wait()
}

func (w *Worker) consume(ctx context.Context, id int) error {
	conn, err := amqp.Dial(w.amqpURL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(
		SessionQueue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	msgs, err := ch.Consume(
		SessionQueue,
		"",    // consumer tag
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	// Closing the connection is what ends the deliveries range below.
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stopped:
		}
	}()

	w.logger.Info("worker consuming", zap.Int("worker", id), zap.String("queue", SessionQueue))

	for msg := range msgs {
		w.handleDelivery(id, msg.Body)
	}

	if ctx.Err() != nil {
		return nil
	}
	return errors.New("delivery channel closed")
}

// handleDelivery processes one queue message end to end, moving the
// session through processing and into completed or failed.
func (w *Worker) handleDelivery(id int, body []byte) {
	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		w.logger.Error("undecodable session message", zap.Error(err))
		if sess.ID != uuid.Nil {
			w.setStatus(sess.ID, StatusFailed, "screening failed")
		}
		return
	}

	w.logger.Info("processing session",
		zap.Int("worker", id),
		zap.String("session_id", sess.ID.String()),
	)
	w.setStatus(sess.ID, StatusProcessing, "screening started")

	if err := w.screenSession(sess); err != nil {
		w.logger.Error("screening failed",
			zap.String("session_id", sess.ID.String()),
			zap.Error(err),
		)
		w.setStatus(sess.ID, StatusFailed, "screening failed")
		return
	}

	w.setStatus(sess.ID, StatusCompleted, "screening completed")
}

// screenSession scores every resume in the session and upserts the
// collected results. Per-resume failures become error entries; only
// batch-level failures fail the session.
func (w *Worker) screenSession(sess Session) error {
	ctx := context.Background()

	resumes, err := w.db.GetResumesBySession(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("load resumes for session %s: %w", sess.ID, err)
	}

	conv, err := w.agent.startConversation(ctx, sess.UserID.String(), sess.ID.String())
	if err != nil {
		return fmt.Errorf("start agent conversation: %w", err)
	}

	batch := &Results{SessionID: sess.ID}
	for _, r := range resumes {
		w.screenResume(ctx, conv, sess, r, batch)
	}

	if err := w.agent.endConversation(ctx, conv); err != nil {
		w.logger.Warn("agent conversation cleanup failed",
			zap.String("session_id", sess.ID.String()),
			zap.Error(err),
		)
	}

	payload, err := json.Marshal(batch.Results)
	if err != nil {
		return fmt.Errorf("marshal screening results: %w", err)
	}

	if _, err := retry(3, func() (any, error) {
		return nil, w.db.UpsertScreeningResults(ctx, database.UpsertScreeningResultsParams{
			Results:   payload,
			SessionID: sess.ID,
		})
	}); err != nil {
		return fmt.Errorf("save screening results: %w", err)
	}
	return nil
}

// screenResume downloads, extracts, and scores one resume, folding
// the outcome into batch.
func (w *Worker) screenResume(ctx context.Context, conv *conversation, sess Session, r Resume, batch *Results) {
	data, err := retry(3, func() ([]byte, error) {
		return w.objects.Download(ctx, r.ObjectKey)
	})
	if err != nil {
		w.logger.Warn("resume download failed", zap.String("object_key", r.ObjectKey), zap.Error(err))
		appendResult(batch, "", fmt.Sprintf("file download error: %v", err))
		return
	}

	text, err := resume.ExtractText(r.Mime, data)
	if err != nil {
		w.logger.Warn("resume text extraction failed", zap.String("object_key", r.ObjectKey), zap.Error(err))
		appendResult(batch, "", fmt.Sprintf("text extraction error: %v", err))
		return
	}

	msg := fmt.Sprintf(
		"Job Title:\n%s\n\nJob Description:\n%s\n\nResume:\n%s",
		sess.JobTitle,
		sess.JobDescription,
		text,
	)

	reply, err := retry(2, func() (string, error) {
		return w.agent.screen(ctx, conv, msg)
	})
	if err != nil {
		w.logger.Warn("agent screening failed", zap.String("object_key", r.ObjectKey), zap.Error(err))
		appendResult(batch, "", fmt.Sprintf("agent stream error: %v", err))
		return
	}

	appendResult(batch, reply, "")
}

// appendResult folds one agent reply into the batch. A non-empty
// failure string or an unusable reply becomes an error entry so one
// bad resume never sinks the whole session.
func appendResult(batch *Results, raw, failure string) {
	var r Result
	switch {
	case failure != "":
		r.IsErrorResult = true
		r.Error = failure

	case strings.TrimSpace(raw) == "":
		r.IsErrorResult = true
		r.Error = "empty response from agent"

	default:
		cleaned := analysis.StripFences(raw)
		if err := json.Unmarshal([]byte(cleaned), &r); err != nil {
			r.IsErrorResult = true
			r.Error = "json unmarshal error: " + err.Error()
		}
	}
	batch.Results = append(batch.Results, r)
}

// setStatus records the session state in Postgres and mirrors it onto
// the update exchange for connected clients.
func (w *Worker) setStatus(sessionID uuid.UUID, status, message string) {
	ctx := context.Background()

	if err := w.db.UpdateSessionStatus(ctx, database.UpdateSessionStatusParams{
		Status: status,
		ID:     sessionID,
	}); err != nil {
		w.logger.Warn("session status update failed",
			zap.String("session_id", sessionID.String()),
			zap.String("status", status),
			zap.Error(err),
		)
	}

	if err := w.publishUpdate(sessionID, status, message); err != nil {
		w.logger.Warn("session update publish failed",
			zap.String("session_id", sessionID.String()),
			zap.Error(err),
		)
	}
}

// publishUpdate emits one progress message on the session_updates
// topic exchange, routed by session ID. amqp channels are not safe
// for concurrent use, so each publish opens its own.
func (w *Worker) publishUpdate(sessionID uuid.UUID, status, message string) error {
	ch, err := w.updates.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(map[string]any{
		"session_id": sessionID,
		"status":     status,
		"message":    message,
		"timestamp":  time.Now(),
	})
	if err != nil {
		return err
	}

	return ch.Publish(
		UpdateExchange,
		fmt.Sprintf("session.%s", sessionID),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
