// Package worker consumes provider events from the Redis stream and feeds
// them to the assistant. Failed events are retried with an attempt budget
// and parked on the dead letter stream when exhausted.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"advisorhub.app/assistant/common/logger"
	"advisorhub.app/assistant/internal/assistant"
	"advisorhub.app/assistant/internal/queue"
)

// EventProcessor reacts to one provider event. Implemented by the
// assistant orchestrator.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, userID int64, source string, payload map[string]any) error
}

type Config struct {
	MaxAttempts int
}

type Worker struct {
	consumer  *queue.RedisConsumer
	processor EventProcessor
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer *queue.RedisConsumer, processor EventProcessor, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Worker{
		consumer:  consumer,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		w.HandleMessage(ctx, msg)
	}

	return nil
}

// HandleMessage processes one message end to end: run it, then ack on
// success or requeue/DLQ on failure. Shared with the reclaimer.
func (w *Worker) HandleMessage(ctx context.Context, msg queue.Message) {
	if err := w.processMessageSafe(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "message processing failed",
			"error", err,
			"message_id", msg.ID,
			"user_id", msg.UserID,
			"source", msg.Source)
		w.handleFailedMessage(ctx, msg, err)
		return
	}
	if err := w.consumer.Ack(ctx, msg); err != nil {
		// Message will be reclaimed and reprocessed; ProcessEvent is safe
		// to repeat because instruction handling is additive.
		slog.WarnContext(ctx, "failed to ACK message",
			"error", err,
			"message_id", msg.ID)
	}
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"user_id", msg.UserID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage handles one provider event. Exported so it can be reused
// by the reclaimer.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	span := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_event")
	defer span.End()
	ctx = logger.WithLogFields(span.Context(), logger.LogFields{
		UserID:      logger.Ptr(msg.UserID),
		MessageID:   &msg.ID,
		EventSource: &msg.Source,
	})

	slog.InfoContext(ctx, "processing provider event", "attempt", msg.Attempt)

	var payload map[string]any
	if msg.Payload != "" {
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			// A malformed payload never gets better on retry.
			return assistant.NewFatalError(fmt.Errorf("decode event payload: %w", err))
		}
	}

	start := time.Now()
	if err := w.processor.ProcessEvent(ctx, msg.UserID, msg.Source, payload); err != nil {
		span.RecordError(err)
		return err
	}

	slog.InfoContext(ctx, "provider event processed",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	var turnErr *assistant.TurnError
	retryable := true
	if errors.As(err, &turnErr) {
		retryable = turnErr.Retryable
	}

	if !retryable || msg.Attempt >= w.cfg.MaxAttempts {
		slog.ErrorContext(ctx, "sending event to DLQ",
			"message_id", msg.ID,
			"user_id", msg.UserID,
			"attempts", msg.Attempt,
			"retryable", retryable)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed event",
		"message_id", msg.ID,
		"user_id", msg.UserID,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
