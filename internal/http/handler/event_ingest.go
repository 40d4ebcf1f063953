package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"advisorhub.app/assistant/internal/http/dto"
	"advisorhub.app/assistant/internal/queue"
)

type EventIngestHandler struct {
	producer    queue.Producer
	traceHeader string
}

func NewEventIngestHandler(producer queue.Producer, traceHeader string) *EventIngestHandler {
	return &EventIngestHandler{
		producer:    producer,
		traceHeader: traceHeader,
	}
}

// Ingest accepts a provider notification (gmail, calendar, hubspot) and
// enqueues it for the event worker. Signature verification is handled by the
// sync layer in front of this endpoint.
func (h *EventIngestHandler) Ingest(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.IngestEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid ingest request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	traceID := c.GetHeader(h.traceHeader)
	if traceID == "" {
		if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
			traceID = spanCtx.TraceID().String()
		}
	}
	msg := queue.EventMessage{
		UserID:  req.UserID,
		Source:  req.Source,
		Payload: string(req.Payload),
	}
	if traceID != "" {
		msg.TraceID = &traceID
	}

	if err := h.producer.Enqueue(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue event", "error", err,
			"user_id", req.UserID, "source", req.Source)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue event"})
		return
	}

	c.JSON(http.StatusAccepted, dto.IngestEventResponse{Enqueued: true})
}
