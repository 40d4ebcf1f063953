package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"advisorhub.app/assistant/internal/http/dto"
	"advisorhub.app/assistant/internal/store"
)

type ConversationHandler struct {
	conversations store.ConversationStore
	messages      store.MessageStore
}

func NewConversationHandler(conversations store.ConversationStore, messages store.MessageStore) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, messages: messages}
}

func (h *ConversationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	uid, err := userID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	convs, err := h.conversations.ListByUser(ctx, uid, limitQuery(c, 20))
	if err != nil {
		slog.ErrorContext(ctx, "failed to list conversations", "error", err, "user_id", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": dto.ToConversationResponses(convs)})
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	ctx := c.Request.Context()

	uid, err := userID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	convID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.conversations.GetByID(ctx, convID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load conversation", "error", err, "conversation_id", convID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversation"})
		return
	}
	if conv.UserID != uid {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	messages, err := h.messages.ListRecent(ctx, convID, limitQuery(c, 50))
	if err != nil {
		slog.ErrorContext(ctx, "failed to list messages", "error", err, "conversation_id", convID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": dto.ToMessageResponses(messages)})
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	uid, err := userID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	convID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.conversations.GetByID(ctx, convID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to load conversation", "error", err, "conversation_id", convID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete conversation"})
		return
	}
	if conv.UserID != uid {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}

	if err := h.conversations.Delete(ctx, convID); err != nil {
		slog.ErrorContext(ctx, "failed to delete conversation", "error", err, "conversation_id", convID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete conversation"})
		return
	}

	c.Status(http.StatusNoContent)
}
