package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"advisorhub.app/assistant/internal/assistant"
	"advisorhub.app/assistant/internal/http/dto"
)

// ChatService runs one conversational turn. Implemented by the orchestrator.
type ChatService interface {
	ProcessTurn(ctx context.Context, userID, conversationID int64, content, scope string) (*assistant.TurnResult, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid chat request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var conversationID int64
	if req.ConversationID != nil {
		conversationID = *req.ConversationID
	}
	scope := assistant.ScopeAll
	if req.Scope != nil {
		scope = *req.Scope
	}

	result, err := h.chat.ProcessTurn(ctx, req.UserID, conversationID, req.Message, scope)
	if err != nil {
		// The user always gets the fixed apology, never the raw error.
		slog.ErrorContext(ctx, "chat turn failed", "error", err, "user_id", req.UserID)
		c.JSON(http.StatusOK, dto.ChatResponse{
			ConversationID: conversationID,
			Reply:          assistant.Apology(),
		})
		return
	}

	c.JSON(http.StatusOK, dto.ToChatResponse(result))
}
