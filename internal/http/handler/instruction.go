package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"advisorhub.app/assistant/common/id"
	"advisorhub.app/assistant/internal/http/dto"
	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/store"
)

type InstructionHandler struct {
	instructions store.InstructionStore
}

func NewInstructionHandler(instructions store.InstructionStore) *InstructionHandler {
	return &InstructionHandler{instructions: instructions}
}

func (h *InstructionHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	uid, err := userID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	instructions, err := h.instructions.List(ctx, uid)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list instructions", "error", err, "user_id", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list instructions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"instructions": dto.ToInstructionResponses(instructions)})
}

func (h *InstructionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	uid, err := userID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req dto.CreateInstructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid instruction request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ins := &model.OngoingInstruction{
		ID:          id.New(),
		UserID:      uid,
		Instruction: req.Instruction,
		IsActive:    true,
	}
	if err := h.instructions.Create(ctx, ins); err != nil {
		slog.ErrorContext(ctx, "failed to create instruction", "error", err, "user_id", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create instruction"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToInstructionResponse(ins))
}

func (h *InstructionHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	uid, err := userID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	insID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req dto.UpdateInstructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.instructions.SetActive(ctx, uid, insID, *req.IsActive); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "instruction not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to update instruction", "error", err, "instruction_id", insID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update instruction"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *InstructionHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	uid, err := userID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	insID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.instructions.Delete(ctx, uid, insID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "instruction not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to delete instruction", "error", err, "instruction_id", insID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete instruction"})
		return
	}

	c.Status(http.StatusNoContent)
}
