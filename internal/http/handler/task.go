package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"advisorhub.app/assistant/internal/http/dto"
	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/store"
)

// TaskService is the read/delete surface over the workflow service. Task
// mutation happens only through assistant tools.
type TaskService interface {
	List(ctx context.Context, userID int64, status *model.TaskStatus, limit int) ([]model.Task, error)
	GetWithSteps(ctx context.Context, userID, taskID int64) (*model.Task, error)
	Delete(ctx context.Context, userID, taskID int64) error
	Stats(ctx context.Context, userID int64) (*model.TaskStats, error)
}

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

func (h *TaskHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	uid, err := userID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var status *model.TaskStatus
	if raw := c.Query("status"); raw != "" {
		s := model.TaskStatus(raw)
		switch s {
		case model.TaskStatusPending, model.TaskStatusInProgress,
			model.TaskStatusWaitingResponse, model.TaskStatusCompleted:
			status = &s
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
	}

	tasks, err := h.tasks.List(ctx, uid, status, limitQuery(c, 50))
	if err != nil {
		slog.ErrorContext(ctx, "failed to list tasks", "error", err, "user_id", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToTaskResponses(tasks)})
}

func (h *TaskHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	uid, err := userID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	taskID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.tasks.GetWithSteps(ctx, uid, taskID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get task", "error", err, "task_id", taskID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get task"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	uid, err := userID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	taskID, err := pathID(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tasks.Delete(ctx, uid, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to delete task", "error", err, "task_id", taskID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	uid, err := userID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stats, err := h.tasks.Stats(ctx, uid)
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute task stats", "error", err, "user_id", uid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute task stats"})
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskStatsResponse(stats))
}
