// Package workflow owns the task lifecycle. All status changes go through
// Transition so the pending / in_progress / waiting_response / completed
// state machine cannot be bypassed.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"advisorhub.app/assistant/common/id"
	"advisorhub.app/assistant/common/logger"
	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/store"
)

// ErrInvalidTransition is returned when a status change is not a legal edge
// of the task state machine.
var ErrInvalidTransition = fmt.Errorf("invalid task status transition")

var validTransitions = map[model.TaskStatus][]model.TaskStatus{
	model.TaskStatusPending:         {model.TaskStatusInProgress, model.TaskStatusWaitingResponse, model.TaskStatusCompleted},
	model.TaskStatusInProgress:      {model.TaskStatusWaitingResponse, model.TaskStatusCompleted},
	model.TaskStatusWaitingResponse: {model.TaskStatusInProgress, model.TaskStatusCompleted},
	model.TaskStatusCompleted:       {},
}

func canTransition(from, to model.TaskStatus) bool {
	if from == to {
		return true
	}
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Service struct {
	tasks store.TaskStore
}

func NewService(tasks store.TaskStore) *Service {
	return &Service{tasks: tasks}
}

// CreateParams describes a new task. Priority defaults to medium.
type CreateParams struct {
	Title        string
	Description  *string
	Priority     model.TaskPriority
	DueDate      *time.Time
	Metadata     model.Metadata
	ParentTaskID *int64
	StepOrder    *int
	Status       model.TaskStatus
}

func (s *Service) Create(ctx context.Context, userID int64, params CreateParams) (*model.Task, error) {
	if params.Title == "" {
		return nil, fmt.Errorf("task title is required")
	}

	priority := params.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}
	status := params.Status
	if status == "" {
		status = model.TaskStatusPending
	}

	task := &model.Task{
		ID:           id.New(),
		UserID:       userID,
		Title:        params.Title,
		Description:  params.Description,
		Status:       status,
		Priority:     priority,
		DueDate:      params.DueDate,
		Metadata:     params.Metadata,
		ParentTaskID: params.ParentTaskID,
		StepOrder:    params.StepOrder,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	slog.InfoContext(logger.WithLogFields(ctx, logger.LogFields{TaskID: logger.Ptr(task.ID)}),
		"task created", "title", logger.Truncate(task.Title, 80), "status", task.Status)
	return task, nil
}

func (s *Service) Get(ctx context.Context, userID, taskID int64) (*model.Task, error) {
	return s.tasks.GetByID(ctx, userID, taskID)
}

func (s *Service) GetWithSteps(ctx context.Context, userID, taskID int64) (*model.Task, error) {
	return s.tasks.GetWithSteps(ctx, userID, taskID)
}

func (s *Service) List(ctx context.Context, userID int64, status *model.TaskStatus, limit int) ([]model.Task, error) {
	return s.tasks.List(ctx, userID, store.TaskFilter{Status: status, Limit: limit})
}

// ListActive returns open tasks, newest first.
func (s *Service) ListActive(ctx context.Context, userID int64, limit int) ([]model.Task, error) {
	pending, err := s.tasks.List(ctx, userID, store.TaskFilter{Status: statusPtr(model.TaskStatusPending), Limit: limit})
	if err != nil {
		return nil, err
	}
	inProgress, err := s.tasks.List(ctx, userID, store.TaskFilter{Status: statusPtr(model.TaskStatusInProgress), Limit: limit})
	if err != nil {
		return nil, err
	}
	active := append(inProgress, pending...)
	if limit > 0 && len(active) > limit {
		active = active[:limit]
	}
	return active, nil
}

func (s *Service) ListOverdue(ctx context.Context, userID int64) ([]model.Task, error) {
	return s.tasks.ListOverdue(ctx, userID, time.Now())
}

func (s *Service) ListWaiting(ctx context.Context, userID int64) ([]model.Task, error) {
	return s.tasks.List(ctx, userID, store.TaskFilter{Status: statusPtr(model.TaskStatusWaitingResponse)})
}

func (s *Service) Delete(ctx context.Context, userID, taskID int64) error {
	return s.tasks.Delete(ctx, userID, taskID)
}

// Transition moves a task to a new status, enforcing the state machine.
// Completion stamps CompletedAt.
func (s *Service) Transition(ctx context.Context, userID, taskID int64, to model.TaskStatus) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, task, to)
}

func (s *Service) transition(ctx context.Context, task *model.Task, to model.TaskStatus) (*model.Task, error) {
	if !canTransition(task.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, task.Status, to)
	}
	if task.Status == to {
		return task, nil
	}

	task.Status = to
	if to == model.TaskStatusCompleted {
		now := time.Now()
		task.CompletedAt = &now
	}
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	return task, nil
}

// Complete marks a task completed.
func (s *Service) Complete(ctx context.Context, userID, taskID int64) (*model.Task, error) {
	return s.Transition(ctx, userID, taskID, model.TaskStatusCompleted)
}

// UpdateMetadata merges extra keys into a task's metadata. Existing keys not
// present in extra are preserved.
func (s *Service) UpdateMetadata(ctx context.Context, userID, taskID int64, extra model.Metadata) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	task.Metadata = mergeMetadata(task.Metadata, extra)
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task metadata: %w", err)
	}
	return task, nil
}

func (s *Service) Stats(ctx context.Context, userID int64) (*model.TaskStats, error) {
	counts, err := s.tasks.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	overdue, err := s.tasks.CountOverdue(ctx, userID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("count overdue tasks: %w", err)
	}

	stats := &model.TaskStats{
		Pending:    counts[model.TaskStatusPending],
		InProgress: counts[model.TaskStatusInProgress],
		Waiting:    counts[model.TaskStatusWaitingResponse],
		Completed:  counts[model.TaskStatusCompleted],
		Overdue:    overdue,
	}
	stats.Total = stats.Pending + stats.InProgress + stats.Waiting + stats.Completed
	if stats.Total > 0 {
		stats.CompletionRate = float64(stats.Completed) / float64(stats.Total) * 100
	}
	return stats, nil
}

func statusPtr(s model.TaskStatus) *model.TaskStatus {
	return &s
}

func mergeMetadata(base, extra model.Metadata) model.Metadata {
	if base == nil && extra == nil {
		return nil
	}
	merged := make(model.Metadata, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
