package workflow

import (
	"context"
	"fmt"
	"time"

	"advisorhub.app/assistant/internal/model"
)

// MultiStepParams describes a workflow: one parent task plus ordered steps.
type MultiStepParams struct {
	Title       string
	Description *string
	Priority    model.TaskPriority
	Metadata    model.Metadata
	Steps       []StepParams
}

type StepParams struct {
	Title       string
	Description *string
	Metadata    model.Metadata
}

// MultiStepResult is the created workflow.
type MultiStepResult struct {
	Parent *model.Task
	Steps  []model.Task
}

// AdvanceResult reports what AdvanceToNextStep did. NextStep is nil when the
// workflow finished.
type AdvanceResult struct {
	NextStep *model.Task
	Message  string
}

// CreateMultiStep creates a parent task and its ordered child steps. The
// parent's metadata records the workflow type and total step count; every
// child carries the child marker plus its own step metadata. All tasks start
// pending.
func (s *Service) CreateMultiStep(ctx context.Context, userID int64, params MultiStepParams) (*MultiStepResult, error) {
	if len(params.Steps) == 0 {
		return nil, fmt.Errorf("multi-step task requires at least one step")
	}

	parentMeta := mergeMetadata(params.Metadata, model.Metadata{
		"type":       model.TaskTypeMultiStepParent,
		"totalSteps": len(params.Steps),
	})
	parent, err := s.Create(ctx, userID, CreateParams{
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		Metadata:    parentMeta,
	})
	if err != nil {
		return nil, err
	}

	result := &MultiStepResult{Parent: parent}
	for i, step := range params.Steps {
		order := i + 1
		child, err := s.Create(ctx, userID, CreateParams{
			Title:        step.Title,
			Description:  step.Description,
			Priority:     params.Priority,
			ParentTaskID: &parent.ID,
			StepOrder:    &order,
			Metadata:     mergeMetadata(step.Metadata, model.Metadata{"type": model.TaskTypeMultiStepChild}),
		})
		if err != nil {
			return nil, fmt.Errorf("create step %d: %w", order, err)
		}
		result.Steps = append(result.Steps, *child)
	}

	return result, nil
}

// AdvanceToNextStep completes the given step and promotes the next pending
// step (by step order) to in_progress. When no step remains, the parent is
// completed as well.
func (s *Service) AdvanceToNextStep(ctx context.Context, userID, stepID int64) (*AdvanceResult, error) {
	step, err := s.tasks.GetByID(ctx, userID, stepID)
	if err != nil {
		return nil, err
	}
	if step.ParentTaskID == nil {
		return nil, fmt.Errorf("task %d is not part of a multi-step workflow", stepID)
	}

	if _, err := s.transition(ctx, step, model.TaskStatusCompleted); err != nil {
		return nil, err
	}

	parent, err := s.tasks.GetWithSteps(ctx, userID, *step.ParentTaskID)
	if err != nil {
		return nil, fmt.Errorf("load parent task: %w", err)
	}

	var currentOrder int
	if step.StepOrder != nil {
		currentOrder = *step.StepOrder
	}
	for i := range parent.Steps {
		next := &parent.Steps[i]
		if next.StepOrder != nil && *next.StepOrder == currentOrder+1 && next.Status == model.TaskStatusPending {
			promoted, err := s.transition(ctx, next, model.TaskStatusInProgress)
			if err != nil {
				return nil, err
			}
			if parent.Status == model.TaskStatusPending {
				if _, err := s.transition(ctx, parent, model.TaskStatusInProgress); err != nil {
					return nil, err
				}
			}
			return &AdvanceResult{
				NextStep: promoted,
				Message:  fmt.Sprintf("Advanced to step %d: %s", *promoted.StepOrder, promoted.Title),
			}, nil
		}
	}

	if _, err := s.transition(ctx, parent, model.TaskStatusCompleted); err != nil {
		return nil, err
	}
	return &AdvanceResult{Message: "All steps completed! Multi-step task is now complete."}, nil
}

// ResumeWaitingTask moves a waiting_response task back to in_progress,
// recording the response in its metadata without discarding existing keys.
func (s *Service) ResumeWaitingTask(ctx context.Context, userID, taskID int64, response model.Metadata) (*model.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != model.TaskStatusWaitingResponse {
		return nil, fmt.Errorf("task %d is not waiting for a response (status %s)", taskID, task.Status)
	}

	task.Metadata = mergeMetadata(task.Metadata, model.Metadata{
		"responseReceived":  true,
		"responseData":      map[string]any(response),
		"responseTimestamp": time.Now().Format(time.RFC3339),
	})
	task.Status = model.TaskStatusInProgress
	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("resume task: %w", err)
	}
	return task, nil
}
