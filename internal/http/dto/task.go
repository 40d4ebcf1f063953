package dto

import (
	"time"

	"advisorhub.app/assistant/internal/model"
)

type TaskResponse struct {
	ID           int64          `json:"id,string"`
	Title        string         `json:"title"`
	Description  *string        `json:"description,omitempty"`
	Status       string         `json:"status"`
	Priority     string         `json:"priority"`
	DueDate      *time.Time     `json:"due_date,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Metadata     model.Metadata `json:"metadata,omitempty"`
	ParentTaskID *int64         `json:"parent_task_id,string,omitempty"`
	StepOrder    *int           `json:"step_order,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	Steps        []TaskResponse `json:"steps,omitempty"`
}

func ToTaskResponse(t *model.Task) *TaskResponse {
	resp := &TaskResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		DueDate:      t.DueDate,
		CompletedAt:  t.CompletedAt,
		Metadata:     t.Metadata,
		ParentTaskID: t.ParentTaskID,
		StepOrder:    t.StepOrder,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	for i := range t.Steps {
		resp.Steps = append(resp.Steps, *ToTaskResponse(&t.Steps[i]))
	}
	return resp
}

func ToTaskResponses(tasks []model.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, *ToTaskResponse(&tasks[i]))
	}
	return out
}

type TaskStatsResponse struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"in_progress"`
	Waiting        int     `json:"waiting_response"`
	Completed      int     `json:"completed"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
}

func ToTaskStatsResponse(s *model.TaskStats) *TaskStatsResponse {
	return &TaskStatsResponse{
		Total:          s.Total,
		Pending:        s.Pending,
		InProgress:     s.InProgress,
		Waiting:        s.Waiting,
		Completed:      s.Completed,
		Overdue:        s.Overdue,
		CompletionRate: s.CompletionRate,
	}
}
