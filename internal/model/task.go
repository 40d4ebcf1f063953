package model

import "time"

type TaskStatus string

const (
	TaskStatusPending         TaskStatus = "pending"
	TaskStatusInProgress      TaskStatus = "in_progress"
	TaskStatusWaitingResponse TaskStatus = "waiting_response"
	TaskStatusCompleted       TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Metadata type markers for multi-step workflows.
const (
	TaskTypeMultiStepParent = "multi_step_parent"
	TaskTypeMultiStepChild  = "multi_step_child"
)

// Metadata is a free-form JSON object attached to a task. Workflow steps use
// it to carry the step type, total step count, and accumulated context such
// as an appointment response.
type Metadata map[string]any

type Task struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user_id"`
	Title        string       `json:"title"`
	Description  *string      `json:"description,omitempty"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	DueDate      *time.Time   `json:"due_date,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	Metadata     Metadata     `json:"metadata,omitempty"`
	ParentTaskID *int64       `json:"parent_task_id,omitempty"`
	StepOrder    *int         `json:"step_order,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`

	// Steps is populated only by GetWithSteps, ordered by StepOrder.
	Steps []Task `json:"steps,omitempty"`
}

// IsMultiStepParent reports whether the task anchors a multi-step workflow.
func (t Task) IsMultiStepParent() bool {
	typ, _ := t.Metadata["type"].(string)
	return typ == TaskTypeMultiStepParent
}

// TaskStats summarizes a user's tasks.
type TaskStats struct {
	Total          int     `json:"total"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"in_progress"`
	Waiting        int     `json:"waiting_response"`
	Completed      int     `json:"completed"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completion_rate"`
}
