package model

import "time"

// OngoingInstruction is a standing rule the assistant applies to incoming
// provider events ("when someone emails me about scheduling, create a task").
type OngoingInstruction struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Instruction string    `json:"instruction"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
