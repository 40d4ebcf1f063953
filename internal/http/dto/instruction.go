package dto

import (
	"time"

	"advisorhub.app/assistant/internal/model"
)

type CreateInstructionRequest struct {
	Instruction string `json:"instruction" binding:"required,min=1,max=2048"`
}

type UpdateInstructionRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type InstructionResponse struct {
	ID          int64     `json:"id,string"`
	Instruction string    `json:"instruction"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func ToInstructionResponse(ins *model.OngoingInstruction) *InstructionResponse {
	return &InstructionResponse{
		ID:          ins.ID,
		Instruction: ins.Instruction,
		IsActive:    ins.IsActive,
		CreatedAt:   ins.CreatedAt,
		UpdatedAt:   ins.UpdatedAt,
	}
}

func ToInstructionResponses(instructions []model.OngoingInstruction) []InstructionResponse {
	out := make([]InstructionResponse, 0, len(instructions))
	for i := range instructions {
		out = append(out, *ToInstructionResponse(&instructions[i]))
	}
	return out
}
