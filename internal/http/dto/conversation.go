package dto

import (
	"time"

	"advisorhub.app/assistant/internal/model"
)

type ConversationResponse struct {
	ID        int64     `json:"id,string"`
	Title     *string   `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ToConversationResponses(convs []model.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, ConversationResponse{
			ID:        c.ID,
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return out
}

type MessageToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type MessageResponse struct {
	ID        int64             `json:"id,string"`
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	ToolCalls []MessageToolCall `json:"tool_calls,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

func ToMessageResponses(messages []model.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		resp := MessageResponse{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
		for _, call := range m.ToolCalls {
			resp.ToolCalls = append(resp.ToolCalls, MessageToolCall{ID: call.ID, Name: call.Name})
		}
		out = append(out, resp)
	}
	return out
}
