package dto

import "advisorhub.app/assistant/internal/assistant"

type ChatRequest struct {
	UserID         int64   `json:"user_id,string" binding:"required"`
	ConversationID *int64  `json:"conversation_id,string,omitempty"`
	Message        string  `json:"message" binding:"required,min=1,max=8192"`
	Scope          *string `json:"scope,omitempty" binding:"omitempty,oneof=all emails calendar contacts"`
}

type ChatToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ChatResponse struct {
	ConversationID int64          `json:"conversation_id,string"`
	Reply          string         `json:"reply"`
	ToolCalls      []ChatToolCall `json:"tool_calls,omitempty"`
}

func ToChatResponse(result *assistant.TurnResult) *ChatResponse {
	resp := &ChatResponse{
		ConversationID: result.ConversationID,
		Reply:          result.Content,
	}
	for _, call := range result.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ChatToolCall{ID: call.ID, Name: call.Name})
	}
	return resp
}
