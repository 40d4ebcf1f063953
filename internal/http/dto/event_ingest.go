package dto

import "encoding/json"

type IngestEventRequest struct {
	UserID  int64           `json:"user_id,string" binding:"required"`
	Source  string          `json:"source" binding:"required,oneof=gmail calendar hubspot"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

type IngestEventResponse struct {
	Enqueued bool `json:"enqueued"`
}
