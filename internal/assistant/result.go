package assistant

import "encoding/json"

// NeedsInput asks the user for missing details instead of acting on a
// half-specified request.
type NeedsInput struct {
	Missing []string `json:"missing"`
	Message string   `json:"message"`
}

// Result is a tool handler's outcome. Formatted carries a ready-to-show
// response; Message a short status line. Data holds structured payloads
// (emails, contacts, events) for API consumers.
type Result struct {
	Success      bool           `json:"success,omitempty"`
	Count        int            `json:"count,omitempty"`
	Message      string         `json:"message,omitempty"`
	Formatted    string         `json:"formattedResponse,omitempty"`
	Error        string         `json:"error,omitempty"`
	NeedsInput   *NeedsInput    `json:"needsInput,omitempty"`
	DeletedCount int            `json:"deletedCount,omitempty"`
	Errors       []string       `json:"errors,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// Summary returns the user-facing text for this result: the formatted
// response, then the status message, then the raw JSON as a last resort.
func (r *Result) Summary() string {
	if r == nil {
		return ""
	}
	if r.Formatted != "" {
		return r.Formatted
	}
	if r.Message != "" {
		return r.Message
	}
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(data)
}

// ExecutedCall pairs a tool call with its outcome. Err is set only when the
// handler itself failed (bad arguments, store error); tool-level refusals
// come back as a Result with Error set.
type ExecutedCall struct {
	Name   string
	CallID string
	Result *Result
	Err    error
}
