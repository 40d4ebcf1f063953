package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Fields flow through context enrichment so business context
// (user_id, conversation_id, tool_name) appears on every log statement without
// touching each call site.
type LogFields struct {
	UserID         *int64
	ConversationID *string
	TaskID         *int64
	MessageID      *string // Redis stream message ID
	ToolName       *string
	EventSource    *string // provider event source ("gmail", "calendar", "hubspot")
	Component      string  // e.g. "assistant.orchestrator"
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking
// precedence. Context timeouts and cancellation are preserved.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.UserID != nil {
		result.UserID = next.UserID
	}
	if next.ConversationID != nil {
		result.ConversationID = next.ConversationID
	}
	if next.TaskID != nil {
		result.TaskID = next.TaskID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.ToolName != nil {
		result.ToolName = next.ToolName
	}
	if next.EventSource != nil {
		result.EventSource = next.EventSource
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{UserID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}

// Truncate truncates a string to maxLen characters, appending "..." if truncated.
// Useful for logging potentially long strings like queries or model output.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
