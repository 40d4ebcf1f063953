package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
)

// Provider constants for client selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Config holds chat client configuration.
type Config struct {
	Provider string // "openai" or "anthropic"
	APIKey   string
	BaseURL  string // Optional: custom API endpoint
	Model    string // Model name (e.g. "gpt-4o", "claude-sonnet-4-5")
}

// Client supports tool-calling chat completions.
type Client interface {
	ChatWithTools(ctx context.Context, req ChatRequest) (*ChatResponse, error)
	Model() string
}

// ChatRequest contains the messages and tools for one completion.
// An empty Tools slice produces a plain completion with no tool access.
type ChatRequest struct {
	Messages    []Message
	Tools       []Tool
	MaxTokens   int
	Temperature *float64
}

// Message is one conversation message.
type Message struct {
	Role       string
	Content    string
	ToolCalls  []ToolCall // assistant messages that request tool calls
	ToolCallID string     // tool result messages (references the call)
}

// Tool describes a function the model may call.
type Tool struct {
	Name        string
	Description string
	Parameters  any // JSON Schema for the arguments
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON-encoded arguments, passed through verbatim
}

// ChatResponse is the model's reply.
type ChatResponse struct {
	Content          string
	ToolCalls        []ToolCall
	FinishReason     string // "stop", "tool_calls", "length"
	PromptTokens     int
	CompletionTokens int
}

// NewClient selects a provider client from cfg. Defaults to OpenAI when no
// provider is configured.
func NewClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	switch provider {
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	case ProviderAnthropic:
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

// ParseToolArguments unmarshals a tool call's argument payload.
func ParseToolArguments[T any](arguments string) (T, error) {
	var result T
	if err := json.Unmarshal([]byte(arguments), &result); err != nil {
		return result, fmt.Errorf("parse tool arguments: %w", err)
	}
	return result, nil
}

// GenerateSchema builds a JSON schema for T, suitable for Tool.Parameters.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// IsRetryable reports whether a completion error is worth retrying.
// Rate limits and server errors are transient; auth and bad-request
// failures are not, and neither is the caller's own cancellation.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}
