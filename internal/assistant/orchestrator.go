// Package assistant is the conversational core: it assembles the system
// prompt and history for a turn, runs the model with the tool catalog,
// executes requested tool calls and produces the final reply.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"advisorhub.app/assistant/common/id"
	"advisorhub.app/assistant/common/llm"
	"advisorhub.app/assistant/common/logger"
	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/store"
)

const (
	// historyWindow bounds how much conversation history is replayed.
	historyWindow = 20

	// turnTimeout caps one full turn, tool execution included.
	turnTimeout = 30 * time.Second

	apologyMessage  = "I apologize, but I encountered an error while processing your request. Please try again."
	fallbackMessage = "I apologize, but I was unable to generate a response."
)

var defaultTemperature = 0.7

// TurnResult is the outcome of one conversational turn.
type TurnResult struct {
	ConversationID int64          `json:"conversation_id"`
	Content        string         `json:"content"`
	ToolCalls      []llm.ToolCall `json:"tool_calls,omitempty"`
}

// Apology returns the fixed user-facing reply for a failed turn.
func Apology() string {
	return apologyMessage
}

type Orchestrator struct {
	chat          llm.Client
	executor      *Executor
	contexts      *ContextBuilder
	users         store.UserStore
	conversations store.ConversationStore
	messages      store.MessageStore
	instructions  store.InstructionStore
	maxTokens     int
}

func NewOrchestrator(
	chat llm.Client,
	executor *Executor,
	contexts *ContextBuilder,
	users store.UserStore,
	conversations store.ConversationStore,
	messages store.MessageStore,
	instructions store.InstructionStore,
	maxTokens int,
) *Orchestrator {
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &Orchestrator{
		chat:          chat,
		executor:      executor,
		contexts:      contexts,
		users:         users,
		conversations: conversations,
		messages:      messages,
		instructions:  instructions,
		maxTokens:     maxTokens,
	}
}

// ProcessTurn runs one conversational turn. A zero conversation id starts a
// new conversation. Returned errors carry retry classification for the
// event worker; the HTTP layer maps any error to the fixed apology reply.
func (o *Orchestrator) ProcessTurn(ctx context.Context, userID, conversationID int64, content, scope string) (*TurnResult, error) {
	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	if scope == "" {
		scope = ScopeAll
	}

	user, err := o.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, NewFatalError(fmt.Errorf("user %d not found", userID))
		}
		return nil, NewRetryableError(fmt.Errorf("load user: %w", err))
	}

	if conversationID == 0 {
		conv := &model.Conversation{ID: id.New(), UserID: userID}
		if err := o.conversations.Create(ctx, conv); err != nil {
			return nil, NewRetryableError(fmt.Errorf("create conversation: %w", err))
		}
		conversationID = conv.ID
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:         logger.Ptr(userID),
		ConversationID: logger.Ptr(fmt.Sprintf("%d", conversationID)),
	})

	history, err := o.messages.ListRecent(ctx, conversationID, historyWindow)
	if err != nil {
		return nil, NewRetryableError(fmt.Errorf("load history: %w", err))
	}

	background := o.contexts.Build(ctx, user, scope, content)
	messages := []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt(user, background)}}
	for _, msg := range history {
		messages = append(messages, historyMessage(msg))
	}

	// The caller may have persisted the user message already; only append
	// it when the history does not end with it.
	appendUser := true
	if last := len(history) - 1; last >= 0 {
		appendUser = history[last].Role != model.RoleUser || history[last].Content != content
	}
	if appendUser {
		messages = append(messages, llm.Message{Role: llm.RoleUser, Content: content})
	}

	response, err := o.chat.ChatWithTools(ctx, llm.ChatRequest{
		Messages:    messages,
		Tools:       Catalog(),
		MaxTokens:   o.maxTokens,
		Temperature: &defaultTemperature,
	})
	if err != nil {
		slog.ErrorContext(ctx, "completion failed", "error", err)
		if llm.IsRetryable(err) {
			return nil, NewRetryableError(err)
		}
		return nil, NewFatalError(err)
	}

	assistantContent := response.Content
	if assistantContent == "" {
		assistantContent = fallbackMessage
	}

	final := assistantContent
	if len(response.ToolCalls) > 0 {
		final = o.runTools(ctx, userID, messages, assistantContent, response.ToolCalls)
	}

	if appendUser {
		o.persist(ctx, &model.Message{
			ID:             id.New(),
			ConversationID: conversationID,
			Role:           model.RoleUser,
			Content:        content,
		})
	}
	o.persist(ctx, &model.Message{
		ID:             id.New(),
		ConversationID: conversationID,
		Role:           model.RoleAssistant,
		Content:        final,
		ToolCalls:      toolCallEntries(response.ToolCalls),
	})
	if err := o.conversations.Touch(ctx, conversationID); err != nil {
		slog.WarnContext(ctx, "touch conversation", "error", err)
	}

	return &TurnResult{
		ConversationID: conversationID,
		Content:        final,
		ToolCalls:      response.ToolCalls,
	}, nil
}

// runTools executes the model's tool calls and produces the final reply:
// the joined tool summaries when any tool produced one, otherwise a
// narration follow-up call, otherwise a synthesized completion summary.
func (o *Orchestrator) runTools(ctx context.Context, userID int64, messages []llm.Message, assistantContent string, calls []llm.ToolCall) string {
	executed := o.executor.Execute(ctx, userID, calls)

	var summaries []string
	for _, call := range executed {
		if call.Err != nil {
			continue
		}
		if summary := call.Result.Summary(); summary != "" {
			summaries = append(summaries, summary)
		}
	}
	if len(summaries) > 0 {
		return strings.Join(summaries, "\n\n")
	}

	followUp := append([]llm.Message{}, messages...)
	followUp = append(followUp, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   assistantContent,
		ToolCalls: calls,
	})
	for _, call := range executed {
		followUp = append(followUp, llm.Message{
			Role:       llm.RoleTool,
			Content:    toolResultContent(call),
			ToolCallID: call.CallID,
		})
	}

	response, err := o.chat.ChatWithTools(ctx, llm.ChatRequest{
		Messages:    followUp,
		MaxTokens:   o.maxTokens,
		Temperature: &defaultTemperature,
	})
	if err == nil && response.Content != "" {
		return response.Content
	}
	if err != nil {
		slog.ErrorContext(ctx, "follow-up completion failed", "error", err)
	}

	var completed, failed []string
	for _, call := range executed {
		if call.Err != nil {
			failed = append(failed, call.Name)
		} else {
			completed = append(completed, call.Name)
		}
	}
	var summary string
	if len(completed) > 0 {
		summary = "Completed: " + strings.Join(completed, ", ")
	}
	if len(failed) > 0 {
		if summary != "" {
			summary += ". "
		}
		summary += "Failed: " + strings.Join(failed, ", ")
	}
	if assistantContent != "" {
		return assistantContent + "\n\n" + summary
	}
	return fmt.Sprintf("I've %s.", strings.ToLower(summary))
}

// ProcessEvent reacts to a provider event (new email, calendar change). It
// is a no-op unless the user has active ongoing instructions; with them, the
// event is framed as a turn so the model can apply the instructions with the
// normal tool set.
func (o *Orchestrator) ProcessEvent(ctx context.Context, userID int64, source string, payload map[string]any) error {
	instructions, err := o.instructions.ListActive(ctx, userID)
	if err != nil {
		return NewRetryableError(fmt.Errorf("list instructions: %w", err))
	}
	if len(instructions) == 0 {
		return nil
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return NewFatalError(fmt.Errorf("marshal event payload: %w", err))
	}
	rules := make([]string, len(instructions))
	for i, instruction := range instructions {
		rules[i] = "- " + instruction.Instruction
	}

	content := fmt.Sprintf(`A webhook event occurred:
Source: %s
Data: %s

Consider the following ongoing instructions and determine if any actions should be taken:
%s

If any action should be taken based on these instructions, use the available tools to execute them.`,
		source, data, strings.Join(rules, "\n"))

	ctx = logger.WithLogFields(ctx, logger.LogFields{EventSource: logger.Ptr(source)})
	result, err := o.ProcessTurn(ctx, userID, 0, content, ScopeAll)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "event processed",
		"tool_calls", len(result.ToolCalls), "response", logger.Truncate(result.Content, 200))
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, msg *model.Message) {
	if err := o.messages.Append(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "persist message", "role", msg.Role, "error", err)
	}
}

func historyMessage(msg model.Message) llm.Message {
	out := llm.Message{Role: msg.Role, Content: msg.Content}
	if msg.Role == model.RoleAssistant && len(msg.ToolCalls) > 0 {
		out.ToolCalls = make([]llm.ToolCall, len(msg.ToolCalls))
		for i, call := range msg.ToolCalls {
			out.ToolCalls[i] = llm.ToolCall{ID: call.ID, Name: call.Name, Arguments: string(call.Arguments)}
		}
	}
	return out
}

func toolCallEntries(calls []llm.ToolCall) []model.ToolCallEntry {
	if len(calls) == 0 {
		return nil
	}
	entries := make([]model.ToolCallEntry, len(calls))
	for i, call := range calls {
		entries[i] = model.ToolCallEntry{ID: call.ID, Name: call.Name, Arguments: json.RawMessage(call.Arguments)}
	}
	return entries
}

func toolResultContent(call ExecutedCall) string {
	if call.Err != nil {
		return fmt.Sprintf(`{"error": %q}`, call.Err.Error())
	}
	if call.Result != nil && call.Result.Formatted != "" {
		return call.Result.Formatted
	}
	data, err := json.Marshal(call.Result)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func systemPrompt(user *model.User, background string) string {
	displayName := user.Name
	if displayName == "" {
		displayName = user.Email
	}

	return fmt.Sprintf(`You are an AI financial advisor assistant for %s.

Your primary directive is to understand the user's intent and provide helpful responses using the available tools and data.

CRITICAL CONTEXT RULES:
- Pay close attention to the conversation history above. When users refer to "the meeting above", "that email", "this contact", etc., they are referring to information from earlier in this conversation.
- When users ask to delete, modify, or reference something mentioned earlier, look through the conversation history first before using search tools.
- Always maintain context between messages in the same conversation.

CORE RULES:
1. SIMPLE INTERACTIONS: For greetings ("hi", "hello"), thanks, or casual conversation, respond directly without using tools.

2. INFORMATION REQUESTS: When users ask questions about emails, contacts, meetings, or want to find information:
   - FIRST check the conversation history for any relevant context
   - For contact queries: Use list_all_contacts when asked "What contacts do I have?" or similar general requests. Use search_contacts for specific searches.
   - THEN use the appropriate search tool (search_emails, search_contacts, search_calendar, list_all_contacts)
   - Use RAG search to find relevant information from past conversations and notes
   - Provide specific, detailed answers based on the actual data found
   - If no data is found, clearly state that and suggest alternatives

3. ACTION REQUESTS: When users want to:
   - Send emails: Use send_email or send_email_to_contact tools
   - Schedule meetings: Use schedule_appointment (for scheduling with contacts) or create_calendar_event (for direct calendar events)
   - Create tasks: Use create_task
   - Add ongoing instructions: Use add_ongoing_instruction
   - DELETE/MODIFY something: First check conversation history for context, then use appropriate tools

4. MEETING CREATION: Before creating any meeting/calendar event:
   - Ensure you have: clear title/subject, attendees (unless it's a personal reminder), and specific time
   - If missing information, ask the user to provide it rather than making assumptions
   - Don't create vague meetings without context

5. EMAIL FILTERING: When searching emails, prioritize real business/personal correspondence over promotional emails unless specifically asked for promotional content.

6. CONTEXT REFERENCES: When users say "the meeting above", "that contact", "this email", etc.:
   - Look at the conversation history first
   - Extract the specific details mentioned earlier (times, names, subjects)
   - Use those details in your search queries or actions

BACKGROUND CONTEXT:
%s

Remember: Your responses should be helpful, accurate, and based on actual data from the tools. Always consider the conversation history when users make references to previous information.`,
		displayName, background)
}
