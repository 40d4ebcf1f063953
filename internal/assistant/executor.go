package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"advisorhub.app/assistant/common/llm"
	"advisorhub.app/assistant/common/logger"
	"advisorhub.app/assistant/internal/provider"
	"advisorhub.app/assistant/internal/retrieval"
	"advisorhub.app/assistant/internal/store"
	"advisorhub.app/assistant/internal/workflow"
)

// Executor runs tool calls against the stores, providers and workflow
// service. One executor serves all users; every call is scoped by user id.
type Executor struct {
	users        store.UserStore
	emails       store.EmailStore
	contacts     store.ContactStore
	notes        store.NoteStore
	calendar     store.CalendarStore
	instructions store.InstructionStore
	workflow     *workflow.Service
	searcher     retrieval.Searcher
	mail         provider.EmailProvider
	gcal         provider.CalendarProvider
	crm          provider.CRMProvider
	now          func() time.Time
}

type ExecutorConfig struct {
	Users        store.UserStore
	Emails       store.EmailStore
	Contacts     store.ContactStore
	Notes        store.NoteStore
	Calendar     store.CalendarStore
	Instructions store.InstructionStore
	Workflow     *workflow.Service
	Searcher     retrieval.Searcher
	Mail         provider.EmailProvider
	GCal         provider.CalendarProvider
	CRM          provider.CRMProvider

	// Now overrides the clock in tests.
	Now func() time.Time
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Executor{
		users:        cfg.Users,
		emails:       cfg.Emails,
		contacts:     cfg.Contacts,
		notes:        cfg.Notes,
		calendar:     cfg.Calendar,
		instructions: cfg.Instructions,
		workflow:     cfg.Workflow,
		searcher:     cfg.Searcher,
		mail:         cfg.Mail,
		gcal:         cfg.GCal,
		crm:          cfg.CRM,
		now:          now,
	}
}

// Execute runs the model's tool calls in order. A handler failure is
// recorded on its call and does not stop the remaining calls.
func (e *Executor) Execute(ctx context.Context, userID int64, calls []llm.ToolCall) []ExecutedCall {
	results := make([]ExecutedCall, 0, len(calls))
	for _, call := range calls {
		callCtx := logger.WithLogFields(ctx, logger.LogFields{ToolName: logger.Ptr(call.Name)})
		slog.InfoContext(callCtx, "executing tool", "arguments", logger.Truncate(call.Arguments, 300))

		result, err := e.dispatch(callCtx, userID, call)
		if err != nil {
			slog.ErrorContext(callCtx, "tool execution failed", "error", err)
			results = append(results, ExecutedCall{Name: call.Name, CallID: call.ID, Err: err})
			continue
		}
		results = append(results, ExecutedCall{Name: call.Name, CallID: call.ID, Result: result})
	}
	return results
}

func (e *Executor) dispatch(ctx context.Context, userID int64, call llm.ToolCall) (*Result, error) {
	switch call.Name {
	case ToolSearchEmails:
		args, err := llm.ParseToolArguments[SearchEmailsArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.searchEmails(ctx, userID, args)
	case ToolSearchContacts:
		args, err := llm.ParseToolArguments[SearchContactsArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.searchContacts(ctx, userID, args)
	case ToolListAllContacts:
		args, err := llm.ParseToolArguments[ListAllContactsArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.listAllContacts(ctx, userID, args)
	case ToolScheduleAppointment:
		args, err := llm.ParseToolArguments[ScheduleAppointmentArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.scheduleAppointment(ctx, userID, args)
	case ToolSendEmail:
		args, err := llm.ParseToolArguments[SendEmailArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.sendEmail(ctx, userID, args)
	case ToolCreateTask:
		args, err := llm.ParseToolArguments[CreateTaskArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.createTask(ctx, userID, args)
	case ToolAddOngoingInstruction:
		args, err := llm.ParseToolArguments[AddOngoingInstructionArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.addOngoingInstruction(ctx, userID, args)
	case ToolSendEmailToContact:
		args, err := llm.ParseToolArguments[SendEmailToContactArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.sendEmailToContact(ctx, userID, args)
	case ToolCreateHubspotContact:
		args, err := llm.ParseToolArguments[CreateHubspotContactArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.createHubspotContact(ctx, userID, args)
	case ToolSearchCalendar:
		args, err := llm.ParseToolArguments[SearchCalendarArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.searchCalendar(ctx, userID, args)
	case ToolCreateCalendarEvent:
		args, err := llm.ParseToolArguments[CreateCalendarEventArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.createCalendarEvent(ctx, userID, args)
	case ToolDeleteCalendarEvents:
		args, err := llm.ParseToolArguments[DeleteCalendarEventsArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.deleteCalendarEvents(ctx, userID, args)
	case ToolProcessAppointmentResponse:
		args, err := llm.ParseToolArguments[ProcessAppointmentResponseArgs](call.Arguments)
		if err != nil {
			return nil, err
		}
		return e.processAppointmentResponse(ctx, userID, args)
	default:
		slog.WarnContext(ctx, "unknown tool function", "name", call.Name)
		return &Result{Error: fmt.Sprintf("Unknown function: %s", call.Name)}, nil
	}
}
