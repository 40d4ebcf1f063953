package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/retrieval"
	"advisorhub.app/assistant/internal/store"
	"advisorhub.app/assistant/internal/workflow"
)

// Context scopes narrow the background data gathered for a turn.
const (
	ScopeAll      = "all"
	ScopeEmails   = "emails"
	ScopeCalendar = "calendar"
	ScopeContacts = "contacts"
)

// ContextBuilder assembles the background block of the system prompt:
// recent mail, upcoming events, contacts, open tasks, standing instructions
// and retrieval hits for the current message. Every section is best effort;
// a failed lookup drops its section rather than the turn.
type ContextBuilder struct {
	emails       store.EmailStore
	calendar     store.CalendarStore
	contacts     store.ContactStore
	instructions store.InstructionStore
	workflow     *workflow.Service
	searcher     retrieval.Searcher
	now          func() time.Time
}

func NewContextBuilder(
	emails store.EmailStore,
	calendar store.CalendarStore,
	contacts store.ContactStore,
	instructions store.InstructionStore,
	wf *workflow.Service,
	searcher retrieval.Searcher,
) *ContextBuilder {
	return &ContextBuilder{
		emails:       emails,
		calendar:     calendar,
		contacts:     contacts,
		instructions: instructions,
		workflow:     wf,
		searcher:     searcher,
		now:          time.Now,
	}
}

func (b *ContextBuilder) Build(ctx context.Context, user *model.User, scope, query string) string {
	var sb strings.Builder

	displayName := user.Name
	if displayName == "" {
		displayName = user.Email
	}
	fmt.Fprintf(&sb, "User: %s\n\n", displayName)

	if instructions, err := b.instructions.ListActive(ctx, user.ID); err != nil {
		slog.WarnContext(ctx, "context: list instructions", "error", err)
	} else if len(instructions) > 0 {
		sb.WriteString("Ongoing Instructions:\n")
		for _, instruction := range instructions {
			fmt.Fprintf(&sb, "- %s\n", instruction.Instruction)
		}
		sb.WriteString("\n")
	}

	if scope == ScopeAll || scope == ScopeEmails {
		b.writeEmailSection(ctx, &sb, user.ID, scope)
	}
	if scope == ScopeAll || scope == ScopeCalendar {
		b.writeCalendarSection(ctx, &sb, user.ID, scope)
	}
	if scope == ScopeAll || scope == ScopeContacts {
		b.writeContactSection(ctx, &sb, user.ID, scope)
	}
	if scope == ScopeAll {
		b.writeTaskSection(ctx, &sb, user.ID)
	}

	if len(query) > 10 {
		if docs, err := b.searcher.Search(ctx, user.ID, query, 3, scope); err != nil {
			slog.WarnContext(ctx, "context: retrieval search", "error", err)
		} else if len(docs) > 0 {
			sb.WriteString("Relevant Information from Past Data:\n")
			for i, doc := range docs {
				date := ""
				if doc.Metadata.Date != nil {
					date = fmt.Sprintf(" (%s)", doc.Metadata.Date.Format("1/2/2006"))
				}
				content := doc.Content
				if len(content) > 200 {
					content = content[:200] + "..."
				}
				fmt.Fprintf(&sb, "%d. [%s%s] %s\n   %s\n\n",
					i+1, docSourceLabel(doc.Metadata.Source), date, doc.Metadata.Title, content)
			}
		}
	}

	return sb.String()
}

func (b *ContextBuilder) writeEmailSection(ctx context.Context, sb *strings.Builder, userID int64, scope string) {
	fetch, keep := 10, 5
	if scope == ScopeEmails {
		fetch, keep = 30, 20
	}
	emails, err := b.emails.ListRecent(ctx, userID, store.EmailFilter{Limit: fetch})
	if err != nil {
		slog.WarnContext(ctx, "context: list emails", "error", err)
		return
	}

	var kept []model.EmailMessage
	for _, email := range emails {
		if isPromotionalSender(email.From) {
			continue
		}
		kept = append(kept, email)
		if len(kept) == keep {
			break
		}
	}
	if len(kept) == 0 {
		return
	}

	sb.WriteString("Recent Emails:\n")
	for _, email := range kept {
		fmt.Fprintf(sb, "- %s (%s)\n", email.Subject, email.From)
	}
	sb.WriteString("\n")
}

func (b *ContextBuilder) writeCalendarSection(ctx context.Context, sb *strings.Builder, userID int64, scope string) {
	limit := 5
	if scope == ScopeCalendar {
		limit = 20
	}
	weekAgo := b.now().AddDate(0, 0, -7)
	events, err := b.calendar.List(ctx, userID, store.CalendarFilter{After: &weekAgo, Limit: limit})
	if err != nil {
		slog.WarnContext(ctx, "context: list calendar events", "error", err)
		return
	}
	if len(events) == 0 {
		return
	}

	sb.WriteString("Upcoming Calendar Events:\n")
	for _, event := range events {
		fmt.Fprintf(sb, "- %s (%s)\n", event.Title, event.StartTime.Format(time.RFC3339))
	}
	sb.WriteString("\n")
}

func (b *ContextBuilder) writeContactSection(ctx context.Context, sb *strings.Builder, userID int64, scope string) {
	limit := 5
	if scope == ScopeContacts {
		limit = 20
	}
	contacts, err := b.contacts.List(ctx, userID, limit)
	if err != nil {
		slog.WarnContext(ctx, "context: list contacts", "error", err)
		return
	}
	if len(contacts) == 0 {
		return
	}

	sb.WriteString("Recent HubSpot Contacts:\n")
	for _, contact := range contacts {
		email := ""
		if contact.Email != nil {
			email = *contact.Email
		}
		fmt.Fprintf(sb, "- %s (%s)\n", contact.DisplayName(), email)
	}
	sb.WriteString("\n")
}

func (b *ContextBuilder) writeTaskSection(ctx context.Context, sb *strings.Builder, userID int64) {
	tasks, err := b.workflow.ListActive(ctx, userID, 5)
	if err != nil {
		slog.WarnContext(ctx, "context: list tasks", "error", err)
		return
	}
	if waiting, err := b.workflow.ListWaiting(ctx, userID); err == nil {
		tasks = append(tasks, waiting...)
	}
	if len(tasks) > 5 {
		tasks = tasks[:5]
	}
	if len(tasks) == 0 {
		return
	}

	sb.WriteString("Recent Tasks:\n")
	for _, task := range tasks {
		fmt.Fprintf(sb, "- %s (%s)\n", task.Title, task.Status)
	}
	sb.WriteString("\n")
}

func docSourceLabel(source string) string {
	switch source {
	case model.DocSourceEmail:
		return "Email"
	case model.DocSourceContactNote:
		return "HubSpot Note"
	case model.DocSourceContact:
		return "Contact Info"
	default:
		return "Calendar"
	}
}
