package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/provider"
	"advisorhub.app/assistant/internal/retrieval"
	"advisorhub.app/assistant/internal/store"
	"advisorhub.app/assistant/internal/workflow"
)

var whitespacePattern = regexp.MustCompile(`\s+`)

func snippet(body string, max int) string {
	if len(body) > max {
		body = body[:max]
	}
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(body, " "))
}

func (e *Executor) searchEmails(ctx context.Context, userID int64, args SearchEmailsArgs) (*Result, error) {
	query := strings.ToLower(args.Query)
	now := e.now()

	after, before := emailDateRange(query, now)
	names := extractSearchNames(query)

	filter := store.EmailFilter{Names: names, After: after, Before: before, Limit: 50}
	if len(names) == 0 {
		if after == nil && before == nil {
			filter.Text = args.Query
		} else if remainder := stripDateKeywords(args.Query); len(remainder) > 2 {
			filter.Text = remainder
		}
	}

	allEmails, err := e.emails.ListRecent(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("search emails: %w", err)
	}

	promotional := wantsPromotional(query)
	var emails []model.EmailMessage
	if promotional {
		emails = allEmails
		if len(emails) > 20 {
			emails = emails[:20]
		}
	} else {
		emails = filterPromotional(allEmails, 20)
	}

	// Retrieval hits augment the listing; a failure here only loses them.
	vectorMatches, err := e.searcher.Search(ctx, userID, args.Query, 8, retrieval.FilterEmails)
	if err != nil {
		slog.WarnContext(ctx, "email vector search failed", "error", err)
	}

	userEmail := ""
	if user, err := e.users.GetByID(ctx, userID); err == nil {
		userEmail = strings.ToLower(user.Email)
	}

	var listing []string
	var payload []map[string]any
	for i, email := range emails {
		sent := userEmail != "" && strings.Contains(strings.ToLower(email.From), userEmail)
		direction := "From"
		contact := email.From
		if sent {
			direction = "Sent to"
			contact = "Unknown"
			if len(email.To) > 0 {
				contact = email.To[0]
			}
		}
		preview := snippet(email.Body, 150)
		if preview != "" {
			preview += "..."
		}
		listing = append(listing, fmt.Sprintf("%d. **%s**\n   %s: %s\n   Date: %s\n   Preview: %s",
			i+1, email.Subject, direction, contact, email.ReceivedAt.Format("Jan 2, 2006"), preview))

		dir := "received"
		if sent {
			dir = "sent"
		}
		payload = append(payload, map[string]any{
			"subject":    email.Subject,
			"from":       email.From,
			"to":         email.To,
			"receivedAt": email.ReceivedAt,
			"snippet":    snippet(email.Body, 200) + "...",
			"direction":  dir,
		})
	}

	filtered := 0
	if !promotional {
		filtered = len(allEmails) - len(emails)
	}
	filterNote := ""
	if filtered > 0 {
		filterNote = fmt.Sprintf(" (filtered out %d promotional emails)", filtered)
	}

	formatted := ""
	switch {
	case len(emails) > 0:
		formatted = fmt.Sprintf("Found %d email%s%s:\n\n%s",
			len(emails), plural(len(emails)), filterNote, strings.Join(listing, "\n\n"))
	case promotional:
		formatted = "No promotional emails found matching your criteria."
	default:
		formatted = "No personal/business emails found matching your criteria. Use 'promotional emails' if you want to see filtered messages."
	}

	data := map[string]any{"emails": payload}
	if len(vectorMatches) > 0 {
		matches := make([]map[string]any, len(vectorMatches))
		for i, doc := range vectorMatches {
			source := doc.Metadata.Title
			if source == "" {
				source = "Email"
			}
			matches[i] = map[string]any{
				"content": snippet(doc.Content, 200) + "...",
				"source":  source,
				"from":    doc.Metadata.From,
			}
		}
		data["vectorMatches"] = matches
	}

	return &Result{Count: len(emails), Formatted: formatted, Data: data}, nil
}

func (e *Executor) sendEmail(ctx context.Context, userID int64, args SendEmailArgs) (*Result, error) {
	sent, err := e.mail.Send(ctx, userID, provider.SendEmailParams{
		To:      args.To,
		Subject: args.Subject,
		Body:    args.Body,
	})

	description := fmt.Sprintf("Subject: %s", args.Subject)
	if err != nil {
		slog.ErrorContext(ctx, "send email failed", "to", args.To, "error", err)
		if _, taskErr := e.workflow.Create(ctx, userID, workflow.CreateParams{
			Title:       fmt.Sprintf("Failed: Send email to %s", args.To),
			Description: &description,
			Priority:    model.TaskPriorityMedium,
			Metadata: model.Metadata{
				"type":    "send_email",
				"to":      args.To,
				"subject": args.Subject,
				"body":    args.Body,
				"status":  "failed",
				"error":   err.Error(),
			},
		}); taskErr != nil {
			slog.ErrorContext(ctx, "record failed email task", "error", taskErr)
		}
		return &Result{Success: false, Error: fmt.Sprintf("Failed to send email: %v", err)}, nil
	}

	if _, taskErr := e.workflow.Create(ctx, userID, workflow.CreateParams{
		Title:       fmt.Sprintf("Send email to %s", args.To),
		Description: &description,
		Priority:    model.TaskPriorityMedium,
		Metadata: model.Metadata{
			"type":      "send_email",
			"to":        args.To,
			"subject":   args.Subject,
			"body":      args.Body,
			"status":    "completed",
			"messageId": sent.MessageID,
		},
	}); taskErr != nil {
		slog.ErrorContext(ctx, "record sent email task", "error", taskErr)
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Email sent successfully to %s", args.To),
		Data:    map[string]any{"messageId": sent.MessageID},
	}, nil
}

func (e *Executor) sendEmailToContact(ctx context.Context, userID int64, args SendEmailToContactArgs) (*Result, error) {
	matches, err := e.contacts.Search(ctx, userID, []string{args.ContactName}, 1)
	if err != nil {
		return nil, fmt.Errorf("find contact: %w", err)
	}
	if len(matches) == 0 {
		return &Result{Success: false, Error: fmt.Sprintf("Contact %q not found in HubSpot", args.ContactName)}, nil
	}
	contact := matches[0]

	contactEmail := ""
	if contact.Email != nil {
		contactEmail = *contact.Email
	}
	description := fmt.Sprintf("Subject: %s", args.Subject)
	if _, err := e.workflow.Create(ctx, userID, workflow.CreateParams{
		Title:       fmt.Sprintf("Send email to %s", contact.DisplayName()),
		Description: &description,
		Priority:    model.TaskPriorityMedium,
		Metadata: model.Metadata{
			"type":         "send_email_to_contact",
			"contactId":    contact.ID,
			"contactEmail": contactEmail,
			"contactName":  contact.DisplayName(),
			"subject":      args.Subject,
			"body":         args.Body,
			"status":       "pending_send",
		},
	}); err != nil {
		return nil, fmt.Errorf("create email task: %w", err)
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Created task to send email to %s (%s)", contact.DisplayName(), contactEmail),
	}, nil
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
