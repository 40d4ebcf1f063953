package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"advisorhub.app/assistant/common/id"
	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/provider"
	"advisorhub.app/assistant/internal/store"
	"advisorhub.app/assistant/internal/workflow"
)

// Query words that mean "show my events" rather than a text match.
var generalCalendarTerms = []string{"upcoming", "future", "scheduled", "planned", "all", "any", "my", "events"}

func (e *Executor) findCalendarEvents(ctx context.Context, userID int64, query, startDate, endDate string) ([]model.CalendarEvent, error) {
	q := strings.ToLower(query)
	now := e.now()

	var after, before *time.Time
	if startDate != "" && endDate != "" {
		start, err := parseBoundaryDate(startDate, now, true)
		if err != nil {
			return nil, err
		}
		end, err := parseBoundaryDate(endDate, now, false)
		if err != nil {
			return nil, err
		}
		after, before = &start, &end
	} else {
		after, before = calendarDateRange(q, now)
	}

	general := strings.Contains(q, "today") || strings.Contains(q, "tomorrow") ||
		strings.Contains(q, "this week") || strings.Contains(q, "this month")
	for _, term := range generalCalendarTerms {
		if strings.Contains(q, term) {
			general = true
			break
		}
	}

	filter := store.CalendarFilter{After: after, Before: before, Limit: 20}
	if !general {
		filter.Text = query
	}
	return e.calendar.List(ctx, userID, filter)
}

func (e *Executor) searchCalendar(ctx context.Context, userID int64, args SearchCalendarArgs) (*Result, error) {
	events, err := e.findCalendarEvents(ctx, userID, args.Query, args.StartDate, args.EndDate)
	if err != nil {
		slog.ErrorContext(ctx, "calendar search failed", "error", err)
		return &Result{Success: false, Error: "Failed to search calendar events"}, nil
	}

	userEmail := ""
	if user, uerr := e.users.GetByID(ctx, userID); uerr == nil {
		userEmail = user.Email
	}

	// Resolve attendee emails to contact names for the meeting blocks.
	attendeeNames := make(map[string]string)
	for _, event := range events {
		for _, email := range event.Attendees {
			if email == userEmail {
				continue
			}
			if _, ok := attendeeNames[email]; ok {
				continue
			}
			contact, cerr := e.contacts.GetByEmail(ctx, userID, email)
			switch {
			case cerr == nil:
				attendeeNames[email] = contact.DisplayName()
			case errors.Is(cerr, store.ErrNotFound):
				attendeeNames[email], _, _ = strings.Cut(email, "@")
			default:
				return nil, fmt.Errorf("resolve attendee: %w", cerr)
			}
		}
	}

	var listing []string
	meetingBlocks := make([]map[string]any, 0, len(events))
	for _, event := range events {
		var others []string
		for _, email := range event.Attendees {
			if email != userEmail {
				others = append(others, email)
			}
		}

		entry := fmt.Sprintf("• %s\n  Time: %s", event.Title, event.StartTime.Format("1/2/2006, 3:04:05 PM"))
		if event.Location != nil && *event.Location != "" {
			entry += "\n  Location: " + *event.Location
		}
		if len(others) > 0 {
			entry += "\n  Attendees: " + strings.Join(others, ", ")
		}
		if event.Description != nil && *event.Description != "" {
			entry += "\n  Description: " + *event.Description
		}
		listing = append(listing, entry)

		attendees := make([]map[string]any, 0, len(others))
		for _, email := range others {
			attendees = append(attendees, map[string]any{"name": attendeeNames[email], "email": email})
		}
		meetingBlocks = append(meetingBlocks, map[string]any{
			"id":    event.ID,
			"title": event.Title,
			"date":  event.StartTime.Format("Mon, Jan 2"),
			"timeRange": fmt.Sprintf("%s - %s",
				event.StartTime.Format("3:04 PM"), event.EndTime.Format("3:04 PM")),
			"attendees":   attendees,
			"location":    event.Location,
			"description": event.Description,
		})
	}

	formatted := "No upcoming calendar events found."
	if len(events) > 0 {
		formatted = fmt.Sprintf("Found %d upcoming calendar event%s:\n\n%s",
			len(events), plural(len(events)), strings.Join(listing, "\n\n"))
	}

	return &Result{
		Count:     len(events),
		Formatted: formatted,
		Data: map[string]any{
			"events":        events,
			"meetingBlocks": meetingBlocks,
		},
	}, nil
}

func (e *Executor) createCalendarEvent(ctx context.Context, userID int64, args CreateCalendarEventArgs) (*Result, error) {
	if len(strings.TrimSpace(args.Title)) < 3 {
		return &Result{
			Success: false,
			Error:   "Please provide a meaningful meeting title/subject.",
			NeedsInput: &NeedsInput{
				Missing: []string{"title"},
				Message: "I need a proper meeting title to create this event. What should this meeting be about?",
			},
		}, nil
	}

	if len(args.Attendees) == 0 && !isPersonalEvent(args.Title, args.Description) {
		return &Result{
			Success: false,
			Error:   "Please specify who should attend this meeting.",
			NeedsInput: &NeedsInput{
				Missing: []string{"attendees"},
				Message: "Who should be invited to this meeting? Please provide email addresses of attendees.",
			},
		}, nil
	}

	loc := e.now().Location()
	start, startErr := parseTimestamp(args.StartTime, loc)
	end, endErr := parseTimestamp(args.EndTime, loc)
	if startErr != nil || endErr != nil {
		return &Result{
			Success: false,
			Error:   "Invalid date/time format. Please provide valid start and end times.",
			NeedsInput: &NeedsInput{
				Missing: []string{"startTime", "endTime"},
				Message: "When should this meeting take place? Please specify the date and time.",
			},
		}, nil
	}
	if !end.After(start) {
		return &Result{
			Success: false,
			Error:   "End time must be after start time.",
			NeedsInput: &NeedsInput{
				Missing: []string{"endTime"},
				Message: "Please provide a valid end time that's after the start time.",
			},
		}, nil
	}

	created, err := e.gcal.Create(ctx, userID, provider.CreateEventParams{
		Title:       args.Title,
		Description: args.Description,
		Start:       start,
		End:         end,
		Attendees:   args.Attendees,
		Location:    args.Location,
	})
	if err != nil {
		// Park the event as a task so it is not lost.
		slog.ErrorContext(ctx, "calendar create failed, creating fallback task", "error", err)
		description := fmt.Sprintf("Event from %s to %s", args.StartTime, args.EndTime)
		if _, taskErr := e.workflow.Create(ctx, userID, workflow.CreateParams{
			Title:       fmt.Sprintf("Create calendar event: %s", args.Title),
			Description: &description,
			Priority:    model.TaskPriorityMedium,
			Metadata: model.Metadata{
				"type":             "create_calendar_event",
				"eventTitle":       args.Title,
				"eventDescription": args.Description,
				"startTime":        args.StartTime,
				"endTime":          args.EndTime,
				"attendees":        args.Attendees,
				"location":         args.Location,
				"status":           "pending_creation",
			},
		}); taskErr != nil {
			return nil, fmt.Errorf("create fallback task: %w", taskErr)
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("⏳ Created task to schedule %q from %s to %s",
				args.Title, start.Format("1/2/2006, 3:04:05 PM"), end.Format("1/2/2006, 3:04:05 PM")),
		}, nil
	}

	event := &model.CalendarEvent{
		ID:            id.New(),
		UserID:        userID,
		GoogleEventID: created.EventID,
		Title:         args.Title,
		StartTime:     start,
		EndTime:       end,
		Attendees:     args.Attendees,
	}
	if args.Description != "" {
		event.Description = &args.Description
	}
	if args.Location != "" {
		event.Location = &args.Location
	}
	if err := e.calendar.Insert(ctx, event); err != nil {
		slog.ErrorContext(ctx, "store created event", "error", err)
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("✅ Successfully scheduled %q for %s", args.Title, start.Format("1/2/2006, 3:04:05 PM")),
		Data:    map[string]any{"event": event},
	}, nil
}

func isPersonalEvent(title, description string) bool {
	personalKeywords := []string{"personal", "reminder", "break", "lunch", "block", "focus", "work"}
	title = strings.ToLower(title)
	description = strings.ToLower(description)
	for _, keyword := range personalKeywords {
		if strings.Contains(title, keyword) || (description != "" && strings.Contains(description, keyword)) {
			return true
		}
	}
	return false
}

func (e *Executor) deleteCalendarEvents(ctx context.Context, userID int64, args DeleteCalendarEventsArgs) (*Result, error) {
	events, err := e.findCalendarEvents(ctx, userID, args.Query, args.StartDate, args.EndDate)
	if err != nil {
		slog.ErrorContext(ctx, "calendar delete search failed", "error", err)
		return &Result{Success: false, Error: "Failed to delete calendar events"}, nil
	}
	if len(events) == 0 {
		return &Result{Success: true, Message: "No matching events found to delete."}, nil
	}

	deleted := 0
	var errs []string
	for _, event := range events {
		if err := e.gcal.Delete(ctx, userID, event.GoogleEventID); err != nil {
			errs = append(errs, fmt.Sprintf("Failed to delete %q: %v", event.Title, err))
			continue
		}
		if err := e.calendar.Delete(ctx, userID, event.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			errs = append(errs, fmt.Sprintf("Error deleting %q: %v", event.Title, err))
			continue
		}
		deleted++
	}

	message := "❌ No events were deleted."
	if deleted > 0 {
		message = fmt.Sprintf("✅ Successfully deleted %d event%s.", deleted, plural(deleted))
	}
	if len(errs) > 0 {
		message += fmt.Sprintf("\n⚠️ Errors: %s", strings.Join(errs, ", "))
	}

	return &Result{
		Success:      deleted > 0,
		Message:      message,
		DeletedCount: deleted,
		Errors:       errs,
	}, nil
}
