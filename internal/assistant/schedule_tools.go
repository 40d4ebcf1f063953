package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/store"
	"advisorhub.app/assistant/internal/workflow"
)

type timeSlot struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Proposed slots for outgoing meeting requests. Slot negotiation happens
// over email, so these only need to be plausible starting points.
var proposedSlots = []timeSlot{
	{Date: "Tomorrow", Time: "9:00 AM"},
	{Date: "Tomorrow", Time: "2:00 PM"},
	{Date: "Day after tomorrow", Time: "10:00 AM"},
	{Date: "Day after tomorrow", Time: "3:00 PM"},
}

func formatSlots(slots []timeSlot) string {
	lines := make([]string, len(slots))
	for i, slot := range slots {
		lines[i] = fmt.Sprintf("• %s at %s", slot.Date, slot.Time)
	}
	return strings.Join(lines, "\n")
}

// resolveContactEmail finds an address for a contact name, checking HubSpot
// contacts first and falling back to recent email senders.
func (e *Executor) resolveContactEmail(ctx context.Context, userID int64, contactName string) string {
	contacts, err := e.contacts.Search(ctx, userID, []string{contactName}, 1)
	if err != nil {
		slog.WarnContext(ctx, "contact lookup failed, trying email senders", "error", err)
	} else if len(contacts) > 0 && contacts[0].Email != nil && *contacts[0].Email != "" {
		return *contacts[0].Email
	}

	emails, err := e.emails.ListRecent(ctx, userID, store.EmailFilter{Names: []string{contactName}, Limit: 1})
	if err != nil {
		slog.WarnContext(ctx, "email sender lookup failed", "error", err)
		return ""
	}
	if len(emails) > 0 {
		return extractEmailAddress(emails[0].From)
	}
	return ""
}

func (e *Executor) scheduleAppointment(ctx context.Context, userID int64, args ScheduleAppointmentArgs) (*Result, error) {
	contactEmail := e.resolveContactEmail(ctx, userID, args.ContactName)
	if contactEmail == "" {
		return &Result{
			Success: false,
			Message: fmt.Sprintf("Could not find contact information for %s. Please provide their email address.", args.ContactName),
		}, nil
	}

	duration := args.Duration
	if duration <= 0 {
		duration = 30
	}
	topic := args.Description
	if topic == "" {
		topic = "our upcoming collaboration"
	}
	subjectTopic := args.Description
	if subjectTopic == "" {
		subjectTopic = "Appointment"
	}

	emailBody := fmt.Sprintf(`Hi %s,

I hope this email finds you well. I'd like to schedule a %d-minute meeting with you to discuss %s.

I have the following time slots available:
%s

Please let me know which time works best for you, or if you'd prefer a different time. I'm happy to accommodate your schedule.

Looking forward to hearing from you!

Best regards`, args.ContactName, duration, topic, formatSlots(proposedSlots))

	if err := e.runAppointmentSetup(ctx, userID, args, contactEmail, duration, emailBody, subjectTopic); err != nil {
		slog.ErrorContext(ctx, "schedule appointment failed", "error", err)
		description := args.Description
		if description == "" {
			description = fmt.Sprintf("Schedule a %d minute appointment", duration)
		}
		if _, taskErr := e.workflow.Create(ctx, userID, workflow.CreateParams{
			Title:       fmt.Sprintf("Failed: Schedule appointment with %s", args.ContactName),
			Description: &description,
			Priority:    model.TaskPriorityHigh,
			Metadata: model.Metadata{
				"type":        "schedule_appointment_failed",
				"contactName": args.ContactName,
				"duration":    duration,
				"status":      "failed",
				"error":       err.Error(),
			},
		}); taskErr != nil {
			slog.ErrorContext(ctx, "record failed appointment task", "error", taskErr)
		}
		return &Result{Success: false, Error: fmt.Sprintf("Failed to schedule appointment: %v", err)}, nil
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Meeting request sent to %s at %s. I've provided them with available time slots and am waiting for their response.",
			args.ContactName, contactEmail),
	}, nil
}

func (e *Executor) runAppointmentSetup(ctx context.Context, userID int64, args ScheduleAppointmentArgs, contactEmail string, duration int, emailBody, subjectTopic string) error {
	sendResult, err := e.sendEmail(ctx, userID, SendEmailArgs{
		To:      contactEmail,
		Subject: fmt.Sprintf("Meeting Request: %s", subjectTopic),
		Body:    emailBody,
	})
	if err != nil {
		return err
	}
	if !sendResult.Success {
		return fmt.Errorf("%s", sendResult.Error)
	}

	workflowDesc := fmt.Sprintf("Complete appointment scheduling workflow with %s", args.ContactName)
	step1Desc := "Email sent with available time slots"
	step2Desc := fmt.Sprintf("Waiting for %s to respond with their availability", args.ContactName)
	step3Desc := "Final step: create the meeting and confirm with attendee"

	created, err := e.workflow.CreateMultiStep(ctx, userID, workflow.MultiStepParams{
		Title:       fmt.Sprintf("Schedule appointment with %s", args.ContactName),
		Description: &workflowDesc,
		Priority:    model.TaskPriorityMedium,
		Metadata: model.Metadata{
			"workflowType": "schedule_appointment",
			"contactName":  args.ContactName,
			"contactEmail": contactEmail,
			"duration":     duration,
			"description":  args.Description,
		},
		Steps: []workflow.StepParams{
			{
				Title:       fmt.Sprintf("Send initial meeting request to %s", args.ContactName),
				Description: &step1Desc,
				Metadata: model.Metadata{
					"stepType":       "send_email",
					"contactEmail":   contactEmail,
					"emailSent":      true,
					"availableSlots": proposedSlots,
				},
			},
			{
				Title:       fmt.Sprintf("Wait for response from %s", args.ContactName),
				Description: &step2Desc,
				// The response handler works from this step alone, so it
				// carries everything needed to finish the workflow.
				Metadata: model.Metadata{
					"stepType":             "wait_response",
					"contactName":          args.ContactName,
					"contactEmail":         contactEmail,
					"duration":             duration,
					"description":          args.Description,
					"availableSlots":       proposedSlots,
					"expectedResponseType": "meeting_acceptance",
				},
			},
			{
				Title:       "Create calendar event and send confirmation",
				Description: &step3Desc,
				Metadata: model.Metadata{
					"stepType":    "create_meeting",
					"duration":    duration,
					"description": args.Description,
				},
			},
		},
	})
	if err != nil {
		return err
	}

	// The request email already went out, so step one is done and step two
	// is live immediately.
	if _, err := e.workflow.Transition(ctx, userID, created.Steps[0].ID, model.TaskStatusCompleted); err != nil {
		return err
	}
	if _, err := e.workflow.Transition(ctx, userID, created.Steps[1].ID, model.TaskStatusWaitingResponse); err != nil {
		return err
	}
	return nil
}

func (e *Executor) processAppointmentResponse(ctx context.Context, userID int64, args ProcessAppointmentResponseArgs) (*Result, error) {
	waiting, err := e.workflow.ListWaiting(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list waiting tasks: %w", err)
	}

	var task *model.Task
	for i := range waiting {
		meta := waiting[i].Metadata
		if metaString(meta, "stepType") != "wait_response" {
			continue
		}
		if strings.Contains(strings.ToLower(metaString(meta, "contactName")), strings.ToLower(args.ContactName)) {
			task = &waiting[i]
			break
		}
	}
	if task == nil {
		return &Result{
			Success: false,
			Error:   fmt.Sprintf("No pending appointment request found for %s", args.ContactName),
		}, nil
	}

	if _, err := e.workflow.ResumeWaitingTask(ctx, userID, task.ID, model.Metadata{
		"responseType":    args.ResponseType,
		"selectedTime":    args.SelectedTime,
		"alternativeTime": args.AlternativeTime,
		"responseText":    args.ResponseText,
		"processedAt":     e.now().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("resume waiting task: %w", err)
	}

	contactEmail := metaString(task.Metadata, "contactEmail")

	switch args.ResponseType {
	case "accepted":
		if args.SelectedTime != "" {
			start, perr := parseTimestamp(args.SelectedTime, e.now().Location())
			if perr != nil {
				break
			}
			duration := metaInt(task.Metadata, "duration", 30)
			end := start.Add(time.Duration(duration) * time.Minute)
			meetingDesc := metaString(task.Metadata, "description")
			if meetingDesc == "" {
				meetingDesc = "Scheduled meeting"
			}

			calResult, cerr := e.createCalendarEvent(ctx, userID, CreateCalendarEventArgs{
				Title:       fmt.Sprintf("Meeting with %s", args.ContactName),
				Description: meetingDesc,
				StartTime:   start.Format(time.RFC3339),
				EndTime:     end.Format(time.RFC3339),
				Attendees:   []string{contactEmail},
			})
			if cerr != nil {
				return nil, cerr
			}
			if calResult.Success {
				if _, serr := e.sendEmail(ctx, userID, SendEmailArgs{
					To:      contactEmail,
					Subject: fmt.Sprintf("Meeting Confirmed: %s", args.SelectedTime),
					Body: fmt.Sprintf("Hi %s,\n\nGreat! I've confirmed our meeting for %s.\n\nLooking forward to speaking with you!\n\nBest regards",
						args.ContactName, start.Format("1/2/2006, 3:04:05 PM")),
				}); serr != nil {
					return nil, serr
				}
				if _, aerr := e.workflow.AdvanceToNextStep(ctx, userID, task.ID); aerr != nil {
					return nil, fmt.Errorf("advance workflow: %w", aerr)
				}
				return &Result{
					Success: true,
					Message: fmt.Sprintf("✅ Meeting confirmed with %s for %s. Calendar event created and confirmation sent.",
						args.ContactName, start.Format("1/2/2006, 3:04:05 PM")),
				}, nil
			}
		}

	case "alternative_time":
		if args.AlternativeTime != "" {
			if _, serr := e.sendEmail(ctx, userID, SendEmailArgs{
				To:      contactEmail,
				Subject: "Re: Meeting Request - Alternative Time",
				Body: fmt.Sprintf("Hi %s,\n\nThank you for getting back to me. I can accommodate %s. Let me confirm this works on my end and I'll send you a calendar invite.\n\nBest regards",
					args.ContactName, args.AlternativeTime),
			}); serr != nil {
				return nil, serr
			}
			if _, merr := e.workflow.UpdateMetadata(ctx, userID, task.ID, model.Metadata{
				"alternativeTimeProposed":   args.AlternativeTime,
				"awaitingFinalConfirmation": true,
			}); merr != nil {
				return nil, merr
			}
			return &Result{
				Success: true,
				Message: fmt.Sprintf("📅 Responded to %s's alternative time suggestion. Awaiting final confirmation.", args.ContactName),
			}, nil
		}

	case "declined":
		if _, merr := e.workflow.UpdateMetadata(ctx, userID, task.ID, model.Metadata{
			"declined":      true,
			"declineReason": args.ResponseText,
		}); merr != nil {
			return nil, merr
		}
		if _, cerr := e.workflow.Complete(ctx, userID, task.ID); cerr != nil {
			return nil, cerr
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("❌ %s declined the meeting request. Task marked as completed.", args.ContactName),
		}, nil

	case "unclear":
		slots := "Various times"
		if formatted := formatSlotsMeta(task.Metadata); formatted != "" {
			slots = formatted
		}
		if _, serr := e.sendEmail(ctx, userID, SendEmailArgs{
			To:      contactEmail,
			Subject: "Re: Meeting Request - Clarification Needed",
			Body: fmt.Sprintf("Hi %s,\n\nThank you for your response. Could you please clarify your availability? I originally proposed these times:\n\n%s\n\nPlease let me know which works best for you, or suggest an alternative.\n\nBest regards",
				args.ContactName, slots),
		}); serr != nil {
			return nil, serr
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("❓ Sent clarification email to %s due to unclear response.", args.ContactName),
		}, nil
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("Processed response from %s: %s", args.ContactName, args.ResponseType),
	}, nil
}

func metaString(m model.Metadata, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// metaInt reads a numeric metadata value. JSON round-trips store numbers as
// float64.
func metaInt(m model.Metadata, key string, fallback int) int {
	if m == nil {
		return fallback
	}
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// formatSlotsMeta renders availableSlots metadata regardless of whether it
// round-tripped through JSON.
func formatSlotsMeta(m model.Metadata) string {
	if m == nil {
		return ""
	}
	switch slots := m["availableSlots"].(type) {
	case []timeSlot:
		return formatSlots(slots)
	case []any:
		var lines []string
		for _, raw := range slots {
			if entry, ok := raw.(map[string]any); ok {
				lines = append(lines, fmt.Sprintf("• %v at %v", entry["date"], entry["time"]))
			}
		}
		return strings.Join(lines, "\n")
	}
	return ""
}
