package assistant_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"advisorhub.app/assistant/common/llm"
	"advisorhub.app/assistant/internal/assistant"
	"advisorhub.app/assistant/internal/model"
	"advisorhub.app/assistant/internal/provider"
	"advisorhub.app/assistant/internal/store"
	"advisorhub.app/assistant/internal/workflow"
)

type executorEnv struct {
	users        *mockUserStore
	emails       *mockEmailStore
	contacts     *mockContactStore
	notes        *mockNoteStore
	calendar     *mockCalendarStore
	instructions *mockInstructionStore
	tasks        *memTaskStore
	searcher     *mockSearcher
	mail         *mockMail
	gcal         *mockGCal
	crm          *mockCRM
	workflow     *workflow.Service
	exec         *assistant.Executor
}

func newExecutorEnv(now time.Time) *executorEnv {
	env := &executorEnv{
		users:        &mockUserStore{},
		emails:       &mockEmailStore{},
		contacts:     &mockContactStore{},
		notes:        &mockNoteStore{},
		calendar:     &mockCalendarStore{},
		instructions: &mockInstructionStore{},
		tasks:        newMemTaskStore(),
		searcher:     &mockSearcher{},
		mail:         &mockMail{},
		gcal:         &mockGCal{},
		crm:          &mockCRM{},
	}
	env.workflow = workflow.NewService(env.tasks)
	env.exec = assistant.NewExecutor(assistant.ExecutorConfig{
		Users:        env.users,
		Emails:       env.emails,
		Contacts:     env.contacts,
		Notes:        env.notes,
		Calendar:     env.calendar,
		Instructions: env.instructions,
		Workflow:     env.workflow,
		Searcher:     env.searcher,
		Mail:         env.mail,
		GCal:         env.gcal,
		CRM:          env.crm,
		Now:          func() time.Time { return now },
	})
	return env
}

func run(env *executorEnv, name, arguments string) *assistant.Result {
	results := env.exec.Execute(context.Background(), 7, []llm.ToolCall{
		{ID: "call-1", Name: name, Arguments: arguments},
	})
	ExpectWithOffset(1, results).To(HaveLen(1))
	ExpectWithOffset(1, results[0].Err).NotTo(HaveOccurred())
	ExpectWithOffset(1, results[0].Result).NotTo(BeNil())
	return results[0].Result
}

var _ = Describe("Executor", func() {
	var (
		ctx context.Context
		now time.Time
		env *executorEnv
	)

	const userID int64 = 7

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2025, 6, 18, 15, 0, 0, 0, time.UTC)
		env = newExecutorEnv(now)
	})

	Describe("Execute", func() {
		It("reports unknown functions without failing the call", func() {
			result := run(env, "mint_currency", `{}`)
			Expect(result.Error).To(Equal("Unknown function: mint_currency"))
		})

		It("records a handler failure and keeps going", func() {
			results := env.exec.Execute(ctx, userID, []llm.ToolCall{
				{ID: "call-1", Name: assistant.ToolSendEmail, Arguments: `{not json`},
				{ID: "call-2", Name: assistant.ToolCreateTask, Arguments: `{"title": "Follow up"}`},
			})
			Expect(results).To(HaveLen(2))
			Expect(results[0].Err).To(HaveOccurred())
			Expect(results[1].Err).NotTo(HaveOccurred())
			Expect(results[1].Result.Success).To(BeTrue())
		})
	})

	Describe("send_email", func() {
		It("sends and records a completed audit task", func() {
			result := run(env, assistant.ToolSendEmail,
				`{"to": "sarah@example.com", "subject": "Portfolio review", "body": "Hi Sarah"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(Equal("Email sent successfully to sarah@example.com"))
			Expect(result.Data).To(HaveKeyWithValue("messageId", "msg-1"))
			Expect(env.mail.sent).To(HaveLen(1))
			Expect(env.mail.sent[0].To).To(Equal("sarah@example.com"))

			audits := env.tasks.byType("send_email")
			Expect(audits).To(HaveLen(1))
			Expect(audits[0].Title).To(Equal("Send email to sarah@example.com"))
			Expect(audits[0].Metadata).To(HaveKeyWithValue("status", "completed"))
			Expect(audits[0].Metadata).To(HaveKeyWithValue("messageId", "msg-1"))
		})

		It("records a failed task when the provider errors", func() {
			env.mail.sendFn = func(_ context.Context, _ int64, _ provider.SendEmailParams) (*provider.SendEmailResult, error) {
				return nil, errors.New("smtp down")
			}

			result := run(env, assistant.ToolSendEmail,
				`{"to": "sarah@example.com", "subject": "Portfolio review", "body": "Hi"}`)

			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("Failed to send email: smtp down"))

			audits := env.tasks.byType("send_email")
			Expect(audits).To(HaveLen(1))
			Expect(audits[0].Title).To(Equal("Failed: Send email to sarah@example.com"))
			Expect(audits[0].Metadata).To(HaveKeyWithValue("status", "failed"))
			Expect(audits[0].Metadata).To(HaveKeyWithValue("error", "smtp down"))
		})
	})

	Describe("send_email_to_contact", func() {
		It("queues a pending send for a known contact", func() {
			first, last, email := "Sarah", "Chen", "sarah@example.com"
			env.contacts.searchFn = func(_ context.Context, _ int64, _ []string, _ int) ([]model.Contact, error) {
				return []model.Contact{{ID: 11, FirstName: &first, LastName: &last, Email: &email}}, nil
			}

			result := run(env, assistant.ToolSendEmailToContact,
				`{"contactName": "Sarah", "subject": "Quarterly update", "body": "Hi"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(Equal("Created task to send email to Sarah Chen (sarah@example.com)"))

			queued := env.tasks.byType("send_email_to_contact")
			Expect(queued).To(HaveLen(1))
			Expect(queued[0].Metadata).To(HaveKeyWithValue("status", "pending_send"))
			Expect(queued[0].Metadata).To(HaveKeyWithValue("contactEmail", "sarah@example.com"))
			Expect(env.mail.sent).To(BeEmpty())
		})

		It("reports an unknown contact", func() {
			result := run(env, assistant.ToolSendEmailToContact,
				`{"contactName": "Sarah", "subject": "s", "body": "b"}`)

			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal(`Contact "Sarah" not found in HubSpot`))
		})
	})

	Describe("create_task", func() {
		It("creates a pending user task", func() {
			result := run(env, assistant.ToolCreateTask,
				`{"title": "Review Q3 allocations", "priority": "high"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(Equal("Created task: Review Q3 allocations"))

			created := env.tasks.byType("user_task")
			Expect(created).To(HaveLen(1))
			Expect(created[0].Priority).To(Equal(model.TaskPriorityHigh))
			Expect(created[0].Status).To(Equal(model.TaskStatusPending))
		})
	})

	Describe("add_ongoing_instruction", func() {
		It("stores an active instruction", func() {
			var created *model.OngoingInstruction
			env.instructions.createFn = func(_ context.Context, ins *model.OngoingInstruction) error {
				created = ins
				return nil
			}

			result := run(env, assistant.ToolAddOngoingInstruction,
				`{"instruction": "Always flag emails from the SEC"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(ContainSubstring("Added ongoing instruction"))
			Expect(created).NotTo(BeNil())
			Expect(created.IsActive).To(BeTrue())
			Expect(created.Instruction).To(Equal("Always flag emails from the SEC"))
		})

		It("rejects a duplicate of an active instruction", func() {
			env.instructions.listActiveFn = func(_ context.Context, _ int64) ([]model.OngoingInstruction, error) {
				return []model.OngoingInstruction{{Instruction: "Always flag emails from the SEC immediately"}}, nil
			}

			result := run(env, assistant.ToolAddOngoingInstruction,
				`{"instruction": "flag emails from the SEC"}`)

			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(ContainSubstring("Similar instruction already exists"))
		})
	})

	Describe("create_calendar_event", func() {
		validArgs := `{"title": "Portfolio review", "startTime": "2025-06-20T10:00:00Z", "endTime": "2025-06-20T10:30:00Z", "attendees": ["sarah@example.com"]}`

		It("creates the event and stores a local copy", func() {
			result := run(env, assistant.ToolCreateCalendarEvent, validArgs)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(HavePrefix(`✅ Successfully scheduled "Portfolio review"`))
			Expect(env.calendar.inserted).To(HaveLen(1))
			Expect(env.calendar.inserted[0].GoogleEventID).To(Equal("evt-1"))
			Expect(env.calendar.inserted[0].Attendees).To(Equal([]string{"sarah@example.com"}))
		})

		It("asks for a proper title", func() {
			result := run(env, assistant.ToolCreateCalendarEvent,
				`{"title": "m", "startTime": "2025-06-20T10:00:00Z", "endTime": "2025-06-20T11:00:00Z"}`)

			Expect(result.Success).To(BeFalse())
			Expect(result.NeedsInput).NotTo(BeNil())
			Expect(result.NeedsInput.Missing).To(ConsistOf("title"))
		})

		It("asks for attendees on a non-personal event", func() {
			result := run(env, assistant.ToolCreateCalendarEvent,
				`{"title": "Client sync", "startTime": "2025-06-20T10:00:00Z", "endTime": "2025-06-20T11:00:00Z"}`)

			Expect(result.Success).To(BeFalse())
			Expect(result.NeedsInput).NotTo(BeNil())
			Expect(result.NeedsInput.Missing).To(ConsistOf("attendees"))
		})

		It("allows a personal event without attendees", func() {
			result := run(env, assistant.ToolCreateCalendarEvent,
				`{"title": "Lunch break", "startTime": "2025-06-20T12:00:00Z", "endTime": "2025-06-20T13:00:00Z"}`)

			Expect(result.Success).To(BeTrue())
		})

		It("asks again on unparseable times", func() {
			result := run(env, assistant.ToolCreateCalendarEvent,
				`{"title": "Portfolio review", "startTime": "whenever", "endTime": "later", "attendees": ["sarah@example.com"]}`)

			Expect(result.Success).To(BeFalse())
			Expect(result.NeedsInput).NotTo(BeNil())
			Expect(result.NeedsInput.Missing).To(ConsistOf("startTime", "endTime"))
		})

		It("rejects an end before the start", func() {
			result := run(env, assistant.ToolCreateCalendarEvent,
				`{"title": "Portfolio review", "startTime": "2025-06-20T11:00:00Z", "endTime": "2025-06-20T10:00:00Z", "attendees": ["sarah@example.com"]}`)

			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("End time must be after start time."))
		})

		It("parks the event as a task when the provider fails", func() {
			env.gcal.createFn = func(_ context.Context, _ int64, _ provider.CreateEventParams) (*provider.CreateEventResult, error) {
				return nil, errors.New("quota exceeded")
			}

			result := run(env, assistant.ToolCreateCalendarEvent, validArgs)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(HavePrefix(`⏳ Created task to schedule "Portfolio review"`))
			Expect(env.calendar.inserted).To(BeEmpty())

			parked := env.tasks.byType("create_calendar_event")
			Expect(parked).To(HaveLen(1))
			Expect(parked[0].Metadata).To(HaveKeyWithValue("status", "pending_creation"))
		})
	})

	Describe("delete_calendar_events", func() {
		It("reports when nothing matches", func() {
			result := run(env, assistant.ToolDeleteCalendarEvents, `{"query": "all"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(Equal("No matching events found to delete."))
		})

		It("deletes matching events from the provider and the store", func() {
			env.calendar.listFn = func(_ context.Context, _ int64, _ store.CalendarFilter) ([]model.CalendarEvent, error) {
				return []model.CalendarEvent{
					{ID: 1, GoogleEventID: "g-1", Title: "Standup"},
					{ID: 2, GoogleEventID: "g-2", Title: "Review"},
				}, nil
			}

			result := run(env, assistant.ToolDeleteCalendarEvents, `{"query": "all"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.DeletedCount).To(Equal(2))
			Expect(result.Message).To(Equal("✅ Successfully deleted 2 events."))
			Expect(env.calendar.deleted).To(ConsistOf(int64(1), int64(2)))
		})

		It("counts partial failures", func() {
			env.calendar.listFn = func(_ context.Context, _ int64, _ store.CalendarFilter) ([]model.CalendarEvent, error) {
				return []model.CalendarEvent{
					{ID: 1, GoogleEventID: "g-1", Title: "Standup"},
					{ID: 2, GoogleEventID: "g-2", Title: "Review"},
				}, nil
			}
			env.gcal.deleteFn = func(_ context.Context, _ int64, eventID string) error {
				if eventID == "g-2" {
					return errors.New("gone")
				}
				return nil
			}

			result := run(env, assistant.ToolDeleteCalendarEvents, `{"query": "all"}`)

			Expect(result.DeletedCount).To(Equal(1))
			Expect(result.Errors).To(HaveLen(1))
			Expect(result.Message).To(ContainSubstring("⚠️ Errors:"))
		})
	})

	Describe("search_emails", func() {
		It("filters promotional mail and notes the drop", func() {
			env.emails.listRecentFn = func(_ context.Context, _ int64, _ store.EmailFilter) ([]model.EmailMessage, error) {
				return []model.EmailMessage{
					{From: "noreply@shop.com", Subject: "Huge sale", ReceivedAt: now},
					{From: "sarah@example.com", Subject: "Q3 review", Body: "Numbers attached", ReceivedAt: now},
				}, nil
			}

			result := run(env, assistant.ToolSearchEmails, `{"query": "recent emails"}`)

			Expect(result.Count).To(Equal(1))
			Expect(result.Formatted).To(ContainSubstring("Found 1 email"))
			Expect(result.Formatted).To(ContainSubstring("(filtered out 1 promotional emails)"))
			Expect(result.Formatted).To(ContainSubstring("Q3 review"))
		})

		It("explains an empty result", func() {
			result := run(env, assistant.ToolSearchEmails, `{"query": "emails from Bill"}`)

			Expect(result.Count).To(BeZero())
			Expect(result.Formatted).To(ContainSubstring("No personal/business emails found"))
		})
	})

	Describe("schedule_appointment", func() {
		knownContact := func() {
			first, email := "Sarah", "sarah@example.com"
			env.contacts.searchFn = func(_ context.Context, _ int64, _ []string, _ int) ([]model.Contact, error) {
				return []model.Contact{{ID: 11, FirstName: &first, Email: &email}}, nil
			}
		}

		It("asks for an address when the contact is unknown", func() {
			result := run(env, assistant.ToolScheduleAppointment, `{"contactName": "Sarah"}`)

			Expect(result.Success).To(BeFalse())
			Expect(result.Message).To(ContainSubstring("Could not find contact information for Sarah"))
		})

		It("sends the request and opens a three-step workflow", func() {
			knownContact()

			result := run(env, assistant.ToolScheduleAppointment,
				`{"contactName": "Sarah", "duration": 45, "description": "tax planning"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(ContainSubstring("Meeting request sent to Sarah at sarah@example.com"))

			Expect(env.mail.sent).To(HaveLen(1))
			Expect(env.mail.sent[0].Subject).To(Equal("Meeting Request: tax planning"))
			Expect(env.mail.sent[0].Body).To(ContainSubstring("45-minute meeting"))

			parents := env.tasks.byWorkflow("schedule_appointment")
			Expect(parents).To(HaveLen(1))
			Expect(parents[0].Metadata).To(HaveKeyWithValue("type", model.TaskTypeMultiStepParent))

			steps, err := env.tasks.List(ctx, userID, store.TaskFilter{ParentTaskID: &parents[0].ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(steps).To(HaveLen(3))
			Expect(steps[0].Status).To(Equal(model.TaskStatusCompleted))
			Expect(steps[1].Status).To(Equal(model.TaskStatusWaitingResponse))
			Expect(steps[1].Metadata).To(HaveKeyWithValue("duration", 45))
			Expect(steps[2].Status).To(Equal(model.TaskStatusPending))
		})

		It("processes a declined response", func() {
			knownContact()
			run(env, assistant.ToolScheduleAppointment, `{"contactName": "Sarah"}`)

			result := run(env, assistant.ToolProcessAppointmentResponse,
				`{"contactName": "Sarah", "responseType": "declined", "responseText": "Too busy this month"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(Equal("❌ Sarah declined the meeting request. Task marked as completed."))

			parents := env.tasks.byWorkflow("schedule_appointment")
			Expect(parents).To(HaveLen(1))
			steps, err := env.tasks.List(ctx, userID, store.TaskFilter{ParentTaskID: &parents[0].ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(steps[1].Status).To(Equal(model.TaskStatusCompleted))
			Expect(steps[1].Metadata).To(HaveKeyWithValue("declined", true))
			Expect(steps[1].Metadata).To(HaveKeyWithValue("responseReceived", true))
		})

		It("confirms an accepted response and creates the meeting for the requested duration", func() {
			knownContact()
			run(env, assistant.ToolScheduleAppointment, `{"contactName": "Sarah", "duration": 45}`)
			env.mail.sent = nil

			result := run(env, assistant.ToolProcessAppointmentResponse,
				`{"contactName": "Sarah", "responseType": "accepted", "selectedTime": "2025-06-19T09:00:00Z"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(ContainSubstring("✅ Meeting confirmed with Sarah"))

			Expect(env.calendar.inserted).To(HaveLen(1))
			Expect(env.calendar.inserted[0].Title).To(Equal("Meeting with Sarah"))
			Expect(env.calendar.inserted[0].EndTime.Sub(env.calendar.inserted[0].StartTime)).To(Equal(45 * time.Minute))

			var confirmation *provider.SendEmailParams
			for i := range env.mail.sent {
				if env.mail.sent[i].To == "sarah@example.com" && env.mail.sent[i].Subject == fmt.Sprintf("Meeting Confirmed: %s", "2025-06-19T09:00:00Z") {
					confirmation = &env.mail.sent[i]
				}
			}
			Expect(confirmation).NotTo(BeNil())
		})

		It("reiterates the offered slots on an unclear response", func() {
			knownContact()
			run(env, assistant.ToolScheduleAppointment, `{"contactName": "Sarah"}`)
			env.mail.sent = nil

			result := run(env, assistant.ToolProcessAppointmentResponse,
				`{"contactName": "Sarah", "responseType": "unclear", "responseText": "maybe?"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(ContainSubstring("Sent clarification email to Sarah"))

			Expect(env.mail.sent).To(HaveLen(1))
			Expect(env.mail.sent[0].Subject).To(Equal("Re: Meeting Request - Clarification Needed"))
			Expect(env.mail.sent[0].Body).To(ContainSubstring("• Tomorrow at 9:00 AM"))
			Expect(env.mail.sent[0].Body).NotTo(ContainSubstring("Various times"))
		})

		It("rejects a response with no pending request", func() {
			result := run(env, assistant.ToolProcessAppointmentResponse,
				`{"contactName": "Sarah", "responseType": "accepted"}`)

			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("No pending appointment request found for Sarah"))
		})
	})

	Describe("create_hubspot_contact", func() {
		It("creates via the CRM and records a synced task", func() {
			result := run(env, assistant.ToolCreateHubspotContact,
				`{"email": "bill@example.com", "firstName": "Bill", "lastName": "Ng"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(Equal("Created HubSpot contact for bill@example.com"))
			Expect(env.contacts.created).To(HaveLen(1))
			Expect(env.contacts.created[0].HubspotID).To(Equal("hs-1"))

			recorded := env.tasks.byType("create_hubspot_contact")
			Expect(recorded).To(HaveLen(1))
			Expect(recorded[0].Metadata).To(HaveKeyWithValue("status", "synced"))
		})

		It("falls back to a local contact when HubSpot is down", func() {
			env.crm.createContactFn = func(_ context.Context, _ int64, _ provider.CreateContactParams) (*model.Contact, error) {
				return nil, errors.New("hubspot 503")
			}

			result := run(env, assistant.ToolCreateHubspotContact, `{"email": "bill@example.com"}`)

			Expect(result.Success).To(BeTrue())
			Expect(result.Message).To(Equal("Created local contact for bill@example.com and scheduled HubSpot sync"))
			Expect(env.contacts.created).To(HaveLen(1))
			Expect(env.contacts.created[0].HubspotID).To(HavePrefix("temp_"))

			recorded := env.tasks.byType("create_hubspot_contact")
			Expect(recorded).To(HaveLen(1))
			Expect(recorded[0].Metadata).To(HaveKeyWithValue("status", "pending_hubspot_sync"))
		})

		It("rejects a duplicate email", func() {
			email := "bill@example.com"
			env.contacts.getByEmailFn = func(_ context.Context, _ int64, _ string) (*model.Contact, error) {
				return &model.Contact{ID: 5, Email: &email}, nil
			}

			result := run(env, assistant.ToolCreateHubspotContact, `{"email": "bill@example.com"}`)

			Expect(result.Success).To(BeFalse())
			Expect(result.Error).To(Equal("Contact with email bill@example.com already exists"))
		})
	})
})
