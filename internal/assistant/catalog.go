package assistant

import "advisorhub.app/assistant/common/llm"

// Tool names the model can call.
const (
	ToolSearchEmails               = "search_emails"
	ToolSearchContacts             = "search_contacts"
	ToolListAllContacts            = "list_all_contacts"
	ToolScheduleAppointment        = "schedule_appointment"
	ToolSendEmail                  = "send_email"
	ToolCreateTask                 = "create_task"
	ToolAddOngoingInstruction      = "add_ongoing_instruction"
	ToolSendEmailToContact         = "send_email_to_contact"
	ToolCreateHubspotContact       = "create_hubspot_contact"
	ToolSearchCalendar             = "search_calendar"
	ToolCreateCalendarEvent        = "create_calendar_event"
	ToolDeleteCalendarEvents       = "delete_calendar_events"
	ToolProcessAppointmentResponse = "process_appointment_response"
)

type SearchEmailsArgs struct {
	Query string `json:"query" jsonschema_description:"Search query for emails"`
}

type SearchContactsArgs struct {
	Query string `json:"query" jsonschema_description:"Search query for contacts"`
}

type ListAllContactsArgs struct {
	Limit int `json:"limit,omitempty" jsonschema_description:"Maximum number of contacts to return (default: 50)"`
}

type ScheduleAppointmentArgs struct {
	ContactName  string `json:"contactName" jsonschema_description:"Name of the contact"`
	Duration     int    `json:"duration,omitempty" jsonschema_description:"Duration in minutes"`
	Description  string `json:"description,omitempty" jsonschema_description:"Meeting description"`
	SpecificTime string `json:"specificTime,omitempty" jsonschema_description:"Specific time for the meeting (e.g., '5 AM Jul 13', 'tomorrow at 2 PM')"`
}

type SendEmailArgs struct {
	To      string `json:"to" jsonschema_description:"Recipient email address"`
	Subject string `json:"subject" jsonschema_description:"Email subject"`
	Body    string `json:"body" jsonschema_description:"Email body content"`
}

type CreateTaskArgs struct {
	Title       string `json:"title" jsonschema_description:"Task title"`
	Description string `json:"description,omitempty" jsonschema_description:"Task description"`
	Priority    string `json:"priority,omitempty" jsonschema:"enum=low,enum=medium,enum=high"`
}

type AddOngoingInstructionArgs struct {
	Instruction string `json:"instruction" jsonschema_description:"The ongoing instruction to remember"`
}

type SendEmailToContactArgs struct {
	ContactName string `json:"contactName" jsonschema_description:"Name of the contact to email"`
	Subject     string `json:"subject" jsonschema_description:"Email subject"`
	Body        string `json:"body" jsonschema_description:"Email body content"`
}

type CreateHubspotContactArgs struct {
	Email     string `json:"email" jsonschema_description:"Contact email address"`
	FirstName string `json:"firstName,omitempty" jsonschema_description:"Contact first name"`
	LastName  string `json:"lastName,omitempty" jsonschema_description:"Contact last name"`
	Company   string `json:"company,omitempty" jsonschema_description:"Contact company"`
	Note      string `json:"note,omitempty" jsonschema_description:"Initial note about the contact"`
}

type SearchCalendarArgs struct {
	Query     string `json:"query" jsonschema_description:"Search query for calendar events"`
	StartDate string `json:"startDate,omitempty" jsonschema_description:"Start date (YYYY-MM-DD)"`
	EndDate   string `json:"endDate,omitempty" jsonschema_description:"End date (YYYY-MM-DD)"`
}

type CreateCalendarEventArgs struct {
	Title       string   `json:"title" jsonschema_description:"Event title/subject - REQUIRED"`
	Description string   `json:"description,omitempty" jsonschema_description:"Event description/agenda"`
	StartTime   string   `json:"startTime" jsonschema_description:"Start time (ISO string) - REQUIRED"`
	EndTime     string   `json:"endTime" jsonschema_description:"End time (ISO string) - REQUIRED"`
	Attendees   []string `json:"attendees,omitempty" jsonschema_description:"Array of attendee emails - at least one attendee should be specified"`
	Location    string   `json:"location,omitempty" jsonschema_description:"Event location (optional)"`
}

type DeleteCalendarEventsArgs struct {
	Query     string `json:"query" jsonschema_description:"Search query to find events to delete (e.g., 'all', 'today', 'with Jacob')"`
	StartDate string `json:"startDate,omitempty" jsonschema_description:"Start date filter (YYYY-MM-DD)"`
	EndDate   string `json:"endDate,omitempty" jsonschema_description:"End date filter (YYYY-MM-DD)"`
}

type ProcessAppointmentResponseArgs struct {
	ContactName     string `json:"contactName" jsonschema_description:"Name of the contact who responded"`
	ResponseType    string `json:"responseType" jsonschema:"enum=accepted,enum=declined,enum=alternative_time,enum=unclear" jsonschema_description:"Type of response received"`
	SelectedTime    string `json:"selectedTime,omitempty" jsonschema_description:"Time slot accepted by contact (if accepted)"`
	AlternativeTime string `json:"alternativeTime,omitempty" jsonschema_description:"Alternative time suggested by contact"`
	ResponseText    string `json:"responseText,omitempty" jsonschema_description:"Full text of the response for context"`
}

// Catalog lists every tool exposed to the model on a conversational turn.
func Catalog() []llm.Tool {
	return []llm.Tool{
		{
			Name:        ToolSearchEmails,
			Description: "Search through emails for specific content or sender",
			Parameters:  llm.GenerateSchema[SearchEmailsArgs](),
		},
		{
			Name:        ToolSearchContacts,
			Description: "Search HubSpot contacts by name, email, or other criteria",
			Parameters:  llm.GenerateSchema[SearchContactsArgs](),
		},
		{
			Name:        ToolListAllContacts,
			Description: "List all HubSpot contacts with optional limit",
			Parameters:  llm.GenerateSchema[ListAllContactsArgs](),
		},
		{
			Name:        ToolScheduleAppointment,
			Description: "Schedule an appointment with a contact. Can parse natural language times like '5 AM Jul 13' or 'tomorrow at 2 PM'",
			Parameters:  llm.GenerateSchema[ScheduleAppointmentArgs](),
		},
		{
			Name:        ToolSendEmail,
			Description: "Send an email to a contact",
			Parameters:  llm.GenerateSchema[SendEmailArgs](),
		},
		{
			Name:        ToolCreateTask,
			Description: "Create a task to be completed later",
			Parameters:  llm.GenerateSchema[CreateTaskArgs](),
		},
		{
			Name:        ToolAddOngoingInstruction,
			Description: "Add an ongoing instruction that should be remembered and acted upon for future events",
			Parameters:  llm.GenerateSchema[AddOngoingInstructionArgs](),
		},
		{
			Name:        ToolSendEmailToContact,
			Description: "Send an email to a specific contact",
			Parameters:  llm.GenerateSchema[SendEmailToContactArgs](),
		},
		{
			Name:        ToolCreateHubspotContact,
			Description: "Create a new contact in HubSpot",
			Parameters:  llm.GenerateSchema[CreateHubspotContactArgs](),
		},
		{
			Name:        ToolSearchCalendar,
			Description: "Search calendar events by date range, attendees, or content",
			Parameters:  llm.GenerateSchema[SearchCalendarArgs](),
		},
		{
			Name:        ToolCreateCalendarEvent,
			Description: "Create a new calendar event. IMPORTANT: Always ask the user for missing details before creating. Do not create meetings without proper context.",
			Parameters:  llm.GenerateSchema[CreateCalendarEventArgs](),
		},
		{
			Name:        ToolDeleteCalendarEvents,
			Description: "Delete calendar events matching criteria",
			Parameters:  llm.GenerateSchema[DeleteCalendarEventsArgs](),
		},
		{
			Name:        ToolProcessAppointmentResponse,
			Description: "Process a response to an appointment request and advance the scheduling workflow",
			Parameters:  llm.GenerateSchema[ProcessAppointmentResponseArgs](),
		},
	}
}
