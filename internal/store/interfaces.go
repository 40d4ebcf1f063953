package store

import (
	"context"
	"time"

	"advisorhub.app/assistant/internal/model"
)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

type ConversationStore interface {
	GetByID(ctx context.Context, id int64) (*model.Conversation, error)
	Create(ctx context.Context, conv *model.Conversation) error
	Touch(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.Conversation, error)
	Delete(ctx context.Context, id int64) error
	// DeleteEmptyOlderThan removes conversations with no messages created
	// before the cutoff. Returns the number deleted.
	DeleteEmptyOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type MessageStore interface {
	// ListRecent returns the newest messages in chronological order.
	ListRecent(ctx context.Context, conversationID int64, limit int) ([]model.Message, error)
	Append(ctx context.Context, msg *model.Message) error
}

// TaskFilter narrows task listings. Zero values match everything.
type TaskFilter struct {
	Status       *model.TaskStatus
	ParentTaskID *int64
	Limit        int
}

type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, userID, id int64) (*model.Task, error)
	// GetWithSteps returns a task with its child steps ordered by step order.
	GetWithSteps(ctx context.Context, userID, id int64) (*model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, userID, id int64) error
	List(ctx context.Context, userID int64, filter TaskFilter) ([]model.Task, error)
	// ListOverdue returns open tasks whose due date has passed.
	ListOverdue(ctx context.Context, userID int64, now time.Time) ([]model.Task, error)
	CountByStatus(ctx context.Context, userID int64) (map[model.TaskStatus]int, error)
	CountOverdue(ctx context.Context, userID int64, now time.Time) (int, error)
}

type InstructionStore interface {
	Create(ctx context.Context, ins *model.OngoingInstruction) error
	List(ctx context.Context, userID int64) ([]model.OngoingInstruction, error)
	ListActive(ctx context.Context, userID int64) ([]model.OngoingInstruction, error)
	SetActive(ctx context.Context, userID, id int64, active bool) error
	Delete(ctx context.Context, userID, id int64) error
}

// EmailFilter narrows email listings. Names match the sender field as
// case-insensitive substrings (any of them). Text matches subject, body or
// sender. After/Before bound the received timestamp.
type EmailFilter struct {
	Names  []string
	Text   string
	After  *time.Time
	Before *time.Time
	Limit  int
}

type EmailStore interface {
	ListRecent(ctx context.Context, userID int64, filter EmailFilter) ([]model.EmailMessage, error)
	Insert(ctx context.Context, email *model.EmailMessage) error
}

// CalendarFilter narrows event listings. Text matches title, description and
// attendees as a case-insensitive substring.
type CalendarFilter struct {
	Text   string
	After  *time.Time
	Before *time.Time
	Limit  int
}

type CalendarStore interface {
	List(ctx context.Context, userID int64, filter CalendarFilter) ([]model.CalendarEvent, error)
	GetByID(ctx context.Context, userID, id int64) (*model.CalendarEvent, error)
	Insert(ctx context.Context, event *model.CalendarEvent) error
	Delete(ctx context.Context, userID, id int64) error
}

type ContactStore interface {
	GetByEmail(ctx context.Context, userID int64, email string) (*model.Contact, error)
	// Search matches any term against name, email and company fields.
	Search(ctx context.Context, userID int64, terms []string, limit int) ([]model.Contact, error)
	List(ctx context.Context, userID int64, limit int) ([]model.Contact, error)
	Create(ctx context.Context, contact *model.Contact) error
}

// NoteWithContact is a note joined with its contact's display fields.
type NoteWithContact struct {
	model.ContactNote
	ContactName  string
	ContactEmail *string
}

type NoteStore interface {
	// SearchContent matches note bodies as a case-insensitive substring.
	SearchContent(ctx context.Context, userID int64, query string, limit int) ([]NoteWithContact, error)
	Create(ctx context.Context, note *model.ContactNote) error
}

// CredentialStore resolves per-user provider access tokens. Token refresh is
// owned by the sync layer, not the assistant.
type CredentialStore interface {
	GetAccessToken(ctx context.Context, userID int64, provider string) (string, error)
}
