package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// DBTX is the query surface shared by pgxpool.Pool and pgx.Tx, so the same
// store code runs inside and outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Stores bundles all store implementations behind their interfaces.
type Stores struct {
	users         UserStore
	conversations ConversationStore
	messages      MessageStore
	tasks         TaskStore
	instructions  InstructionStore
	emails        EmailStore
	calendar      CalendarStore
	contacts      ContactStore
	notes         NoteStore
	credentials   CredentialStore
}

func NewStores(db DBTX) *Stores {
	return &Stores{
		users:         &userStore{db: db},
		conversations: &conversationStore{db: db},
		messages:      &messageStore{db: db},
		tasks:         &taskStore{db: db},
		instructions:  &instructionStore{db: db},
		emails:        &emailStore{db: db},
		calendar:      &calendarStore{db: db},
		contacts:      &contactStore{db: db},
		notes:         &noteStore{db: db},
		credentials:   &credentialStore{db: db},
	}
}

func (s *Stores) Users() UserStore                 { return s.users }
func (s *Stores) Conversations() ConversationStore { return s.conversations }
func (s *Stores) Messages() MessageStore           { return s.messages }
func (s *Stores) Tasks() TaskStore                 { return s.tasks }
func (s *Stores) Instructions() InstructionStore   { return s.instructions }
func (s *Stores) Emails() EmailStore               { return s.emails }
func (s *Stores) Calendar() CalendarStore          { return s.calendar }
func (s *Stores) Contacts() ContactStore           { return s.contacts }
func (s *Stores) Notes() NoteStore                 { return s.notes }
func (s *Stores) Credentials() CredentialStore     { return s.credentials }
