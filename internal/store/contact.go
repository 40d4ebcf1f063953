package store

import (
	"context"
	"errors"
	"fmt"

	"advisorhub.app/assistant/internal/model"
	"github.com/jackc/pgx/v5"
)

type contactStore struct {
	db DBTX
}

const contactColumns = `id, user_id, hubspot_id, email, first_name, last_name, company, phone, created_at, updated_at`

func (s *contactStore) GetByEmail(ctx context.Context, userID int64, email string) (*model.Contact, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE user_id = $1 AND lower(email) = lower($2)`,
		userID, email)
	c, err := scanContact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *contactStore) Search(ctx context.Context, userID int64, terms []string, limit int) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1`
	args := []any{userID}

	if len(terms) > 0 {
		clause := ``
		for i, term := range terms {
			args = append(args, "%"+term+"%")
			n := len(args)
			if i > 0 {
				clause += ` OR `
			}
			clause += fmt.Sprintf(`(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d)`, n, n, n, n)
		}
		query += ` AND (` + clause + `)`
	}

	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY updated_at DESC LIMIT $%d`, len(args))

	return s.queryContacts(ctx, query, args...)
}

func (s *contactStore) List(ctx context.Context, userID int64, limit int) ([]model.Contact, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.queryContacts(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE user_id = $1 ORDER BY last_name NULLS LAST, first_name NULLS LAST LIMIT $2`,
		userID, limit)
}

func (s *contactStore) Create(ctx context.Context, contact *model.Contact) error {
	row := s.db.QueryRow(ctx,
		`INSERT INTO contacts (id, user_id, hubspot_id, email, first_name, last_name, company, phone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`,
		contact.ID, contact.UserID, contact.HubspotID, contact.Email,
		contact.FirstName, contact.LastName, contact.Company, contact.Phone)
	return row.Scan(&contact.CreatedAt, &contact.UpdatedAt)
}

func (s *contactStore) queryContacts(ctx context.Context, query string, args ...any) ([]model.Contact, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func scanContact(row pgx.Row) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(&c.ID, &c.UserID, &c.HubspotID, &c.Email, &c.FirstName, &c.LastName,
		&c.Company, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type noteStore struct {
	db DBTX
}

func (s *noteStore) SearchContent(ctx context.Context, userID int64, query string, limit int) ([]NoteWithContact, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx,
		`SELECT n.id, n.user_id, n.contact_id, n.hubspot_note_id, n.content, n.created_at,
		        trim(coalesce(c.first_name, '') || ' ' || coalesce(c.last_name, '')), c.email
		 FROM contact_notes n
		 LEFT JOIN contacts c ON c.id = n.contact_id
		 WHERE n.user_id = $1 AND n.content ILIKE $2
		 ORDER BY n.created_at DESC LIMIT $3`,
		userID, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NoteWithContact
	for rows.Next() {
		var n NoteWithContact
		var name *string
		if err := rows.Scan(&n.ID, &n.UserID, &n.ContactID, &n.HubspotNoteID, &n.Content, &n.CreatedAt, &name, &n.ContactEmail); err != nil {
			return nil, err
		}
		if name != nil {
			n.ContactName = *name
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *noteStore) Create(ctx context.Context, note *model.ContactNote) error {
	row := s.db.QueryRow(ctx,
		`INSERT INTO contact_notes (id, user_id, contact_id, hubspot_note_id, content)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		note.ID, note.UserID, note.ContactID, note.HubspotNoteID, note.Content)
	return row.Scan(&note.CreatedAt)
}
