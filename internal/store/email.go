package store

import (
	"context"
	"fmt"

	"advisorhub.app/assistant/internal/model"
)

type emailStore struct {
	db DBTX
}

const emailColumns = `id, user_id, gmail_id, sender, recipients, subject, body, received_at, created_at`

func (s *emailStore) ListRecent(ctx context.Context, userID int64, filter EmailFilter) ([]model.EmailMessage, error) {
	query := `SELECT ` + emailColumns + ` FROM email_messages WHERE user_id = $1`
	args := []any{userID}

	if len(filter.Names) > 0 {
		// Any of the names may appear in the sender field.
		clause := ``
		for i, name := range filter.Names {
			args = append(args, "%"+name+"%")
			if i > 0 {
				clause += ` OR `
			}
			clause += fmt.Sprintf(`sender ILIKE $%d`, len(args))
		}
		query += ` AND (` + clause + `)`
	}
	if filter.Text != "" {
		args = append(args, "%"+filter.Text+"%")
		n := len(args)
		query += fmt.Sprintf(` AND (subject ILIKE $%d OR body ILIKE $%d OR sender ILIKE $%d)`, n, n, n)
	}
	if filter.After != nil {
		args = append(args, *filter.After)
		query += fmt.Sprintf(` AND received_at >= $%d`, len(args))
	}
	if filter.Before != nil {
		args = append(args, *filter.Before)
		query += fmt.Sprintf(` AND received_at <= $%d`, len(args))
	}

	query += ` ORDER BY received_at DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(` LIMIT $%d`, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EmailMessage
	for rows.Next() {
		var e model.EmailMessage
		if err := rows.Scan(&e.ID, &e.UserID, &e.GmailID, &e.From, &e.To, &e.Subject, &e.Body, &e.ReceivedAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *emailStore) Insert(ctx context.Context, email *model.EmailMessage) error {
	row := s.db.QueryRow(ctx,
		`INSERT INTO email_messages (id, user_id, gmail_id, sender, recipients, subject, body, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, gmail_id) DO UPDATE SET subject = EXCLUDED.subject, body = EXCLUDED.body
		 RETURNING id, created_at`,
		email.ID, email.UserID, email.GmailID, email.From, email.To, email.Subject, email.Body, email.ReceivedAt)
	return row.Scan(&email.ID, &email.CreatedAt)
}
