package store

import (
	"context"
	"errors"
	"fmt"

	"advisorhub.app/assistant/internal/model"
	"github.com/jackc/pgx/v5"
)

type calendarStore struct {
	db DBTX
}

const calendarColumns = `id, user_id, google_event_id, title, description, start_time, end_time, attendees, location, created_at, updated_at`

func (s *calendarStore) List(ctx context.Context, userID int64, filter CalendarFilter) ([]model.CalendarEvent, error) {
	query := `SELECT ` + calendarColumns + ` FROM calendar_events WHERE user_id = $1`
	args := []any{userID}

	if filter.Text != "" {
		args = append(args, "%"+filter.Text+"%")
		n := len(args)
		query += fmt.Sprintf(` AND (title ILIKE $%d OR description ILIKE $%d OR array_to_string(attendees, ',') ILIKE $%d)`, n, n, n)
	}
	if filter.After != nil {
		args = append(args, *filter.After)
		query += fmt.Sprintf(` AND start_time >= $%d`, len(args))
	}
	if filter.Before != nil {
		args = append(args, *filter.Before)
		query += fmt.Sprintf(` AND start_time <= $%d`, len(args))
	}

	query += ` ORDER BY start_time ASC`
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

	var out []model.CalendarEvent
	for rows.Next() {
		ev, err := scanCalendarEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

func (s *calendarStore) GetByID(ctx context.Context, userID, id int64) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+calendarColumns+` FROM calendar_events WHERE id = $1 AND user_id = $2`, id, userID)
	ev, err := scanCalendarEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return ev, nil
}

func (s *calendarStore) Insert(ctx context.Context, event *model.CalendarEvent) error {
	row := s.db.QueryRow(ctx,
		`INSERT INTO calendar_events (id, user_id, google_event_id, title, description, start_time, end_time, attendees, location)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id, google_event_id) DO UPDATE SET title = EXCLUDED.title,
			description = EXCLUDED.description, start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time, attendees = EXCLUDED.attendees, updated_at = now()
		 RETURNING id, created_at, updated_at`,
		event.ID, event.UserID, event.GoogleEventID, event.Title, event.Description,
		event.StartTime, event.EndTime, event.Attendees, event.Location)
	return row.Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
}

func (s *calendarStore) Delete(ctx context.Context, userID, id int64) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM calendar_events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCalendarEvent(row pgx.Row) (*model.CalendarEvent, error) {
	var ev model.CalendarEvent
	err := row.Scan(&ev.ID, &ev.UserID, &ev.GoogleEventID, &ev.Title, &ev.Description,
		&ev.StartTime, &ev.EndTime, &ev.Attendees, &ev.Location, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
