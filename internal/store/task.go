package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"advisorhub.app/assistant/internal/model"
	"github.com/jackc/pgx/v5"
)

type taskStore struct {
	db DBTX
}

const taskColumns = `id, user_id, title, description, status, priority, due_date,
	completed_at, metadata, parent_task_id, step_order, created_at, updated_at`

func (s *taskStore) Create(ctx context.Context, task *model.Task) error {
	metadata, err := marshalMetadata(task.Metadata)
	if err != nil {
		return err
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO tasks (id, user_id, title, description, status, priority, due_date, metadata, parent_task_id, step_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+taskColumns,
		task.ID, task.UserID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, metadata, task.ParentTaskID, task.StepOrder)
	created, err := scanTask(row)
	if err != nil {
		return err
	}
	*task = *created
	return nil
}

func (s *taskStore) GetByID(ctx context.Context, userID, id int64) (*model.Task, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *taskStore) GetWithSteps(ctx context.Context, userID, id int64) (*model.Task, error) {
	task, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE parent_task_id = $1 AND user_id = $2 ORDER BY step_order ASC`, id, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		step, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		task.Steps = append(task.Steps, *step)
	}
	return task, rows.Err()
}

func (s *taskStore) Update(ctx context.Context, task *model.Task) error {
	metadata, err := marshalMetadata(task.Metadata)
	if err != nil {
		return err
	}

	row := s.db.QueryRow(ctx,
		`UPDATE tasks SET title = $3, description = $4, status = $5, priority = $6,
			due_date = $7, completed_at = $8, metadata = $9, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+taskColumns,
		task.ID, task.UserID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, task.CompletedAt, metadata)
	updated, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	steps := task.Steps
	*task = *updated
	task.Steps = steps
	return nil
}

func (s *taskStore) Delete(ctx context.Context, userID, id int64) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *taskStore) List(ctx context.Context, userID int64, filter TaskFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []any{userID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.ParentTaskID != nil {
		args = append(args, *filter.ParentTaskID)
		query += fmt.Sprintf(` AND parent_task_id = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	return s.queryTasks(ctx, query, args...)
}

func (s *taskStore) ListOverdue(ctx context.Context, userID int64, now time.Time) ([]model.Task, error) {
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = $1 AND status <> 'completed' AND due_date IS NOT NULL AND due_date < $2
		 ORDER BY due_date ASC`, userID, now)
}

func (s *taskStore) CountByStatus(ctx context.Context, userID int64) (map[model.TaskStatus]int, error) {
	rows, err := s.db.Query(ctx,
		`SELECT status, count(*) FROM tasks WHERE user_id = $1 GROUP BY status`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.TaskStatus]int)
	for rows.Next() {
		var (
			status model.TaskStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (s *taskStore) CountOverdue(ctx context.Context, userID int64, now time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT count(*) FROM tasks
		 WHERE user_id = $1 AND status <> 'completed' AND due_date IS NOT NULL AND due_date < $2`,
		userID, now).Scan(&n)
	return n, err
}

func (s *taskStore) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *task)
	}
	return out, rows.Err()
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		t           model.Task
		rawMetadata []byte
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.DueDate, &t.CompletedAt, &rawMetadata, &t.ParentTaskID, &t.StepOrder,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(rawMetadata) > 0 {
		if err := json.Unmarshal(rawMetadata, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal task metadata: %w", err)
		}
	}
	return &t, nil
}

func marshalMetadata(m model.Metadata) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal task metadata: %w", err)
	}
	return data, nil
}
