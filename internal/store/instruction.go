package store

import (
	"context"

	"advisorhub.app/assistant/internal/model"
)

type instructionStore struct {
	db DBTX
}

const instructionColumns = `id, user_id, instruction, is_active, created_at, updated_at`

func (s *instructionStore) Create(ctx context.Context, ins *model.OngoingInstruction) error {
	row := s.db.QueryRow(ctx,
		`INSERT INTO ongoing_instructions (id, user_id, instruction, is_active)
		 VALUES ($1, $2, $3, $4) RETURNING created_at, updated_at`,
		ins.ID, ins.UserID, ins.Instruction, ins.IsActive)
	return row.Scan(&ins.CreatedAt, &ins.UpdatedAt)
}

func (s *instructionStore) List(ctx context.Context, userID int64) ([]model.OngoingInstruction, error) {
	return s.query(ctx,
		`SELECT `+instructionColumns+` FROM ongoing_instructions
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *instructionStore) ListActive(ctx context.Context, userID int64) ([]model.OngoingInstruction, error) {
	return s.query(ctx,
		`SELECT `+instructionColumns+` FROM ongoing_instructions
		 WHERE user_id = $1 AND is_active ORDER BY created_at DESC`, userID)
}

func (s *instructionStore) SetActive(ctx context.Context, userID, id int64, active bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE ongoing_instructions SET is_active = $3, updated_at = now()
		 WHERE id = $1 AND user_id = $2`, id, userID, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *instructionStore) Delete(ctx context.Context, userID, id int64) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM ongoing_instructions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *instructionStore) query(ctx context.Context, query string, args ...any) ([]model.OngoingInstruction, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.OngoingInstruction
	for rows.Next() {
		var ins model.OngoingInstruction
		if err := rows.Scan(&ins.ID, &ins.UserID, &ins.Instruction, &ins.IsActive, &ins.CreatedAt, &ins.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, ins)
	}
	return out, rows.Err()
}
