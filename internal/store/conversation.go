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

type conversationStore struct {
	db DBTX
}

const conversationColumns = `id, user_id, title, created_at, updated_at`

func (s *conversationStore) GetByID(ctx context.Context, id int64) (*model.Conversation, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	return scanConversation(row)
}

func (s *conversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	row := s.db.QueryRow(ctx,
		`INSERT INTO conversations (id, user_id, title) VALUES ($1, $2, $3) RETURNING `+conversationColumns,
		conv.ID, conv.UserID, conv.Title)
	created, err := scanConversation(row)
	if err != nil {
		return err
	}
	*conv = *created
	return nil
}

func (s *conversationStore) Touch(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx,
		`UPDATE conversations SET updated_at = now() WHERE id = $1`, id)
	return err
}

func (s *conversationStore) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Conversation, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations
		 WHERE user_id = $1 ORDER BY updated_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *conversationStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	return err
}

func (s *conversationStore) DeleteEmptyOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM conversations c
		 WHERE c.created_at < $1
		   AND NOT EXISTS (SELECT 1 FROM messages m WHERE m.conversation_id = c.id)`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanConversation(row pgx.Row) (*model.Conversation, error) {
	var c model.Conversation
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

type messageStore struct {
	db DBTX
}

func (s *messageStore) ListRecent(ctx context.Context, conversationID int64, limit int) ([]model.Message, error) {
	// Newest N, then flipped back to chronological order.
	rows, err := s.db.Query(ctx,
		`SELECT id, conversation_id, role, content, tool_calls, created_at
		 FROM messages WHERE conversation_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *messageStore) Append(ctx context.Context, msg *model.Message) error {
	var toolCalls []byte
	if len(msg.ToolCalls) > 0 {
		data, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return fmt.Errorf("marshal tool calls: %w", err)
		}
		toolCalls = data
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, tool_calls)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at`,
		msg.ID, msg.ConversationID, msg.Role, msg.Content, toolCalls)
	return row.Scan(&msg.CreatedAt)
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var (
		m        model.Message
		rawCalls []byte
	)
	if err := row.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &rawCalls, &m.CreatedAt); err != nil {
		return nil, err
	}
	if len(rawCalls) > 0 {
		if err := json.Unmarshal(rawCalls, &m.ToolCalls); err != nil {
			return nil, fmt.Errorf("unmarshal tool calls: %w", err)
		}
	}
	return &m, nil
}
