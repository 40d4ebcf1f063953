package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

type credentialStore struct {
	db DBTX
}

func (s *credentialStore) GetAccessToken(ctx context.Context, userID int64, provider string) (string, error) {
	var token string
	err := s.db.QueryRow(ctx,
		`SELECT access_token FROM provider_credentials WHERE user_id = $1 AND provider = $2`,
		userID, provider).Scan(&token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return token, nil
}
