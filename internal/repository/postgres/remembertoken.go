package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
)

type RememberTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRememberToken
INSERT INTO remember_tokens (id, user_id, token, created_at, expires_at, revoked_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (r *RememberTokenRepo) Save(ctx context.Context, token models.RememberToken) error {
	_, err := r.DB.Exec(ctx, saveToken, token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt, token.RevokedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const getToken = `-- name: GetRememberToken
SELECT id, user_id, created_at, expires_at, revoked_at
FROM remember_tokens
WHERE token = $1
`

// Get token
// It should return result even it expired or revoked already
func (r *RememberTokenRepo) Get(ctx context.Context, tokenString string) (models.RememberToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, tokenString)
	token, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.RememberToken, error) {
		var t = models.RememberToken{Token: tokenString}
		err := row.Scan(&t.ID, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.RevokedAt)
		return t, err
	})

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRememberTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeRememberToken
UPDATE remember_tokens
SET revoked_at = COALESCE(revoked_at, $2)
WHERE token = $1
RETURNING revoked_at
`

// Revoke token
// Should not rewrite already revoked tokens
func (r *RememberTokenRepo) Revoke(ctx context.Context, tokenString string) (time.Time, error) {
	// postgres keeps microseconds only
	now := time.Now().Truncate(time.Microsecond)
	rows, _ := r.DB.Query(ctx, revokeToken, tokenString, now)
	revokedAt, err := pgx.CollectOneRow(rows, pgx.RowTo[time.Time])

	switch {
	case err == nil && revokedAt.Equal(now):
		return revokedAt, nil
	case err == nil: // revokedAt != now == token is revoked before
		return revokedAt, fmt.Errorf("repo error: %w", apperrors.ErrRememberTokenRevoked)
	case errors.Is(err, pgx.ErrNoRows):
		return revokedAt, fmt.Errorf("repo error: %w", apperrors.ErrRememberTokenNotFound)
	default:
		return revokedAt, fmt.Errorf("db error: %w", err)
	}
}
