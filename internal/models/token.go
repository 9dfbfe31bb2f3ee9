package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/microblog/internal/apperrors"
)

// Persistent "remember me" login token
type RememberToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time // nil if token not revoked
}

// Check the token may still log the user in at the moment
func (t RememberToken) Check(now time.Time) error {
	switch {
	case t.RevokedAt != nil:
		return apperrors.ErrRememberTokenRevoked
	case !t.ExpiresAt.After(now):
		return apperrors.ErrRememberTokenExpired
	}
	return nil
}

// Token value handed to the client together with its expiration
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}
