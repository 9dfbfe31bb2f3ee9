package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/microblog/internal/models"
)

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
}

type UpdateProfileParams struct {
	Username string
	AboutMe  string
}

// Pagination for post listings
type ListParams struct {
	Limit  int
	Offset int
}

// User repository interface
type UserRepo interface {
	// Create user
	// Has to return apperrors.ErrUsernameTaken or apperrors.ErrEmailTaken if such user exists already
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by it's id, username or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Update username and about me
	// Has to return apperrors.ErrUsernameTaken if username belongs to other user
	UpdateProfile(ctx context.Context, userID uuid.UUID, arg UpdateProfileParams) (models.User, error)

	TouchLastSeen(ctx context.Context, userID uuid.UUID, at time.Time) error
}

// Post repository interface
// Listings are ordered by timestamp, newest first, with author filled
type PostRepo interface {
	// Has to return apperrors.ErrUserNotFound if author not exists
	CreatePost(ctx context.Context, authorID uuid.UUID, body string) (models.Post, error)

	ListByAuthor(ctx context.Context, authorID uuid.UUID, arg ListParams) ([]models.Post, error)
	ListRecent(ctx context.Context, arg ListParams) ([]models.Post, error)
}

// Remember token repository interface
type RememberTokenRepo interface {
	Save(ctx context.Context, token models.RememberToken) error

	// Return the token even if it revoked or expired
	// If not found must return apperrors.ErrRememberTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RememberToken, error)

	// Mark token as revoked
	// If the token is revoked already must return apperrors.ErrRememberTokenRevoked and not overwrite 'revokedAt'
	Revoke(ctx context.Context, tokenString string) (revokedAt time.Time, err error)
}

type Storage interface {
	User() UserRepo
	Post() PostRepo
	RememberToken() RememberTokenRepo

	// Run fn in transaction: commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error

	Ping(ctx context.Context) error
}
