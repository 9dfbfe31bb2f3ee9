package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/repository"
)

type UserRepo struct {
	DB *gorm.DB
}

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	now := time.Now().UTC()
	row := userRow{
		ID:           uuid.NewString(),
		CreatedAt:    now,
		Username:     arg.Username,
		Email:        arg.Email,
		PasswordHash: nullable(arg.PasswordHash),
		LastSeen:     now,
	}

	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return models.User{}, uniqueViolationToErr(err)
	}

	return row.toModel(), nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return r.first(ctx, "id = ?", id.String())
}

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, arg repository.UpdateProfileParams) (models.User, error) {
	res := r.DB.WithContext(ctx).
		Model(&userRow{}).
		Where("id = ?", id.String()).
		Updates(map[string]any{"username": arg.Username, "about_me": nullable(arg.AboutMe)})

	switch {
	case res.Error != nil:
		return models.User{}, uniqueViolationToErr(res.Error)
	case res.RowsAffected == 0:
		return models.User{}, apperrors.ErrUserNotFound
	}

	return r.GetUserByID(ctx, id)
}

func (r *UserRepo) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.DB.WithContext(ctx).
		Model(&userRow{}).
		Where("id = ?", id.String()).
		Update("last_seen", at)

	switch {
	case res.Error != nil:
		return fmt.Errorf("db error: %w", res.Error)
	case res.RowsAffected == 0:
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) first(ctx context.Context, query string, args ...any) (models.User, error) {
	var row userRow
	err := r.DB.WithContext(ctx).Where(query, args...).First(&row).Error

	switch {
	case err == nil:
		return row.toModel(), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.User{}, apperrors.ErrUserNotFound
	default:
		return models.User{}, fmt.Errorf("db error: %w", err)
	}
}

// sqlite reports unique violations as 'UNIQUE constraint failed: users.username'
func uniqueViolationToErr(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: users.username"):
		return apperrors.ErrUsernameTaken
	case strings.Contains(msg, "UNIQUE constraint failed: users.email"):
		return apperrors.ErrEmailTaken
	default:
		return fmt.Errorf("db error: %w", err)
	}
}
