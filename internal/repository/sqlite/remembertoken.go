package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
)

type RememberTokenRepo struct {
	DB *gorm.DB
}

func (r *RememberTokenRepo) Save(ctx context.Context, token models.RememberToken) error {
	row := rememberTokenRow{
		ID:        token.ID.String(),
		UserID:    token.UserID.String(),
		Token:     token.Token,
		CreatedAt: token.CreatedAt,
		ExpiresAt: token.ExpiresAt,
		RevokedAt: token.RevokedAt,
	}

	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get token
// It should return result even it expired or revoked already
func (r *RememberTokenRepo) Get(ctx context.Context, tokenString string) (models.RememberToken, error) {
	return get(r.DB.WithContext(ctx), tokenString)
}

// Revoke token
// Should not rewrite already revoked tokens
func (r *RememberTokenRepo) Revoke(ctx context.Context, tokenString string) (time.Time, error) {
	var revokedAt time.Time

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := get(tx, tokenString)
		if err != nil {
			return err
		}

		if token.RevokedAt != nil {
			revokedAt = *token.RevokedAt
			return fmt.Errorf("repo error: %w", apperrors.ErrRememberTokenRevoked)
		}

		revokedAt = time.Now().UTC()
		err = tx.Model(&rememberTokenRow{}).
			Where("token = ?", tokenString).
			Update("revoked_at", revokedAt).Error
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	})

	return revokedAt, err
}

func get(db *gorm.DB, tokenString string) (models.RememberToken, error) {
	var row rememberTokenRow
	err := db.Where("token = ?", tokenString).First(&row).Error

	switch {
	case err == nil:
		return row.toModel(), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.RememberToken{}, fmt.Errorf("repo error: %w", apperrors.ErrRememberTokenNotFound)
	default:
		return models.RememberToken{}, fmt.Errorf("db error: %w", err)
	}
}
