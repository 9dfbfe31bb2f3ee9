package tokenmanager

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/repository"
)

const (
	// Remember cookie lives for a year
	defaultTTL = 365 * 24 * time.Hour

	tokenBytesLen = 16
)

// Remember token manager with sensible default
type Config struct {
	// Remember token lifetime
	// If not set than default is used
	TTL time.Duration
}

type TokenManager struct {
	ttl  time.Duration
	repo repository.RememberTokenRepo
}

func New(cfg Config, repo repository.RememberTokenRepo) (*TokenManager, error) {
	if cfg.TTL < 0 {
		return nil, errors.New("remember token ttl must not be negative")
	}
	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}

	return &TokenManager{
		ttl:  cfg.TTL,
		repo: repo,
	}, nil
}

func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue new remember token for user and save it
func (m *TokenManager) Issue(ctx context.Context, userID uuid.UUID) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(m.ttl)

	// Generate random token 16 bytes length
	b := make([]byte, tokenBytesLen)
	_, err := rand.Read(b)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while generate remember token. Err: %w", err)
	}
	value := hex.EncodeToString(b)

	err = m.repo.Save(ctx, models.RememberToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     value,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		RevokedAt: nil,
	})
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while saving remember token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// Return token if it neither revoked nor expired
func (m *TokenManager) Use(ctx context.Context, value string) (models.RememberToken, error) {
	token, err := m.repo.Get(ctx, value)
	if err != nil {
		return token, fmt.Errorf("error while getting remember token. Err: %w", err)
	}

	if err := token.Check(time.Now()); err != nil {
		return token, fmt.Errorf("remember token can't be used. Err: %w", err)
	}

	return token, nil
}

func (m *TokenManager) Revoke(ctx context.Context, value string) error {
	_, err := m.repo.Revoke(ctx, value)
	if err != nil {
		return fmt.Errorf("error while revoking remember token. Err: %w", err)
	}
	return nil
}
