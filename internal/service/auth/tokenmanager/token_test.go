package tokenmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/repository"
	"github.com/nkiryanov/microblog/internal/testutil"
)

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T, ttl time.Duration) (*TokenManager, repository.Storage, models.User) {
		storage := testutil.NewSQLiteStorage(t)
		user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Username: "testuser",
			Email:    "testuser@example.com",
		})
		require.NoError(t, err)

		m, err := New(Config{TTL: ttl}, storage.RememberToken())
		require.NoError(t, err, "token manager should be created without errors")

		return m, storage, user
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{}, nil)
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, defaultTTL, m.TTL(), "default ttl should be set")
	})

	t.Run("new negative ttl fail", func(t *testing.T) {
		_, err := New(Config{TTL: -time.Second}, nil)
		require.Error(t, err)
	})

	t.Run("Issue", func(t *testing.T) {
		m, storage, user := setup(t, 24*time.Hour)

		issued, err := m.Issue(t.Context(), user.ID)

		require.NoError(t, err)
		assert.Len(t, issued.Value, 2*tokenBytesLen, "token is hex encoded")
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), issued.ExpiresAt, 2*time.Second)

		saved, err := storage.RememberToken().Get(t.Context(), issued.Value)
		require.NoError(t, err, "issued token must be saved")
		assert.Equal(t, user.ID, saved.UserID)
		assert.Nil(t, saved.RevokedAt)
	})

	t.Run("Issue unique tokens", func(t *testing.T) {
		m, _, user := setup(t, time.Hour)

		first, err := m.Issue(t.Context(), user.ID)
		require.NoError(t, err)
		second, err := m.Issue(t.Context(), user.ID)
		require.NoError(t, err)

		assert.NotEqual(t, first.Value, second.Value)
	})

	t.Run("Use", func(t *testing.T) {
		t.Run("valid ok", func(t *testing.T) {
			m, _, user := setup(t, time.Hour)
			issued, err := m.Issue(t.Context(), user.ID)
			require.NoError(t, err)

			token, err := m.Use(t.Context(), issued.Value)

			require.NoError(t, err)
			assert.Equal(t, user.ID, token.UserID)

			_, err = m.Use(t.Context(), issued.Value)
			require.NoError(t, err, "remember token may be used many times")
		})

		t.Run("not existed fail", func(t *testing.T) {
			m, _, _ := setup(t, time.Hour)

			_, err := m.Use(t.Context(), "not-existed")

			require.ErrorIs(t, err, apperrors.ErrRememberTokenNotFound)
		})

		t.Run("revoked fail", func(t *testing.T) {
			m, _, user := setup(t, time.Hour)
			issued, err := m.Issue(t.Context(), user.ID)
			require.NoError(t, err)
			require.NoError(t, m.Revoke(t.Context(), issued.Value))

			_, err = m.Use(t.Context(), issued.Value)

			require.ErrorIs(t, err, apperrors.ErrRememberTokenRevoked)
		})

		t.Run("expired fail", func(t *testing.T) {
			m, _, user := setup(t, time.Second)
			issued, err := m.Issue(t.Context(), user.ID)
			require.NoError(t, err)

			// Issued time is truncated to seconds so wait a bit more than ttl
			time.Sleep(time.Second + 100*time.Millisecond)
			_, err = m.Use(t.Context(), issued.Value)

			require.ErrorIs(t, err, apperrors.ErrRememberTokenExpired)
		})
	})

	t.Run("Revoke twice fail", func(t *testing.T) {
		m, _, user := setup(t, time.Hour)
		issued, err := m.Issue(t.Context(), user.ID)
		require.NoError(t, err)

		require.NoError(t, m.Revoke(t.Context(), issued.Value))
		err = m.Revoke(t.Context(), issued.Value)

		require.ErrorIs(t, err, apperrors.ErrRememberTokenRevoked)
	})
}
