package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/repository"
	"github.com/nkiryanov/microblog/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/microblog/internal/testutil"
)

func Test_Auth(t *testing.T) {
	t.Parallel()

	hasher := BcryptHasher{Cost: bcrypt.MinCost}

	// Create new AuthService over fresh sqlite storage
	setup := func(t *testing.T) (*AuthService, repository.Storage) {
		storage := testutil.NewSQLiteStorage(t)

		tokenManager, err := tokenmanager.New(tokenmanager.Config{TTL: time.Hour}, storage.RememberToken())
		require.NoError(t, err, "token manager should be created without errors")

		s, err := NewService(Config{Hasher: hasher}, tokenManager, storage)
		require.NoError(t, err, "auth service could't be started", err)

		return s, storage
	}

	register := func(t *testing.T, s *AuthService, username string) models.User {
		user, err := s.Register(t.Context(), RegisterParams{
			Username: username,
			Email:    username + "@example.com",
			Password: "pwd",
		})
		require.NoError(t, err)
		return user
	}

	t.Run("new auth service defaults", func(t *testing.T) {
		tokens, err := tokenmanager.New(tokenmanager.Config{}, nil)
		require.NoError(t, err)

		s, err := NewService(Config{}, tokens, testutil.NewSQLiteStorage(t))
		require.NoError(t, err, "auth service should be created without errors")

		require.Equal(t, BcryptHasher{}, s.hasher, "default hasher should be set to BcryptHasher")
	})

	t.Run("new auth service without deps fail", func(t *testing.T) {
		_, err := NewService(Config{}, nil, nil)
		require.Error(t, err)
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			s, storage := setup(t)

			user, err := s.Register(t.Context(), RegisterParams{
				Username: "nkiryanov",
				Email:    "nkiryanov@example.com",
				Password: "pwd",
			})

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, user.ID)
			require.Equal(t, "nkiryanov", user.Username)
			require.NotEqual(t, "pwd", user.PasswordHash, "password must be hashed")

			got, err := storage.User().GetUserByUsername(t.Context(), "nkiryanov")
			require.NoError(t, err, "user must be saved")
			require.True(t, got.CheckPassword("pwd", hasher))
		})

		t.Run("username taken fail", func(t *testing.T) {
			s, _ := setup(t)
			register(t, s, "nkiryanov")

			_, err := s.Register(t.Context(), RegisterParams{
				Username: "nkiryanov",
				Email:    "other@example.com",
				Password: "pwd",
			})

			require.ErrorIs(t, err, apperrors.ErrUsernameTaken)
		})

		t.Run("email taken fail", func(t *testing.T) {
			s, _ := setup(t)
			register(t, s, "nkiryanov")

			_, err := s.Register(t.Context(), RegisterParams{
				Username: "other",
				Email:    "nkiryanov@example.com",
				Password: "pwd",
			})

			require.ErrorIs(t, err, apperrors.ErrEmailTaken)
		})

		t.Run("username reported first if both taken", func(t *testing.T) {
			s, _ := setup(t)
			register(t, s, "nkiryanov")

			_, err := s.Register(t.Context(), RegisterParams{
				Username: "nkiryanov",
				Email:    "nkiryanov@example.com",
				Password: "pwd",
			})

			require.ErrorIs(t, err, apperrors.ErrUsernameTaken)
		})

		t.Run("empty fields fail", func(t *testing.T) {
			s, _ := setup(t)

			_, err := s.Register(t.Context(), RegisterParams{Username: "john", Email: "john@example.com"})

			require.Error(t, err)
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			s, _ := setup(t)
			user := register(t, s, "nkiryanov")

			result, err := s.Login(t.Context(), LoginParams{Username: "nkiryanov", Password: "pwd"})

			require.NoError(t, err)
			require.Equal(t, user.ID, result.User.ID)
			require.Nil(t, result.Remember, "remember token must not be issued if not requested")
		})

		t.Run("remember me issues token", func(t *testing.T) {
			s, storage := setup(t)
			user := register(t, s, "nkiryanov")

			result, err := s.Login(t.Context(), LoginParams{Username: "nkiryanov", Password: "pwd", Remember: true})

			require.NoError(t, err)
			require.NotNil(t, result.Remember)

			token, err := storage.RememberToken().Get(t.Context(), result.Remember.Value)
			require.NoError(t, err)
			require.Equal(t, user.ID, token.UserID)
		})

		t.Run("wrong password fail", func(t *testing.T) {
			s, _ := setup(t)
			register(t, s, "nkiryanov")

			_, err := s.Login(t.Context(), LoginParams{Username: "nkiryanov", Password: "wrong"})

			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		})

		t.Run("unknown user fail same way", func(t *testing.T) {
			s, _ := setup(t)

			_, err := s.Login(t.Context(), LoginParams{Username: "nobody", Password: "pwd"})

			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		})

		t.Run("user without password fail", func(t *testing.T) {
			s, storage := setup(t)
			_, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
				Username: "nopassword",
				Email:    "nopassword@example.com",
			})
			require.NoError(t, err)

			_, err = s.Login(t.Context(), LoginParams{Username: "nopassword", Password: ""})

			require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("revokes remember token", func(t *testing.T) {
			s, storage := setup(t)
			register(t, s, "nkiryanov")
			result, err := s.Login(t.Context(), LoginParams{Username: "nkiryanov", Password: "pwd", Remember: true})
			require.NoError(t, err)

			err = s.Logout(t.Context(), result.Remember.Value)

			require.NoError(t, err)
			token, err := storage.RememberToken().Get(t.Context(), result.Remember.Value)
			require.NoError(t, err)
			require.NotNil(t, token.RevokedAt)
		})

		t.Run("without token ok", func(t *testing.T) {
			s, _ := setup(t)

			require.NoError(t, s.Logout(t.Context(), ""))
		})

		t.Run("unknown or revoked token ok", func(t *testing.T) {
			s, _ := setup(t)
			register(t, s, "nkiryanov")
			result, err := s.Login(t.Context(), LoginParams{Username: "nkiryanov", Password: "pwd", Remember: true})
			require.NoError(t, err)
			require.NoError(t, s.Logout(t.Context(), result.Remember.Value))

			require.NoError(t, s.Logout(t.Context(), result.Remember.Value), "revoked twice is still logout")
			require.NoError(t, s.Logout(t.Context(), "not-existed"))
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("by session user id", func(t *testing.T) {
			s, _ := setup(t)
			user := register(t, s, "nkiryanov")

			got, err := s.Authenticate(t.Context(), user.ID, "")

			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
		})

		t.Run("by remember token", func(t *testing.T) {
			s, _ := setup(t)
			user := register(t, s, "nkiryanov")
			result, err := s.Login(t.Context(), LoginParams{Username: "nkiryanov", Password: "pwd", Remember: true})
			require.NoError(t, err)

			got, err := s.Authenticate(t.Context(), uuid.Nil, result.Remember.Value)

			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
		})

		t.Run("stale session user falls back to remember token", func(t *testing.T) {
			s, _ := setup(t)
			user := register(t, s, "nkiryanov")
			result, err := s.Login(t.Context(), LoginParams{Username: "nkiryanov", Password: "pwd", Remember: true})
			require.NoError(t, err)

			got, err := s.Authenticate(t.Context(), uuid.New(), result.Remember.Value)

			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
		})

		t.Run("revoked remember token is anonymous", func(t *testing.T) {
			s, _ := setup(t)
			register(t, s, "nkiryanov")
			result, err := s.Login(t.Context(), LoginParams{Username: "nkiryanov", Password: "pwd", Remember: true})
			require.NoError(t, err)
			require.NoError(t, s.Logout(t.Context(), result.Remember.Value))

			_, err = s.Authenticate(t.Context(), uuid.Nil, result.Remember.Value)

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})

		t.Run("nothing is anonymous", func(t *testing.T) {
			s, _ := setup(t)

			_, err := s.Authenticate(t.Context(), uuid.Nil, "")

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})

		t.Run("unknown user id is anonymous", func(t *testing.T) {
			s, _ := setup(t)

			_, err := s.Authenticate(t.Context(), uuid.New(), "")

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})
}
