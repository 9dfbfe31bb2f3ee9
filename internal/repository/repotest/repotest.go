// Package repotest holds behaviour tests every repository.Storage implementation has to pass
package repotest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/repository"
)

// Run fn with clean storage
// Implementations decide how to get one: transaction rolled back at the end, new database file, etc.
type WithStorage func(t *testing.T, fn func(s repository.Storage))

func Run(t *testing.T, withStorage WithStorage) {
	t.Run("UserRepo", func(t *testing.T) { testUserRepo(t, withStorage) })
	t.Run("PostRepo", func(t *testing.T) { testPostRepo(t, withStorage) })
	t.Run("RememberTokenRepo", func(t *testing.T) { testRememberTokenRepo(t, withStorage) })
	t.Run("InTx", func(t *testing.T) { testInTx(t, withStorage) })
}

func createUser(t *testing.T, s repository.Storage, username string) models.User {
	t.Helper()

	user, err := s.User().CreateUser(t.Context(), repository.CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hashed-" + username,
	})
	require.NoError(t, err, "creating user %q should not fail", username)

	return user
}

func testUserRepo(t *testing.T, withStorage WithStorage) {
	t.Run("create user ok", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			user, err := s.User().CreateUser(t.Context(), repository.CreateUserParams{
				Username:     "susan",
				Email:        "susan@example.com",
				PasswordHash: "hashedpassword123",
			})

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, user.ID)
			assert.Equal(t, "susan", user.Username)
			assert.Equal(t, "susan@example.com", user.Email)
			assert.Equal(t, "hashedpassword123", user.PasswordHash)
			assert.Empty(t, user.AboutMe)
			assert.WithinDuration(t, time.Now(), user.CreatedAt, 5*time.Second, "CreatedAt should be recent")
			assert.WithinDuration(t, time.Now(), user.LastSeen, 5*time.Second, "LastSeen should default to now")
		})
	})

	t.Run("create user without password ok", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			user, err := s.User().CreateUser(t.Context(), repository.CreateUserParams{
				Username: "john",
				Email:    "john@example.com",
			})
			require.NoError(t, err)

			got, err := s.User().GetUserByID(t.Context(), user.ID)

			require.NoError(t, err)
			assert.Empty(t, got.PasswordHash, "null password hash should be read as empty string")
		})
	})

	t.Run("create duplicate fail", func(t *testing.T) {
		tests := []struct {
			name        string
			username    string
			email       string
			expectedErr error
		}{
			{"same username", "susan", "other@example.com", apperrors.ErrUsernameTaken},
			{"same email", "other", "susan@example.com", apperrors.ErrEmailTaken},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				withStorage(t, func(s repository.Storage) {
					createUser(t, s, "susan")

					_, err := s.User().CreateUser(t.Context(), repository.CreateUserParams{
						Username:     tt.username,
						Email:        tt.email,
						PasswordHash: "hash",
					})

					require.Error(t, err)
					require.ErrorIs(t, err, tt.expectedErr)
				})
			})
		}
	})

	t.Run("get user ok", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			created := createUser(t, s, "findme")

			getters := map[string]func(context.Context) (models.User, error){
				"by id":       func(ctx context.Context) (models.User, error) { return s.User().GetUserByID(ctx, created.ID) },
				"by username": func(ctx context.Context) (models.User, error) { return s.User().GetUserByUsername(ctx, "findme") },
				"by email":    func(ctx context.Context) (models.User, error) { return s.User().GetUserByEmail(ctx, "findme@example.com") },
			}

			for name, get := range getters {
				got, err := get(t.Context())

				require.NoError(t, err, name)
				assert.Equal(t, created.ID, got.ID, name)
				assert.Equal(t, created.Username, got.Username, name)
				assert.Equal(t, created.Email, got.Email, name)
				assert.Equal(t, created.PasswordHash, got.PasswordHash, name)
				assert.WithinDuration(t, created.CreatedAt, got.CreatedAt, time.Millisecond, name)
			}
		})
	})

	t.Run("get user not found", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			_, err := s.User().GetUserByID(t.Context(), uuid.New())
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

			_, err = s.User().GetUserByUsername(t.Context(), "nonexistentuser")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

			_, err = s.User().GetUserByEmail(t.Context(), "nobody@example.com")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("update profile ok", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			user := createUser(t, s, "susan")

			got, err := s.User().UpdateProfile(t.Context(), user.ID, repository.UpdateProfileParams{
				Username: "susan2",
				AboutMe:  "I like cats",
			})

			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
			assert.Equal(t, "susan2", got.Username)
			assert.Equal(t, "I like cats", got.AboutMe)
			assert.Equal(t, user.Email, got.Email, "email must left untouched")

			_, err = s.User().GetUserByUsername(t.Context(), "susan")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "old username must be free")
		})
	})

	t.Run("update profile same username ok", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			user := createUser(t, s, "susan")

			got, err := s.User().UpdateProfile(t.Context(), user.ID, repository.UpdateProfileParams{Username: "susan"})

			require.NoError(t, err)
			assert.Equal(t, "susan", got.Username)
		})
	})

	t.Run("update profile to taken username fail", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			createUser(t, s, "john")
			user := createUser(t, s, "susan")

			_, err := s.User().UpdateProfile(t.Context(), user.ID, repository.UpdateProfileParams{Username: "john"})

			require.ErrorIs(t, err, apperrors.ErrUsernameTaken)
		})
	})

	t.Run("update profile not existed fail", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			_, err := s.User().UpdateProfile(t.Context(), uuid.New(), repository.UpdateProfileParams{Username: "ghost"})

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("touch last seen", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			user := createUser(t, s, "susan")
			at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

			err := s.User().TouchLastSeen(t.Context(), user.ID, at)
			require.NoError(t, err)

			got, err := s.User().GetUserByID(t.Context(), user.ID)
			require.NoError(t, err)
			assert.True(t, at.Equal(got.LastSeen), "last seen should be updated, got %v", got.LastSeen)

			err = s.User().TouchLastSeen(t.Context(), uuid.New(), at)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})
}

func testPostRepo(t *testing.T, withStorage WithStorage) {
	t.Run("create post ok", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			user := createUser(t, s, "john")

			post, err := s.Post().CreatePost(t.Context(), user.ID, "my first post!")

			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, post.ID)
			assert.Equal(t, "my first post!", post.Body)
			assert.Equal(t, user.ID, post.UserID)
			assert.WithinDuration(t, time.Now(), post.Timestamp, 5*time.Second, "timestamp should default to now")
		})
	})

	t.Run("create post unknown author fail", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			_, err := s.Post().CreatePost(t.Context(), uuid.New(), "orphan")

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("list posts", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			john := createUser(t, s, "john")
			susan := createUser(t, s, "susan")

			for i := range 3 {
				_, err := s.Post().CreatePost(t.Context(), john.ID, fmt.Sprintf("john post %d", i))
				require.NoError(t, err)
				_, err = s.Post().CreatePost(t.Context(), susan.ID, fmt.Sprintf("susan post %d", i))
				require.NoError(t, err)
				time.Sleep(2 * time.Millisecond) // keep timestamps distinct
			}

			t.Run("by author newest first", func(t *testing.T) {
				posts, err := s.Post().ListByAuthor(t.Context(), john.ID, repository.ListParams{Limit: 10})

				require.NoError(t, err)
				require.Len(t, posts, 3)
				assert.Equal(t, "john post 2", posts[0].Body)
				assert.Equal(t, "john post 0", posts[2].Body)
				for _, p := range posts {
					assert.Equal(t, john.ID, p.Author.ID)
					assert.Equal(t, "john", p.Author.Username)
					assert.Equal(t, "john@example.com", p.Author.Email)
				}
			})

			t.Run("by author paginated", func(t *testing.T) {
				posts, err := s.Post().ListByAuthor(t.Context(), susan.ID, repository.ListParams{Limit: 2, Offset: 2})

				require.NoError(t, err)
				require.Len(t, posts, 1)
				assert.Equal(t, "susan post 0", posts[0].Body)
			})

			t.Run("author without posts", func(t *testing.T) {
				nobody := createUser(t, s, "nobody")

				posts, err := s.Post().ListByAuthor(t.Context(), nobody.ID, repository.ListParams{Limit: 10})

				require.NoError(t, err)
				assert.Empty(t, posts)
			})

			t.Run("recent", func(t *testing.T) {
				posts, err := s.Post().ListRecent(t.Context(), repository.ListParams{Limit: 4})

				require.NoError(t, err)
				require.Len(t, posts, 4)
				for i := 1; i < len(posts); i++ {
					assert.False(t, posts[i].Timestamp.After(posts[i-1].Timestamp), "posts should be ordered newest first")
				}
				assert.Equal(t, "susan", posts[0].Author.Username)
			})
		})
	})
}

func testRememberTokenRepo(t *testing.T, withStorage WithStorage) {
	newToken := func(userID uuid.UUID) models.RememberToken {
		return models.RememberToken{
			ID:        uuid.New(),
			UserID:    userID,
			Token:     "secret-token",
			CreatedAt: time.Date(2024, 1, 1, 19, 0, 1, 0, time.UTC),
			ExpiresAt: time.Date(2200, 1, 1, 3, 0, 2, 0, time.UTC),
			RevokedAt: nil,
		}
	}

	t.Run("save and get ok", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			user := createUser(t, s, "john")
			token := newToken(user.ID)

			err := s.RememberToken().Save(t.Context(), token)
			require.NoError(t, err)

			got, err := s.RememberToken().Get(t.Context(), token.Token)

			require.NoError(t, err)
			assert.Equal(t, token.ID, got.ID)
			assert.Equal(t, token.UserID, got.UserID)
			assert.Equal(t, token.Token, got.Token)
			assert.WithinDuration(t, token.CreatedAt, got.CreatedAt, 0)
			assert.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, 0)
			assert.Nil(t, got.RevokedAt)
		})
	})

	t.Run("get not existed fail", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			_, err := s.RememberToken().Get(t.Context(), "not-existed")

			require.ErrorIs(t, err, apperrors.ErrRememberTokenNotFound)
		})
	})

	t.Run("revoke ok", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			user := createUser(t, s, "john")
			token := newToken(user.ID)
			require.NoError(t, s.RememberToken().Save(t.Context(), token))

			revokedAt, err := s.RememberToken().Revoke(t.Context(), token.Token)
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now(), revokedAt, 5*time.Second)

			got, err := s.RememberToken().Get(t.Context(), token.Token)
			require.NoError(t, err)
			require.NotNil(t, got.RevokedAt, "token must be marked revoked")
			assert.WithinDuration(t, revokedAt, *got.RevokedAt, time.Microsecond)
		})
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			user := createUser(t, s, "john")
			token := newToken(user.ID)
			require.NoError(t, s.RememberToken().Save(t.Context(), token))

			first, err := s.RememberToken().Revoke(t.Context(), token.Token)
			require.NoError(t, err)

			time.Sleep(10 * time.Millisecond)
			second, err := s.RememberToken().Revoke(t.Context(), token.Token)

			require.ErrorIs(t, err, apperrors.ErrRememberTokenRevoked)
			assert.WithinDuration(t, first, second, time.Microsecond, "should return same time for already revoked token")
		})
	})

	t.Run("revoke not existed fail", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			_, err := s.RememberToken().Revoke(t.Context(), "not-existed")

			require.ErrorIs(t, err, apperrors.ErrRememberTokenNotFound)
		})
	})
}

func testInTx(t *testing.T, withStorage WithStorage) {
	t.Run("commit", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			err := s.InTx(t.Context(), func(tx repository.Storage) error {
				createUser(t, tx, "committed")
				return nil
			})
			require.NoError(t, err)

			_, err = s.User().GetUserByUsername(t.Context(), "committed")
			require.NoError(t, err, "user created in committed tx must be visible")
		})
	})

	t.Run("rollback on error", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			errBoom := errors.New("boom")

			err := s.InTx(t.Context(), func(tx repository.Storage) error {
				createUser(t, tx, "rolledback")
				return errBoom
			})
			require.ErrorIs(t, err, errBoom)

			_, err = s.User().GetUserByUsername(t.Context(), "rolledback")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound, "user created in failed tx must not be visible")
		})
	})

	t.Run("ping", func(t *testing.T) {
		withStorage(t, func(s repository.Storage) {
			require.NoError(t, s.Ping(t.Context()))
		})
	})
}
