package post

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/repository"
	"github.com/nkiryanov/microblog/internal/testutil"
)

func TestPost(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T, perPage int) (*PostService, repository.Storage) {
		storage := testutil.NewSQLiteStorage(t)
		return NewService(Config{PerPage: perPage}, storage.Post()), storage
	}

	createUser := func(t *testing.T, storage repository.Storage, username string) models.User {
		user, err := storage.User().CreateUser(t.Context(), repository.CreateUserParams{
			Username: username,
			Email:    username + "@example.com",
		})
		require.NoError(t, err)
		return user
	}

	bodies := func(posts []models.Post) []string {
		result := make([]string, 0, len(posts))
		for _, p := range posts {
			result = append(result, p.Body)
		}
		return result
	}

	t.Run("new defaults", func(t *testing.T) {
		s := NewService(Config{}, nil)

		require.Equal(t, defaultPerPage, s.perPage)
	})

	t.Run("Create", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			s, storage := setup(t, 0)
			user := createUser(t, storage, "john")

			post, err := s.Create(t.Context(), user, "  my first post  ")

			require.NoError(t, err)
			require.Equal(t, "my first post", post.Body, "body must be trimmed")
			require.Equal(t, user.ID, post.UserID)
		})

		t.Run("max length ok", func(t *testing.T) {
			s, storage := setup(t, 0)
			user := createUser(t, storage, "john")

			_, err := s.Create(t.Context(), user, strings.Repeat("ы", models.PostBodyMaxLen))

			require.NoError(t, err, "length counted in characters not bytes")
		})

		t.Run("invalid fail", func(t *testing.T) {
			s, storage := setup(t, 0)
			user := createUser(t, storage, "john")

			for _, body := range []string{"", "   ", strings.Repeat("a", models.PostBodyMaxLen+1)} {
				_, err := s.Create(t.Context(), user, body)
				require.ErrorIs(t, err, apperrors.ErrPostInvalid, "body %q", body)
			}
		})

		t.Run("unknown author fail", func(t *testing.T) {
			s, _ := setup(t, 0)

			_, err := s.Create(t.Context(), models.User{ID: uuid.New()}, "post")

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("Feed", func(t *testing.T) {
		t.Run("paginated newest first", func(t *testing.T) {
			s, storage := setup(t, 2)
			john := createUser(t, storage, "john")
			susan := createUser(t, storage, "susan")
			for i := range 5 {
				author := john
				if i%2 == 1 {
					author = susan
				}
				_, err := s.Create(t.Context(), author, fmt.Sprintf("post %d", i))
				require.NoError(t, err)
			}

			first, err := s.Feed(t.Context(), 1)
			require.NoError(t, err)
			assert.Equal(t, []string{"post 4", "post 3"}, bodies(first.Posts))
			assert.Equal(t, 1, first.Number)
			assert.False(t, first.HasPrev)
			assert.True(t, first.HasNext)
			assert.Equal(t, "susan", first.Posts[1].Author.Username, "author must be filled")

			last, err := s.Feed(t.Context(), 3)
			require.NoError(t, err)
			assert.Equal(t, []string{"post 0"}, bodies(last.Posts))
			assert.True(t, last.HasPrev)
			assert.False(t, last.HasNext)
			assert.Equal(t, 2, last.PrevNumber())
		})

		t.Run("exact page has no next", func(t *testing.T) {
			s, storage := setup(t, 2)
			john := createUser(t, storage, "john")
			for i := range 2 {
				_, err := s.Create(t.Context(), john, fmt.Sprintf("post %d", i))
				require.NoError(t, err)
			}

			page, err := s.Feed(t.Context(), 1)

			require.NoError(t, err)
			assert.Len(t, page.Posts, 2)
			assert.False(t, page.HasNext)
		})

		t.Run("page below one treated as first", func(t *testing.T) {
			s, storage := setup(t, 2)
			john := createUser(t, storage, "john")
			_, err := s.Create(t.Context(), john, "post")
			require.NoError(t, err)

			page, err := s.Feed(t.Context(), -3)

			require.NoError(t, err)
			assert.Equal(t, 1, page.Number)
			assert.Len(t, page.Posts, 1)
		})

		t.Run("beyond last page empty", func(t *testing.T) {
			s, _ := setup(t, 2)

			page, err := s.Feed(t.Context(), 10)

			require.NoError(t, err)
			assert.Empty(t, page.Posts)
			assert.True(t, page.HasPrev)
			assert.False(t, page.HasNext)
		})
	})

	t.Run("UserPosts", func(t *testing.T) {
		s, storage := setup(t, 10)
		john := createUser(t, storage, "john")
		susan := createUser(t, storage, "susan")
		_, err := s.Create(t.Context(), john, "from john")
		require.NoError(t, err)
		_, err = s.Create(t.Context(), susan, "from susan")
		require.NoError(t, err)

		page, err := s.UserPosts(t.Context(), john, 1)

		require.NoError(t, err)
		assert.Equal(t, []string{"from john"}, bodies(page.Posts))
	})
}
