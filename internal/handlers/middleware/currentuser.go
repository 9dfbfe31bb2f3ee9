package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/handlers/userctx"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/session"
)

const RememberCookieName = "remember_token"

type authenticator interface {
	// Has to return apperrors.ErrUserNotFound for anonymous
	Authenticate(ctx context.Context, userID uuid.UUID, rememberToken string) (models.User, error)
}

type lastSeenToucher interface {
	TouchLastSeen(ctx context.Context, user models.User) error
}

type warnLogger interface {
	Warn(msg string, args ...any)
}

// Resolve current user from session or remember cookie and put it to request context
// Session is logged in again if user came with remember cookie only
// Must be used after Session middleware
func CurrentUser(auth authenticator, users lastSeenToucher, p pages, l warnLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := session.FromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			var remember string
			if cookie, err := r.Cookie(RememberCookieName); err == nil {
				remember = cookie.Value
			}

			if s.UserID() == uuid.Nil && remember == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.Authenticate(r.Context(), s.UserID(), remember)
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				// Stale session of removed user
				if s.UserID() != uuid.Nil {
					s.Logout()
				}
				next.ServeHTTP(w, r)
				return
			case err != nil:
				p.ServerError(w, r, err)
				return
			}

			if s.UserID() != user.ID {
				s.Login(user.ID)
			}

			if err := users.TouchLastSeen(r.Context(), user); err != nil {
				l.Warn("can't update user last seen", "error", err, "user_id", user.ID)
			}

			next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), user)))
		})
	}
}
