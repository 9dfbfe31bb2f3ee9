package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/nkiryanov/microblog/internal/session"
)

const CSRFFieldName = "csrf_token"

// Check form CSRF token of state changing requests against session
// Must be used after Session middleware
func CSRF(p pages) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
				next.ServeHTTP(w, r)
				return
			}

			s, ok := session.FromContext(r.Context())
			if !ok {
				p.ServerError(w, r, errors.New("csrf check requires session in context"))
				return
			}

			token := r.PostFormValue(CSRFFieldName)
			switch {
			case token == "":
				p.BadRequest(w, r, "The CSRF token is missing.")
				return
			case subtle.ConstantTimeCompare([]byte(token), []byte(s.CSRFToken())) != 1:
				p.BadRequest(w, r, "The CSRF token is invalid.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
