package middleware

import (
	"net/http"
	"net/url"

	"github.com/nkiryanov/microblog/internal/handlers/render"
	"github.com/nkiryanov/microblog/internal/handlers/userctx"
	"github.com/nkiryanov/microblog/internal/session"
)

const (
	LoginURL          = "/login"
	LoginRequiredText = "Please log in to access this page."
)

// Send anonymous users to login page and bring them back after login
func LoginRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userctx.IsAuthenticated(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}

		if s, ok := session.FromContext(r.Context()); ok {
			s.Flash(LoginRequiredText)
		}
		render.Redirect(w, r, LoginURL+"?next="+url.QueryEscape(r.URL.RequestURI()))
	})
}
