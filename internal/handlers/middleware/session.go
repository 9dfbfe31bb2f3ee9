package middleware

import (
	"net/http"

	"github.com/nkiryanov/microblog/internal/session"
)

type sessionManager interface {
	Load(r *http.Request) *session.Session
	Save(w http.ResponseWriter, s *session.Session) error
}

type errorLogger interface {
	Error(msg string, args ...any)
}

// Save session right before response headers are sent
type sessionWriter struct {
	http.ResponseWriter
	save  func()
	saved bool
}

func (w *sessionWriter) commit() {
	if w.saved {
		return
	}
	w.saved = true
	w.save()
}

func (w *sessionWriter) WriteHeader(statusCode int) {
	w.commit()
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *sessionWriter) Write(p []byte) (int, error) {
	w.commit()
	return w.ResponseWriter.Write(p)
}

func (w *sessionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Load session into request context and save it with the response
func Session(m sessionManager, l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := m.Load(r)

			sw := &sessionWriter{
				ResponseWriter: w,
				save: func() {
					if err := m.Save(w, s); err != nil {
						l.Error("can't save session", "error", err)
					}
				},
			}

			next.ServeHTTP(sw, r.WithContext(session.NewContext(r.Context(), s)))

			// Handler wrote nothing
			sw.commit()
		})
	}
}
