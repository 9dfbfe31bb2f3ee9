package middleware

import (
	"fmt"
	"net/http"
)

// Turn handler panics into 500 page
func Recover(p pages) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// Server aborts response on purpose, let it do so
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				p.ServerError(w, r, fmt.Errorf("panic while serving request: %w", err))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
