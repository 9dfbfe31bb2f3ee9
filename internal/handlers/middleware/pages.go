package middleware

import "net/http"

// Error pages middlewares fall back to
type pages interface {
	BadRequest(w http.ResponseWriter, r *http.Request, message string)
	ServerError(w http.ResponseWriter, r *http.Request, err error)
}
