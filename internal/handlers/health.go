package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/nkiryanov/microblog/internal/handlers/render"
	"github.com/nkiryanov/microblog/internal/logger"
)

const healthTimeout = 2 * time.Second

func handleHealth(storage pinger, l logger.Logger) http.Handler {
	type response struct {
		Status string `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := storage.Ping(ctx); err != nil {
			l.Error("storage is not available", "error", err)
			render.JSONWithStatus(w, response{Status: "unavailable"}, http.StatusServiceUnavailable)
			return
		}

		render.JSON(w, response{Status: "ok"})
	})
}

func handleNotFound(pages pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages.NotFound(w, r)
	})
}
