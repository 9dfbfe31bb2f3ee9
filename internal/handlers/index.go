package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/handlers/render"
	"github.com/nkiryanov/microblog/internal/handlers/userctx"
	"github.com/nkiryanov/microblog/internal/logger"
	"github.com/nkiryanov/microblog/internal/session"
)

func handleIndex(postService postService, pages pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		feed, err := postService.Feed(r.Context(), pageNumber(r))
		if err != nil {
			pages.ServerError(w, r, err)
			return
		}

		pages.Page(w, r, "index.html", http.StatusOK, indexView{Page: feed})
	})
}

func handleCreatePost(postService postService, pages pages, l logger.Logger) http.Handler {
	// Invalid form is shown again over the first page of feed
	renderForm := func(w http.ResponseWriter, r *http.Request, form postForm, errs render.FieldErrors) {
		feed, err := postService.Feed(r.Context(), 1)
		if err != nil {
			pages.ServerError(w, r, err)
			return
		}
		pages.Page(w, r, "index.html", http.StatusOK, indexView{Form: form, Errors: errs, Page: feed})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			pages.ServerError(w, r, errors.New("post requires current user"))
			return
		}

		form, errs := render.BindForm[postForm](r)
		if errs != nil {
			renderForm(w, r, form, errs)
			return
		}

		p, err := postService.Create(r.Context(), user, form.Post)
		switch {
		case errors.Is(err, apperrors.ErrPostInvalid):
			renderForm(w, r, form, render.FieldErrors{"post": "Invalid value."})
			return
		case err != nil:
			pages.ServerError(w, r, err)
			return
		}

		l.Info("post created", "post_id", p.ID, "user_id", user.ID)
		if s, ok := session.FromContext(r.Context()); ok {
			s.Flash("Your post is now live!")
		}
		render.Redirect(w, r, "/index")
	})
}
