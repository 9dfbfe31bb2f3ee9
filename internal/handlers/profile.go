package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/handlers/render"
	"github.com/nkiryanov/microblog/internal/handlers/userctx"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/service/post"
	"github.com/nkiryanov/microblog/internal/service/user"
	"github.com/nkiryanov/microblog/internal/session"
)

func handleUser(userService userService, postService postService, pages pages) http.Handler {
	type view struct {
		User   *models.User
		Page   post.Page
		IsSelf bool
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := userService.GetByUsername(r.Context(), r.PathValue("username"))
		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			pages.NotFound(w, r)
			return
		case err != nil:
			pages.ServerError(w, r, err)
			return
		}

		posts, err := postService.UserPosts(r.Context(), u, pageNumber(r))
		if err != nil {
			pages.ServerError(w, r, err)
			return
		}

		current, _ := userctx.FromContext(r.Context())
		pages.Page(w, r, "user.html", http.StatusOK, view{
			User:   &u,
			Page:   posts,
			IsSelf: current.ID == u.ID,
		})
	})
}

func handleEditProfilePage(pages pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, _ := userctx.FromContext(r.Context())
		pages.Page(w, r, "edit_profile.html", http.StatusOK, formView[editProfileForm]{
			Form: editProfileForm{Username: current.Username, AboutMe: current.AboutMe},
		})
	})
}

func handleEditProfile(userService userService, pages pages) http.Handler {
	renderForm := func(w http.ResponseWriter, r *http.Request, form editProfileForm, errs render.FieldErrors) {
		pages.Page(w, r, "edit_profile.html", http.StatusOK, formView[editProfileForm]{Form: form, Errors: errs})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, ok := userctx.FromContext(r.Context())
		if !ok {
			pages.ServerError(w, r, errors.New("edit profile requires current user"))
			return
		}

		form, errs := render.BindForm[editProfileForm](r)
		if errs != nil {
			renderForm(w, r, form, errs)
			return
		}

		_, err := userService.EditProfile(r.Context(), current, user.EditProfileParams{
			Username: form.Username,
			AboutMe:  form.AboutMe,
		})
		switch {
		case errors.Is(err, apperrors.ErrUsernameTaken):
			renderForm(w, r, form, render.FieldErrors{"username": "Please use a different username."})
			return
		case err != nil:
			pages.ServerError(w, r, err)
			return
		}

		if s, ok := session.FromContext(r.Context()); ok {
			s.Flash("Your changes have been saved.")
		}
		render.Redirect(w, r, "/edit_profile")
	})
}
