package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/handlers/middleware"
	"github.com/nkiryanov/microblog/internal/handlers/render"
	"github.com/nkiryanov/microblog/internal/logger"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/service/auth"
	"github.com/nkiryanov/microblog/internal/session"
)

func handleLoginPage(pages pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthenticated(r) {
			render.Redirect(w, r, DefaultNext)
			return
		}
		pages.Page(w, r, "login.html", http.StatusOK, formView[loginForm]{})
	})
}

func handleLogin(authService authService, pages pages, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthenticated(r) {
			render.Redirect(w, r, DefaultNext)
			return
		}

		form, errs := render.BindForm[loginForm](r)
		if errs != nil {
			form.Password = ""
			pages.Page(w, r, "login.html", http.StatusOK, formView[loginForm]{Form: form, Errors: errs})
			return
		}

		s, ok := session.FromContext(r.Context())
		if !ok {
			pages.ServerError(w, r, errors.New("login requires session in context"))
			return
		}

		result, err := authService.Login(r.Context(), auth.LoginParams{
			Username: form.Username,
			Password: form.Password,
			Remember: form.RememberMe,
		})
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			s.Flash("Invalid username or password")
			render.Redirect(w, r, "/login")
			return
		case err != nil:
			pages.ServerError(w, r, err)
			return
		}

		s.Login(result.User.ID)
		if result.Remember != nil {
			setRememberCookie(w, *result.Remember)
		}
		l.Info("user logged in", "user_id", result.User.ID, "remember", result.Remember != nil)

		render.Redirect(w, r, SafeNext(r.URL.Query().Get("next")))
	})
}

func handleLogout(authService authService, pages pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var remember string
		if cookie, err := r.Cookie(middleware.RememberCookieName); err == nil {
			remember = cookie.Value
		}

		if err := authService.Logout(r.Context(), remember); err != nil {
			pages.ServerError(w, r, err)
			return
		}

		if s, ok := session.FromContext(r.Context()); ok {
			s.Logout()
		}
		if remember != "" {
			clearRememberCookie(w)
		}

		render.Redirect(w, r, DefaultNext)
	})
}

func handleRegisterPage(pages pages) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthenticated(r) {
			render.Redirect(w, r, DefaultNext)
			return
		}
		pages.Page(w, r, "register.html", http.StatusOK, formView[registrationForm]{})
	})
}

func handleRegister(authService authService, pages pages, l logger.Logger) http.Handler {
	// Passwords are never sent back to the browser
	renderForm := func(w http.ResponseWriter, r *http.Request, form registrationForm, errs render.FieldErrors) {
		form.Password, form.Password2 = "", ""
		pages.Page(w, r, "register.html", http.StatusOK, formView[registrationForm]{Form: form, Errors: errs})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAuthenticated(r) {
			render.Redirect(w, r, DefaultNext)
			return
		}

		form, errs := render.BindForm[registrationForm](r)
		if errs != nil {
			renderForm(w, r, form, errs)
			return
		}

		user, err := authService.Register(r.Context(), auth.RegisterParams{
			Username: form.Username,
			Email:    form.Email,
			Password: form.Password,
		})
		switch {
		case errors.Is(err, apperrors.ErrUsernameTaken):
			renderForm(w, r, form, render.FieldErrors{"username": "Please use a different username."})
			return
		case errors.Is(err, apperrors.ErrEmailTaken):
			renderForm(w, r, form, render.FieldErrors{"email": "Please use a different email address."})
			return
		case err != nil:
			pages.ServerError(w, r, err)
			return
		}

		l.Info("user registered", "user_id", user.ID)
		if s, ok := session.FromContext(r.Context()); ok {
			s.Flash("Congratulations, you are now a registered user!")
		}
		render.Redirect(w, r, "/login")
	})
}

func setRememberCookie(w http.ResponseWriter, token models.IssuedToken) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RememberCookieName,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		MaxAge:   int(time.Until(token.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearRememberCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RememberCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
