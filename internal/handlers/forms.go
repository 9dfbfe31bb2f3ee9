package handlers

import (
	"net/http"
	"strconv"

	"github.com/nkiryanov/microblog/internal/handlers/render"
	"github.com/nkiryanov/microblog/internal/handlers/userctx"
	"github.com/nkiryanov/microblog/internal/service/post"
)

type loginForm struct {
	Username   string `form:"username,trim" validate:"required"`
	Password   string `form:"password" validate:"required"`
	RememberMe bool   `form:"remember_me"`
}

type registrationForm struct {
	Username  string `form:"username,trim" validate:"required,max=64"`
	Email     string `form:"email,trim" validate:"required,email,max=120"`
	Password  string `form:"password" validate:"required"`
	Password2 string `form:"password2" validate:"required,eqfield=Password"`
}

type editProfileForm struct {
	Username string `form:"username,trim" validate:"required,max=64"`
	AboutMe  string `form:"about_me" validate:"max=140"`
}

type postForm struct {
	Post string `form:"post,trim" validate:"required,max=140"`
}

// Page with single form
type formView[T any] struct {
	Form   T
	Errors render.FieldErrors
}

type indexView struct {
	Form   postForm
	Errors render.FieldErrors
	Page   post.Page
}

// Page number from query, first page if missing or malformed
func pageNumber(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func isAuthenticated(r *http.Request) bool {
	return userctx.IsAuthenticated(r.Context())
}
