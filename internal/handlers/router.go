package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/microblog/internal/handlers/middleware"
	"github.com/nkiryanov/microblog/internal/logger"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/service/auth"
	"github.com/nkiryanov/microblog/internal/service/post"
	"github.com/nkiryanov/microblog/internal/service/user"
	"github.com/nkiryanov/microblog/internal/session"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type Services struct {
	Auth    authService
	User    userService
	Post    postService
	Storage pinger
}

func NewRouter(
	services Services,
	sessions *session.Manager,
	pages pages,
	logger logger.Logger,
) http.Handler {
	withUser := middleware.LoginRequired

	site := http.NewServeMux()

	site.Handle("GET /{$}", withUser(handleIndex(services.Post, pages)))
	site.Handle("GET /index", withUser(handleIndex(services.Post, pages)))
	site.Handle("POST /{$}", withUser(handleCreatePost(services.Post, pages, logger)))
	site.Handle("POST /index", withUser(handleCreatePost(services.Post, pages, logger)))

	site.Handle("GET /login", handleLoginPage(pages))
	site.Handle("POST /login", handleLogin(services.Auth, pages, logger))
	site.Handle("GET /logout", handleLogout(services.Auth, pages))
	site.Handle("GET /register", handleRegisterPage(pages))
	site.Handle("POST /register", handleRegister(services.Auth, pages, logger))

	site.Handle("GET /user/{username}", withUser(handleUser(services.User, services.Post, pages)))
	site.Handle("GET /edit_profile", withUser(handleEditProfilePage(pages)))
	site.Handle("POST /edit_profile", withUser(handleEditProfile(services.User, pages)))

	site.Handle("/", handleNotFound(pages))

	root := http.NewServeMux()
	root.Handle("GET /healthz", handleHealth(services.Storage, logger))
	root.Handle("/", chain(site,
		middleware.Session(sessions, logger),
		middleware.CSRF(pages),
		middleware.CurrentUser(services.Auth, services.User, pages, logger),
	))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
		middleware.Recover(pages),
	)

	return handler
}

type pages interface {
	Page(w http.ResponseWriter, r *http.Request, name string, status int, data any)
	NotFound(w http.ResponseWriter, r *http.Request)
	BadRequest(w http.ResponseWriter, r *http.Request, message string)
	ServerError(w http.ResponseWriter, r *http.Request, err error)
}

type authService interface {
	// Has to return apperrors.ErrUsernameTaken or apperrors.ErrEmailTaken if such user exists
	Register(ctx context.Context, arg auth.RegisterParams) (models.User, error)

	// Has to return apperrors.ErrInvalidCredentials if username or password are wrong
	Login(ctx context.Context, arg auth.LoginParams) (auth.LoginResult, error)

	// Revoke remember token, empty token is ok
	Logout(ctx context.Context, rememberToken string) error

	// Has to return apperrors.ErrUserNotFound if neither user id nor remember token resolve the user
	Authenticate(ctx context.Context, userID uuid.UUID, rememberToken string) (models.User, error)
}

type userService interface {
	// Has to return apperrors.ErrUserNotFound if user not found
	GetByUsername(ctx context.Context, username string) (models.User, error)

	// Has to return apperrors.ErrUsernameTaken if username belongs to other user
	EditProfile(ctx context.Context, current models.User, arg user.EditProfileParams) (models.User, error)

	TouchLastSeen(ctx context.Context, u models.User) error
}

type postService interface {
	// Has to return apperrors.ErrPostInvalid if body is empty or too long
	Create(ctx context.Context, author models.User, body string) (models.Post, error)

	Feed(ctx context.Context, page int) (post.Page, error)
	UserPosts(ctx context.Context, author models.User, page int) (post.Page, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}
