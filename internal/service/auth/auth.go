package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/repository"
)

// Remember tokens issuing and checking
type RememberTokens interface {
	Issue(ctx context.Context, userID uuid.UUID) (models.IssuedToken, error)
	Use(ctx context.Context, value string) (models.RememberToken, error)
	Revoke(ctx context.Context, value string) error
}

type Config struct {
	// Hasher to use during user registration or login process
	// DefaultHasher if not set
	Hasher models.PasswordHasher
}

type RegisterParams struct {
	Username string
	Email    string
	Password string
}

type LoginParams struct {
	Username string
	Password string
	Remember bool
}

type LoginResult struct {
	User models.User

	// Set only if remember requested
	Remember *models.IssuedToken
}

// Auth service
type AuthService struct {
	hasher  models.PasswordHasher
	tokens  RememberTokens
	storage repository.Storage

	// Compared against on unknown username to keep login time the same
	dummyHash func() (string, error)
}

func NewService(cfg Config, tokens RememberTokens, storage repository.Storage) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	if tokens == nil || storage == nil {
		return nil, errors.New("tokens and storage must not be nil")
	}

	return &AuthService{
		hasher:  hasher,
		tokens:  tokens,
		storage: storage,
		dummyHash: sync.OnceValues(func() (string, error) {
			return hasher.Hash("dummy-password")
		}),
	}, nil
}

// Register new user
// Username checked before email so ErrUsernameTaken wins if both are taken
func (s *AuthService) Register(ctx context.Context, arg RegisterParams) (models.User, error) {
	var user models.User

	username := strings.TrimSpace(arg.Username)
	email := strings.TrimSpace(arg.Email)
	if username == "" || email == "" || arg.Password == "" {
		return user, errors.New("username, email and password must not be empty")
	}

	if err := user.SetPassword(arg.Password, s.hasher); err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		if err := checkAvailable(ctx, tx.User(), username, email); err != nil {
			return err
		}

		var err error
		user, err = tx.User().CreateUser(ctx, repository.CreateUserParams{
			Username:     username,
			Email:        email,
			PasswordHash: user.PasswordHash,
		})
		return err
	})
	if err != nil {
		return models.User{}, fmt.Errorf("can't register user. Err: %w", err)
	}

	return user, nil
}

func checkAvailable(ctx context.Context, users repository.UserRepo, username string, email string) error {
	_, err := users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return apperrors.ErrUsernameTaken
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return err
	}

	_, err = users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return apperrors.ErrEmailTaken
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return err
	}

	return nil
}

// Login user by username and password
// Unknown username and wrong password are not distinguished: both are ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, arg LoginParams) (LoginResult, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, arg.Username)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		if hash, err := s.dummyHash(); err == nil {
			_ = s.hasher.Compare(hash, arg.Password)
		}
		return LoginResult{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return LoginResult{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	if !user.CheckPassword(arg.Password, s.hasher) {
		return LoginResult{}, apperrors.ErrInvalidCredentials
	}

	result := LoginResult{User: user}
	if arg.Remember {
		issued, err := s.tokens.Issue(ctx, user.ID)
		if err != nil {
			return LoginResult{}, fmt.Errorf("remember token could not be issued. Err: %w", err)
		}
		result.Remember = &issued
	}

	return result, nil
}

// Revoke remember token if any
func (s *AuthService) Logout(ctx context.Context, rememberToken string) error {
	if rememberToken == "" {
		return nil
	}

	err := s.tokens.Revoke(ctx, rememberToken)
	if err != nil && !isUnusableToken(err) {
		return err
	}
	return nil
}

// Resolve current user from session user id or remember token
// Session user id has priority. Return apperrors.ErrUserNotFound for anonymous
func (s *AuthService) Authenticate(ctx context.Context, userID uuid.UUID, rememberToken string) (models.User, error) {
	if userID != uuid.Nil {
		user, err := s.storage.User().GetUserByID(ctx, userID)
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return user, err
		}
	}

	if rememberToken == "" {
		return models.User{}, apperrors.ErrUserNotFound
	}

	token, err := s.tokens.Use(ctx, rememberToken)
	switch {
	case isUnusableToken(err):
		return models.User{}, apperrors.ErrUserNotFound
	case err != nil:
		return models.User{}, err
	}

	return s.storage.User().GetUserByID(ctx, token.UserID)
}

func isUnusableToken(err error) bool {
	return errors.Is(err, apperrors.ErrRememberTokenNotFound) ||
		errors.Is(err, apperrors.ErrRememberTokenRevoked) ||
		errors.Is(err, apperrors.ErrRememberTokenExpired)
}
