package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nkiryanov/microblog/internal/apperrors"
	"github.com/nkiryanov/microblog/internal/models"
	"github.com/nkiryanov/microblog/internal/repository"
)

type EditProfileParams struct {
	Username string
	AboutMe  string
}

type UserService struct {
	userRepo repository.UserRepo
}

func NewService(userRepo repository.UserRepo) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (models.User, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return user, fmt.Errorf("can't get user. Err: %w", err)
	}
	return user, nil
}

// Update profile of the current user
// Keeping own username is not a conflict, so uniqueness is checked only if username changed
func (s *UserService) EditProfile(ctx context.Context, current models.User, arg EditProfileParams) (models.User, error) {
	username := strings.TrimSpace(arg.Username)
	if username == "" {
		return current, errors.New("username must not be empty")
	}

	if username != current.Username {
		_, err := s.userRepo.GetUserByUsername(ctx, username)
		switch {
		case err == nil:
			return current, apperrors.ErrUsernameTaken
		case !errors.Is(err, apperrors.ErrUserNotFound):
			return current, fmt.Errorf("can't check username. Err: %w", err)
		}
	}

	user, err := s.userRepo.UpdateProfile(ctx, current.ID, repository.UpdateProfileParams{
		Username: username,
		AboutMe:  arg.AboutMe,
	})
	if err != nil {
		return current, fmt.Errorf("can't update profile. Err: %w", err)
	}

	return user, nil
}

// Record user activity time, always in UTC
func (s *UserService) TouchLastSeen(ctx context.Context, user models.User) error {
	return s.userRepo.TouchLastSeen(ctx, user.ID, time.Now().UTC())
}
