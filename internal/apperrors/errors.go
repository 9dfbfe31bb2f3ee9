package apperrors

import (
	"errors"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrPostInvalid = errors.New("post body is empty or too long")

	ErrRememberTokenNotFound = errors.New("remember token not found")
	ErrRememberTokenRevoked  = errors.New("remember token is revoked")
	ErrRememberTokenExpired  = errors.New("remember token is expired")
)
