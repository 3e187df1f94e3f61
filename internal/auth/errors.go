package auth

import "errors"

var (
	// ErrAlreadyExists indicates the email is already registered.
	ErrAlreadyExists = errors.New("user already exists")
	// ErrInvalidCredentials is returned for every signin, refresh or token
	// failure so callers cannot tell which factor was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized represents missing or invalid authentication tokens.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPasswordTooLong is returned when a password exceeds the bcrypt input limit.
	ErrPasswordTooLong = errors.New("password too long")
)
