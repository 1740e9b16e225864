package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidScope       = errors.New("role requires a matching sector or subsector")
	ErrInvalidRole        = errors.New("unknown role")
)
