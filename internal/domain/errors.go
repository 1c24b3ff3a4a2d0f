package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrBackendUnavailable = errors.New("backend not configured")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
