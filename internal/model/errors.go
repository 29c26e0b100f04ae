package model

import "errors"

// Common errors used across the application
var (
	// Profile store errors
	ErrProfileNotFound    = errors.New("profile not found")
	ErrCredentialNotFound = errors.New("credential not found")

	// Validation errors
	ErrInvalidNickname = errors.New("nickname must be between 2 and 64 characters")
)
