package service

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so the login form cannot be used to probe for accounts.
	ErrInvalidCredentials = errors.New("Access Denied: Invalid Username or Password.")
	ErrStorage            = errors.New("storage error")
	ErrFileIO             = errors.New("file error")
)

// ValidationError carries every field problem found in one submission.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

func newValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Messages: msgs}
}
