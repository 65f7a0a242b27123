// Package services holds the forum's business rules: accounts, the authentication gate and
// the content tree operations. Callers map the sentinel errors below with errors.Is.
package services

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrStaleIdentity      = fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
	ErrForbidden          = errors.New("forbidden")
	ErrParentNotFound     = errors.New("parent not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// storeError hides unexpected infrastructure failures behind ErrStoreUnavailable while
// keeping the cause in the chain for logs.
func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
