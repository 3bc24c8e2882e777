package errors

import (
	"errors"
	"fmt"
)

// Common error types for the wallet client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNoSavedCredentials = errors.New("no saved credentials")

	// Token errors
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrRefreshFailed  = errors.New("refresh failed")
	ErrInvalidToken   = errors.New("invalid token")

	// Session store errors
	ErrKeyNotFound = errors.New("key not found")

	// Credential record errors
	ErrRecordNotFound = errors.New("record not found")
	ErrAlreadyClaimed = errors.New("record already claimed by another user")
	ErrNoCachedRecord = errors.New("no cached record")

	// Input errors
	ErrValidation = errors.New("validation failed")

	// Transport errors
	ErrNetwork = errors.New("network error")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
