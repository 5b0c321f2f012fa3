package errors

import (
	"errors"
	"fmt"
)

// Common error types for the storefront authentication core
var (
	// Startup errors
	ErrRandomnessUnavailable = errors.New("randomness unavailable")

	// Login flow errors
	ErrInvalidState           = errors.New("invalid state")
	ErrInvalidScope           = errors.New("invalid scope")
	ErrInvalidRedirectURI     = errors.New("invalid redirect URI")
	ErrTokenExchangeFailed    = errors.New("token exchange failed")
	ErrMalformedTokenResponse = errors.New("malformed token response")

	// Session errors
	ErrRefreshFailed = errors.New("refresh failed")
	ErrRefreshLocked = errors.New("refresh lock held by another instance")
	ErrNotFound      = errors.New("not found")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
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
