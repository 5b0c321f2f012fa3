package token

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"golang.org/x/oauth2"
)

// Operation names carried by ExchangeError
const (
	OpExchange = "exchange"
	OpRefresh  = "refresh"
)

// ExchangeError describes a failed token endpoint call.
// StatusCode is 0 when no HTTP response was received (timeout, connection refused).
// It unwraps to its Kind (ErrTokenExchangeFailed, ErrMalformedTokenResponse or ErrRefreshFailed)
// and to the underlying cause.
type ExchangeError struct {
	Op            string
	StatusCode    int
	ProviderError string // OAuth error code from the provider, e.g. "invalid_grant"
	Description   string // Provider error_description, server-side logging only
	Kind          error
	Err           error
}

func (e *ExchangeError) Error() string {
	msg := fmt.Sprintf("token %s: %v", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.ProviderError != "" {
		msg += ": " + e.ProviderError
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExchangeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// classify turns an error from x/oauth2 into an ExchangeError.
// Provider responses become TokenExchangeFailed with the status and error code, transport failures
// become TokenExchangeFailed with status 0, and anything else is a malformed response.
func classify(op string, err error) *ExchangeError {
	kindFor := func(kind error) error {
		if op == OpRefresh {
			return apperrors.ErrRefreshFailed
		}
		return kind
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		e := &ExchangeError{
			Op:            op,
			ProviderError: retrieveErr.ErrorCode,
			Description:   retrieveErr.ErrorDescription,
			Kind:          kindFor(apperrors.ErrTokenExchangeFailed),
		}
		if retrieveErr.Response != nil {
			e.StatusCode = retrieveErr.Response.StatusCode
		}
		return e
	}

	if isTransportError(err) {
		return &ExchangeError{Op: op, Kind: kindFor(apperrors.ErrTokenExchangeFailed), Err: err}
	}

	return &ExchangeError{Op: op, Kind: kindFor(apperrors.ErrMalformedTokenResponse), Err: fmt.Errorf("%w: %w", apperrors.ErrMalformedTokenResponse, err)}
}

// malformed reports a successful HTTP exchange whose body lacks required fields
func malformed(op string, reason string) *ExchangeError {
	kind := apperrors.ErrMalformedTokenResponse
	if op == OpRefresh {
		kind = apperrors.ErrRefreshFailed
	}
	return &ExchangeError{Op: op, Kind: kind, Err: fmt.Errorf("%w: %s", apperrors.ErrMalformedTokenResponse, reason)}
}

func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
