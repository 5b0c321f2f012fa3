package errors_test

import (
	"fmt"
	"testing"

	apperrors "github.com/jrsteele09/storefront-auth/internal/errors"
	"github.com/stretchr/testify/require"
)

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.code)
}

func TestWrapf(t *testing.T) {
	require.NoError(t, apperrors.Wrapf(nil, "ignored %s", "context"))

	err := apperrors.Wrapf(apperrors.ErrNotFound, "[Store Get] session %s", "abc")
	require.EqualError(t, err, "[Store Get] session abc: not found")
	require.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestWrapf_KeepsBothSentinels(t *testing.T) {
	err := apperrors.Wrapf(apperrors.ErrRefreshLocked, "[refresh Manager] %w", apperrors.ErrRefreshFailed)
	require.EqualError(t, err, "[refresh Manager] refresh failed: refresh lock held by another instance")
	require.True(t, apperrors.Is(err, apperrors.ErrRefreshFailed))
	require.True(t, apperrors.Is(err, apperrors.ErrRefreshLocked))
	require.False(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestAs(t *testing.T) {
	err := apperrors.Wrapf(&statusError{code: 502}, "calling api")

	var target *statusError
	require.True(t, apperrors.As(err, &target))
	require.Equal(t, 502, target.code)

	require.False(t, apperrors.As(apperrors.ErrNotFound, &target))
}
