package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("connection refused")

	// When: wrapping with SearchError
	searchErr := New(ErrCodeDatabaseRead, "failed to fetch projects", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, searchErr)
	assert.Equal(t, originalErr, errors.Unwrap(searchErr))
	assert.True(t, errors.Is(searchErr, originalErr))
}

func TestSearchError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "database error",
			code:     ErrCodeDatabaseRead,
			message:  "failed to fetch apis",
			expected: "[ERR_202_DATABASE_READ] failed to fetch apis",
		},
		{
			name:     "validation error",
			code:     ErrCodeQueryEmpty,
			message:  "query is required",
			expected: "[ERR_403_QUERY_EMPTY] query is required",
		},
		{
			name:     "network error",
			code:     ErrCodeNetworkTimeout,
			message:  "embedding request timed out",
			expected: "[ERR_301_NETWORK_TIMEOUT] embedding request timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestSearchError_Is_MatchesByCode(t *testing.T) {
	err1 := New(ErrCodeIndexNotBuilt, "index for projects not built", nil)
	err2 := New(ErrCodeIndexNotBuilt, "index for apis not built", nil)

	assert.True(t, errors.Is(err1, err2))
}

func TestSearchError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	err1 := New(ErrCodeIndexNotBuilt, "index not built", nil)
	err2 := New(ErrCodeDatabaseRead, "read failed", nil)

	assert.False(t, errors.Is(err1, err2))
}

func TestSearchError_WithDetail_AddsContext(t *testing.T) {
	err := New(ErrCodeDatabaseRead, "read failed", nil)

	err = err.WithDetail("table", "apis")
	err = err.WithDetail("rows", "0")

	assert.Equal(t, "apis", err.Details["table"])
	assert.Equal(t, "0", err.Details["rows"])
}

func TestSearchError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeDatabaseOpen, CategoryDatabase},
		{ErrCodeDatabaseRead, CategoryDatabase},
		{ErrCodeNetworkTimeout, CategoryNetwork},
		{ErrCodeModelUnavailable, CategoryNetwork},
		{ErrCodeEncoderInit, CategoryNetwork},
		{ErrCodeInvalidInput, CategoryValidation},
		{ErrCodeDimensionMismatch, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodeIndexNotBuilt, CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestSearchError_Retryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeNetworkTimeout, "timeout", nil)))
	assert.True(t, IsRetryable(New(ErrCodeModelUnavailable, "model missing", nil)))
	assert.False(t, IsRetryable(New(ErrCodeDatabaseRead, "read failed", nil)))
	assert.False(t, IsRetryable(errors.New("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestSearchError_EncoderInitIsFatal(t *testing.T) {
	err := EncoderInitError("no encoder available", nil)

	assert.True(t, IsFatal(err))
	assert.Equal(t, ErrCodeEncoderInit, GetCode(err))
}

func TestConstructors_SetExpectedCodes(t *testing.T) {
	assert.Equal(t, ErrCodeDatabaseRead, DatabaseError("x", nil).Code)
	assert.Equal(t, ErrCodeIndexNotBuilt, NotFoundError("x").Code)
	assert.Equal(t, ErrCodeInvalidInput, ValidationError("x", nil).Code)
	assert.Equal(t, ErrCodeInternal, InternalError("x", nil).Code)
}

func TestWrap_NilErrorReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeDatabaseRead, nil))
}
