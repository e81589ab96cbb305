package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewDatabaseError("db", nil), http.StatusInternalServerError},
		{NewConfigError("cfg", nil), http.StatusInternalServerError},
		{NewInternalError("boom", nil), http.StatusInternalServerError},
		{NewAuthError("denied", nil), http.StatusUnauthorized},
		{NewNotFoundError("gone", nil), http.StatusNotFound},
		{NewNoSuchRequestError("no request"), http.StatusNotFound},
		{NewValidationError("bad", nil), http.StatusBadRequest},
		{NewBadRequestError("bad", nil), http.StatusBadRequest},
		{NewAlreadySelfError("self"), http.StatusBadRequest},
		{NewEmptyBodyError("empty"), http.StatusBadRequest},
		{NewMalformedHandleError("handle"), http.StatusBadRequest},
		{NewConflictError("conflict", nil), http.StatusConflict},
		{NewTagExhaustedError("full", nil), http.StatusConflict},
		{NewDuplicateRequestError("dup"), http.StatusConflict},
		{NewAlreadyFriendsError("friends"), http.StatusConflict},
		{NewNotFriendsError("strangers"), http.StatusForbidden},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewDatabaseError("query failed", cause)
	assert.Contains(t, err.Error(), "query failed")
	assert.Contains(t, err.Error(), "connection refused")
	assert.ErrorIs(t, err, cause)
}

func TestToResponseHidesCause(t *testing.T) {
	err := NewDatabaseError("query failed", errors.New("secret dsn detail"))
	resp := err.ToResponse()
	assert.Equal(t, "query failed", resp.Error)
	assert.NotContains(t, resp.Error, "secret")
}

func TestFromError(t *testing.T) {
	appErr, ok := FromError(NewNotFoundError("missing", nil))
	require.True(t, ok)
	assert.Equal(t, NotFoundError, appErr.Type)

	wrapped := fmt.Errorf("outer: %w", NewAuthError("denied", nil))
	appErr, ok = FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, AuthError, appErr.Type)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)

	_, ok = FromError(nil)
	assert.False(t, ok)
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("x", nil)))
	assert.True(t, IsAuthError(NewAuthError("x", nil)))
	assert.True(t, IsValidationError(NewValidationError("x", nil)))
	assert.True(t, IsConflictError(NewConflictError("x", nil)))
	assert.True(t, IsNotFriends(NewNotFriendsError("x")))
	assert.True(t, IsType(NewEmptyBodyError("x"), EmptyBodyError))

	assert.False(t, IsNotFound(NewAuthError("x", nil)))
	assert.False(t, IsType(errors.New("plain"), NotFoundError))
}
