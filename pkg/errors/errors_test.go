package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Sentinel error identity ---

func TestSentinelErrors_AreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrAlreadyExists, ErrInvalidInput, ErrUnprocessable,
		ErrUnauthorized, ErrForbidden, ErrInternal, ErrConflict, ErrServiceUnavail,
	}

	for i := 0; i < len(sentinels); i++ {
		for j := i + 1; j < len(sentinels); j++ {
			assert.NotEqual(t, sentinels[i], sentinels[j],
				"sentinels %d and %d should be distinct", i, j)
		}
	}
}

// --- AppError behavior ---

func TestAppError_ErrorString(t *testing.T) {
	appErr := &AppError{Code: "INTERNAL_ERROR", Message: "query failed", Err: fmt.Errorf("conn reset")}
	assert.Equal(t, "INTERNAL_ERROR: query failed: conn reset", appErr.Error())

	plain := &AppError{Code: "NOT_FOUND", Message: "category not found"}
	assert.Equal(t, "NOT_FOUND: category not found", plain.Error())
	assert.Nil(t, plain.Unwrap())
}

// --- Constructor functions ---

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		code     string
		status   int
		sentinel error
	}{
		{"not found", NotFound("category", "c-1"), "NOT_FOUND", http.StatusNotFound, ErrNotFound},
		{"already exists", AlreadyExists("category", "slug", "phones"), "ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists},
		{"conflict default code", Conflict("", "busy"), "CONFLICT", http.StatusConflict, ErrConflict},
		{"conflict custom code", Conflict("HAS_CHILDREN", "has children"), "HAS_CHILDREN", http.StatusConflict, ErrConflict},
		{"invalid input", InvalidInput("bad json"), "INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput},
		{"unprocessable", Unprocessable("INVALID_PRICE", "price"), "INVALID_PRICE", http.StatusUnprocessableEntity, ErrUnprocessable},
		{"unprocessable default code", Unprocessable("", "nope"), "UNPROCESSABLE", http.StatusUnprocessableEntity, ErrUnprocessable},
		{"unauthorized", Unauthorized("no token"), "UNAUTHORIZED", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", Forbidden("not owner"), "FORBIDDEN", http.StatusForbidden, ErrForbidden},
		{"service unavailable", ServiceUnavailable("product service down"), "SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestNotFound_Message(t *testing.T) {
	err := NotFound("offer", "o-9")
	assert.Equal(t, "offer with id o-9 not found", err.Message)
}

func TestInternal_HidesCause(t *testing.T) {
	cause := fmt.Errorf("pq: relation does not exist")
	err := Internal(cause)
	assert.Equal(t, "an internal error occurred", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrNotFound, "get category")
	assert.Equal(t, "get category: resource not found", err.Error())
	assert.True(t, errors.Is(err, ErrNotFound))
}

// --- HTTPStatus ---

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error wins", Forbidden("x"), http.StatusForbidden},
		{"wrapped app error", fmt.Errorf("outer: %w", Conflict("", "x")), http.StatusConflict},
		{"not found sentinel", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"already exists sentinel", ErrAlreadyExists, http.StatusConflict},
		{"conflict sentinel", ErrConflict, http.StatusConflict},
		{"invalid input sentinel", ErrInvalidInput, http.StatusBadRequest},
		{"unprocessable sentinel", ErrUnprocessable, http.StatusUnprocessableEntity},
		{"unauthorized sentinel", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden sentinel", ErrForbidden, http.StatusForbidden},
		{"unavailable sentinel", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
