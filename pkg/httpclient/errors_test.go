package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	apperrors "github.com/anmar534/loctah-sub000/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func structuredError(code, message string) string {
	return `{"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func TestParseResponseError_Structured(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     string
		wantCode string
		sentinel error
	}{
		{"not found", http.StatusNotFound, "NOT_FOUND", "NOT_FOUND", apperrors.ErrNotFound},
		{"bad request", http.StatusBadRequest, "INVALID_INPUT", "INVALID_INPUT", apperrors.ErrInvalidInput},
		{"conflict keeps code", http.StatusConflict, "ALREADY_EXISTS", "ALREADY_EXISTS", apperrors.ErrConflict},
		{"unauthorized", http.StatusUnauthorized, "UNAUTHORIZED", "UNAUTHORIZED", apperrors.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, "FORBIDDEN", "FORBIDDEN", apperrors.ErrForbidden},
		{"unprocessable keeps code", http.StatusUnprocessableEntity, "VALIDATION", "VALIDATION", apperrors.ErrUnprocessable},
		{"unavailable", http.StatusServiceUnavailable, "DOWN", "SERVICE_UNAVAILABLE", apperrors.ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(makeResponse(tt.status, structuredError(tt.code, "boom")), "product-service")
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr), "expected AppError, got %T", err)
			assert.Equal(t, tt.status, appErr.Status)
			assert.Equal(t, tt.wantCode, appErr.Code)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestParseResponseError_ServerErrorIsPlain(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusInternalServerError, structuredError("INTERNAL_ERROR", "db down")), "product-service")
	require.Error(t, err)

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.Contains(t, err.Error(), "product-service server error (500/INTERNAL_ERROR)")
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusBadGateway, "upstream timeout"), "product-service")
	require.Error(t, err)
	assert.Equal(t, "product-service returned status 502: upstream timeout", err.Error())
}

func TestParseResponseError_OtherStatusKeepsCode(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusTooManyRequests, structuredError("RATE_LIMITED", "slow down")), "product-service")

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, "RATE_LIMITED", appErr.Code)
}
