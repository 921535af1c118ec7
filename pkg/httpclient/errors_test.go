package httpclient

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"

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
		sentinel error
	}{
		{"not found", http.StatusNotFound, "NOT_FOUND", apperrors.ErrNotFound},
		{"bad request", http.StatusBadRequest, "INVALID_INPUT", apperrors.ErrInvalidInput},
		{"conflict", http.StatusConflict, "CONFLICT", apperrors.ErrConflict},
		{"unauthorized", http.StatusUnauthorized, "UNAUTHORIZED", apperrors.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, "FORBIDDEN", apperrors.ErrForbidden},
		{"rate limited", http.StatusTooManyRequests, "RATE_LIMITED", apperrors.ErrRateLimited},
		{"unavailable", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", apperrors.ErrServiceUnavail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := makeResponse(tt.status, structuredError(tt.code, "recipient rejected"))
			err := ParseResponseError(resp, "sms-gateway")
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, tt.status, appErr.Status)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestParseResponseError_ServerErrorIsPlain(t *testing.T) {
	resp := makeResponse(http.StatusBadGateway, structuredError("BAD_GATEWAY", "upstream error"))
	err := ParseResponseError(resp, "push-gateway")
	require.Error(t, err)

	var appErr *apperrors.AppError
	assert.False(t, errors.As(err, &appErr))

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadGateway, gwErr.Status)
	assert.Equal(t, "BAD_GATEWAY", gwErr.Code)
	assert.Equal(t, "push-gateway returned status 502 (BAD_GATEWAY): upstream error", err.Error())
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	resp := makeResponse(http.StatusBadRequest, `{"error":null}`)
	err := ParseResponseError(resp, "webhook")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook")
	assert.Contains(t, err.Error(), "400")

	resp = makeResponse(http.StatusBadGateway, "<html>502 Bad Gateway</html>")
	err = ParseResponseError(resp, "webhook")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<html>502 Bad Gateway</html>")
}
