package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 64 << 10

// GatewayError is a failed gateway response that carries no usable error
// envelope, or a 5xx that callers should treat as the gateway's fault.
type GatewayError struct {
	Gateway string
	Status  int
	Code    string
	Body    string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s returned status %d (%s): %s", e.Gateway, e.Status, e.Code, e.Body)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Gateway, e.Status, e.Body)
}

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response. Gateways that
// answer with the {"error":{"code","message"}} envelope get a matching
// AppError for 4xx and 503; everything else becomes a *GatewayError.
func ParseResponseError(resp *http.Response, gateway string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &GatewayError{Gateway: gateway, Status: resp.StatusCode, Body: "unreadable body: " + err.Error()}
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) != nil || env.Error == nil {
		return &GatewayError{Gateway: gateway, Status: resp.StatusCode, Body: string(body)}
	}

	msg := gateway + ": " + env.Error.Message
	switch status := resp.StatusCode; {
	case status == http.StatusNotFound:
		return apperrors.NotFound(gateway, env.Error.Message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(msg)
	case status == http.StatusConflict:
		return apperrors.Conflict(msg)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case status == http.StatusTooManyRequests:
		return apperrors.TooManyRequests(msg)
	case status == http.StatusServiceUnavailable:
		return &apperrors.AppError{
			Code:    env.Error.Code,
			Message: msg,
			Status:  status,
			Err:     apperrors.ErrServiceUnavail,
		}
	case status >= 500:
		return &GatewayError{Gateway: gateway, Status: status, Code: env.Error.Code, Body: env.Error.Message}
	default:
		return &apperrors.AppError{Code: env.Error.Code, Message: msg, Status: status}
	}
}
