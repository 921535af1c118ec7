package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
	"github.com/Oldhoon/accessible-journeys/pkg/httputil"
	"github.com/Oldhoon/accessible-journeys/pkg/middleware"
	"github.com/Oldhoon/accessible-journeys/pkg/validator"
)

func init() {
	validator.RegisterValidation("feature", domain.IsValidFeature, "must be a known accessibility feature")
	validator.RegisterValidation("contact_channel", domain.IsValidContactChannel,
		"must be one of: sms, push, webhook")
}

// writeDecodeError renders errors from validator.DecodeAndValidate. Body
// syntax errors become 400 INVALID_INPUT.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var valErr *validator.ValidationError
	var appErr *apperrors.AppError
	if errors.As(err, &valErr) || errors.As(err, &appErr) {
		httputil.WriteError(w, r, err, logger)
		return
	}
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
	})
}

// requireUser returns the caller's user ID or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "UNAUTHORIZED", Message: "user identity required"},
		})
		return "", false
	}
	return userID, true
}
