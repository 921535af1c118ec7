package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/service"
	"github.com/Oldhoon/accessible-journeys/pkg/httputil"
	"github.com/Oldhoon/accessible-journeys/pkg/validator"
)

const maxAlertHistory = 100

// EmergencyHandler handles HTTP requests for the emergency panel and
// contacts.
type EmergencyHandler struct {
	emergency *service.EmergencyService
	contacts  *service.ContactService
	logger    *slog.Logger
}

// NewEmergencyHandler creates a new emergency HTTP handler.
func NewEmergencyHandler(emergency *service.EmergencyService, contacts *service.ContactService, logger *slog.Logger) *EmergencyHandler {
	return &EmergencyHandler{
		emergency: emergency,
		contacts:  contacts,
		logger:    logger,
	}
}

// --- Request DTOs ---

// ConfirmRequest is the optional JSON body of POST /emergency/confirm.
type ConfirmRequest struct {
	Location *LocationDTO `json:"location"`
}

// LocationDTO is a caller-reported position.
type LocationDTO struct {
	Lat *float64 `json:"lat" validate:"required,latitude"`
	Lng *float64 `json:"lng" validate:"required,longitude"`
}

// AddContactRequest is the JSON request body for adding an emergency contact.
type AddContactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Phone   string `json:"phone" validate:"required,e164"`
	Channel string `json:"channel" validate:"omitempty,contact_channel"`
}

// --- Panel handlers ---

// State handles GET /api/v1/emergency
func (h *EmergencyHandler) State(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	httputil.WriteData(w, http.StatusOK, h.emergency.State(userID))
}

// Open handles POST /api/v1/emergency/open
func (h *EmergencyHandler) Open(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.writeResult(w, r)(h.emergency.OpenPanel(r.Context(), userID))
}

// Close handles POST /api/v1/emergency/close
func (h *EmergencyHandler) Close(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.writeResult(w, r)(h.emergency.ClosePanel(r.Context(), userID))
}

// Confirm handles POST /api/v1/emergency/confirm. The body is optional.
func (h *EmergencyHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ConfirmRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeDecodeError(w, r, err, h.logger)
		return
	}

	var loc *domain.Coordinates
	if req.Location != nil {
		loc = &domain.Coordinates{Lat: *req.Location.Lat, Lng: *req.Location.Lng}
	}
	h.writeResult(w, r)(h.emergency.Confirm(r.Context(), userID, loc))
}

// Cancel handles POST /api/v1/emergency/cancel
func (h *EmergencyHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	h.writeResult(w, r)(h.emergency.Cancel(r.Context(), userID))
}

// ListAlerts handles GET /api/v1/emergency/alerts?limit=
func (h *EmergencyHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "limit must be a positive integer"},
			})
			return
		}
		limit = min(n, maxAlertHistory)
	}

	alerts, err := h.emergency.ListAlerts(r.Context(), userID, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	httputil.WriteData(w, http.StatusOK, alerts)
}

func (h *EmergencyHandler) writeResult(w http.ResponseWriter, r *http.Request) func(service.EmergencyResult, error) {
	return func(res service.EmergencyResult, err error) {
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		httputil.WriteData(w, http.StatusOK, res)
	}
}

// --- Contact handlers ---

// ListContacts handles GET /api/v1/emergency/contacts
func (h *EmergencyHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	contacts, err := h.contacts.ListContacts(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	httputil.WriteData(w, http.StatusOK, contacts)
}

// AddContact handles POST /api/v1/emergency/contacts
func (h *EmergencyHandler) AddContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddContactRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeDecodeError(w, r, err, h.logger)
		return
	}

	contact, err := h.contacts.AddContact(r.Context(), &service.AddContactInput{
		UserID:  userID,
		Name:    req.Name,
		Phone:   req.Phone,
		Channel: req.Channel,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, contact)
}

// DeleteContact handles DELETE /api/v1/emergency/contacts/{id}
func (h *EmergencyHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.contacts.DeleteContact(r.Context(), userID, id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
