package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/service"
	"github.com/Oldhoon/accessible-journeys/pkg/httputil"
	"github.com/Oldhoon/accessible-journeys/pkg/pagination"
	"github.com/Oldhoon/accessible-journeys/pkg/validator"
)

// ReportHandler handles HTTP requests for accessibility report endpoints.
type ReportHandler struct {
	service *service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a new report HTTP handler.
func NewReportHandler(svc *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateReportRequest is the JSON request body for submitting a report.
// LocationName defaults to the location's own name.
type CreateReportRequest struct {
	LocationName string   `json:"location_name" validate:"max=200"`
	Features     []string `json:"features" validate:"max=10,dive,feature"`
	Rating       int      `json:"rating" validate:"required,min=1,max=5"`
	Comments     string   `json:"comments" validate:"max=2000"`
	Images       []string `json:"images" validate:"max=10,dive,url"`
}

// --- Handlers ---

// ListReports handles GET /api/v1/locations/{locationId}/reports
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "locationId"))
	if !ok {
		return
	}

	page := pagination.FromRequest(r)
	reports, total, err := h.service.ListReports(r.Context(), id.String(), page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(reports, total, page.Page, page.PerPage))
}

// CreateReport handles POST /api/v1/locations/{locationId}/reports
func (h *ReportHandler) CreateReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "locationId"))
	if !ok {
		return
	}

	var req CreateReportRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeDecodeError(w, r, err, h.logger)
		return
	}

	features, err := domain.ParseFeatures(req.Features)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	report, err := h.service.CreateReport(r.Context(), &service.CreateReportInput{
		LocationID:   id.String(),
		LocationName: req.LocationName,
		Features:     features,
		Rating:       req.Rating,
		Comments:     req.Comments,
		Images:       req.Images,
		UserID:       userID,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, report)
}
