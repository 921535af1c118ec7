package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/service"
	"github.com/Oldhoon/accessible-journeys/pkg/httputil"
	"github.com/Oldhoon/accessible-journeys/pkg/pagination"
	"github.com/Oldhoon/accessible-journeys/pkg/validator"
)

// LocationHandler handles HTTP requests for location endpoints.
type LocationHandler struct {
	service *service.LocationService
	logger  *slog.Logger
}

// NewLocationHandler creates a new location HTTP handler.
func NewLocationHandler(svc *service.LocationService, logger *slog.Logger) *LocationHandler {
	return &LocationHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateLocationRequest is the JSON request body for creating a location.
type CreateLocationRequest struct {
	Name    string   `json:"name" validate:"required,max=200"`
	Address string   `json:"address" validate:"max=500"`
	Lat     *float64 `json:"lat" validate:"required,latitude"`
	Lng     *float64 `json:"lng" validate:"required,longitude"`
	Types   []string `json:"types" validate:"max=10,dive,required,max=50"`
}

// --- Handlers ---

// ListLocations handles GET /api/v1/locations?q=&type=&features=a,b&page=&per_page=
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	features, err := parseFeatureList(q.Get("features"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	page := pagination.FromRequest(r)
	input := &service.ListLocationsInput{
		Features: features,
		Page:     page,
	}
	if v := strings.TrimSpace(q.Get("q")); v != "" {
		input.Search = &v
	}
	if v := strings.TrimSpace(q.Get("type")); v != "" {
		v = strings.ToLower(v)
		input.Type = &v
	}

	locations, total, err := h.service.ListLocations(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(locations, total, page.Page, page.PerPage))
}

// CreateLocation handles POST /api/v1/locations
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req CreateLocationRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		writeDecodeError(w, r, err, h.logger)
		return
	}

	location, err := h.service.CreateLocation(r.Context(), &service.CreateLocationInput{
		Name:    req.Name,
		Address: req.Address,
		Lat:     *req.Lat,
		Lng:     *req.Lng,
		Types:   req.Types,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, location)
}

// GetLocation handles GET /api/v1/locations/{locationId}, where the
// parameter is a UUID or a slug.
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	location, err := h.service.GetLocation(r.Context(), chi.URLParam(r, "locationId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, location)
}

// GetSummary handles GET /api/v1/locations/{locationId}/summary
func (h *LocationHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "locationId"))
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, summary)
}

// parseFeatureList parses a comma-separated feature list.
func parseFeatureList(raw string) ([]domain.Feature, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var names []string
	for _, n := range strings.Split(raw, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return domain.ParseFeatures(names)
}
