package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Oldhoon/accessible-journeys/internal/accessibility"
	"github.com/Oldhoon/accessible-journeys/internal/capability"
	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/pkg/httputil"
)

// CatalogueHandler serves static reference data: the feature catalogue,
// voice guidance text and deployment capabilities.
type CatalogueHandler struct {
	caps   capability.Set
	logger *slog.Logger
}

// NewCatalogueHandler creates a new catalogue handler.
func NewCatalogueHandler(caps capability.Set, logger *slog.Logger) *CatalogueHandler {
	return &CatalogueHandler{caps: caps, logger: logger}
}

// Features handles GET /api/v1/features
func (h *CatalogueHandler) Features(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, domain.Catalogue())
}

// Capabilities handles GET /api/v1/capabilities
func (h *CatalogueHandler) Capabilities(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.caps)
}

// guidanceResponse is the body of GET /api/v1/guidance.
type guidanceResponse struct {
	Text string `json:"text"`
}

// Guidance handles GET /api/v1/guidance?direction=&distance=&unit=
func (h *CatalogueHandler) Guidance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	direction := strings.TrimSpace(q.Get("direction"))
	if direction == "" {
		writeParamError(w, "direction is required")
		return
	}
	distance, err := strconv.ParseFloat(q.Get("distance"), 64)
	if err != nil || distance < 0 {
		writeParamError(w, "distance must be a non-negative number")
		return
	}
	unit, err := accessibility.ParseDistanceUnit(q.Get("unit"))
	if err != nil {
		writeParamError(w, err.Error())
		return
	}

	httputil.WriteData(w, http.StatusOK, guidanceResponse{
		Text: accessibility.VoiceGuidance(direction, distance, unit),
	})
}

func writeParamError(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: message},
	})
}
