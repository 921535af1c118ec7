package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Oldhoon/accessible-journeys/internal/accessibility"
	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
	"github.com/Oldhoon/accessible-journeys/pkg/pagination"
	"github.com/Oldhoon/accessible-journeys/pkg/slug"
)

// candidatePageSize and maxCandidates bound the scan done when filtering by
// accessibility features.
const (
	candidatePageSize = 100
	maxCandidates     = 2000
)

// LocationService implements location lookup and summary aggregation.
type LocationService struct {
	locations repository.LocationRepository
	reports   repository.ReportRepository
	cache     repository.SummaryCache
	cacheTTL  time.Duration
	logger    *slog.Logger
}

// NewLocationService creates a new location service. cache may be nil.
func NewLocationService(
	locations repository.LocationRepository,
	reports repository.ReportRepository,
	cache repository.SummaryCache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *LocationService {
	return &LocationService{
		locations: locations,
		reports:   reports,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// CreateLocationInput holds the parameters for creating a location.
type CreateLocationInput struct {
	Name    string
	Address string
	Lat     float64
	Lng     float64
	Types   []string
}

// CreateLocation validates input and stores a new location.
func (s *LocationService) CreateLocation(ctx context.Context, input *CreateLocationInput) (*domain.Location, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	coords := domain.Coordinates{Lat: input.Lat, Lng: input.Lng}
	if err := coords.Validate(); err != nil {
		return nil, err
	}
	locSlug := slug.Generate(name)
	if locSlug == "" {
		return nil, apperrors.InvalidInput("name must contain letters or digits")
	}

	types := make([]string, 0, len(input.Types))
	for _, t := range input.Types {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			types = append(types, t)
		}
	}

	location := &domain.Location{
		ID:          uuid.New().String(),
		Slug:        locSlug,
		Name:        name,
		Address:     strings.TrimSpace(input.Address),
		Coordinates: coords,
		Types:       types,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.locations.Create(ctx, location); err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}

	s.logger.InfoContext(ctx, "location created",
		slog.String("location_id", location.ID),
		slog.String("slug", location.Slug),
	)
	return location, nil
}

// GetLocation resolves a location by UUID or slug and attaches its summary.
func (s *LocationService) GetLocation(ctx context.Context, idOrSlug string) (*domain.LocationWithSummary, error) {
	var (
		location *domain.Location
		err      error
	)
	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		location, err = s.locations.GetByID(ctx, idOrSlug)
	} else {
		location, err = s.locations.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}

	summary, err := s.summaryFor(ctx, location.ID)
	if err != nil {
		return nil, err
	}
	return &domain.LocationWithSummary{Location: *location, Summary: summary}, nil
}

// GetSummary returns the aggregated accessibility summary of a location.
func (s *LocationService) GetSummary(ctx context.Context, locationID string) (*domain.Summary, error) {
	if _, err := s.locations.GetByID(ctx, locationID); err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	summary, err := s.summaryFor(ctx, locationID)
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListLocationsInput holds search, filter and paging parameters.
type ListLocationsInput struct {
	Search   *string
	Type     *string
	Features []domain.Feature
	Page     pagination.Params
}

// ListLocations returns one page of locations with their summaries. When
// features are requested, only locations whose consensus set contains all
// of them are returned.
func (s *LocationService) ListLocations(ctx context.Context, input *ListLocationsInput) ([]domain.LocationWithSummary, int, error) {
	filter := repository.LocationFilter{Search: input.Search, Type: input.Type}

	if len(input.Features) == 0 {
		filter.Page = input.Page.Page
		filter.PerPage = input.Page.PerPage
		locations, total, err := s.locations.List(ctx, filter)
		if err != nil {
			return nil, 0, fmt.Errorf("list locations: %w", err)
		}
		out, err := s.withSummaries(ctx, locations)
		if err != nil {
			return nil, 0, err
		}
		return out, total, nil
	}

	want := domain.UniqueFeatures(input.Features)
	matched := make([]domain.LocationWithSummary, 0)
	filter.PerPage = candidatePageSize
	scanned, total := 0, 0
	for filter.Page = 1; (filter.Page-1)*candidatePageSize < maxCandidates; filter.Page++ {
		locations, n, err := s.locations.List(ctx, filter)
		if err != nil {
			return nil, 0, fmt.Errorf("list locations: %w", err)
		}
		total = n
		scanned += len(locations)
		batch, err := s.withSummaries(ctx, locations)
		if err != nil {
			return nil, 0, err
		}
		for _, l := range batch {
			if l.Summary.Includes(want) {
				matched = append(matched, l)
			}
		}
		if filter.Page*candidatePageSize >= total || len(locations) == 0 {
			break
		}
	}
	if scanned < total {
		s.logger.WarnContext(ctx, "feature filter scan truncated; total is a lower bound",
			slog.Int("scanned", scanned),
			slog.Int("candidates", total),
			slog.Int("max_candidates", maxCandidates),
		)
	}

	start, end := input.Page.Window(len(matched))
	return matched[start:end], len(matched), nil
}

func (s *LocationService) withSummaries(ctx context.Context, locations []domain.Location) ([]domain.LocationWithSummary, error) {
	out := make([]domain.LocationWithSummary, 0, len(locations))
	for _, l := range locations {
		summary, err := s.summaryFor(ctx, l.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.LocationWithSummary{Location: l, Summary: summary})
	}
	return out, nil
}

// summaryFor reads through the cache. Cache failures are logged and the
// summary is recomputed from the reports. The generation is read before
// the reports, so a report created meanwhile invalidates this write.
func (s *LocationService) summaryFor(ctx context.Context, locationID string) (domain.Summary, error) {
	var gen int64
	cacheable := s.cache != nil
	if cacheable {
		cached, g, err := s.cache.Get(ctx, locationID)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "summary cache read failed",
				slog.String("location_id", locationID),
				slog.String("error", err.Error()),
			)
			cacheable = false
		case cached != nil:
			return *cached, nil
		default:
			gen = g
		}
	}

	reports, err := s.reports.ListAllByLocationID(ctx, locationID)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("list reports for summary: %w", err)
	}
	summary := accessibility.Summarize(reports)

	if cacheable {
		if err := s.cache.Set(ctx, locationID, gen, summary, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "summary cache write failed",
				slog.String("location_id", locationID),
				slog.String("error", err.Error()),
			)
		}
	}
	return summary, nil
}

// invalidateSummary drops the cached summary of a location. It must run
// after the report is committed.
func (s *LocationService) invalidateSummary(ctx context.Context, locationID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, locationID); err != nil {
		s.logger.WarnContext(ctx, "summary cache invalidation failed",
			slog.String("location_id", locationID),
			slog.String("error", err.Error()),
		)
	}
}
