package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/event"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	"github.com/Oldhoon/accessible-journeys/pkg/pagination"
)

var reportsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "reports_created_total",
	Help: "Accessibility reports submitted.",
})

// ReportService implements accessibility report submission and listing.
type ReportService struct {
	reports   repository.ReportRepository
	locations *LocationService
	producer  *event.Producer
	logger    *slog.Logger
}

// NewReportService creates a new report service.
func NewReportService(
	reports repository.ReportRepository,
	locations *LocationService,
	producer *event.Producer,
	logger *slog.Logger,
) *ReportService {
	return &ReportService{
		reports:   reports,
		locations: locations,
		producer:  producer,
		logger:    logger,
	}
}

// CreateReportInput holds the parameters for submitting a report.
type CreateReportInput struct {
	LocationID   string
	LocationName string
	Features     []domain.Feature
	Rating       int
	Comments     string
	Images       []string
	UserID       string
}

// CreateReport validates and stores a report, invalidates the location's
// cached summary and publishes a report.created event.
func (s *ReportService) CreateReport(ctx context.Context, input *CreateReportInput) (*domain.Report, error) {
	location, err := s.locations.locations.GetByID(ctx, input.LocationID)
	if err != nil {
		return nil, fmt.Errorf("get location for report: %w", err)
	}

	name := input.LocationName
	if name == "" {
		name = location.Name
	}

	report, err := domain.NewReport(domain.NewReportParams{
		ID:           uuid.New().String(),
		LocationID:   location.ID,
		LocationName: name,
		Features:     input.Features,
		Rating:       input.Rating,
		Comments:     input.Comments,
		Images:       input.Images,
		Timestamp:    time.Now(),
		UserID:       input.UserID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}
	reportsCreated.Inc()

	s.locations.invalidateSummary(ctx, report.LocationID)

	if err := s.producer.PublishReportCreated(ctx, report); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish report.created event",
			slog.String("report_id", report.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "report created",
		slog.String("report_id", report.ID),
		slog.String("location_id", report.LocationID),
		slog.Int("rating", report.Rating.Int()),
	)
	return report, nil
}

// ListReports returns one page of a location's reports, newest first.
func (s *ReportService) ListReports(ctx context.Context, locationID string, page pagination.Params) ([]domain.Report, int, error) {
	if _, err := s.locations.locations.GetByID(ctx, locationID); err != nil {
		return nil, 0, fmt.Errorf("get location: %w", err)
	}
	reports, total, err := s.reports.ListByLocationID(ctx, locationID, page.Page, page.PerPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}
	return reports, total, nil
}
