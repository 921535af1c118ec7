package repository

import (
	"context"
	"time"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
)

// LocationFilter defines filter criteria for listing locations.
type LocationFilter struct {
	Search  *string
	Type    *string
	Page    int
	PerPage int
}

// LocationRepository defines the interface for location persistence operations.
type LocationRepository interface {
	// Create inserts a new location into the store.
	Create(ctx context.Context, location *domain.Location) error

	// GetByID retrieves a location by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Location, error)

	// GetBySlug retrieves a location by its URL-friendly slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Location, error)

	// List returns locations matching the filter along with the total count.
	List(ctx context.Context, filter LocationFilter) ([]domain.Location, int, error)
}

// ReportRepository defines the interface for accessibility report persistence.
type ReportRepository interface {
	// Create inserts a new report. Reports are never updated.
	Create(ctx context.Context, report *domain.Report) error

	// ListByLocationID returns a page of a location's reports, newest first,
	// and the total count.
	ListByLocationID(ctx context.Context, locationID string, page, perPage int) ([]domain.Report, int, error)

	// ListAllByLocationID returns every report for a location.
	ListAllByLocationID(ctx context.Context, locationID string) ([]domain.Report, error)
}

// AlertRepository defines the interface for emergency alert persistence.
type AlertRepository interface {
	Create(ctx context.Context, alert *domain.Alert) error
	GetByID(ctx context.Context, id string) (*domain.Alert, error)
	ListByUserID(ctx context.Context, userID string, limit int) ([]domain.Alert, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// ContactRepository defines the interface for emergency contact persistence.
type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	ListByUserID(ctx context.Context, userID string) ([]domain.Contact, error)
	Delete(ctx context.Context, userID, id string) error
}

// SummaryCache caches derived location summaries. Get returns a nil
// summary on a miss plus the generation to pass to Set; Invalidate moves
// the location to a new generation so writes computed earlier are ignored.
type SummaryCache interface {
	Get(ctx context.Context, locationID string) (*domain.Summary, int64, error)
	Set(ctx context.Context, locationID string, gen int64, summary domain.Summary, ttl time.Duration) error
	Invalidate(ctx context.Context, locationID string) error
}
