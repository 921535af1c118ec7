package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/event"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	pkgkafka "github.com/Oldhoon/accessible-journeys/pkg/kafka"
)

// --- Mock LocationRepository ---

type mockLocationRepo struct {
	mock.Mock
}

func (m *mockLocationRepo) Create(ctx context.Context, l *domain.Location) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockLocationRepo) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}

func (m *mockLocationRepo) GetBySlug(ctx context.Context, slug string) (*domain.Location, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Location), args.Error(1)
}

func (m *mockLocationRepo) List(ctx context.Context, filter repository.LocationFilter) ([]domain.Location, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Location), args.Int(1), args.Error(2)
}

// --- Mock ReportRepository ---

type mockReportRepo struct {
	mock.Mock
}

func (m *mockReportRepo) Create(ctx context.Context, r *domain.Report) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReportRepo) ListByLocationID(ctx context.Context, locationID string, page, perPage int) ([]domain.Report, int, error) {
	args := m.Called(ctx, locationID, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Report), args.Int(1), args.Error(2)
}

func (m *mockReportRepo) ListAllByLocationID(ctx context.Context, locationID string) ([]domain.Report, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Report), args.Error(1)
}

// --- Mock SummaryCache ---

type mockSummaryCache struct {
	mock.Mock
}

func (m *mockSummaryCache) Get(ctx context.Context, locationID string) (*domain.Summary, int64, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).(*domain.Summary), args.Get(1).(int64), args.Error(2)
}

func (m *mockSummaryCache) Set(ctx context.Context, locationID string, gen int64, summary domain.Summary, ttl time.Duration) error {
	return m.Called(ctx, locationID, gen, summary, ttl).Error(0)
}

func (m *mockSummaryCache) Invalidate(ctx context.Context, locationID string) error {
	return m.Called(ctx, locationID).Error(0)
}

// --- Mock AlertRepository ---

type mockAlertRepo struct {
	mock.Mock
}

func (m *mockAlertRepo) Create(ctx context.Context, a *domain.Alert) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAlertRepo) GetByID(ctx context.Context, id string) (*domain.Alert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Alert), args.Error(1)
}

func (m *mockAlertRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]domain.Alert, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Alert), args.Error(1)
}

func (m *mockAlertRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

// --- Mock ContactRepository ---

type mockContactRepo struct {
	mock.Mock
}

func (m *mockContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockContactRepo) ListByUserID(ctx context.Context, userID string) ([]domain.Contact, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contact), args.Error(1)
}

func (m *mockContactRepo) Delete(ctx context.Context, userID, id string) error {
	return m.Called(ctx, userID, id).Error(0)
}

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, ev *pkgkafka.Event) error {
	return m.Called(ctx, topic, ev).Error(0)
}

// --- Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestProducer(pub *mockPublisher) *event.Producer {
	return event.NewProducer(pub, newTestLogger())
}
