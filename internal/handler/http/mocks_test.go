package http

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/Oldhoon/accessible-journeys/internal/capability"
	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/emergency"
	"github.com/Oldhoon/accessible-journeys/internal/event"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	"github.com/Oldhoon/accessible-journeys/internal/service"
	"github.com/Oldhoon/accessible-journeys/pkg/health"
	pkgkafka "github.com/Oldhoon/accessible-journeys/pkg/kafka"
	"github.com/Oldhoon/accessible-journeys/pkg/middleware"
)

// ============================================================================
// Mock repositories
// ============================================================================

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

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, ev *pkgkafka.Event) error {
	return m.Called(ctx, topic, ev).Error(0)
}

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testDeps holds the mocks behind a router built by newTestRouter.
type testDeps struct {
	locations *mockLocationRepo
	reports   *mockReportRepo
	alerts    *mockAlertRepo
	contacts  *mockContactRepo
	publisher *mockPublisher
	emergency *service.EmergencyService
}

func newTestDeps() *testDeps {
	return &testDeps{
		locations: new(mockLocationRepo),
		reports:   new(mockReportRepo),
		alerts:    new(mockAlertRepo),
		contacts:  new(mockContactRepo),
		publisher: new(mockPublisher),
	}
}

func fastSessionConfig() emergency.SessionConfig {
	return emergency.SessionConfig{
		Countdown:    2,
		TickInterval: 5 * time.Millisecond,
		AlertTimeout: time.Second,
	}
}

// router wires the production router over the mocks. The summary cache is
// disabled, identity comes from the X-User-ID header and there is no rate
// limit unless opts says otherwise.
func (d *testDeps) router(caps capability.Set, opts RouterOptions) http.Handler {
	logger := testLogger()
	producer := event.NewProducer(d.publisher, logger)

	locations := service.NewLocationService(d.locations, d.reports, nil, time.Minute, logger)
	d.emergency = service.NewEmergencyService(fastSessionConfig(), emergency.RealClock(), d.alerts, producer, caps, logger)

	if len(opts.CORS.AllowedOrigins) == 0 {
		opts.CORS = middleware.DefaultCORSConfig()
	}
	opts.Capabilities = caps

	return NewRouter(Services{
		Locations: locations,
		Reports:   service.NewReportService(d.reports, locations, producer, logger),
		Emergency: d.emergency,
		Contacts:  service.NewContactService(d.contacts, logger),
	}, health.NewHandler(), opts, logger)
}

func allCaps() capability.Set {
	return capability.Snapshot(capability.FromFlags(true, true))
}
