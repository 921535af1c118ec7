package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	"github.com/Oldhoon/accessible-journeys/pkg/database"
	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return mock
}

func strPtr(s string) *string { return &s }

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var locationCols = []string{"id", "slug", "name", "address", "geom", "types", "created_at"}

var locationColsWithCount = append(append([]string{}, locationCols...), "total_count")

func sampleLocation() domain.Location {
	return domain.Location{
		ID:          "loc-1",
		Slug:        "central-library",
		Name:        "Central Library",
		Address:     "1 Main St",
		Coordinates: domain.Coordinates{Lat: 51.5074, Lng: -0.1278},
		Types:       []string{"library", "public"},
		CreatedAt:   now,
	}
}

func locationRow(t *testing.T, l domain.Location) []any {
	t.Helper()
	point, err := encodePoint(l.Coordinates)
	require.NoError(t, err)
	return []any{l.ID, l.Slug, l.Name, l.Address, point, l.Types, l.CreatedAt}
}

var reportCols = []string{
	"id", "location_id", "location_name", "features", "rating",
	"comments", "images", "created_at", "user_id",
}

func sampleReport() domain.Report {
	return domain.Report{
		ID:           "rep-1",
		LocationID:   "loc-1",
		LocationName: "Central Library",
		Features:     []domain.Feature{domain.FeatureRamp, domain.FeatureToilet},
		Rating:       4,
		Comments:     "step-free side entrance",
		Images:       []string{"img-a"},
		Timestamp:    now,
		UserID:       "user-1",
	}
}

func reportRow(r domain.Report) []any {
	return []any{
		r.ID, r.LocationID, r.LocationName, domain.FeatureNames(r.Features), r.Rating.Int(),
		r.Comments, r.Images, r.Timestamp, r.UserID,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// geometry
// ─────────────────────────────────────────────────────────────────────────────

func TestPointEncoding_RoundTrip(t *testing.T) {
	c := domain.Coordinates{Lat: -33.8688, Lng: 151.2093}
	data, err := encodePoint(c)
	require.NoError(t, err)

	got, err := decodePoint(data)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestDecodePoint_Garbage(t *testing.T) {
	_, err := decodePoint([]byte{0x01, 0x02})
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// LocationRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestLocationRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewLocationRepository(mock)

	l := sampleLocation()
	point, err := encodePoint(l.Coordinates)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO locations").
		WithArgs(l.ID, l.Slug, l.Name, l.Address, point, l.Types, l.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &l))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_Create_DuplicateSlug(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewLocationRepository(mock)

	l := sampleLocation()
	mock.ExpectExec("INSERT INTO locations").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &l)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_GetByID_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewLocationRepository(mock)

	l := sampleLocation()
	mock.ExpectQuery("SELECT .+ FROM locations WHERE id").
		WithArgs(l.ID).
		WillReturnRows(pgxmock.NewRows(locationCols).AddRow(locationRow(t, l)...))

	got, err := repo.GetByID(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, &l, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_GetBySlug_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewLocationRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM locations WHERE slug").
		WithArgs("nowhere").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetBySlug(context.Background(), "nowhere")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_List_WithFilters(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewLocationRepository(mock)

	l := sampleLocation()
	row := append(locationRow(t, l), 1)

	mock.ExpectQuery("SELECT .+ FROM locations").
		WithArgs("%lib%", "library", 10, 10).
		WillReturnRows(pgxmock.NewRows(locationColsWithCount).AddRow(row...))

	got, total, err := repo.List(context.Background(), repository.LocationFilter{
		Search:  strPtr("lib"),
		Type:    strPtr("library"),
		Page:    2,
		PerPage: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, l.Coordinates, got[0].Coordinates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocationRepository_List_Empty(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewLocationRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM locations").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(locationColsWithCount))

	got, total, err := repo.List(context.Background(), repository.LocationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ─────────────────────────────────────────────────────────────────────────────
// ReportRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestReportRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReportRepository(mock)

	r := sampleReport()
	mock.ExpectExec("INSERT INTO accessibility_reports").
		WithArgs(reportRow(r)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), &r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_Create_UnknownLocation(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReportRepository(mock)

	r := sampleReport()
	mock.ExpectExec("INSERT INTO accessibility_reports").
		WithArgs(reportRow(r)...).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Create(context.Background(), &r)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReportRepository_ListByLocationID(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReportRepository(mock)

	r := sampleReport()
	mock.ExpectQuery("SELECT .+ FROM accessibility_reports").
		WithArgs("loc-1", 5, 0).
		WillReturnRows(pgxmock.NewRows(append(append([]string{}, reportCols...), "total_count")).
			AddRow(append(reportRow(r), 7)...))

	got, total, err := repo.ListByLocationID(context.Background(), "loc-1", 1, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, got, 1)
	assert.Equal(t, r, got[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_ListAllByLocationID(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReportRepository(mock)

	r1 := sampleReport()
	r2 := sampleReport()
	r2.ID = "rep-2"
	r2.Features = []domain.Feature{}
	r2.Rating = 2

	mock.ExpectQuery("SELECT .+ FROM accessibility_reports").
		WithArgs("loc-1").
		WillReturnRows(pgxmock.NewRows(reportCols).AddRow(reportRow(r1)...).AddRow(reportRow(r2)...))

	got, err := repo.ListAllByLocationID(context.Background(), "loc-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.Rating(2), got[1].Rating)
	assert.Empty(t, got[1].Features)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_ListAll_BadFeatureName(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReportRepository(mock)

	r := sampleReport()
	row := reportRow(r)
	row[3] = []string{"hovercraft"}

	mock.ExpectQuery("SELECT .+ FROM accessibility_reports").
		WithArgs("loc-1").
		WillReturnRows(pgxmock.NewRows(reportCols).AddRow(row...))

	_, err := repo.ListAllByLocationID(context.Background(), "loc-1")
	assert.Error(t, err)
}

func TestReportRepository_QueryError(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewReportRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM accessibility_reports").
		WithArgs("loc-1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ListAllByLocationID(context.Background(), "loc-1")
	assert.ErrorContains(t, err, "connection reset")
}

// ─────────────────────────────────────────────────────────────────────────────
// AlertRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestAlertRepository_CreateAndGet(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewAlertRepository(mock)

	coords := domain.Coordinates{Lat: 10, Lng: 20}
	a := domain.Alert{ID: "al-1", UserID: "user-1", Coordinates: &coords, Status: domain.AlertStatusSent, CreatedAt: now}
	point, err := encodePoint(coords)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO emergency_alerts").
		WithArgs(a.ID, a.UserID, point, a.Status, a.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT .+ FROM emergency_alerts WHERE id").
		WithArgs(a.ID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "geom", "status", "created_at"}).
			AddRow(a.ID, a.UserID, point, a.Status, a.CreatedAt))

	require.NoError(t, repo.Create(context.Background(), &a))
	got, err := repo.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, &a, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_ListByUserID_NoLocation(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewAlertRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM emergency_alerts").
		WithArgs("user-1", 20).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "geom", "status", "created_at"}).
			AddRow("al-1", "user-1", []byte(nil), domain.AlertStatusDelivered, now))

	got, err := repo.ListByUserID(context.Background(), "user-1", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Coordinates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_UpdateStatus_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewAlertRepository(mock)

	mock.ExpectExec("UPDATE emergency_alerts").
		WithArgs("al-x", domain.AlertStatusFailed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "al-x", domain.AlertStatusFailed)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// ─────────────────────────────────────────────────────────────────────────────
// ContactRepository
// ─────────────────────────────────────────────────────────────────────────────

func TestContactRepository_CreateListDelete(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewContactRepository(mock)

	c := domain.Contact{ID: "c-1", UserID: "user-1", Name: "Sam", Phone: "+15550100", Channel: domain.ContactChannelSMS, CreatedAt: now}

	mock.ExpectExec("INSERT INTO emergency_contacts").
		WithArgs(c.ID, c.UserID, c.Name, c.Phone, c.Channel, c.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT .+ FROM emergency_contacts").
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "phone", "channel", "created_at"}).
			AddRow(c.ID, c.UserID, c.Name, c.Phone, c.Channel, c.CreatedAt))
	mock.ExpectExec("DELETE FROM emergency_contacts").
		WithArgs(c.ID, c.UserID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &c))
	list, err := repo.ListByUserID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Contact{c}, list)
	require.NoError(t, repo.Delete(ctx, "user-1", "c-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_Delete_OtherUsersContact(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewContactRepository(mock)

	mock.ExpectExec("DELETE FROM emergency_contacts").
		WithArgs("c-1", "intruder").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "intruder", "c-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
