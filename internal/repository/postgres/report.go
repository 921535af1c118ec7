package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	"github.com/Oldhoon/accessible-journeys/pkg/database"
	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
)

const reportColumns = `id, location_id, location_name, features, rating, comments, images, created_at, user_id`

// ReportRepository implements repository.ReportRepository using PostgreSQL.
type ReportRepository struct {
	db database.DBTX
}

// NewReportRepository creates a new PostgreSQL-backed report repository.
func NewReportRepository(db database.DBTX) *ReportRepository {
	return &ReportRepository{db: db}
}

var _ repository.ReportRepository = (*ReportRepository)(nil)

// Create inserts a new accessibility report.
func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) (err error) {
	query := `
		INSERT INTO accessibility_reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, end := database.TraceQuery(ctx, "reports.create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		report.ID,
		report.LocationID,
		report.LocationName,
		domain.FeatureNames(report.Features),
		report.Rating.Int(),
		report.Comments,
		report.Images,
		report.Timestamp,
		report.UserID,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("location", report.LocationID)
		}
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListByLocationID returns a page of reports for a location, newest first.
func (r *ReportRepository) ListByLocationID(ctx context.Context, locationID string, page, perPage int) (_ []domain.Report, _ int, err error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	query := `
		SELECT ` + reportColumns + `,
		       count(*) OVER() AS total_count
		FROM accessibility_reports
		WHERE location_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	ctx, end := database.TraceQuery(ctx, "reports.list_by_location", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, locationID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reports: %w", err)
	}

	var totalCount int
	reports, err := collectReports(rows, &totalCount)
	if err != nil {
		return nil, 0, err
	}
	return reports, totalCount, nil
}

// ListAllByLocationID returns every report for a location, oldest first.
func (r *ReportRepository) ListAllByLocationID(ctx context.Context, locationID string) (_ []domain.Report, err error) {
	query := `
		SELECT ` + reportColumns + `
		FROM accessibility_reports
		WHERE location_id = $1
		ORDER BY created_at ASC`

	ctx, end := database.TraceQuery(ctx, "reports.list_all_by_location", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, locationID)
	if err != nil {
		return nil, fmt.Errorf("list all reports: %w", err)
	}
	return collectReports(rows, nil)
}

func collectReports(rows pgx.Rows, total *int) ([]domain.Report, error) {
	defer rows.Close()

	reports := []domain.Report{}
	for rows.Next() {
		var (
			rp       domain.Report
			features []string
			rating   int
			ts       time.Time
		)
		dest := []any{
			&rp.ID, &rp.LocationID, &rp.LocationName, &features, &rating,
			&rp.Comments, &rp.Images, &ts, &rp.UserID,
		}
		if total != nil {
			dest = append(dest, total)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}

		parsed, err := domain.ParseFeatures(features)
		if err != nil {
			return nil, fmt.Errorf("report %s: %w", rp.ID, err)
		}
		rp.Features = parsed
		rp.Rating = domain.Rating(rating)
		rp.Timestamp = ts.UTC()
		if rp.Images == nil {
			rp.Images = []string{}
		}
		reports = append(reports, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}
	return reports, nil
}
