package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	"github.com/Oldhoon/accessible-journeys/pkg/database"
	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
)

const locationColumns = `id, slug, name, address, ST_AsEWKB(geom), types, created_at`

// LocationRepository implements repository.LocationRepository using PostgreSQL.
type LocationRepository struct {
	db database.DBTX
}

// NewLocationRepository creates a new PostgreSQL-backed location repository.
func NewLocationRepository(db database.DBTX) *LocationRepository {
	return &LocationRepository{db: db}
}

var _ repository.LocationRepository = (*LocationRepository)(nil)

// Create inserts a new location.
func (r *LocationRepository) Create(ctx context.Context, loc *domain.Location) (err error) {
	point, err := encodePoint(loc.Coordinates)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO locations (id, slug, name, address, geom, types, created_at)
		VALUES ($1, $2, $3, $4, ST_GeomFromEWKB($5), $6, $7)`

	ctx, end := database.TraceQuery(ctx, "locations.create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		loc.ID,
		loc.Slug,
		loc.Name,
		loc.Address,
		point,
		loc.Types,
		loc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("location", "slug", loc.Slug)
		}
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

// GetByID retrieves a location by its ID.
func (r *LocationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	return r.getOne(ctx, "locations.get_by_id", query, id)
}

// GetBySlug retrieves a location by its slug.
func (r *LocationRepository) GetBySlug(ctx context.Context, slug string) (*domain.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE slug = $1`
	return r.getOne(ctx, "locations.get_by_slug", query, slug)
}

func (r *LocationRepository) getOne(ctx context.Context, op, query, key string) (loc *domain.Location, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	loc, err = scanLocation(r.db.QueryRow(ctx, query, key), nil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("location", key)
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return loc, nil
}

// List returns locations matching the filter, newest first, with the total count.
func (r *LocationRepository) List(ctx context.Context, filter repository.LocationFilter) (_ []domain.Location, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Search != nil {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(types)", argIndex))
		args = append(args, *filter.Type)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       count(*) OVER() AS total_count
		FROM locations
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		locationColumns, whereClause, argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "locations.list", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var (
		locations  []domain.Location
		totalCount int
	)
	for rows.Next() {
		loc, err := scanLocation(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan location row: %w", err)
		}
		locations = append(locations, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate location rows: %w", err)
	}

	if locations == nil {
		locations = []domain.Location{}
	}
	return locations, totalCount, nil
}

// scanLocation reads one location row. When total is non-nil the row carries
// a trailing window count.
func scanLocation(row pgx.Row, total *int) (*domain.Location, error) {
	var (
		loc   domain.Location
		point []byte
	)
	dest := []any{&loc.ID, &loc.Slug, &loc.Name, &loc.Address, &point, &loc.Types, &loc.CreatedAt}
	if total != nil {
		dest = append(dest, total)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	coords, err := decodePoint(point)
	if err != nil {
		return nil, err
	}
	loc.Coordinates = coords
	if loc.Types == nil {
		loc.Types = []string{}
	}
	return &loc, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
