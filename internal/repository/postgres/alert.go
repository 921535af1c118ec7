package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	"github.com/Oldhoon/accessible-journeys/pkg/database"
	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
)

// AlertRepository implements repository.AlertRepository using PostgreSQL.
type AlertRepository struct {
	db database.DBTX
}

// NewAlertRepository creates a new PostgreSQL-backed alert repository.
func NewAlertRepository(db database.DBTX) *AlertRepository {
	return &AlertRepository{db: db}
}

var _ repository.AlertRepository = (*AlertRepository)(nil)

// Create inserts an alert. Coordinates are optional.
func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) (err error) {
	var point []byte
	if alert.Coordinates != nil {
		if point, err = encodePoint(*alert.Coordinates); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO emergency_alerts (id, user_id, geom, status, created_at)
		VALUES ($1, $2, ST_GeomFromEWKB($3), $4, $5)`

	ctx, end := database.TraceQuery(ctx, "alerts.create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, alert.ID, alert.UserID, point, alert.Status, alert.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// GetByID retrieves an alert.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (_ *domain.Alert, err error) {
	query := `
		SELECT id, user_id, ST_AsEWKB(geom), status, created_at
		FROM emergency_alerts
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "alerts.get_by_id", query)
	defer func() { end(err) }()

	alert, err := scanAlert(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("alert", id)
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	return alert, nil
}

// ListByUserID returns the user's most recent alerts.
func (r *AlertRepository) ListByUserID(ctx context.Context, userID string, limit int) (_ []domain.Alert, err error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, user_id, ST_AsEWKB(geom), status, created_at
		FROM emergency_alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "alerts.list_by_user", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []domain.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		alerts = append(alerts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}
	return alerts, nil
}

// UpdateStatus records the delivery outcome of an alert.
func (r *AlertRepository) UpdateStatus(ctx context.Context, id, status string) (err error) {
	query := `UPDATE emergency_alerts SET status = $2 WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "alerts.update_status", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update alert status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("alert", id)
	}
	return nil
}

func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var (
		a     domain.Alert
		point []byte
	)
	if err := row.Scan(&a.ID, &a.UserID, &point, &a.Status, &a.CreatedAt); err != nil {
		return nil, err
	}
	if len(point) > 0 {
		c, err := decodePoint(point)
		if err != nil {
			return nil, err
		}
		a.Coordinates = &c
	}
	return &a, nil
}
