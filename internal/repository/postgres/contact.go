package postgres

import (
	"context"
	"fmt"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	"github.com/Oldhoon/accessible-journeys/pkg/database"
	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
)

// ContactRepository implements repository.ContactRepository using PostgreSQL.
type ContactRepository struct {
	db database.DBTX
}

// NewContactRepository creates a new PostgreSQL-backed contact repository.
func NewContactRepository(db database.DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

var _ repository.ContactRepository = (*ContactRepository)(nil)

// Create inserts an emergency contact.
func (r *ContactRepository) Create(ctx context.Context, c *domain.Contact) (err error) {
	query := `
		INSERT INTO emergency_contacts (id, user_id, name, phone, channel, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := database.TraceQuery(ctx, "contacts.create", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, c.ID, c.UserID, c.Name, c.Phone, c.Channel, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("contact", "phone", c.Phone)
		}
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// ListByUserID returns the user's contacts in creation order.
func (r *ContactRepository) ListByUserID(ctx context.Context, userID string) (_ []domain.Contact, err error) {
	query := `
		SELECT id, user_id, name, phone, channel, created_at
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY created_at ASC`

	ctx, end := database.TraceQuery(ctx, "contacts.list_by_user", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []domain.Contact{}
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Phone, &c.Channel, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan contact row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contact rows: %w", err)
	}
	return contacts, nil
}

// Delete removes one of the user's contacts.
func (r *ContactRepository) Delete(ctx context.Context, userID, id string) (err error) {
	query := `DELETE FROM emergency_contacts WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "contacts.delete", query)
	defer func() { end(err) }()

	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("contact", id)
	}
	return nil
}
