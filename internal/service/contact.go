package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
)

// ContactService manages a user's emergency contacts.
type ContactService struct {
	repo   repository.ContactRepository
	logger *slog.Logger
}

// NewContactService creates a new contact service.
func NewContactService(repo repository.ContactRepository, logger *slog.Logger) *ContactService {
	return &ContactService{repo: repo, logger: logger}
}

// AddContactInput holds the parameters for adding a contact.
type AddContactInput struct {
	UserID  string
	Name    string
	Phone   string
	Channel string
}

// AddContact validates and stores a contact. Channel defaults to sms.
func (s *ContactService) AddContact(ctx context.Context, input *AddContactInput) (*domain.Contact, error) {
	if input.UserID == "" {
		return nil, apperrors.InvalidInput("user_id is required")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, apperrors.InvalidInput("phone is required")
	}
	channel := input.Channel
	if channel == "" {
		channel = domain.ContactChannelSMS
	}
	if !domain.IsValidContactChannel(channel) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid channel %q: must be one of %s",
			channel, strings.Join(domain.ValidContactChannels(), ", ")))
	}

	contact := &domain.Contact{
		ID:        uuid.New().String(),
		UserID:    input.UserID,
		Name:      name,
		Phone:     phone,
		Channel:   channel,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}

	s.logger.InfoContext(ctx, "emergency contact added",
		slog.String("contact_id", contact.ID),
		slog.String("user_id", contact.UserID),
		slog.String("channel", contact.Channel),
	)
	return contact, nil
}

// ListContacts returns the user's contacts in creation order.
func (s *ContactService) ListContacts(ctx context.Context, userID string) ([]domain.Contact, error) {
	contacts, err := s.repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

// DeleteContact removes one of the user's contacts.
func (s *ContactService) DeleteContact(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	s.logger.InfoContext(ctx, "emergency contact removed",
		slog.String("contact_id", id),
		slog.String("user_id", userID),
	)
	return nil
}
