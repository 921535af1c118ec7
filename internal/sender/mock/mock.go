package mock

import (
	"context"
	"log/slog"
	"time"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
)

// MockSender logs notifications and always succeeds. It simulates a short
// delay to mimic a real gateway.
type MockSender struct {
	channel string
	delay   time.Duration
	logger  *slog.Logger
}

// NewMockSender creates a new mock sender for the given channel.
func NewMockSender(channel string, logger *slog.Logger) *MockSender {
	return &MockSender{
		channel: channel,
		delay:   10 * time.Millisecond,
		logger:  logger,
	}
}

// Name returns the name of this sender.
func (s *MockSender) Name() string {
	return "mock-" + s.channel
}

// Send logs the notification after the simulated delay.
func (s *MockSender) Send(ctx context.Context, n *domain.Notification) error {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "mock sender: emergency notification sent",
		slog.String("alert_id", n.AlertID),
		slog.String("user_id", n.UserID),
		slog.String("contact_id", n.Contact.ID),
		slog.String("channel", s.channel),
	)
	return nil
}
