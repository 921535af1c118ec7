package webhook

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/pkg/httpclient"
)

// Payload is the JSON body posted to the gateway.
type Payload struct {
	AlertID   string              `json:"alert_id"`
	UserID    string              `json:"user_id"`
	Channel   string              `json:"channel"`
	Recipient string              `json:"recipient"`
	Name      string              `json:"name"`
	Message   string              `json:"message"`
	Location  *domain.Coordinates `json:"location,omitempty"`
	SentAt    string              `json:"sent_at"`
}

// Sender posts notifications to an SMS/push gateway webhook through a
// circuit-breaking HTTP client.
type Sender struct {
	client  *httpclient.CircuitBreakerClient
	url     string
	channel string
	logger  *slog.Logger
}

// New creates a webhook sender for channel.
func New(client *httpclient.CircuitBreakerClient, url, channel string, logger *slog.Logger) *Sender {
	return &Sender{client: client, url: url, channel: channel, logger: logger}
}

// Name returns the sender name.
func (s *Sender) Name() string {
	return "webhook-" + s.channel
}

// Send posts n to the webhook. Non-2xx responses become errors.
func (s *Sender) Send(ctx context.Context, n *domain.Notification) error {
	payload := Payload{
		AlertID:   n.AlertID,
		UserID:    n.UserID,
		Channel:   s.channel,
		Recipient: n.Contact.Phone,
		Name:      n.Contact.Name,
		Message:   n.Message,
		Location:  n.Coordinates,
		SentAt:    n.SentAt.UTC().Format(time.RFC3339),
	}
	header := http.Header{}
	header.Set("Idempotency-Key", n.AlertID+":"+n.Contact.ID)

	resp, err := s.client.PostJSON(ctx, s.url, payload, header)
	if err != nil {
		return fmt.Errorf("post alert webhook: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpclient.ParseResponseError(resp, s.Name())
	}
	_ = resp.Body.Close()

	s.logger.InfoContext(ctx, "alert webhook delivered",
		slog.String("alert_id", n.AlertID),
		slog.String("contact_id", n.Contact.ID),
		slog.Int("status", resp.StatusCode),
	)
	return nil
}
