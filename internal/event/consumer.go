package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	"github.com/Oldhoon/accessible-journeys/internal/sender"
	pkgkafka "github.com/Oldhoon/accessible-journeys/pkg/kafka"
)

// ConsumerGroupID is the consumer group for alert fan-out.
const ConsumerGroupID = "accessible-journeys-alerts"

var notificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "emergency_notifications_total",
	Help: "Emergency contact notifications by channel and outcome.",
}, []string{"channel", "outcome"})

// ConsumerHandler fans alert_sent events out to the user's emergency contacts.
type ConsumerHandler struct {
	contacts repository.ContactRepository
	alerts   repository.AlertRepository
	senders  map[string]sender.Sender
	now      func() time.Time
	logger   *slog.Logger
}

// NewConsumerHandler creates a handler. senders is keyed by contact channel.
func NewConsumerHandler(
	contacts repository.ContactRepository,
	alerts repository.AlertRepository,
	senders map[string]sender.Sender,
	logger *slog.Logger,
) *ConsumerHandler {
	return &ConsumerHandler{
		contacts: contacts,
		alerts:   alerts,
		senders:  senders,
		now:      time.Now,
		logger:   logger,
	}
}

// Handle processes an incoming Kafka event based on its event type.
func (h *ConsumerHandler) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicAlertSent:
		return h.handleAlertSent(ctx, event)
	default:
		h.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleAlertSent notifies every contact and records the delivery outcome on
// the alert. It fails only when no contact could be reached, so the message is
// retried and eventually dead-lettered.
func (h *ConsumerHandler) handleAlertSent(ctx context.Context, event *pkgkafka.Event) error {
	var data AlertSentData
	if err := event.UnmarshalData(&data); err != nil {
		h.logger.ErrorContext(ctx, "failed to unmarshal alert_sent data",
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	contacts, err := h.contacts.ListByUserID(ctx, data.UserID)
	if err != nil {
		return fmt.Errorf("list contacts for alert %s: %w", data.AlertID, err)
	}
	if len(contacts) == 0 {
		h.logger.WarnContext(ctx, "no emergency contacts configured",
			slog.String("alert_id", data.AlertID),
			slog.String("user_id", data.UserID),
		)
		return h.updateStatus(ctx, data.AlertID, domain.AlertStatusFailed)
	}

	message := sender.AlertMessage(data.UserID, data.Coordinates)
	var errs []error
	for _, c := range contacts {
		if err := h.notify(ctx, &data, c, message); err != nil {
			errs = append(errs, err)
		}
	}

	status := domain.AlertStatusDelivered
	switch {
	case len(errs) == len(contacts):
		status = domain.AlertStatusFailed
	case len(errs) > 0:
		status = domain.AlertStatusPartial
	}
	if err := h.updateStatus(ctx, data.AlertID, status); err != nil {
		return err
	}

	if status == domain.AlertStatusFailed {
		return fmt.Errorf("alert %s: all notifications failed: %w", data.AlertID, errors.Join(errs...))
	}
	return nil
}

func (h *ConsumerHandler) notify(ctx context.Context, data *AlertSentData, c domain.Contact, message string) error {
	s, ok := h.senders[c.Channel]
	if !ok {
		notificationsSent.WithLabelValues(c.Channel, "no_sender").Inc()
		return fmt.Errorf("no sender for channel %q", c.Channel)
	}

	n := &domain.Notification{
		AlertID:     data.AlertID,
		UserID:      data.UserID,
		Contact:     c,
		Coordinates: data.Coordinates,
		Message:     message,
		SentAt:      h.now().UTC(),
	}
	if err := s.Send(ctx, n); err != nil {
		notificationsSent.WithLabelValues(c.Channel, "error").Inc()
		h.logger.ErrorContext(ctx, "failed to notify emergency contact",
			slog.String("alert_id", data.AlertID),
			slog.String("contact_id", c.ID),
			slog.String("sender", s.Name()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("notify contact %s: %w", c.ID, err)
	}
	notificationsSent.WithLabelValues(c.Channel, "ok").Inc()
	return nil
}

func (h *ConsumerHandler) updateStatus(ctx context.Context, alertID, status string) error {
	if err := h.alerts.UpdateStatus(ctx, alertID, status); err != nil {
		return fmt.Errorf("update alert %s status: %w", alertID, err)
	}
	h.logger.InfoContext(ctx, "alert delivery recorded",
		slog.String("alert_id", alertID),
		slog.String("status", status),
	)
	return nil
}

// NewConsumers creates the Kafka consumers this service subscribes to. Each
// handler is deduplicated through store; exhausted messages go to dlq.
func NewConsumers(
	brokers []string,
	handler *ConsumerHandler,
	store pkgkafka.IdempotencyStore,
	dlq pkgkafka.DeadLetterPublisher,
	logger *slog.Logger,
) []*pkgkafka.Consumer {
	topics := []string{TopicAlertSent}

	consumers := make([]*pkgkafka.Consumer, 0, len(topics))
	for _, topic := range topics {
		cfg := pkgkafka.ConsumerConfig{
			Brokers:  brokers,
			GroupID:  ConsumerGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}
		h := pkgkafka.IdempotentHandler(store, handler.Handle, logger)
		consumers = append(consumers, pkgkafka.NewConsumer(cfg, h, dlq, logger))
	}
	return consumers
}
