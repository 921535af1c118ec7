package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
	pkgkafka "github.com/Oldhoon/accessible-journeys/pkg/kafka"
	"github.com/Oldhoon/accessible-journeys/pkg/logger"
)

// Kafka topic constants for accessible-journeys domain events.
var (
	TopicReportCreated = pkgkafka.Topic("report", "created")
	TopicAlertSent     = pkgkafka.Topic("emergency", "alert_sent")
)

// Aggregate type constants.
const (
	AggregateTypeReport = "report"
	AggregateTypeAlert  = "alert"
)

// SourceService identifies events originating from this service.
const SourceService = "accessible-journeys"

// ReportCreatedData is the payload for a report.created event.
type ReportCreatedData struct {
	ReportID   string    `json:"report_id"`
	LocationID string    `json:"location_id"`
	Features   []string  `json:"features"`
	Rating     int       `json:"rating"`
	UserID     string    `json:"user_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// AlertSentData is the payload for an emergency.alert_sent event.
type AlertSentData struct {
	AlertID     string              `json:"alert_id"`
	UserID      string              `json:"user_id"`
	Coordinates *domain.Coordinates `json:"coordinates,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Producer publishes domain events to Kafka.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReportCreated publishes a report.created event.
func (p *Producer) PublishReportCreated(ctx context.Context, report *domain.Report) error {
	data := ReportCreatedData{
		ReportID:   report.ID,
		LocationID: report.LocationID,
		Features:   domain.FeatureNames(report.Features),
		Rating:     report.Rating.Int(),
		UserID:     report.UserID,
		Timestamp:  report.Timestamp,
	}

	event, err := pkgkafka.NewEvent(TopicReportCreated, report.LocationID, AggregateTypeReport, SourceService, data)
	if err != nil {
		return fmt.Errorf("create report.created event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicReportCreated, event); err != nil {
		return fmt.Errorf("publish report.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published report.created event",
		slog.String("report_id", report.ID),
		slog.String("location_id", report.LocationID),
	)
	return nil
}

// PublishAlertSent publishes an emergency.alert_sent event. Events are keyed
// by user so one user's alerts stay ordered.
func (p *Producer) PublishAlertSent(ctx context.Context, alert *domain.Alert) error {
	data := AlertSentData{
		AlertID:     alert.ID,
		UserID:      alert.UserID,
		Coordinates: alert.Coordinates,
		CreatedAt:   alert.CreatedAt,
	}

	event, err := pkgkafka.NewEvent(TopicAlertSent, alert.UserID, AggregateTypeAlert, SourceService, data)
	if err != nil {
		return fmt.Errorf("create alert_sent event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).
		WithMetadata("alert_id", alert.ID)

	if err := p.kafka.Publish(ctx, TopicAlertSent, event); err != nil {
		return fmt.Errorf("publish alert_sent event: %w", err)
	}

	p.logger.InfoContext(ctx, "published alert_sent event",
		slog.String("alert_id", alert.ID),
		slog.String("user_id", alert.UserID),
	)
	return nil
}
