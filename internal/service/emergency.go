package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Oldhoon/accessible-journeys/internal/capability"
	"github.com/Oldhoon/accessible-journeys/internal/domain"
	"github.com/Oldhoon/accessible-journeys/internal/emergency"
	"github.com/Oldhoon/accessible-journeys/internal/event"
	"github.com/Oldhoon/accessible-journeys/internal/haptic"
	"github.com/Oldhoon/accessible-journeys/internal/repository"
	apperrors "github.com/Oldhoon/accessible-journeys/pkg/errors"
)

const defaultAlertHistory = 20

// EmergencyResult is a session snapshot plus the haptic cue the client should
// play for it.
type EmergencyResult struct {
	emergency.Snapshot
	Haptic *haptic.Cue `json:"haptic,omitempty"`
}

// EmergencyService hosts per-user emergency sessions and turns a completed
// countdown into a persisted alert and an alert_sent event.
type EmergencyService struct {
	registry *emergency.Registry
	alerts   repository.AlertRepository
	producer *event.Producer
	caps     capability.Set
	cuer     haptic.Cuer
	logger   *slog.Logger
}

// NewEmergencyService creates a new emergency service.
func NewEmergencyService(
	cfg emergency.SessionConfig,
	clock emergency.Clock,
	alerts repository.AlertRepository,
	producer *event.Producer,
	caps capability.Set,
	logger *slog.Logger,
) *EmergencyService {
	s := &EmergencyService{
		alerts:   alerts,
		producer: producer,
		caps:     caps,
		cuer:     haptic.NewCuer(caps.Vibration),
		logger:   logger,
	}
	s.registry = emergency.NewRegistry(func(userID string) *emergency.Session {
		return emergency.NewSession(userID, cfg, clock, s.sendAlert, logger)
	})
	return s
}

// Capabilities returns the capability set the service was started with.
func (s *EmergencyService) Capabilities() capability.Set {
	return s.caps
}

// State returns the user's current session state.
func (s *EmergencyService) State(userID string) EmergencyResult {
	var snap emergency.Snapshot
	s.registry.Do(userID, func(session *emergency.Session) {
		snap = session.Snapshot()
	})
	return s.result(snap, haptic.Feedback(""))
}

// OpenPanel opens the emergency panel.
func (s *EmergencyService) OpenPanel(ctx context.Context, userID string) (EmergencyResult, error) {
	snap, err := s.fire(userID, (*emergency.Session).Open)
	return s.outcome(ctx, "open", snap, haptic.Button, err)
}

// ClosePanel closes the panel.
func (s *EmergencyService) ClosePanel(ctx context.Context, userID string) (EmergencyResult, error) {
	snap, err := s.fire(userID, (*emergency.Session).Close)
	return s.outcome(ctx, "close", snap, haptic.Button, err)
}

// Confirm starts the countdown. The location is dropped when geolocation
// is unavailable.
func (s *EmergencyService) Confirm(ctx context.Context, userID string, location *domain.Coordinates) (EmergencyResult, error) {
	if location != nil {
		if !s.caps.Geolocation {
			location = nil
		} else if err := location.Validate(); err != nil {
			return EmergencyResult{}, err
		}
	}
	snap, err := s.fire(userID, func(session *emergency.Session) (emergency.Snapshot, error) {
		return session.Confirm(location)
	})
	return s.outcome(ctx, "confirm", snap, haptic.Error, err)
}

// Cancel aborts a running countdown.
func (s *EmergencyService) Cancel(ctx context.Context, userID string) (EmergencyResult, error) {
	snap, err := s.fire(userID, (*emergency.Session).Cancel)
	return s.outcome(ctx, "cancel", snap, haptic.Button, err)
}

// Subscribe streams the user's snapshots to fn, starting with the current
// one. fn runs under the session lock and must not block.
func (s *EmergencyService) Subscribe(userID string, fn func(EmergencyResult)) (unsubscribe func()) {
	first := true
	s.registry.Do(userID, func(session *emergency.Session) {
		unsubscribe = session.Watch(func(snap emergency.Snapshot) {
			if first {
				first = false
				fn(s.result(snap, haptic.Feedback("")))
				return
			}
			fn(s.result(snap, streamFeedback(snap)))
		})
	})
	return unsubscribe
}

// fire applies cmd to the user's session while the registry holds it.
func (s *EmergencyService) fire(userID string, cmd func(*emergency.Session) (emergency.Snapshot, error)) (snap emergency.Snapshot, err error) {
	s.registry.Do(userID, func(session *emergency.Session) {
		snap, err = cmd(session)
	})
	return snap, err
}

// ListAlerts returns the user's most recent alerts.
func (s *EmergencyService) ListAlerts(ctx context.Context, userID string, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = defaultAlertHistory
	}
	alerts, err := s.alerts.ListByUserID(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

// SweepSessions drops idle sessions nobody is watching.
func (s *EmergencyService) SweepSessions() int {
	return s.registry.Sweep()
}

// Close stops every running countdown.
func (s *EmergencyService) Close() {
	s.registry.Close()
}

// sendAlert persists the alert and publishes alert_sent. It is the session's
// AlertFunc and so runs once per completed countdown.
func (s *EmergencyService) sendAlert(ctx context.Context, userID string, location *domain.Coordinates) error {
	alert := &domain.Alert{
		ID:          uuid.New().String(),
		UserID:      userID,
		Coordinates: location,
		Status:      domain.AlertStatusSent,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.alerts.Create(ctx, alert); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	if err := s.producer.PublishAlertSent(ctx, alert); err != nil {
		if uerr := s.alerts.UpdateStatus(ctx, alert.ID, domain.AlertStatusFailed); uerr != nil {
			s.logger.ErrorContext(ctx, "failed to mark alert failed",
				slog.String("alert_id", alert.ID),
				slog.String("error", uerr.Error()),
			)
		}
		return fmt.Errorf("publish alert %s: %w", alert.ID, err)
	}

	s.logger.InfoContext(ctx, "emergency alert sent",
		slog.String("alert_id", alert.ID),
		slog.String("user_id", userID),
		slog.Bool("has_location", location != nil),
	)
	return nil
}

func (s *EmergencyService) outcome(ctx context.Context, action string, snap emergency.Snapshot, fb haptic.Feedback, err error) (EmergencyResult, error) {
	if err != nil {
		s.logger.DebugContext(ctx, "emergency action rejected",
			slog.String("action", action),
			slog.String("user_id", snap.UserID),
			slog.String("state", snap.State.String()),
		)
		return s.result(snap, ""), apperrors.InvalidTransition(
			fmt.Sprintf("cannot %s emergency panel while %s", action, snap.State), err)
	}
	return s.result(snap, fb), nil
}

func (s *EmergencyService) result(snap emergency.Snapshot, fb haptic.Feedback) EmergencyResult {
	res := EmergencyResult{Snapshot: snap}
	if fb != "" {
		res.Haptic = s.cuer.For(fb)
	}
	return res
}

// streamFeedback cues the moment the alert goes out.
func streamFeedback(snap emergency.Snapshot) haptic.Feedback {
	if snap.State == emergency.StateSent {
		return haptic.Error
	}
	return ""
}
