package emergency

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
)

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	UserID    string              `json:"user_id"`
	State     State               `json:"state"`
	Remaining int                 `json:"remaining"`
	Countdown int                 `json:"countdown"`
	Location  *domain.Coordinates `json:"location,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// AlertFunc delivers the alert when a countdown completes. It runs outside
// the session lock with a bounded context.
type AlertFunc func(ctx context.Context, userID string, location *domain.Coordinates) error

// Observer receives a snapshot after every state change. It is called with
// the session lock held and must not block or call back into the session.
type Observer func(Snapshot)

// SessionConfig configures a Session.
type SessionConfig struct {
	Countdown    int
	TickInterval time.Duration
	AlertTimeout time.Duration
}

// DefaultSessionConfig returns a 5-tick countdown at one tick per second.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Countdown:    CountdownSeconds,
		TickInterval: time.Second,
		AlertTimeout: 10 * time.Second,
	}
}

// Session hosts one user's machine. It owns at most one ticker; each
// countdown runs under a fresh epoch and ticks from an older epoch are
// dropped.
type Session struct {
	userID string
	cfg    SessionConfig
	clock  Clock
	alert  AlertFunc
	logger *slog.Logger

	mu        sync.Mutex
	machine   Machine
	location  *domain.Coordinates
	updatedAt time.Time
	ticker    Ticker
	stop      chan struct{}
	epoch     uint64
	observers map[uint64]Observer
	nextObs   uint64
}

// NewSession creates an idle session for userID.
func NewSession(userID string, cfg SessionConfig, clock Clock, alert AlertFunc, logger *slog.Logger) *Session {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.AlertTimeout <= 0 {
		cfg.AlertTimeout = 10 * time.Second
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Session{
		userID:    userID,
		cfg:       cfg,
		clock:     clock,
		alert:     alert,
		logger:    logger,
		machine:   NewMachine(cfg.Countdown),
		updatedAt: clock.Now(),
		observers: make(map[uint64]Observer),
	}
}

// UserID returns the session owner.
func (s *Session) UserID() string { return s.userID }

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Open opens the emergency panel.
func (s *Session) Open() (Snapshot, error) {
	return s.fire(EventOpenPanel, nil)
}

// Close closes the panel, from either the open panel or the sent state.
func (s *Session) Close() (Snapshot, error) {
	return s.fire(EventClosePanel, nil)
}

// Confirm starts the countdown. location, when non-nil, is attached to the
// alert.
func (s *Session) Confirm(location *domain.Coordinates) (Snapshot, error) {
	return s.fire(EventStartConfirmation, location)
}

// Cancel aborts a running countdown. When it returns the ticker is stopped
// and any tick already in flight is stale.
func (s *Session) Cancel() (Snapshot, error) {
	return s.fire(EventCancel, nil)
}

// Subscribe registers fn and returns a function that removes it.
func (s *Session) Subscribe(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Watch is Subscribe with the current snapshot delivered to fn first. Both
// happen under one lock, so no transition can reach fn ahead of it.
func (s *Session) Watch(fn Observer) (unsubscribe func()) {
	s.mu.Lock()
	fn(s.snapshotLocked())
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Idle reports whether the session is idle with no observers, so a registry
// may drop it.
func (s *Session) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.State() == StateIdle && len(s.observers) == 0
}

// Stop halts any running ticker without changing state.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

func (s *Session) fire(ev Event, location *domain.Coordinates) (Snapshot, error) {
	s.mu.Lock()
	snap, sendAlert, err := s.applyLocked(ev, location)
	s.mu.Unlock()

	if sendAlert {
		s.deliver(snap)
	}
	return snap, err
}

// applyLocked runs ev through the machine and executes its effects.
func (s *Session) applyLocked(ev Event, location *domain.Coordinates) (Snapshot, bool, error) {
	prev := s.machine.State()
	effect, err := s.machine.Fire(ev)
	if err != nil {
		InvalidTransitions.WithLabelValues(prev.String(), ev.String()).Inc()
		return s.snapshotLocked(), false, err
	}

	switch ev {
	case EventStartConfirmation:
		s.location = location
	case EventClosePanel:
		s.location = nil
	}

	if effect.Has(EffectStopTimer) {
		s.stopTimerLocked()
	}
	if effect.Has(EffectStartTimer) {
		s.startTimerLocked()
		CountdownsStarted.Inc()
	}
	if ev == EventCancel {
		CountdownsCancelled.Inc()
	}
	if effect.Has(EffectSendAlert) {
		AlertsSent.Inc()
	}

	s.updatedAt = s.clock.Now()
	snap := s.snapshotLocked()
	s.notifyLocked(snap)

	if s.logger != nil {
		s.logger.Debug("emergency transition",
			slog.String("user_id", s.userID),
			slog.String("event", ev.String()),
			slog.String("from", prev.String()),
			slog.String("to", snap.State.String()),
			slog.Int("remaining", snap.Remaining),
		)
	}
	return snap, effect.Has(EffectSendAlert), nil
}

func (s *Session) startTimerLocked() {
	s.stopTimerLocked()
	t := s.clock.NewTicker(s.cfg.TickInterval)
	stop := make(chan struct{})
	s.ticker = t
	s.stop = stop
	go s.run(t, stop, s.epoch)
}

// stopTimerLocked stops the ticker and bumps the epoch so in-flight ticks
// from it are ignored.
func (s *Session) stopTimerLocked() {
	s.epoch++
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.ticker = nil
	s.stop = nil
}

func (s *Session) run(t Ticker, stop <-chan struct{}, epoch uint64) {
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			if !s.tick(epoch) {
				return
			}
		}
	}
}

// tick applies one countdown tick for epoch. It returns false once the
// epoch is stale or the countdown has finished.
func (s *Session) tick(epoch uint64) bool {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return false
	}
	snap, sendAlert, err := s.applyLocked(EventTick, nil)
	s.mu.Unlock()

	if err != nil {
		return false
	}
	if sendAlert {
		s.deliver(snap)
		return false
	}
	return true
}

func (s *Session) deliver(snap Snapshot) {
	if s.alert == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.AlertTimeout)
	defer cancel()

	if err := s.alert(ctx, snap.UserID, snap.Location); err != nil && s.logger != nil {
		s.logger.Error("emergency alert delivery failed",
			slog.String("user_id", snap.UserID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Session) notifyLocked(snap Snapshot) {
	for _, fn := range s.observers {
		fn(snap)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	var loc *domain.Coordinates
	if s.location != nil {
		c := *s.location
		loc = &c
	}
	return Snapshot{
		UserID:    s.userID,
		State:     s.machine.State(),
		Remaining: s.machine.Remaining(),
		Countdown: s.machine.Countdown(),
		Location:  loc,
		UpdatedAt: s.updatedAt,
	}
}
