package emergency

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CountdownsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emergency_countdowns_started_total",
		Help: "Emergency confirmation countdowns started",
	})

	CountdownsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emergency_countdowns_cancelled_total",
		Help: "Emergency countdowns cancelled before the alert was sent",
	})

	AlertsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emergency_alerts_sent_total",
		Help: "Emergency countdowns that ran out and fired an alert",
	})

	InvalidTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emergency_invalid_transitions_total",
		Help: "Events rejected because the current state does not allow them",
	}, []string{"state", "event"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "emergency_active_sessions",
		Help: "Emergency sessions currently held in the registry",
	})
)
