package emergency

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fireAll(t *testing.T, m *Machine, events ...Event) []Effect {
	t.Helper()
	effects := make([]Effect, 0, len(events))
	for _, ev := range events {
		eff, err := m.Fire(ev)
		require.NoError(t, err, "event %s in state %s", ev, m.State())
		effects = append(effects, eff)
	}
	return effects
}

func countAlerts(effects []Effect) int {
	n := 0
	for _, e := range effects {
		if e.Has(EffectSendAlert) {
			n++
		}
	}
	return n
}

func TestMachine_InitialState(t *testing.T) {
	m := NewMachine(0)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, CountdownSeconds, m.Remaining())
}

func TestMachine_FullCountdownSendsOneAlert(t *testing.T) {
	m := NewMachine(CountdownSeconds)

	effects := fireAll(t, &m, EventOpenPanel, EventStartConfirmation,
		EventTick, EventTick, EventTick, EventTick, EventTick)

	assert.Equal(t, StateSent, m.State())
	assert.Equal(t, 0, m.Remaining())
	assert.Equal(t, 1, countAlerts(effects))
	assert.True(t, effects[1].Has(EffectStartTimer))
	assert.True(t, effects[6].Has(EffectStopTimer))
}

func TestMachine_CountdownDecrements(t *testing.T) {
	m := NewMachine(CountdownSeconds)
	fireAll(t, &m, EventOpenPanel, EventStartConfirmation)
	require.Equal(t, StateConfirming, m.State())
	require.Equal(t, 5, m.Remaining())

	for want := 4; want >= 1; want-- {
		eff, err := m.Fire(EventTick)
		require.NoError(t, err)
		assert.Equal(t, EffectNone, eff)
		assert.Equal(t, StateConfirming, m.State())
		assert.Equal(t, want, m.Remaining())
	}
}

func TestMachine_CancelResetsCountdown(t *testing.T) {
	m := NewMachine(CountdownSeconds)

	effects := fireAll(t, &m, EventOpenPanel, EventStartConfirmation, EventTick, EventTick, EventCancel)

	assert.Equal(t, StatePanelOpen, m.State())
	assert.Equal(t, CountdownSeconds, m.Remaining())
	assert.Equal(t, 0, countAlerts(effects))
	assert.Equal(t, EffectStopTimer, effects[4])
}

func TestMachine_SentThenClose(t *testing.T) {
	m := NewMachine(1)
	fireAll(t, &m, EventOpenPanel, EventStartConfirmation, EventTick)
	require.Equal(t, StateSent, m.State())

	fireAll(t, &m, EventClosePanel)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, 1, m.Remaining())
}

func TestMachine_OpenAndClose(t *testing.T) {
	m := NewMachine(CountdownSeconds)
	fireAll(t, &m, EventOpenPanel, EventClosePanel, EventOpenPanel)
	assert.Equal(t, StatePanelOpen, m.State())
}

func TestMachine_InvalidTransitionsLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		setup []Event
		event Event
	}{
		{"tick while idle", nil, EventTick},
		{"cancel while idle", nil, EventCancel},
		{"confirm while idle", nil, EventStartConfirmation},
		{"close while idle", nil, EventClosePanel},
		{"open twice", []Event{EventOpenPanel}, EventOpenPanel},
		{"tick with panel open", []Event{EventOpenPanel}, EventTick},
		{"cancel with panel open", []Event{EventOpenPanel}, EventCancel},
		{"open while confirming", []Event{EventOpenPanel, EventStartConfirmation}, EventOpenPanel},
		{"close while confirming", []Event{EventOpenPanel, EventStartConfirmation}, EventClosePanel},
		{"confirm twice", []Event{EventOpenPanel, EventStartConfirmation}, EventStartConfirmation},
		{"tick after sent", []Event{EventOpenPanel, EventStartConfirmation, EventTick, EventTick, EventTick, EventTick, EventTick}, EventTick},
		{"cancel after sent", []Event{EventOpenPanel, EventStartConfirmation, EventTick, EventTick, EventTick, EventTick, EventTick}, EventCancel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(CountdownSeconds)
			fireAll(t, &m, tt.setup...)
			before := m

			eff, err := m.Fire(tt.event)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidTransition))
			var ite *InvalidTransitionError
			require.ErrorAs(t, err, &ite)
			assert.Equal(t, before.State(), ite.State)
			assert.Equal(t, tt.event, ite.Event)
			assert.Equal(t, EffectNone, eff)
			assert.Equal(t, before, m)
		})
	}
}

func TestMachine_ZeroValueUsesDefaultCountdown(t *testing.T) {
	var m Machine
	fireAll(t, &m, EventOpenPanel, EventStartConfirmation)
	assert.Equal(t, CountdownSeconds, m.Remaining())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "panel_open", StatePanelOpen.String())
	assert.Equal(t, "State(9)", State(9).String())
	assert.Equal(t, "start_confirmation", EventStartConfirmation.String())
}

func TestState_TextRoundTrip(t *testing.T) {
	var s State
	require.NoError(t, s.UnmarshalText([]byte("confirming")))
	assert.Equal(t, StateConfirming, s)

	assert.Error(t, s.UnmarshalText([]byte("exploded")))
	assert.Equal(t, StateConfirming, s)
}
