package emergency

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue reads the counter in c whose labels match.
func counterValue(t *testing.T, c prometheus.Collector, labels map[string]string) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 16)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		require.NoError(t, m.Write(d))
		if labelsMatch(d, labels) {
			return d.GetCounter().GetValue()
		}
	}
	return 0
}

func labelsMatch(d *dto.Metric, labels map[string]string) bool {
	for k, v := range labels {
		found := false
		for _, lp := range d.GetLabel() {
			if lp.GetName() == k && lp.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func TestMetrics_CountdownLifecycle(t *testing.T) {
	h := newHarness(t)
	started := counterValue(t, CountdownsStarted, nil)
	cancelled := counterValue(t, CountdownsCancelled, nil)

	_, err := h.session.Open()
	require.NoError(t, err)
	_, err = h.session.Confirm(nil)
	require.NoError(t, err)
	_, err = h.session.Cancel()
	require.NoError(t, err)

	assert.Equal(t, started+1, counterValue(t, CountdownsStarted, nil))
	assert.Equal(t, cancelled+1, counterValue(t, CountdownsCancelled, nil))
}

func TestMetrics_InvalidTransitionLabels(t *testing.T) {
	h := newHarness(t)
	labels := map[string]string{"state": "idle", "event": "cancel"}
	before := counterValue(t, InvalidTransitions, labels)

	_, err := h.session.Cancel()
	require.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, before+1, counterValue(t, InvalidTransitions, labels))
}
