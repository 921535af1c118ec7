package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Oldhoon/accessible-journeys/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseReports_YAMLList(t *testing.T) {
	data := []byte(`
- location_id: a
  features: [ramp, elevator, ramp]
  rating: 5
- location_id: a
  features: [ramp]
  rating: 4
`)
	reports, err := parseReports(data)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, []domain.Feature{domain.FeatureRamp, domain.FeatureElevator}, reports[0].Features)
	assert.Equal(t, domain.Rating(4), reports[1].Rating)
}

func TestParseReports_JSONObject(t *testing.T) {
	data := []byte(`{"reports": [{"location_id": "b", "features": ["braille"], "rating": 3}]}`)
	reports, err := parseReports(data)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "b", reports[0].LocationID)
	assert.Equal(t, []domain.Feature{domain.FeatureBraille}, reports[0].Features)
}

func TestParseReports_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"rating out of range", `[{"features": [], "rating": 6}]`, "report 0"},
		{"missing rating", `[{"features": ["ramp"]}]`, "rating"},
		{"unknown feature", `[{"features": ["escalator"], "rating": 3}]`, "escalator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseReports([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteSummary(t *testing.T) {
	reports, err := parseReports([]byte(`
- {location_id: a, features: [ramp, elevator], rating: 5}
- {location_id: a, features: [ramp], rating: 4}
- {location_id: b, features: [toilet], rating: 2}
`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, reports, false))

	var summary domain.Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summary))
	assert.Equal(t, 3, summary.ReportCount)
	assert.Equal(t, 3.7, summary.AverageRating)
	assert.Equal(t, []domain.Feature{domain.FeatureRamp}, summary.Features)
}

func TestWriteSummary_ByLocation(t *testing.T) {
	reports, err := parseReports([]byte(`
- {location_id: a, features: [ramp, elevator], rating: 5}
- {location_id: a, features: [ramp], rating: 4}
- {location_id: b, features: [toilet], rating: 2}
`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, reports, true))

	var summaries map[string]domain.Summary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, 4.5, summaries["a"].AverageRating)
	assert.Equal(t, []domain.Feature{domain.FeatureElevator, domain.FeatureRamp}, summaries["a"].Features)
	assert.Equal(t, []domain.Feature{domain.FeatureToilet}, summaries["b"].Features)
}

func TestWriteSummary_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeSummary(&buf, nil, false))
	assert.JSONEq(t, `{"average_rating": 0, "features": [], "report_count": 0}`, buf.String())
}

func TestSummarizeCommand(t *testing.T) {
	path := writeFile(t, "reports.yaml", "- {features: [audio], rating: 3}\n")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"summarize", "--file", path})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.JSONEq(t, `{"average_rating": 3, "features": ["audio"], "report_count": 1}`, out.String())
}

func TestPrintFeatures(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printFeatures(&buf, false))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(domain.Catalogue())+1)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "wheelchair")
	assert.Contains(t, lines[1], "Wheelchair Access")
}

func TestPrintFeatures_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printFeatures(&buf, true))

	var got []domain.FeatureInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, domain.Catalogue(), got)
}

func TestRunDrill_SendsAlert(t *testing.T) {
	var buf bytes.Buffer
	err := runDrill(context.Background(), &buf, drillOptions{seconds: 3, tick: 5 * time.Millisecond}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"idle        remaining=3/3",
		"panel_open  remaining=3/3",
		"confirming  remaining=3/3",
		"confirming  remaining=2/3",
		"confirming  remaining=1/3",
		"sent        remaining=0/3",
		"alert dispatched",
		"idle        remaining=3/3",
	}, strings.Split(strings.TrimSpace(buf.String()), "\n"))
}

func TestRunDrill_CancelAfter(t *testing.T) {
	var buf bytes.Buffer
	err := runDrill(context.Background(), &buf, drillOptions{seconds: 50, cancelAfter: 1, tick: 5 * time.Millisecond}, discardLogger())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "confirming  remaining=49/50")
	assert.Contains(t, out, "countdown cancelled")
	assert.NotContains(t, out, "alert dispatched")
	assert.NotContains(t, out, "sent")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "idle        remaining=50/50"))
}

func TestRunDrill_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := runDrill(ctx, &buf, drillOptions{seconds: 5, tick: time.Hour}, discardLogger())
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, buf.String(), "alert dispatched")
}
