package test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kverne/parkcast/core/aggregate"
	"github.com/kverne/parkcast/core/forecast"
	coremetrics "github.com/kverne/parkcast/core/metrics"
	"github.com/kverne/parkcast/core/model"
	"github.com/kverne/parkcast/core/occupancy"
	"github.com/kverne/parkcast/infra/intervallog"
	"github.com/kverne/parkcast/infra/logger"
	"github.com/kverne/parkcast/infra/telemetry"
	"github.com/kverne/parkcast/internal/eventbus"
)

// Exercises the full path: transitions through the tracker into the
// CSV log, read back by the heuristic strategy.
func TestTransitionToForecastPipeline(t *testing.T) {
	store, err := intervallog.NewCSVStore(filepath.Join(t.TempDir(), "occupancy.csv"))
	require.NoError(t, err)

	bus := eventbus.New[coremetrics.TransitionEvent]()
	defer bus.Close()
	events, cancel := bus.Subscribe()
	defer cancel()

	tracker := occupancy.NewTracker([]string{"slot1"}, store, bus, logger.NopLogger{})
	ctx := context.Background()

	// Monday morning, a two minute stay at hour 9.
	entry := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, tracker.RecordTransition(ctx, "slot1", model.StatusOccupied, entry))
	require.NoError(t, tracker.RecordTransition(ctx, "slot1", model.StatusEmpty, entry.Add(2*time.Minute)))

	// The bus observed both transitions, the second with an interval.
	var logged bool
	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			if ev.IntervalLogged {
				logged = true
				assert.Equal(t, 120.0, ev.DurationSec)
			}
		case <-time.After(time.Second):
			t.Fatal("transition event not published")
		}
	}
	assert.True(t, logged)

	h := forecast.NewHeuristic(store, forecast.HeuristicConfig{})
	score, err := h.Forecast(ctx, "slot1", 9, time.Monday)
	require.NoError(t, err)
	// Single 120s stay: recent and full means agree, blend is 2 min.
	assert.Equal(t, 2.0, score)

	score, err = h.Forecast(ctx, "slot1", 15, time.Monday)
	require.NoError(t, err)
	assert.Zero(t, score, "hour without history scores zero")
}

// A telemetry outage must degrade the whole read path to zeros, not
// errors.
func TestTelemetryOutageDegradesToZeros(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := telemetry.NewClient(telemetry.Config{
		BaseURL:        srv.URL + "?action",
		TimeoutSeconds: 1,
		ThresholdCm:    30,
	}, logger.NopLogger{}, nil)

	svc := aggregate.NewProfileService(client, map[string]string{"slot2": "Distance2"}, client.ThresholdCm())
	profile, err := svc.Profile(context.Background(), "slot2", aggregate.ClassAll)
	require.NoError(t, err)
	require.Len(t, profile, 24)
	for _, v := range profile {
		assert.Zero(t, v)
	}

	c := forecast.NewClassifier(client, map[string]string{"slot2": "Distance2"}, 30,
		forecast.ClassifierConfig{Seed: 1}, logger.NopLogger{})
	_, err = c.Forecast(context.Background(), "slot2", 10, time.Monday)
	assert.ErrorIs(t, err, forecast.ErrInsufficientData)
}
