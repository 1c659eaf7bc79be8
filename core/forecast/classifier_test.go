package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kverne/parkcast/core/model"
	"github.com/kverne/parkcast/core/occupancy"
	"github.com/kverne/parkcast/core/telemetry"
)

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)        {}
func (nopLogger) Infof(string, ...any)         {}
func (nopLogger) Warnf(string, ...any)         {}
func (nopLogger) Errorf(string, ...any)        {}
func (nopLogger) Infow(string, map[string]any) {}

var fields = map[string]string{"slot1": "Distance1", "slot2": "Distance2"}

func TestClassifier_EmptyDatasetSentinel(t *testing.T) {
	c := NewClassifier(telemetry.MockSource{}, fields, 30, ClassifierConfig{Seed: 1}, nopLogger{})
	_, err := c.Forecast(context.Background(), "slot1", 10, time.Monday)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestClassifier_InvalidSlot(t *testing.T) {
	c := NewClassifier(telemetry.MockSource{}, fields, 30, ClassifierConfig{Seed: 1}, nopLogger{})
	_, err := c.Forecast(context.Background(), "ghost", 10, time.Monday)
	var ise occupancy.InvalidSlotError
	assert.True(t, errors.As(err, &ise))
}

func TestClassifier_SeparablePattern(t *testing.T) {
	// slot1 is consistently occupied in the morning (low distances)
	// and free in the evening (high distances), every day for a week.
	var morning, evening []model.Reading
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for d := 0; d < 7; d++ {
		day := base.Add(time.Duration(d) * 24 * time.Hour)
		morning = append(morning, model.Reading{Field: "Distance1", Value: 10, Timestamp: day.Add(9 * time.Hour)})
		evening = append(evening, model.Reading{Field: "Distance1", Value: 80, Timestamp: day.Add(20 * time.Hour)})
	}
	src := telemetry.MockSource{Readings: map[string][]model.Reading{
		"Distance1": append(morning, evening...),
	}}
	c := NewClassifier(src, fields, 30, ClassifierConfig{Estimators: 40, Seed: 11}, nopLogger{})

	got, err := c.Forecast(context.Background(), "slot1", 9, time.Tuesday)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 100.0)

	low, err := c.Forecast(context.Background(), "slot1", 20, time.Tuesday)
	require.NoError(t, err)
	assert.Less(t, low, got, "evening must score below morning")
}

func TestClassifier_ScoreRounding(t *testing.T) {
	src := telemetry.MockSource{Readings: map[string][]model.Reading{
		"Distance1": {
			{Field: "Distance1", Value: 10, Timestamp: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
			{Field: "Distance1", Value: 50, Timestamp: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)},
			{Field: "Distance1", Value: 12, Timestamp: time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)},
		},
	}}
	c := NewClassifier(src, fields, 30, ClassifierConfig{Estimators: 15, Seed: 3}, nopLogger{})
	got, err := c.Forecast(context.Background(), "slot1", 9, time.Monday)
	require.NoError(t, err)
	assert.Equal(t, round(got, 1), got, "score is rounded to one decimal")
}

func TestClassifierConfig_Defaults(t *testing.T) {
	var cfg ClassifierConfig
	cfg.SetDefaults()
	assert.Equal(t, 80, cfg.Estimators)
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.Equal(t, 1, cfg.MinLeaf)
}
