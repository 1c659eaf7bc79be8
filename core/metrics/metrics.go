package metrics

import (
	"time"

	"github.com/kverne/parkcast/core/model"
)

// TransitionEvent captures one accepted slot status transition.
type TransitionEvent struct {
	SlotID         string
	From           model.Status
	To             model.Status
	IntervalLogged bool
	DurationSec    float64
	Time           time.Time
}

// ForecastEvent captures one served forecast request.
type ForecastEvent struct {
	SlotID   string
	Strategy string
	Hour     int
	Score    float64
	Outcome  string
	Elapsed  time.Duration
	Time     time.Time
}

// FetchEvent captures one telemetry fetch attempt.
type FetchEvent struct {
	Field   string
	Records int
	Failed  bool
	Time    time.Time
}

// Sink records occupancy pipeline events for observability purposes.
type Sink interface {
	RecordTransition(ev TransitionEvent) error
	RecordForecast(ev ForecastEvent) error
	RecordFetch(ev FetchEvent) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordTransition(TransitionEvent) error { return nil }
func (NopSink) RecordForecast(ForecastEvent) error     { return nil }
func (NopSink) RecordFetch(FetchEvent) error           { return nil }
