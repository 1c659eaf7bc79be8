package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kverne/parkcast/core/metrics"
)

// PromSink records occupancy pipeline events in Prometheus metrics.
type PromSink struct {
	transitions *prometheus.CounterVec
	intervals   *prometheus.HistogramVec
	forecasts   *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	fetches     *prometheus.CounterVec
}

// NewPromSink registers the metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkcast_transitions_total",
		Help: "Total accepted slot status transitions",
	}, []string{"slot_id", "to"})
	intervals := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parkcast_interval_duration_seconds",
		Help:    "Duration of completed occupancy intervals",
		Buckets: prometheus.ExponentialBuckets(60, 2, 10),
	}, []string{"slot_id"})
	forecasts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkcast_forecasts_total",
		Help: "Total forecast requests served",
	}, []string{"slot_id", "strategy", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "parkcast_forecast_seconds",
		Help:    "Time spent computing a forecast",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "parkcast_telemetry_fetches_total",
		Help: "Total telemetry fetch attempts",
	}, []string{"field", "failed"})

	if err := registerCounterVec(reg, &transitions); err != nil {
		return nil, err
	}
	if err := registerHistogramVec(reg, &intervals); err != nil {
		return nil, err
	}
	if err := registerCounterVec(reg, &forecasts); err != nil {
		return nil, err
	}
	if err := registerHistogramVec(reg, &latency); err != nil {
		return nil, err
	}
	if err := registerCounterVec(reg, &fetches); err != nil {
		return nil, err
	}
	return &PromSink{
		transitions: transitions,
		intervals:   intervals,
		forecasts:   forecasts,
		latency:     latency,
		fetches:     fetches,
	}, nil
}

func registerCounterVec(reg prometheus.Registerer, cv **prometheus.CounterVec) error {
	if err := reg.Register(*cv); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*cv = are.ExistingCollector.(*prometheus.CounterVec)
	}
	return nil
}

func registerHistogramVec(reg prometheus.Registerer, hv **prometheus.HistogramVec) error {
	if err := reg.Register(*hv); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		*hv = are.ExistingCollector.(*prometheus.HistogramVec)
	}
	return nil
}

// RecordTransition counts the transition and observes the interval
// duration when one was logged.
func (s *PromSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	s.transitions.WithLabelValues(ev.SlotID, ev.To.String()).Inc()
	if ev.IntervalLogged {
		s.intervals.WithLabelValues(ev.SlotID).Observe(ev.DurationSec)
	}
	return nil
}

// RecordForecast counts the request and observes its latency.
func (s *PromSink) RecordForecast(ev coremetrics.ForecastEvent) error {
	s.forecasts.WithLabelValues(ev.SlotID, ev.Strategy, ev.Outcome).Inc()
	s.latency.WithLabelValues(ev.Strategy).Observe(ev.Elapsed.Seconds())
	return nil
}

// RecordFetch counts the fetch attempt.
func (s *PromSink) RecordFetch(ev coremetrics.FetchEvent) error {
	s.fetches.WithLabelValues(ev.Field, strconv.FormatBool(ev.Failed)).Inc()
	return nil
}
