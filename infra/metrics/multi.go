package metrics

import coremetrics "github.com/kverne/parkcast/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordTransition forwards the event, returning the first error.
func (m *MultiSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordTransition(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordForecast forwards the event, returning the first error.
func (m *MultiSink) RecordForecast(ev coremetrics.ForecastEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordForecast(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordFetch forwards the event, returning the first error.
func (m *MultiSink) RecordFetch(ev coremetrics.FetchEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordFetch(ev); err != nil {
			return err
		}
	}
	return nil
}
