package model

import "time"

// Reading is a single raw distance measurement from a sensor field.
// Readings are fetched on demand and never persisted locally.
type Reading struct {
	Field     string    `json:"field"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Occupied reports whether the reading indicates an occupied slot: the
// measured distance is below the configured threshold in centimeters.
func (r Reading) Occupied(thresholdCm float64) bool {
	return r.Value < thresholdCm
}
