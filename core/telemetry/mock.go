package telemetry

import (
	"context"

	"github.com/kverne/parkcast/core/model"
)

// MockSource returns canned readings per field.
type MockSource struct {
	Readings map[string][]model.Reading
}

// FetchHistory returns the configured readings for the field or nil.
func (m MockSource) FetchHistory(_ context.Context, field string) []model.Reading {
	if m.Readings == nil {
		return nil
	}
	rs := m.Readings[field]
	cp := make([]model.Reading, len(rs))
	copy(cp, rs)
	return cp
}
