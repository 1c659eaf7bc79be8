package aggregate

import (
	"context"
	"sort"

	"github.com/kverne/parkcast/core/occupancy"
	"github.com/kverne/parkcast/core/telemetry"
)

// ProfileService builds normalized hourly occupancy profiles for the
// configured slots from their telemetry history. A slot whose fetch
// fails yields the all-zero profile.
type ProfileService struct {
	source      telemetry.Source
	fields      map[string]string // slot id -> sensor field
	thresholdCm float64
}

// NewProfileService creates a ProfileService over the slot->field map.
func NewProfileService(source telemetry.Source, fields map[string]string, thresholdCm float64) *ProfileService {
	return &ProfileService{source: source, fields: fields, thresholdCm: thresholdCm}
}

// Profile returns the 24-hour normalized occupancy profile for one slot.
func (s *ProfileService) Profile(ctx context.Context, slotID string, class WeekdayClass) ([]float64, error) {
	field, ok := s.fields[slotID]
	if !ok {
		return nil, occupancy.InvalidSlotError{SlotID: slotID}
	}
	readings := s.source.FetchHistory(ctx, field)
	return Normalize(HourlyOccupancy(readings, class, s.thresholdCm)), nil
}

// Profiles returns the profile of every configured slot keyed by id.
func (s *ProfileService) Profiles(ctx context.Context, class WeekdayClass) map[string][]float64 {
	ids := make([]string, 0, len(s.fields))
	for id := range s.fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	res := make(map[string][]float64, len(ids))
	for _, id := range ids {
		p, err := s.Profile(ctx, id, class)
		if err != nil {
			continue
		}
		res[id] = p
	}
	return res
}

// SlotIDs lists the configured slots in stable order.
func (s *ProfileService) SlotIDs() []string {
	ids := make([]string, 0, len(s.fields))
	for id := range s.fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
