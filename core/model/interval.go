package model

import "time"

// Interval is one completed occupancy session for a slot. Intervals are
// immutable once written and only ever appended to the durable log.
type Interval struct {
	SlotID      string    `json:"slot_id"`
	Entry       time.Time `json:"time_entered"`
	Exit        time.Time `json:"time_left"`
	DurationSec float64   `json:"duration_sec"`
}

// NewInterval builds an Interval with the duration derived from the
// entry and exit timestamps.
func NewInterval(slotID string, entry, exit time.Time) Interval {
	return Interval{
		SlotID:      slotID,
		Entry:       entry,
		Exit:        exit,
		DurationSec: exit.Sub(entry).Seconds(),
	}
}
