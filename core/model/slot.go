package model

import "fmt"

// Status is the occupancy state reported for a parking slot.
type Status string

const (
	StatusEmpty    Status = "empty"
	StatusOccupied Status = "occupied"
)

// ParseStatus converts a wire string into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusEmpty, StatusOccupied:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }

// Slot binds a slot identifier to the sensor field that reports it.
type Slot struct {
	ID    string `json:"id"`
	Field string `json:"field"`
}
