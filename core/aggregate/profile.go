// Package aggregate reduces occupancy history into per-hour profiles.
// Profiles are recomputed in full on every request; data volumes are
// small and no incremental index is kept.
package aggregate

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kverne/parkcast/core/model"
)

// HoursPerDay is the length of every hourly profile.
const HoursPerDay = 24

// WeekdayClass partitions history into weekend and weekday subsets.
type WeekdayClass int

const (
	ClassAll WeekdayClass = iota
	ClassWeekday
	ClassWeekend
)

// ParseWeekdayClass converts a wire string into a WeekdayClass. The
// empty string means no partitioning.
func ParseWeekdayClass(s string) (WeekdayClass, error) {
	switch s {
	case "", "all":
		return ClassAll, nil
	case "weekday":
		return ClassWeekday, nil
	case "weekend":
		return ClassWeekend, nil
	}
	return ClassAll, fmt.Errorf("unknown weekday class %q", s)
}

// Matches reports whether the timestamp falls in the class.
func (c WeekdayClass) Matches(t time.Time) bool {
	switch c {
	case ClassWeekday:
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	case ClassWeekend:
		wd := t.Weekday()
		return wd == time.Saturday || wd == time.Sunday
	}
	return true
}

// ClassOf returns the class a single weekday belongs to.
func ClassOf(wd time.Weekday) WeekdayClass {
	if wd == time.Saturday || wd == time.Sunday {
		return ClassWeekend
	}
	return ClassWeekday
}

// HourlyDurations groups intervals by entry hour-of-day and returns the
// mean duration in seconds per hour. Hours without observations are 0.
func HourlyDurations(intervals []model.Interval, class WeekdayClass) []float64 {
	buckets := make([][]float64, HoursPerDay)
	for _, iv := range intervals {
		if !class.Matches(iv.Entry) {
			continue
		}
		h := iv.Entry.Hour()
		buckets[h] = append(buckets[h], iv.DurationSec)
	}
	return bucketMeans(buckets)
}

// HourlyOccupancy groups readings by hour-of-day and returns the share
// of readings classified occupied per hour, scaled to 0-100. Hours
// without observations are 0.
func HourlyOccupancy(readings []model.Reading, class WeekdayClass, thresholdCm float64) []float64 {
	buckets := make([][]float64, HoursPerDay)
	for _, r := range readings {
		if !class.Matches(r.Timestamp) {
			continue
		}
		v := 0.0
		if r.Occupied(thresholdCm) {
			v = 100.0
		}
		h := r.Timestamp.Hour()
		buckets[h] = append(buckets[h], v)
	}
	return bucketMeans(buckets)
}

func bucketMeans(buckets [][]float64) []float64 {
	profile := make([]float64, HoursPerDay)
	for h, vals := range buckets {
		if len(vals) == 0 {
			continue
		}
		profile[h] = stat.Mean(vals, nil)
	}
	return profile
}

// Normalize scales the profile so its maximum is 100. The all-zero
// vector maps to itself so downstream code never divides by zero.
func Normalize(profile []float64) []float64 {
	out := make([]float64, len(profile))
	copy(out, profile)
	if len(out) == 0 {
		return out
	}
	max := floats.Max(out)
	if max == 0 {
		return out
	}
	floats.Scale(100/max, out)
	return out
}

// RecencyWeights returns a linear ramp from 0.5 (oldest) to 1.0
// (newest) over n observations in time-sorted order. The weights are
// advisory context for variant forecast strategies; the plain means
// above never apply them.
func RecencyWeights(n int) []float64 {
	if n <= 0 {
		return nil
	}
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 + 0.5*float64(i)/float64(n-1)
	}
	return w
}
