package forecast

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/kverne/parkcast/core/aggregate"
	"github.com/kverne/parkcast/core/model"
	"github.com/kverne/parkcast/core/occupancy"
)

// HeuristicConfig tunes the blended-mean strategy.
type HeuristicConfig struct {
	// RecentWindow is the number of most recent intervals forming the
	// "recent" estimate.
	RecentWindow int `json:"recent_window"`
	// RecentWeight is the blend weight of the recent mean; the full
	// history mean gets the complement.
	RecentWeight float64 `json:"recent_weight"`
	// RecencyWeighting applies the linear recency ramp inside the
	// recent-window mean.
	RecencyWeighting bool `json:"recency_weighting"`
}

// SetDefaults applies sane defaults.
func (c *HeuristicConfig) SetDefaults() {
	if c.RecentWindow <= 0 {
		c.RecentWindow = 200
	}
	if c.RecentWeight <= 0 {
		c.RecentWeight = 0.7
	}
}

// Validate checks bounds.
func (c HeuristicConfig) Validate() error {
	if c.RecentWeight < 0 || c.RecentWeight > 1 {
		return fmt.Errorf("recent_weight must be within [0,1], got %v", c.RecentWeight)
	}
	return nil
}

// Heuristic blends the mean stay duration of a recent window with the
// full-history mean for the queried (weekday class, hour) pair and
// reports the result in minutes, rounded to two decimals. Missing
// means default to zero so the blend never propagates nulls.
type Heuristic struct {
	store occupancy.IntervalStore
	cfg   HeuristicConfig
}

// NewHeuristic creates the heuristic strategy over the interval store.
func NewHeuristic(store occupancy.IntervalStore, cfg HeuristicConfig) *Heuristic {
	cfg.SetDefaults()
	return &Heuristic{store: store, cfg: cfg}
}

// Forecast implements Engine.
func (h *Heuristic) Forecast(ctx context.Context, slotID string, hour int, weekday time.Weekday) (float64, error) {
	if hour < 0 || hour >= aggregate.HoursPerDay {
		return 0, fmt.Errorf("hour %d out of range", hour)
	}
	intervals, err := h.store.Intervals(ctx, slotID)
	if err != nil {
		return 0, fmt.Errorf("read intervals: %w", err)
	}

	class := aggregate.ClassOf(weekday)
	full := h.hourMean(intervals, class, hour, false)

	recent := intervals
	if len(recent) > h.cfg.RecentWindow {
		recent = recent[len(recent)-h.cfg.RecentWindow:]
	}
	recentMean := h.hourMean(recent, class, hour, h.cfg.RecencyWeighting)

	w := h.cfg.RecentWeight
	blendedSec := w*recentMean + (1-w)*full
	return round(blendedSec/60, 2), nil
}

// hourMean averages the durations of the intervals entering at the
// given hour within the class. Intervals arrive time-sorted, so the
// recency ramp lines up with their position.
func (h *Heuristic) hourMean(intervals []model.Interval, class aggregate.WeekdayClass, hour int, recency bool) float64 {
	var vals []float64
	for _, iv := range intervals {
		if iv.Entry.Hour() != hour || !class.Matches(iv.Entry) {
			continue
		}
		vals = append(vals, iv.DurationSec)
	}
	if len(vals) == 0 {
		return 0
	}
	if recency {
		return stat.Mean(vals, aggregate.RecencyWeights(len(vals)))
	}
	return stat.Mean(vals, nil)
}
