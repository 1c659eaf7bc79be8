package forecast

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrInsufficientData is returned when a strategy has no history to
// forecast from. The API edge renders it as the "insufficient data"
// result instead of a score.
var ErrInsufficientData = errors.New("insufficient data")

// Engine produces an occupancy score for a slot at a given hour of day
// and weekday. The scale depends on the strategy: the heuristic returns
// blended mean stay minutes, the classifier a probability in percent.
type Engine interface {
	Forecast(ctx context.Context, slotID string, hour int, weekday time.Weekday) (float64, error)
}

func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
