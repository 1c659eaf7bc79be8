package forecast

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/kverne/parkcast/core/aggregate"
	corelogger "github.com/kverne/parkcast/core/logger"
	"github.com/kverne/parkcast/core/occupancy"
	"github.com/kverne/parkcast/core/telemetry"
)

// ClassifierConfig tunes the bagged-trees strategy.
type ClassifierConfig struct {
	Estimators int `json:"estimators"`
	MaxDepth   int `json:"max_depth"`
	MinLeaf    int `json:"min_leaf"`
	// Seed fixes the bootstrap sampling; 0 means time-based.
	Seed int64 `json:"seed"`
}

// SetDefaults applies sane defaults.
func (c *ClassifierConfig) SetDefaults() {
	if c.Estimators <= 0 {
		c.Estimators = 80
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = 8
	}
	if c.MinLeaf <= 0 {
		c.MinLeaf = 1
	}
}

// Classifier trains a bagged decision-tree ensemble on telemetry
// readings across all configured slots and predicts the occupancy
// probability for a (slot, hour, weekday) query. The model is trained
// fresh on every request; with the small datasets this system sees
// that is acceptable, caching is the first thing to add under load.
//
// Feature layout per row: hour, weekday, raw value, one slot one-hot
// column per configured slot in sorted id order.
type Classifier struct {
	source      telemetry.Source
	fields      map[string]string // slot id -> sensor field
	thresholdCm float64
	cfg         ClassifierConfig
	log         corelogger.Logger
}

// NewClassifier creates the classifier strategy.
func NewClassifier(source telemetry.Source, fields map[string]string, thresholdCm float64, cfg ClassifierConfig, log corelogger.Logger) *Classifier {
	cfg.SetDefaults()
	return &Classifier{source: source, fields: fields, thresholdCm: thresholdCm, cfg: cfg, log: log}
}

// Forecast implements Engine. It returns the positive-class probability
// scaled to 0-100 and rounded to one decimal, or ErrInsufficientData
// when no training rows exist.
func (c *Classifier) Forecast(ctx context.Context, slotID string, hour int, weekday time.Weekday) (float64, error) {
	if hour < 0 || hour >= aggregate.HoursPerDay {
		return 0, fmt.Errorf("hour %d out of range", hour)
	}
	if _, ok := c.fields[slotID]; !ok {
		return 0, occupancy.InvalidSlotError{SlotID: slotID}
	}

	slots := make([]string, 0, len(c.fields))
	for id := range c.fields {
		slots = append(slots, id)
	}
	sort.Strings(slots)

	X, y, slotVals := c.buildDataset(ctx, slots)
	if len(y) == 0 {
		return 0, ErrInsufficientData
	}

	seed := c.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	ensemble := trainBagging(X, y, c.cfg.Estimators, c.cfg.MaxDepth, c.cfg.MinLeaf, rng)

	row := c.queryRow(slots, slotID, hour, weekday, slotVals)
	prob := ensemble.predictProb(row)
	c.log.Debugf("classifier: %d rows, slot %s h=%d wd=%d -> %.3f", len(y), slotID, hour, int(weekday), prob)
	return round(prob*100, 1), nil
}

// buildDataset fetches every slot's history and assembles the labeled
// feature matrix. slotVals collects the raw values seen per slot so the
// query row can guess a plausible sensor value.
func (c *Classifier) buildDataset(ctx context.Context, slots []string) (*mat.Dense, []float64, map[string][]float64) {
	type rowData struct {
		features []float64
		label    float64
	}
	var rows []rowData
	slotVals := make(map[string][]float64, len(slots))
	for si, id := range slots {
		readings := c.source.FetchHistory(ctx, c.fields[id])
		for _, r := range readings {
			features := make([]float64, 3+len(slots))
			features[0] = float64(r.Timestamp.Hour())
			features[1] = float64(r.Timestamp.Weekday())
			features[2] = r.Value
			features[3+si] = 1
			label := 0.0
			if r.Occupied(c.thresholdCm) {
				label = 1
			}
			rows = append(rows, rowData{features: features, label: label})
			slotVals[id] = append(slotVals[id], r.Value)
		}
	}
	if len(rows) == 0 {
		return nil, nil, slotVals
	}
	X := mat.NewDense(len(rows), 3+len(slots), nil)
	y := make([]float64, len(rows))
	for i, r := range rows {
		X.SetRow(i, r.features)
		y[i] = r.label
	}
	return X, y, slotVals
}

// queryRow builds the synthetic input for the prediction: the queried
// slot's one-hot column set, every other slot zeroed, and the sensor
// value guessed from the slot's observed mean (global mean fallback).
func (c *Classifier) queryRow(slots []string, slotID string, hour int, weekday time.Weekday, slotVals map[string][]float64) []float64 {
	row := make([]float64, 3+len(slots))
	row[0] = float64(hour)
	row[1] = float64(weekday)
	row[2] = c.guessValue(slotID, slotVals)
	for si, id := range slots {
		if id == slotID {
			row[3+si] = 1
		}
	}
	return row
}

func (c *Classifier) guessValue(slotID string, slotVals map[string][]float64) float64 {
	if vals := slotVals[slotID]; len(vals) > 0 {
		return stat.Mean(vals, nil)
	}
	var all []float64
	for _, vals := range slotVals {
		all = append(all, vals...)
	}
	if len(all) > 0 {
		return stat.Mean(all, nil)
	}
	return c.thresholdCm
}
