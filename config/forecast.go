package config

import (
	"fmt"

	"github.com/kverne/parkcast/core/forecast"
)

// Strategy names accepted by the forecast section.
const (
	StrategyHeuristic  = "heuristic"
	StrategyClassifier = "classifier"
)

// ForecastConfig selects and tunes the forecast strategy.
type ForecastConfig struct {
	// Strategy is the default strategy used when a request does not
	// pick one explicitly.
	Strategy   string                    `json:"strategy"`
	Heuristic  forecast.HeuristicConfig  `json:"heuristic"`
	Classifier forecast.ClassifierConfig `json:"classifier"`
}

// SetDefaults applies sane defaults.
func (c *ForecastConfig) SetDefaults() {
	if c.Strategy == "" {
		c.Strategy = StrategyHeuristic
	}
	c.Heuristic.SetDefaults()
	c.Classifier.SetDefaults()
}

// Validate checks the strategy name and tunables.
func (c ForecastConfig) Validate() error {
	if c.Strategy != StrategyHeuristic && c.Strategy != StrategyClassifier {
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	return c.Heuristic.Validate()
}
