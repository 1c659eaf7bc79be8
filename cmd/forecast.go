package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kverne/parkcast/config"
	"github.com/kverne/parkcast/core/forecast"
	"github.com/kverne/parkcast/infra/intervallog"
	"github.com/kverne/parkcast/infra/logger"
	"github.com/kverne/parkcast/infra/telemetry"
)

var (
	forecastSlot     string
	forecastHour     int
	forecastWeekday  int
	forecastStrategy string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Run a one-shot occupancy forecast",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringVar(&forecastSlot, "slot", "", "slot identifier")
	forecastCmd.Flags().IntVar(&forecastHour, "hour", -1, "hour of day 0-23 (default: now)")
	forecastCmd.Flags().IntVar(&forecastWeekday, "weekday", -1, "weekday 0-6, Sunday=0 (default: today)")
	forecastCmd.Flags().StringVar(&forecastStrategy, "strategy", "", "heuristic or classifier (default: configured)")
	_ = forecastCmd.MarkFlagRequired("slot")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	now := time.Now()
	hour := forecastHour
	if hour < 0 {
		hour = now.Hour()
	}
	weekday := now.Weekday()
	if forecastWeekday >= 0 {
		weekday = time.Weekday(forecastWeekday)
	}
	strategy := forecastStrategy
	if strategy == "" {
		strategy = cfg.Forecast.Strategy
	}

	var engine forecast.Engine
	switch strategy {
	case config.StrategyHeuristic:
		store, err := intervallog.NewCSVStore(cfg.Storage.IntervalLogPath)
		if err != nil {
			return fmt.Errorf("interval log: %w", err)
		}
		engine = forecast.NewHeuristic(store, cfg.Forecast.Heuristic)
	case config.StrategyClassifier:
		source := telemetry.NewClient(cfg.Telemetry, logger.New("telemetry"), nil)
		engine = forecast.NewClassifier(source, cfg.Slots, cfg.Telemetry.ThresholdCm, cfg.Forecast.Classifier, logger.New("classifier"))
	default:
		return fmt.Errorf("unknown strategy %q", strategy)
	}

	score, err := engine.Forecast(cmd.Context(), forecastSlot, hour, weekday)
	if errors.Is(err, forecast.ErrInsufficientData) {
		cmd.Println("insufficient data")
		return nil
	}
	if err != nil {
		return err
	}
	cmd.Printf("slot=%s hour=%d weekday=%s strategy=%s score=%.2f\n", forecastSlot, hour, weekday, strategy, score)
	return nil
}
