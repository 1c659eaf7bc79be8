// Package app assembles the occupancy analytics service from its parts.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/kverne/parkcast/api/slots"
	"github.com/kverne/parkcast/config"
	"github.com/kverne/parkcast/core/aggregate"
	"github.com/kverne/parkcast/core/forecast"
	coremetrics "github.com/kverne/parkcast/core/metrics"
	"github.com/kverne/parkcast/core/occupancy"
	"github.com/kverne/parkcast/infra/intervallog"
	"github.com/kverne/parkcast/infra/logger"
	"github.com/kverne/parkcast/infra/metrics"
	"github.com/kverne/parkcast/infra/telemetry"
	"github.com/kverne/parkcast/internal/eventbus"
)

// Service owns the HTTP API, the tracker and the metrics pipeline.
type Service struct {
	cfg   *config.Config
	store occupancy.IntervalStore
	bus   *eventbus.Bus[coremetrics.TransitionEvent]
	sink  coremetrics.Sink
	srv   *http.Server
	log   logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	store, err := intervallog.NewCSVStore(cfg.Storage.IntervalLogPath)
	if err != nil {
		return nil, fmt.Errorf("interval log: %w", err)
	}

	bus := eventbus.New[coremetrics.TransitionEvent]()
	tracker := occupancy.NewTracker(slotIDs(cfg.Slots), store, bus, logger.New("tracker"))

	source := telemetry.NewClient(cfg.Telemetry, logger.New("telemetry"), sink)
	profiles := aggregate.NewProfileService(source, cfg.Slots, cfg.Telemetry.ThresholdCm)
	engines := map[string]forecast.Engine{
		config.StrategyHeuristic:  forecast.NewHeuristic(store, cfg.Forecast.Heuristic),
		config.StrategyClassifier: forecast.NewClassifier(source, cfg.Slots, cfg.Telemetry.ThresholdCm, cfg.Forecast.Classifier, logger.New("classifier")),
	}

	handler := slots.New(tracker, profiles, engines, cfg.Forecast.Strategy, sink, logger.New("api"))
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler.Mux()}

	return &Service{cfg: cfg, store: store, bus: bus, sink: sink, srv: srv, log: logg}, nil
}

// Run serves the API until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	events, cancel := s.bus.Subscribe()
	defer cancel()
	go func() {
		for ev := range events {
			if err := s.sink.RecordTransition(ev); err != nil {
				s.log.Debugf("record transition metric: %v", err)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", s.cfg.Server.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// Close releases the service resources.
func (s *Service) Close() error {
	s.bus.Close()
	return s.store.Close()
}

func slotIDs(fields map[string]string) []string {
	ids := make([]string, 0, len(fields))
	for id := range fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
