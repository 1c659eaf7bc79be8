package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	corelogger "github.com/kverne/parkcast/core/logger"
	coremetrics "github.com/kverne/parkcast/core/metrics"
	"github.com/kverne/parkcast/infra/logger"
)

// InfluxSink writes occupancy events to InfluxDB using the official
// client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      corelogger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a dead Influx never takes
// the service down.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTransition writes the transition as a point.
func (s *InfluxSink) RecordTransition(ev coremetrics.TransitionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("occupancy_transition").
		AddTag("slot_id", ev.SlotID).
		AddTag("to", ev.To.String()).
		AddField("interval_logged", ev.IntervalLogged).
		AddField("duration_sec", ev.DurationSec).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordForecast writes the served forecast as a point.
func (s *InfluxSink) RecordForecast(ev coremetrics.ForecastEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("occupancy_forecast").
		AddTag("slot_id", ev.SlotID).
		AddTag("strategy", ev.Strategy).
		AddTag("outcome", ev.Outcome).
		AddField("hour", ev.Hour).
		AddField("score", ev.Score).
		AddField("elapsed_ms", float64(ev.Elapsed.Milliseconds())).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordFetch writes the fetch attempt as a point.
func (s *InfluxSink) RecordFetch(ev coremetrics.FetchEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("telemetry_fetch").
		AddTag("field", ev.Field).
		AddTag("failed", strconv.FormatBool(ev.Failed)).
		AddField("records", ev.Records).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close shuts down the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
