// Package telemetry implements the HTTP client for the upstream IoT
// sensor API. Upstream deployments disagree on the payload shape, so
// the decoder accepts both known variants and drops unparsable records
// individually.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	corelogger "github.com/kverne/parkcast/core/logger"
	"github.com/kverne/parkcast/core/metrics"
	"github.com/kverne/parkcast/core/model"
)

// Config defines the upstream telemetry endpoint.
type Config struct {
	// BaseURL up to and including the action query key, e.g.
	// "https://iot.roboninja.in/index.php?action".
	BaseURL string `json:"base_url"`
	// DeviceUID identifies the sensor device upstream.
	DeviceUID string `json:"device_uid"`
	// TimeoutSeconds bounds each fetch.
	TimeoutSeconds int `json:"timeout_seconds"`
	// ThresholdCm is the distance below which a slot counts as
	// occupied. Upstream variants use 20 or 30; it stays configurable.
	ThresholdCm float64 `json:"threshold_cm"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://iot.roboninja.in/index.php?action"
	}
	if c.DeviceUID == "" {
		c.DeviceUID = "PR10"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 5
	}
	if c.ThresholdCm <= 0 {
		c.ThresholdCm = 30
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.ThresholdCm <= 0 {
		return fmt.Errorf("threshold_cm must be positive")
	}
	return nil
}

// Client fetches distance readings from the upstream API.
type Client struct {
	cfg    Config
	client *http.Client
	log    corelogger.Logger
	sink   metrics.Sink
}

// NewClient creates a Client. A nil sink disables fetch metrics.
func NewClient(cfg Config, log corelogger.Logger, sink metrics.Sink) *Client {
	cfg.SetDefaults()
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		log:    log,
		sink:   sink,
	}
}

// ThresholdCm exposes the configured occupancy threshold.
func (c *Client) ThresholdCm() float64 { return c.cfg.ThresholdCm }

// FetchHistory retrieves the reading history for a sensor field. Any
// transport or decode failure degrades to an empty slice; a single bad
// record is skipped without aborting the batch.
func (c *Client) FetchHistory(ctx context.Context, field string) []model.Reading {
	readings, err := c.fetch(ctx, field)
	if err != nil {
		c.log.Warnf("telemetry fetch for %s failed: %v", field, err)
		if serr := c.sink.RecordFetch(metrics.FetchEvent{Field: field, Failed: true, Time: time.Now()}); serr != nil {
			c.log.Debugf("record fetch metric: %v", serr)
		}
		return nil
	}
	if serr := c.sink.RecordFetch(metrics.FetchEvent{Field: field, Records: len(readings), Time: time.Now()}); serr != nil {
		c.log.Debugf("record fetch metric: %v", serr)
	}
	return readings
}

func (c *Client) fetch(ctx context.Context, field string) ([]model.Reading, error) {
	url := fmt.Sprintf("%s=getHistory&uid=%s&field=%s", c.cfg.BaseURL, c.cfg.DeviceUID, field)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeReadings(body, field)
}

// wireReading covers both upstream shapes. Go's JSON decoder matches
// keys case-insensitively, so "Value"/"Timestamp" bind here as well.
type wireReading struct {
	Value     any `json:"value"`
	Timestamp any `json:"timestamp"`
}

func decodeReadings(body []byte, field string) ([]model.Reading, error) {
	var recs []wireReading
	var wrapped struct {
		Result []wireReading `json:"result"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Result != nil {
		recs = wrapped.Result
	} else if err := json.Unmarshal(body, &recs); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	res := make([]model.Reading, 0, len(recs))
	for _, rec := range recs {
		value, ok := parseValue(rec.Value)
		if !ok {
			continue
		}
		ts, ok := parseTimestamp(rec.Timestamp)
		if !ok {
			continue
		}
		res = append(res, model.Reading{Field: field, Value: value, Timestamp: ts})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Timestamp.Before(res[j].Timestamp) })
	return res, nil
}

func parseValue(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func parseTimestamp(v any) (time.Time, bool) {
	switch x := v.(type) {
	case float64:
		return time.Unix(int64(x), 0).UTC(), true
	case string:
		if t, err := time.Parse("2006-01-02 15:04:05", x); err == nil {
			return t.UTC(), true
		}
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			return t.UTC(), true
		}
		if epoch, err := strconv.ParseInt(x, 10, 64); err == nil {
			return time.Unix(epoch, 0).UTC(), true
		}
	}
	return time.Time{}, false
}
