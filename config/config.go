package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kverne/parkcast/core/metrics"
	"github.com/kverne/parkcast/infra/telemetry"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig      `json:"server"`
	Telemetry telemetry.Config  `json:"telemetry"`
	Slots     map[string]string `json:"slots"`
	Storage   StorageConfig     `json:"storage"`
	Forecast  ForecastConfig    `json:"forecast"`
	Metrics   metrics.Config    `json:"metrics"`
}

// ServerConfig defines the API listen address.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}

// StorageConfig locates the durable interval log.
type StorageConfig struct {
	IntervalLogPath string `json:"interval_log_path"`
}

// SetDefaults applies sane defaults.
func (c *StorageConfig) SetDefaults() {
	if c.IntervalLogPath == "" {
		c.IntervalLogPath = "occupancy_log.csv"
	}
}

// Load reads the configuration file and applies PK_ environment
// overrides (PK_TELEMETRY__THRESHOLD_CM=20 sets telemetry.threshold_cm).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("PK_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "pk_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Server.SetDefaults()
	cfg.Storage.SetDefaults()
	cfg.Telemetry.SetDefaults()
	cfg.Forecast.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the assembled configuration.
func (c Config) Validate() error {
	if len(c.Slots) == 0 {
		return fmt.Errorf("at least one slot must be configured")
	}
	for id, field := range c.Slots {
		if field == "" {
			return fmt.Errorf("slot %q has no sensor field", id)
		}
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	return nil
}
