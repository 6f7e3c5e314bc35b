package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Stream   StreamConfig   `yaml:"stream"`
	Store    StoreConfig    `yaml:"store"`
	Rules    RulesConfig    `yaml:"rules"`
	Alerting AlertingConfig `yaml:"alerting"`
	Services ServicesConfig `yaml:"services"`
	API      APIConfig      `yaml:"api"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StreamConfig configures the upstream flow source.
type StreamConfig struct {
	Kind         string `yaml:"kind"` // "websocket" or "nats"
	URL          string `yaml:"url"`
	Subject      string `yaml:"subject"` // nats only
	BaseRetryMs  int    `yaml:"base_retry_ms"`
	MaxRetryMs   int    `yaml:"max_retry_ms"`
	DialTimeoutS int    `yaml:"dial_timeout_seconds"`
}

type StoreConfig struct {
	MaxFlows  int `yaml:"max_flows"`
	MaxAlerts int `yaml:"max_alerts"`
}

type RulesConfig struct {
	HighVolume     HighVolumeRuleConfig     `yaml:"high_volume"`
	SuspiciousPort SuspiciousPortRuleConfig `yaml:"suspicious_port"`
}

type HighVolumeRuleConfig struct {
	Enabled        bool   `yaml:"enabled"`
	ThresholdBytes uint64 `yaml:"threshold_bytes"`
}

type SuspiciousPortRuleConfig struct {
	Enabled bool     `yaml:"enabled"`
	Ports   []uint16 `yaml:"ports"`
}

type AlertingConfig struct {
	Channels   AlertChannelsConfig `yaml:"channels"`
	WebhookURL string              `yaml:"webhook_url"`
}

type AlertChannelsConfig struct {
	Log     bool `yaml:"log"`
	Webhook bool `yaml:"webhook"`
}

// ServicesConfig points at the external history and GeoIP services.
type ServicesConfig struct {
	HistoryURL     string `yaml:"history_url"`
	GeoIPURL       string `yaml:"geoip_url"`
	SeedLimit      int    `yaml:"seed_limit"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type APIConfig struct {
	Listen string `yaml:"listen"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and validates a YAML configuration file.
func Load(filename string) (*Config, error) {
	if filename == "" {
		filename = "configs/flowscope.yaml"
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config file %s: %w", filename, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{}
	cfg.Rules.HighVolume.Enabled = true
	cfg.Rules.SuspiciousPort.Enabled = true
	cfg.Validate()
	return cfg
}

// Validate fills defaults and rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Stream.Kind == "" {
		c.Stream.Kind = "websocket"
	}
	if c.Stream.Kind != "websocket" && c.Stream.Kind != "nats" {
		return fmt.Errorf("unknown stream kind %q", c.Stream.Kind)
	}
	if c.Stream.URL == "" {
		if c.Stream.Kind == "nats" {
			c.Stream.URL = "nats://127.0.0.1:4222"
		} else {
			c.Stream.URL = "ws://127.0.0.1:8888/flows/ws"
		}
	}
	if c.Stream.Subject == "" {
		c.Stream.Subject = "flows.records"
	}
	if c.Stream.BaseRetryMs <= 0 {
		c.Stream.BaseRetryMs = 1000
	}
	if c.Stream.MaxRetryMs <= 0 {
		c.Stream.MaxRetryMs = 30000
	}
	if c.Stream.MaxRetryMs < c.Stream.BaseRetryMs {
		return fmt.Errorf("max_retry_ms %d below base_retry_ms %d", c.Stream.MaxRetryMs, c.Stream.BaseRetryMs)
	}
	if c.Stream.DialTimeoutS <= 0 {
		c.Stream.DialTimeoutS = 10
	}

	if c.Store.MaxFlows <= 0 {
		c.Store.MaxFlows = 1000
	}
	if c.Store.MaxAlerts <= 0 {
		c.Store.MaxAlerts = 100
	}

	if c.Rules.HighVolume.ThresholdBytes == 0 {
		c.Rules.HighVolume.ThresholdBytes = 100000
	}
	if len(c.Rules.SuspiciousPort.Ports) == 0 {
		c.Rules.SuspiciousPort.Ports = []uint16{22, 23, 3389, 445, 135, 139}
	}

	if !c.Alerting.Channels.Log && !c.Alerting.Channels.Webhook {
		c.Alerting.Channels.Log = true
	}
	if c.Alerting.Channels.Webhook && c.Alerting.WebhookURL == "" {
		return fmt.Errorf("webhook alert channel enabled without webhook_url")
	}

	if c.Services.HistoryURL == "" {
		c.Services.HistoryURL = "http://127.0.0.1:8888"
	}
	if c.Services.GeoIPURL == "" {
		c.Services.GeoIPURL = c.Services.HistoryURL
	}
	if c.Services.SeedLimit <= 0 {
		c.Services.SeedLimit = 100
	}
	if c.Services.TimeoutSeconds <= 0 {
		c.Services.TimeoutSeconds = 10
	}

	if c.API.Listen == "" {
		c.API.Listen = ":5001"
	}
	if c.Metrics.Listen == "" {
		c.Metrics.Listen = ":8080"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	return nil
}
