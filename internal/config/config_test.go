package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	content := `
stream:
  kind: websocket
  url: ws://stream.example:9000/flows/ws
  base_retry_ms: 500
store:
  max_flows: 200
  max_alerts: 20
rules:
  high_volume:
    enabled: true
    threshold_bytes: 50000
  suspicious_port:
    enabled: false
alerting:
  channels:
    log: true
logging:
  level: DEBUG
`
	path := filepath.Join(t.TempDir(), "flowscope.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Stream.URL != "ws://stream.example:9000/flows/ws" {
		t.Errorf("stream url = %q", cfg.Stream.URL)
	}
	if cfg.Stream.BaseRetryMs != 500 || cfg.Stream.MaxRetryMs != 30000 {
		t.Errorf("retry = %d/%d, want explicit 500 and defaulted 30000", cfg.Stream.BaseRetryMs, cfg.Stream.MaxRetryMs)
	}
	if cfg.Store.MaxFlows != 200 || cfg.Store.MaxAlerts != 20 {
		t.Errorf("store = %d/%d", cfg.Store.MaxFlows, cfg.Store.MaxAlerts)
	}
	if !cfg.Rules.HighVolume.Enabled || cfg.Rules.HighVolume.ThresholdBytes != 50000 {
		t.Errorf("high volume rule = %+v", cfg.Rules.HighVolume)
	}
	if cfg.Rules.SuspiciousPort.Enabled {
		t.Error("suspicious port rule enabled, want explicit false respected")
	}
	if len(cfg.Rules.SuspiciousPort.Ports) == 0 {
		t.Error("suspicious ports empty, want defaults filled")
	}
	if cfg.API.Listen != ":5001" || cfg.Metrics.Listen != ":8080" {
		t.Errorf("listen = %q/%q, want defaults", cfg.API.Listen, cfg.Metrics.Listen)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() error = nil, want error for missing file")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Stream.Kind != "websocket" || cfg.Stream.URL == "" {
		t.Errorf("stream = %+v", cfg.Stream)
	}
	if cfg.Store.MaxFlows != 1000 || cfg.Store.MaxAlerts != 100 {
		t.Errorf("store caps = %d/%d, want 1000/100", cfg.Store.MaxFlows, cfg.Store.MaxAlerts)
	}
	if !cfg.Rules.HighVolume.Enabled || cfg.Rules.HighVolume.ThresholdBytes != 100000 {
		t.Errorf("high volume rule = %+v", cfg.Rules.HighVolume)
	}
	if !cfg.Alerting.Channels.Log {
		t.Error("log alert channel disabled by default")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown stream kind", func(c *Config) { c.Stream.Kind = "carrier-pigeon" }},
		{"max retry below base", func(c *Config) { c.Stream.BaseRetryMs = 5000; c.Stream.MaxRetryMs = 1000 }},
		{"webhook without url", func(c *Config) { c.Alerting.Channels.Webhook = true; c.Alerting.WebhookURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil, want rejection")
			}
		})
	}
}
