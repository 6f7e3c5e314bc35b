package rules

import (
	"testing"

	"flowscope/internal/config"
	"flowscope/internal/model"
	"flowscope/internal/utils"
)

func newTestEngine() *Engine {
	engine := NewEngine(utils.NewLogger("ERROR"))
	cfg := config.Default()
	RegisterBuiltins(engine, cfg.Rules)
	return engine
}

func TestDetect_SuspiciousPort(t *testing.T) {
	engine := newTestEngine()

	flow := model.FlowRecord{
		SrcIP:        "10.0.0.1",
		DstIP:        "8.8.8.8",
		DstPort:      3389,
		Protocol:     6,
		TotalBytes:   model.Count(50),
		TotalPackets: 1,
		Timestamp:    1000,
	}

	alerts := engine.Detect(flow)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Type != model.AlertSuspiciousPort {
		t.Errorf("alert type = %q, want %q", alerts[0].Type, model.AlertSuspiciousPort)
	}
	if alerts[0].Severity != model.SeverityError {
		t.Errorf("alert severity = %q, want %q", alerts[0].Severity, model.SeverityError)
	}
	if alerts[0].ID == "" {
		t.Error("alert id is empty")
	}
}

func TestDetect_HighVolume(t *testing.T) {
	engine := newTestEngine()

	flow := model.FlowRecord{
		SrcIP:      "10.0.0.1",
		DstIP:      "1.1.1.1",
		DstPort:    80,
		Protocol:   6,
		TotalBytes: model.Count(200000),
		Timestamp:  1000,
	}

	alerts := engine.Detect(flow)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].Type != model.AlertHighVolume {
		t.Errorf("alert type = %q, want %q", alerts[0].Type, model.AlertHighVolume)
	}
	if alerts[0].Severity != model.SeverityWarning {
		t.Errorf("alert severity = %q, want %q", alerts[0].Severity, model.SeverityWarning)
	}
}

func TestDetect_MultipleRulesOneFlow(t *testing.T) {
	engine := newTestEngine()

	// Exceeds the volume threshold and targets SSH: both rules fire, in
	// registration order.
	flow := model.FlowRecord{
		SrcIP:      "10.0.0.1",
		DstIP:      "1.1.1.1",
		DstPort:    22,
		Protocol:   6,
		TotalBytes: model.Count(500000),
	}

	alerts := engine.Detect(flow)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].Type != model.AlertHighVolume || alerts[1].Type != model.AlertSuspiciousPort {
		t.Errorf("unexpected alert order: %q, %q", alerts[0].Type, alerts[1].Type)
	}
	if alerts[0].ID == alerts[1].ID {
		t.Error("alert ids are not unique")
	}
}

func TestDetect_NoAlerts(t *testing.T) {
	engine := newTestEngine()

	flow := model.FlowRecord{
		SrcIP:      "10.0.0.1",
		DstIP:      "1.1.1.1",
		DstPort:    443,
		Protocol:   6,
		TotalBytes: model.Count(1500),
	}

	if alerts := engine.Detect(flow); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerts))
	}
}

func TestDetect_DeterministicContent(t *testing.T) {
	engine := newTestEngine()

	flow := model.FlowRecord{
		SrcIP:      "192.168.1.5",
		DstIP:      "203.0.113.9",
		DstPort:    445,
		Protocol:   6,
		TotalBytes: model.Count(10),
	}

	first := engine.Detect(flow)
	second := engine.Detect(flow)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected 1 alert per run, got %d and %d", len(first), len(second))
	}
	// Identical in content, ignoring generated id and timestamp.
	if first[0].Type != second[0].Type || first[0].Severity != second[0].Severity ||
		first[0].Message != second[0].Message || first[0].Flow != second[0].Flow {
		t.Errorf("detect is not deterministic in content:\n%+v\n%+v", first[0], second[0])
	}
}

func TestDetect_ThresholdBoundary(t *testing.T) {
	engine := newTestEngine()

	// Exactly at the threshold does not fire; strictly greater does.
	at := model.FlowRecord{SrcIP: "a", DstIP: "b", DstPort: 80, TotalBytes: model.Count(100000)}
	over := model.FlowRecord{SrcIP: "a", DstIP: "b", DstPort: 80, TotalBytes: model.Count(100001)}

	if alerts := engine.Detect(at); len(alerts) != 0 {
		t.Errorf("flow at threshold raised %d alerts, want 0", len(alerts))
	}
	if alerts := engine.Detect(over); len(alerts) != 1 {
		t.Errorf("flow over threshold raised %d alerts, want 1", len(alerts))
	}
}

func TestDetect_DisabledRule(t *testing.T) {
	engine := NewEngine(utils.NewLogger("ERROR"))
	cfg := config.Default()
	cfg.Rules.SuspiciousPort.Enabled = false
	RegisterBuiltins(engine, cfg.Rules)

	flow := model.FlowRecord{SrcIP: "a", DstIP: "b", DstPort: 22, TotalBytes: model.Count(10)}
	if alerts := engine.Detect(flow); len(alerts) != 0 {
		t.Fatalf("disabled rule raised %d alerts", len(alerts))
	}
}
