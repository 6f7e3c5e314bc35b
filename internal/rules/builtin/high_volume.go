package builtin

import (
	"fmt"

	"flowscope/internal/model"
)

// HighVolumeRule flags flows whose total byte counter exceeds a threshold.
type HighVolumeRule struct {
	enabled   bool
	threshold uint64
}

// NewHighVolumeRule creates a high-volume rule. A zero threshold falls back
// to 100000 bytes.
func NewHighVolumeRule(enabled bool, threshold uint64) *HighVolumeRule {
	if threshold == 0 {
		threshold = 100000
	}
	return &HighVolumeRule{enabled: enabled, threshold: threshold}
}

func (r *HighVolumeRule) Name() string { return "high_volume" }

func (r *HighVolumeRule) Type() model.AlertType { return model.AlertHighVolume }

func (r *HighVolumeRule) Severity() model.Severity { return model.SeverityWarning }

func (r *HighVolumeRule) IsEnabled() bool { return r.enabled }

func (r *HighVolumeRule) Match(flow model.FlowRecord) bool {
	return flow.Bytes() > r.threshold
}

func (r *HighVolumeRule) Message(flow model.FlowRecord) string {
	return fmt.Sprintf("High volume traffic detected: %d bytes from %s to %s", flow.Bytes(), flow.SrcIP, flow.DstIP)
}
