package builtin

import (
	"fmt"

	"flowscope/internal/model"
)

// SuspiciousPortRule flags flows whose destination port belongs to a fixed
// set of commonly attacked services (SSH, Telnet, RDP, SMB, RPC, NetBIOS by
// default).
type SuspiciousPortRule struct {
	enabled bool
	ports   map[uint16]struct{}
}

// NewSuspiciousPortRule creates a suspicious-port rule over the given port
// set.
func NewSuspiciousPortRule(enabled bool, ports []uint16) *SuspiciousPortRule {
	if len(ports) == 0 {
		ports = []uint16{22, 23, 3389, 445, 135, 139}
	}
	set := make(map[uint16]struct{}, len(ports))
	for _, p := range ports {
		set[p] = struct{}{}
	}
	return &SuspiciousPortRule{enabled: enabled, ports: set}
}

func (r *SuspiciousPortRule) Name() string { return "suspicious_port" }

func (r *SuspiciousPortRule) Type() model.AlertType { return model.AlertSuspiciousPort }

func (r *SuspiciousPortRule) Severity() model.Severity { return model.SeverityError }

func (r *SuspiciousPortRule) IsEnabled() bool { return r.enabled }

func (r *SuspiciousPortRule) Match(flow model.FlowRecord) bool {
	_, ok := r.ports[flow.DstPort]
	return ok
}

func (r *SuspiciousPortRule) Message(flow model.FlowRecord) string {
	return fmt.Sprintf("Suspicious port %d accessed from %s to %s", flow.DstPort, flow.SrcIP, flow.DstIP)
}
