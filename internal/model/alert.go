package model

import "time"

// AlertType identifies the rule that produced an alert.
type AlertType string

const (
	AlertHighVolume     AlertType = "high-volume"
	AlertSuspiciousPort AlertType = "suspicious-port"
)

// Severity represents the severity of an alert.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// IsValid checks if the severity is a valid value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// Alert is raised by the rule engine when a flow matches a rule. Alerts are
// immutable after creation; the ID is unique across the process lifetime.
type Alert struct {
	ID        string     `json:"id"`
	Type      AlertType  `json:"type"`
	Severity  Severity   `json:"severity"`
	Message   string     `json:"message"`
	Flow      FlowRecord `json:"flow"`
	Timestamp time.Time  `json:"timestamp"`
}
