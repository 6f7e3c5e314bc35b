package rules

import (
	"sync"
	"time"

	"flowscope/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Rule is a self-contained predicate and message formatter pair. Rules must
// be stateless: Match and Message may not retain or mutate the flow.
type Rule interface {
	Name() string
	Type() model.AlertType
	Severity() model.Severity
	IsEnabled() bool
	Match(flow model.FlowRecord) bool
	Message(flow model.FlowRecord) string
}

// Notifier receives every raised alert.
type Notifier interface {
	SendAlert(alert model.Alert) error
}

// Engine evaluates registered rules against each flow. Rules run in
// registration order so alert ordering within a single flow is deterministic.
type Engine struct {
	mu        sync.RWMutex
	rules     []Rule
	notifiers []Notifier
	logger    *logrus.Logger
}

// NewEngine creates an empty rule engine.
func NewEngine(logger *logrus.Logger) *Engine {
	return &Engine{logger: logger}
}

// RegisterRule appends a rule to the evaluation order.
func (e *Engine) RegisterRule(rule Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = append(e.rules, rule)
	e.logger.Infof("Registered rule: %s", rule.Name())
}

// RegisterNotifier adds an alert notifier.
func (e *Engine) RegisterNotifier(notifier Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifiers = append(e.notifiers, notifier)
}

// Detect evaluates every enabled rule against the flow and returns the raised
// alerts, possibly none. A single flow can match several rules. Apart from
// the generated id and timestamp the result is deterministic in the flow
// content.
func (e *Engine) Detect(flow model.FlowRecord) []model.Alert {
	e.mu.RLock()
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	e.mu.RUnlock()

	var alerts []model.Alert
	for _, rule := range rules {
		if !rule.IsEnabled() || !rule.Match(flow) {
			continue
		}
		alerts = append(alerts, model.Alert{
			ID:        uuid.NewString(),
			Type:      rule.Type(),
			Severity:  rule.Severity(),
			Message:   rule.Message(flow),
			Flow:      flow,
			Timestamp: time.Now(),
		})
	}
	return alerts
}

// Notify fans the alerts out to every registered notifier. Notifier failures
// are logged and never propagate into the ingestion path.
func (e *Engine) Notify(alerts []model.Alert) {
	e.mu.RLock()
	notifiers := make([]Notifier, len(e.notifiers))
	copy(notifiers, e.notifiers)
	e.mu.RUnlock()

	for _, alert := range alerts {
		for _, notifier := range notifiers {
			if err := notifier.SendAlert(alert); err != nil {
				e.logger.Errorf("Failed to send alert: %v", err)
			}
		}
	}
}
