package pipeline

import (
	"sync"

	"github.com/sirupsen/logrus"

	"flowscope/internal/events"
	"flowscope/internal/metrics"
	"flowscope/internal/model"
	"flowscope/internal/rules"
	"flowscope/internal/store"
	"flowscope/internal/transport"
)

// Processor is the ingestion path: raw payload in, parsed and normalized
// flow out to the store, the rule engine, and the event bus. It plugs
// directly into the transport as its record and state callbacks.
type Processor struct {
	parser  *Parser
	flows   *store.FlowStore
	alerts  *store.AlertStore
	engine  *rules.Engine
	bus     *events.Bus
	metrics *metrics.Metrics
	logger  *logrus.Logger

	mu               sync.Mutex
	lastFlowEvicted  uint64
	lastAlertEvicted uint64
}

// NewProcessor wires the ingestion path together. Metrics may be nil.
func NewProcessor(flows *store.FlowStore, alerts *store.AlertStore, engine *rules.Engine, bus *events.Bus, m *metrics.Metrics, logger *logrus.Logger) *Processor {
	return &Processor{
		parser:  NewParser(),
		flows:   flows,
		alerts:  alerts,
		engine:  engine,
		bus:     bus,
		metrics: m,
		logger:  logger,
	}
}

// HandleRecord decodes one raw payload and runs it through the pipeline.
// Invalid records are dropped and logged, never fatal to the stream.
func (p *Processor) HandleRecord(data []byte) {
	flow, err := p.parser.ParseRecord(data)
	if err != nil {
		p.logger.Debugf("Dropping record: %v", err)
		if p.metrics != nil {
			p.metrics.RecordsDropped.WithLabelValues("invalid").Inc()
		}
		return
	}
	p.Ingest(Normalize(flow))
}

// Ingest pushes a normalized flow through storage, detection, and fan-out.
// Seeding from the history service uses this entry point too.
func (p *Processor) Ingest(flow model.FlowRecord) {
	p.flows.Push(flow)

	alerts := p.engine.Detect(flow)
	if len(alerts) > 0 {
		p.alerts.PushAll(alerts)
		p.engine.Notify(alerts)
	}

	p.updateMetrics(flow, alerts)

	p.bus.PublishFlow(flow)
	if len(alerts) > 0 {
		p.bus.PublishAlerts(alerts)
	}
}

// HandleState mirrors transport state changes onto the bus and the gauges.
func (p *Processor) HandleState(state transport.State) {
	p.logger.Infof("Stream connection state: %s", state)
	if p.metrics != nil {
		p.metrics.SetConnectionState(string(state))
		if state == transport.StateReconnectPending {
			p.metrics.Reconnects.Inc()
		}
	}
	p.bus.PublishState(string(state))
}

func (p *Processor) updateMetrics(flow model.FlowRecord, alerts []model.Alert) {
	if p.metrics == nil {
		return
	}

	p.metrics.FlowsIngested.Inc()
	p.metrics.FlowBytes.Add(float64(flow.Bytes()))
	p.metrics.FlowStoreSize.Set(float64(p.flows.Len()))
	p.metrics.AlertStoreSize.Set(float64(p.alerts.Len()))
	for _, a := range alerts {
		p.metrics.AlertsRaised.WithLabelValues(string(a.Type), string(a.Severity)).Inc()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if evicted := p.flows.Evicted(); evicted > p.lastFlowEvicted {
		p.metrics.FlowsEvicted.Add(float64(evicted - p.lastFlowEvicted))
		p.lastFlowEvicted = evicted
	}
	if evicted := p.alerts.Evicted(); evicted > p.lastAlertEvicted {
		p.metrics.AlertsEvicted.Add(float64(evicted - p.lastAlertEvicted))
		p.lastAlertEvicted = evicted
	}
}
