// Package metrics exposes pipeline counters and gauges over Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Pipeline metrics
	FlowsIngested  prometheus.Counter
	RecordsDropped *prometheus.CounterVec
	FlowBytes      prometheus.Counter

	// Alert metrics
	AlertsRaised *prometheus.CounterVec

	// Store metrics
	FlowStoreSize   prometheus.Gauge
	AlertStoreSize  prometheus.Gauge
	FlowsEvicted    prometheus.Counter
	AlertsEvicted   prometheus.Counter

	// Transport metrics
	Reconnects      prometheus.Counter
	ConnectionState *prometheus.GaugeVec
}

// New creates the metric set and registers it with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FlowsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "flowscope_flows_ingested_total",
			Help: "Total flow records accepted by the pipeline",
		}),
		RecordsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowscope_records_dropped_total",
			Help: "Raw records rejected before reaching the store",
		}, []string{"reason"}),
		FlowBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "flowscope_flow_bytes_total",
			Help: "Total bytes carried by ingested flows",
		}),
		AlertsRaised: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flowscope_alerts_raised_total",
			Help: "Alerts raised by the rule engine",
		}, []string{"type", "severity"}),
		FlowStoreSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flowscope_flow_store_size",
			Help: "Current number of flows held in memory",
		}),
		AlertStoreSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flowscope_alert_store_size",
			Help: "Current number of alerts held in memory",
		}),
		FlowsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "flowscope_flows_evicted_total",
			Help: "Flows dropped from the store to honor its capacity",
		}),
		AlertsEvicted: factory.NewCounter(prometheus.CounterOpts{
			Name: "flowscope_alerts_evicted_total",
			Help: "Alerts dropped from the store to honor its capacity",
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "flowscope_stream_reconnects_total",
			Help: "Reconnect attempts scheduled against the flow source",
		}),
		ConnectionState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flowscope_stream_connection_state",
			Help: "Connection state as a one-hot gauge per state label",
		}, []string{"state"}),
	}
}

// SetConnectionState flips the one-hot connection state gauge.
func (m *Metrics) SetConnectionState(state string) {
	for _, s := range []string{"disconnected", "connecting", "connected", "reconnect_pending"} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		m.ConnectionState.WithLabelValues(s).Set(v)
	}
}
