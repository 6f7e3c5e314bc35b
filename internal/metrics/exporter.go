package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Exporter serves the Prometheus scrape endpoint on its own listener.
type Exporter struct {
	server  *http.Server
	metrics *Metrics
	logger  *logrus.Logger
	addr    string
}

// NewExporter builds a registry with the pipeline metrics plus the standard
// Go and process collectors, and an HTTP server to expose it.
func NewExporter(addr string, logger *logrus.Logger) *Exporter {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := New(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return &Exporter{
		server:  &http.Server{Addr: addr, Handler: mux},
		metrics: m,
		logger:  logger,
		addr:    addr,
	}
}

// Metrics returns the metric set backed by this exporter's registry.
func (e *Exporter) Metrics() *Metrics {
	return e.metrics
}

// Start serves the scrape endpoint until the context is canceled.
func (e *Exporter) Start(ctx context.Context) error {
	e.logger.Infof("Starting metrics exporter on %s", e.addr)

	go func() {
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.logger.Errorf("Metrics exporter failed: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e.logger.Info("Shutting down metrics exporter...")
	return e.server.Shutdown(shutdownCtx)
}

// Stop shuts the exporter down without waiting on a context.
func (e *Exporter) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.server.Shutdown(ctx)
}
