package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"flowscope/internal/alert"
	"flowscope/internal/api"
	"flowscope/internal/client"
	"flowscope/internal/config"
	"flowscope/internal/events"
	"flowscope/internal/metrics"
	"flowscope/internal/pipeline"
	"flowscope/internal/rules"
	"flowscope/internal/store"
	"flowscope/internal/transport"
	"flowscope/internal/utils"
)

func main() {
	var (
		configFile = flag.String("config", "configs/flowscope.yaml", "Configuration file path (YAML)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Printf("Failed to load config %s: %v\n", *configFile, err)
		fmt.Println("Using default configuration...")
		cfg = config.Default()
	} else {
		fmt.Printf("Loaded configuration from %s\n", *configFile)
	}

	logger := utils.NewLogger(cfg.Logging.Level)

	fmt.Printf("Flow source: %s (%s)\n", cfg.Stream.URL, cfg.Stream.Kind)
	fmt.Printf("History service: %s\n", cfg.Services.HistoryURL)
	fmt.Println("")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exporter := metrics.NewExporter(cfg.Metrics.Listen, logger)
	go func() {
		if err := exporter.Start(rootCtx); err != nil {
			logger.Errorf("Metrics exporter error: %v", err)
		}
	}()

	flows := store.NewFlowStore(cfg.Store.MaxFlows)
	alerts := store.NewAlertStore(cfg.Store.MaxAlerts)
	bus := events.NewBus()

	engine := rules.NewEngine(logger)
	rules.RegisterBuiltins(engine, cfg.Rules)
	registerAlertNotifiers(engine, cfg, logger)

	proc := pipeline.NewProcessor(flows, alerts, engine, bus, exporter.Metrics(), logger)

	timeout := time.Duration(cfg.Services.TimeoutSeconds) * time.Second
	seedHistory(rootCtx, cfg, proc, timeout, logger)

	source, stateFn, err := buildSource(cfg, proc, logger)
	if err != nil {
		fmt.Printf("Failed to set up flow source: %v\n", err)
		os.Exit(1)
	}
	defer source.Close()

	if err := source.Connect(proc.HandleRecord); err != nil {
		fmt.Printf("Failed to connect to flow source: %v\n", err)
		os.Exit(1)
	}

	geo := client.NewGeoIPClient(cfg.Services.GeoIPURL, timeout, logger)
	handlers := api.NewHandlers(flows, alerts, bus, geo, logger)
	handlers.StateFn = stateFn
	handlers.History = client.NewHistoryClient(cfg.Services.HistoryURL, timeout, logger)

	server := api.NewServer(cfg.API.Listen, handlers, logger)
	if err := server.Start(rootCtx); err != nil {
		logger.Errorf("API server shutdown error: %v", err)
	}
}

// buildSource picks the configured transport. Both kinds deliver raw JSON
// payloads to the same pipeline callback.
func buildSource(cfg *config.Config, proc *pipeline.Processor, logger *logrus.Logger) (transport.Source, func() string, error) {
	switch cfg.Stream.Kind {
	case "nats":
		src, err := transport.NewNATSSource(cfg.Stream.URL, cfg.Stream.Subject, logger, proc.HandleState)
		if err != nil {
			return nil, nil, err
		}
		return src, func() string { return string(transport.StateConnected) }, nil
	default:
		dialer := transport.WebsocketDialer{
			HandshakeTimeout: time.Duration(cfg.Stream.DialTimeoutS) * time.Second,
		}
		mgr := transport.NewManager(
			dialer,
			cfg.Stream.URL,
			time.Duration(cfg.Stream.BaseRetryMs)*time.Millisecond,
			time.Duration(cfg.Stream.MaxRetryMs)*time.Millisecond,
			logger,
			proc.HandleState,
		)
		return mgr, func() string { return string(mgr.State()) }, nil
	}
}

// seedHistory preloads the flow store from the history service so the log
// view is not empty on startup. Failure is not fatal.
func seedHistory(ctx context.Context, cfg *config.Config, proc *pipeline.Processor, timeout time.Duration, logger *logrus.Logger) {
	history := client.NewHistoryClient(cfg.Services.HistoryURL, timeout, logger)

	seedCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	recent, err := history.Recent(seedCtx, cfg.Services.SeedLimit)
	if err != nil {
		logger.Warnf("Could not seed from history service: %v", err)
		return
	}

	// Oldest first so the store ends up newest-first.
	for i := len(recent) - 1; i >= 0; i-- {
		proc.Ingest(pipeline.Normalize(recent[i]))
	}
	logger.Infof("Seeded %d flows from history service", len(recent))
}

func registerAlertNotifiers(engine *rules.Engine, cfg *config.Config, logger *logrus.Logger) {
	if cfg.Alerting.Channels.Log {
		engine.RegisterNotifier(alert.NewLogAlertNotifier(logger))
	}
	if cfg.Alerting.Channels.Webhook {
		engine.RegisterNotifier(alert.NewWebhookNotifier(cfg.Alerting.WebhookURL, true, logger))
	}
}
