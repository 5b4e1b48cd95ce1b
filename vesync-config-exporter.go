package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncClient"
	"github.com/zabeloliver/vesync-config-exporter/vesync-api/vesyncConfig"
)

var (
	sugar      = zap.NewNop().Sugar()
	configPath string
	once       bool
)

func NewLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{
		"stdout", "vesync_exporter.log",
	}
	return cfg.Build()
}

func initLogger() {
	logger, err := NewLogger()
	if err != nil {
		logger = zap.NewExample()
	}
	sugar = logger.Sugar()
}

func initCliFlags() {
	flag.StringVar(&configPath, "configFile", "config.yaml", "Path to the config.yaml File.")
	flag.BoolVar(&once, "once", false, "Fetch the device configuration once, log it and exit.")
	flag.Parse()
}

// refresh runs one linkage and one specification fetch and publishes the
// outcome. Both fetches share the fetcher, so refresh must not run concurrently.
func refresh(ctx context.Context, fetcher *vesyncConfig.ConfigFetcher, m *metrics, sink *influxSink) {
	linkage := fetcher.GetLinkage(ctx)
	if linkage != vesyncConfig.LinkageProcessed {
		sugar.Warnf("Linkage properties not updated: %s", linkage)
	}
	if m != nil {
		m.observeLinkage(linkage, fetcher.Linkage())
	}

	ok, err := fetcher.GetSpecs(ctx)
	if err != nil {
		sugar.Errorf("Device specifications rejected: %s", err)
	} else if !ok {
		sugar.Warn("Device specifications not updated")
	}
	now := time.Now()
	if m != nil {
		m.observeSpecs(ok, err, fetcher.Specs())
		m.observeRefresh(now)
	}

	if ok && sink != nil {
		if err := sink.writeSpecs(ctx, fetcher.Specs(), fetcher.Linkage(), now); err != nil {
			sugar.Errorf("Writing to InfluxDB failed: %s", err)
		}
	}
}

func logSpecs(fetcher *vesyncConfig.ConfigFetcher) {
	linkage := fetcher.Linkage()
	for module, spec := range fetcher.Specs() {
		sugar.Infow("Device specification",
			"configModule", module,
			"type", spec.Type,
			"model", spec.Model,
			"modelName", spec.ModelName,
			"modelDisplay", spec.ModelDisplay,
			"linkageActions", len(linkage[module]),
		)
	}
}

func main() {
	initLogger()
	defer sugar.Sync() // flushes buffer, if any
	initCliFlags()

	cfg, err := loadConfig(viper.GetViper(), configPath)
	if err != nil {
		sugar.Fatalf("Error while reading config file: %s", err)
	}
	sugar.Infof("Configuration from %v", redactedSettings(viper.GetViper()))
	if len(cfg.Vesync.Modules) == 0 {
		sugar.Warn("No configuration modules configured, nothing will match")
	}

	apiClient := vesyncClient.NewVesyncApiClient(cfg.Vesync.Host, cfg.timeout(), cfg.session(), sugar)
	fetcher := vesyncConfig.NewConfigFetcher(apiClient, cfg.Vesync.Modules, sugar)
	sugar.Infof("Known configuration modules: %v", fetcher.ModuleIds())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if once {
		refresh(ctx, fetcher, nil, nil)
		logSpecs(fetcher)
		return
	}

	sink, closeSink := newInfluxSink(cfg, sugar)
	defer closeSink()

	sugar.Info("Creating Metrics-Registry")
	// Create a non-global registry.
	reg := prometheus.NewRegistry()

	sugar.Info("Registering Metrics")
	reg.MustRegister(collectors.NewBuildInfoCollector())
	reg.MustRegister(collectors.NewGoCollector())
	m := NewMetrics(reg)

	go func() {
		ticker := time.NewTicker(cfg.refreshInterval())
		defer ticker.Stop()
		for {
			refresh(ctx, fetcher, m, sink)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	server := &http.Server{Addr: ":" + cfg.Metrics.Port}
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	go func() {
		<-ctx.Done()
		sugar.Info("Catch Keyboard interrupt")
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = server.Shutdown(shutdownCtx)
	}()

	sugar.Infof("Metrics served at: %v", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		sugar.Fatal(err)
	}
}
