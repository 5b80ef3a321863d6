package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cuemby/cabinetd/internal/cabinet"
	"github.com/cuemby/cabinetd/internal/server"
	"github.com/cuemby/cabinetd/internal/store"
	"github.com/cuemby/cabinetd/internal/txn"
	"github.com/cuemby/cabinetd/pkg/config"
	"github.com/cuemby/cabinetd/pkg/health"
	"github.com/cuemby/cabinetd/pkg/log"
	"github.com/cuemby/cabinetd/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "cabinetd",
	Short:   "cabinetd - multi-tenant key-value service over a transactional store",
	Version: Version,
	RunE:    runServe,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("cabinetd version %s\nCommit: %s\n", Version, Commit))

	flags := rootCmd.Flags()
	flags.StringP("address", "a", "0.0.0.0:8080", "Address to listen for client connections")
	flags.String("metrics-address", "0.0.0.0:9090", "Address to serve /metrics and /healthz")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("log-json", true, "Output logs in JSON format")
	flags.String("data-dir", "./data", "Directory holding the backing store's data file")
	flags.String("tracing-endpoint", "", "Tracing collector endpoint; spans are not yet exported, reachability is monitored via /healthz")
	flags.String("tracing-auth", "", "Tracing collector auth header value")
	flags.Int("max-retries", txn.DefaultMaxRetries, "Maximum transactional-wrapper retry attempts")
	flags.String("config", "", "Optional YAML config file; flags override its values")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
	startupLog := log.WithComponent("startup")

	if err := server.CheckPortAvailable(cfg.Address); err != nil {
		startupLog.Error().Err(err).Msg("address unavailable")
		return err
	}

	dbPath := cfg.DataDir
	if clusterPath := os.Getenv("FDB_CLUSTER_PATH"); clusterPath != "" {
		dbPath = clusterPath
	}
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		startupLog.Error().Err(err).Str("data_dir", dbPath).Msg("could not create data directory")
		return err
	}

	db, err := store.OpenBolt(filepath.Join(dbPath, "cabinetd.db"))
	if err != nil {
		startupLog.Error().Err(err).Msg("could not open backing store")
		return err
	}
	defer db.Close()
	startupLog.Info().Str("data_dir", dbPath).Msg("backing store opened")

	collector := metrics.NewCollector(statsFuncFor(db, cfg.MaxRetries), 15*time.Second)
	collector.Start()
	defer collector.Stop()
	metrics.SetActive(collector)

	metrics.SetVersion(Version)
	metrics.RegisterComponent("store", true, "ready")
	metrics.RegisterComponent("listener", false, "starting")

	metricsSrv := startMetricsServer(cfg.MetricsAddress, startupLog)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}()

	srv := server.New(db, server.Config{Address: cfg.Address, MaxRetries: cfg.MaxRetries})
	metrics.RegisterComponent("listener", true, "ready")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.TracingEndpoint != "" {
		go watchTracingEndpoint(ctx, cfg.TracingEndpoint)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		startupLog.Info().Msg("shutdown signal received")
		cancel()
	}()

	startupLog.Info().Str("address", cfg.Address).Str("metrics_address", cfg.MetricsAddress).Msg("cabinetd starting")
	if err := srv.Start(ctx); err != nil {
		startupLog.Error().Err(err).Msg("server exited with error")
		return err
	}
	startupLog.Info().Msg("shutdown complete")
	return nil
}

// resolveConfig layers an optional YAML file under explicitly-set flags:
// the file supplies defaults, flags always win.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	if flags.Changed("address") || configPath == "" {
		cfg.Address, _ = flags.GetString("address")
	}
	if flags.Changed("metrics-address") || configPath == "" {
		cfg.MetricsAddress, _ = flags.GetString("metrics-address")
	}
	if flags.Changed("log-level") || configPath == "" {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-json") || configPath == "" {
		cfg.LogJSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("data-dir") || configPath == "" {
		cfg.DataDir, _ = flags.GetString("data-dir")
	}
	if flags.Changed("tracing-endpoint") || configPath == "" {
		cfg.TracingEndpoint, _ = flags.GetString("tracing-endpoint")
	}
	if flags.Changed("tracing-auth") || configPath == "" {
		cfg.TracingAuth, _ = flags.GetString("tracing-auth")
	}
	if flags.Changed("max-retries") || configPath == "" {
		cfg.MaxRetries, _ = flags.GetInt("max-retries")
	}
	return cfg, nil
}

func startMetricsServer(address string, startupLog zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())

	httpSrv := &http.Server{Addr: address, Handler: mux}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			startupLog.Error().Err(err).Msg("metrics server error")
		}
	}()
	return httpSrv
}

// tenantStats is the tuple returned through WithTenant's single generic
// result slot.
type tenantStats struct {
	count int64
	size  int64
}

// watchTracingEndpoint periodically probes the configured tracing collector
// and reports reachability through the same component-health registry
// /healthz reads. A collector outage never affects command handling or
// startup; this only changes what /healthz reports. health.Status tracks
// consecutive failures so a single dropped probe doesn't flip the reported
// status — cfg.Retries consecutive failures must accumulate first. Probes
// are not reported while status.InStartPeriod holds, but DefaultConfig's
// StartPeriod is zero, so every probe, the first included, is reported.
func watchTracingEndpoint(ctx context.Context, endpoint string) {
	checker := health.NewTCPChecker(endpoint).WithTimeout(3 * time.Second)
	cfg := health.DefaultConfig()
	status := health.NewStatus()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	probe := func() {
		result := checker.Check(ctx)
		status.Update(result, cfg)
		if status.InStartPeriod(cfg) {
			return
		}
		metrics.RegisterComponent("tracing", status.Healthy, result.Message)
	}

	probe()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probe()
		}
	}
}

func statsFuncFor(db store.Database, maxRetries int) metrics.TenantStatsFunc {
	return func(tenant string) (int64, int64, error) {
		ctx := context.Background()
		result, err := txn.WithTenant(ctx, db, maxRetries, txn.Hooks{}, tenant, func(c *cabinet.Cabinet) (tenantStats, error) {
			count, size, err := c.Stats()
			return tenantStats{count: count, size: size}, err
		})
		return result.count, result.size, err
	}
}
