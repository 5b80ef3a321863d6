/*
Package metrics provides Prometheus metrics collection and exposition for
cabinetd.

The metrics package defines and registers every cabinetd metric using the
Prometheus client library, providing observability into connection
lifecycle, command throughput and latency, transaction retries, and
per-tenant resource usage. Metrics are exposed via an HTTP endpoint for
scraping by a Prometheus server, alongside JSON health/readiness/liveness
endpoints.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (open connections)   │          │
	│  │  Counter: Monotonic increases (commands)    │          │
	│  │  Histogram: Distributions (command latency) │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Connection: active, total accepted         │          │
	│  │  Command: count by command+outcome, latency │          │
	│  │  Transaction: retry count                   │          │
	│  │  Tenant: item count, byte size per tenant   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Prometheus Server                   │          │
	│  │  - Scrapes /metrics periodically            │          │
	│  │  - Stores time series data                  │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Metric Registry:
  - Global Prometheus DefaultRegistry
  - All metrics registered at package init
  - Thread-safe for concurrent updates

Timer Helper:
  - Convenience wrapper for timing operations
  - Start timer, observe duration to a histogram (plain or vector)

Collector:
  - Periodically refreshes TenantCount/TenantSizeBytes for every tenant
    that has authenticated at least once
  - Per-command updates from internal/server already keep an active
    tenant's gauges current; the Collector's ticker covers the gap
    between that tenant's own commands
  - Tenants register themselves via Observe, called from the connection
    handler's AUTH path

HealthChecker:
  - Tracks named component health ("store", "listener") set by
    cmd/cabinetd during startup
  - Backs the /healthz, /ready, and /live HTTP handlers

# Metrics Catalog

cabinetd_connections_active:
  - Type: Gauge
  - Description: Number of currently open client connections

cabinetd_connections_total:
  - Type: Counter
  - Description: Total accepted TCP connections since startup

cabinetd_commands_total{command, outcome}:
  - Type: Counter
  - Description: Protocol commands handled, by command and outcome (ok/error)

cabinetd_command_duration_seconds{command}:
  - Type: Histogram
  - Description: Time to execute a protocol command end to end, including
    any transactional-wrapper retries

cabinetd_transaction_retries_total:
  - Type: Counter
  - Description: Retried backing-store transaction attempts

cabinetd_tenant_item_count{tenant}:
  - Type: Gauge
  - Description: Live item count (cardinality) for a tenant

cabinetd_tenant_size_bytes{tenant}:
  - Type: Gauge
  - Description: Live total stored byte size for a tenant

# Usage

Updating metrics from the command path:

	metrics.CommandsTotal.WithLabelValues("put", "ok").Inc()
	metrics.TenantCount.WithLabelValues(tenant).Set(float64(count))

Timing a command:

	timer := metrics.NewTimer()
	// ... execute command ...
	timer.ObserveDurationVec(metrics.CommandDuration, "put")

Periodic tenant gauge refresh:

	collector := metrics.NewCollector(statsFn, 15*time.Second)
	collector.Start()
	metrics.SetActive(collector)
	defer collector.Stop()

	// on every successful AUTH:
	metrics.Observe(tenant)

Serving metrics and health endpoints:

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", metrics.HealthHandler())
	http.ListenAndServe(metricsAddress, mux)

# Integration Points

This package integrates with:

  - internal/server: instruments connection lifecycle, command counters,
    and command latency
  - internal/txn: retry counts surfaced through a Hooks.OnRetry callback,
    keeping internal/txn free of a direct pkg/metrics import
  - cmd/cabinetd: wires the Collector, registers component health, and
    serves the HTTP endpoints

# Design Patterns

Package Init Registration:
  - All metrics registered in init()
  - MustRegister panics on duplicate registration

Label Discipline:
  - tenant is the only unbounded-ish label in this catalog; cabinetd
    tenants are expected to number in the tens to low thousands, well
    within Prometheus's practical cardinality budget

Global Metrics:
  - Package-level variables, accessible from any cabinetd package
  - No initialization required by callers

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
