package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsActive tracks the number of currently open client connections.
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cabinetd_connections_active",
			Help: "Number of currently open client connections",
		},
	)

	// ConnectionsTotal counts accepted connections since startup.
	ConnectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cabinetd_connections_total",
			Help: "Total number of accepted TCP connections",
		},
	)

	// CommandsTotal counts commands processed per command kind and outcome.
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cabinetd_commands_total",
			Help: "Total number of protocol commands handled, by command and outcome",
		},
		[]string{"command", "outcome"},
	)

	// CommandDuration tracks time spent executing a command end to end.
	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cabinetd_command_duration_seconds",
			Help:    "Time taken to execute a protocol command, in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// TransactionRetriesTotal counts retry attempts the transactional wrapper made.
	TransactionRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cabinetd_transaction_retries_total",
			Help: "Total number of retried backing-store transaction attempts",
		},
	)

	// TenantCount reports the live item count for a tenant, refreshed periodically.
	TenantCount = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cabinetd_tenant_item_count",
			Help: "Current item count (cardinality) per tenant",
		},
		[]string{"tenant"},
	)

	// TenantSizeBytes reports the total stored byte size for a tenant.
	TenantSizeBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cabinetd_tenant_size_bytes",
			Help: "Current total stored byte size per tenant",
		},
		[]string{"tenant"},
	)
)

func init() {
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(ConnectionsTotal)
	prometheus.MustRegister(CommandsTotal)
	prometheus.MustRegister(CommandDuration)
	prometheus.MustRegister(TransactionRetriesTotal)
	prometheus.MustRegister(TenantCount)
	prometheus.MustRegister(TenantSizeBytes)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
