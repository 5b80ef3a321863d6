package metrics

import (
	"sync"
	"time"
)

// TenantStatsFunc reads a tenant's current item count and byte size from
// the backing store. cmd/cabinetd supplies this via internal/txn and
// internal/cabinet; this package only needs the signature so it can poll
// without importing store-layer packages.
type TenantStatsFunc func(tenant string) (count, size int64, err error)

// Collector periodically refreshes the per-tenant gauges for every tenant
// that has authenticated since the process started. Per-command updates in
// the connection handler already keep an active tenant's gauges current;
// this ticker exists so a tenant's gauges stay live even between that
// tenant's own commands, while other tenants' connections are writing
// through the shared backing store.
type Collector struct {
	statsFn TenantStatsFunc
	period  time.Duration

	mu      sync.Mutex
	tenants map[string]struct{}
	stopCh  chan struct{}
}

// NewCollector returns a Collector that calls statsFn for each known tenant
// every period.
func NewCollector(statsFn TenantStatsFunc, period time.Duration) *Collector {
	return &Collector{
		statsFn: statsFn,
		period:  period,
		tenants: make(map[string]struct{}),
		stopCh:  make(chan struct{}),
	}
}

// Observe registers tenant as known, so future ticks include it. Safe to
// call repeatedly; the connection handler calls this on every successful
// AUTH.
func (c *Collector) Observe(tenant string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tenants[tenant] = struct{}{}
}

// Start begins the periodic refresh loop in a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.period)
	go func() {
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the refresh loop.
func (c *Collector) Stop() {
	close(c.stopCh)
}

// active holds the process-wide Collector, if cmd/cabinetd installed one.
// The connection handler calls Observe on every AUTH without needing a
// reference threaded through Server/connState.
var active *Collector

// SetActive installs c as the process-wide Collector.
func SetActive(c *Collector) {
	active = c
}

// Observe registers tenant with the active Collector, if any. A no-op when
// no Collector has been installed, e.g. in tests that construct a server
// without metrics wiring.
func Observe(tenant string) {
	if active != nil {
		active.Observe(tenant)
	}
}

func (c *Collector) collect() {
	c.mu.Lock()
	tenants := make([]string, 0, len(c.tenants))
	for t := range c.tenants {
		tenants = append(tenants, t)
	}
	c.mu.Unlock()

	for _, tenant := range tenants {
		count, size, err := c.statsFn(tenant)
		if err != nil {
			continue
		}
		TenantCount.WithLabelValues(tenant).Set(float64(count))
		TenantSizeBytes.WithLabelValues(tenant).Set(float64(size))
	}
}
