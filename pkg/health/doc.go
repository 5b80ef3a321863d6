/*
Package health provides a small checker abstraction for monitoring the
reachability of cabinetd's optional external dependencies.

cabinetd's only always-on dependency is its backing store, which
internal/server and cmd/cabinetd check directly (store.OpenBolt failing
is a startup failure; pkg/metrics.RegisterComponent("store", ...) reports
its ongoing status). This package exists for the dependency that is
optional and genuinely external: a configured --tracing-endpoint. When
one is set, cmd/cabinetd runs a TCPChecker against it on an interval and
reports the result through the same component-health registry the
/healthz endpoint reads, without blocking startup or command handling on
a collector that may be unreachable.

# Checker Interface

	Check(ctx) Result
	Type() CheckType

Result carries Healthy, a human-readable Message, and timing information.
Only CheckTypeTCP has an implementation in this package — cabinetd has no
HTTP or exec-based dependency to check.

Config/Status/NewStatus track consecutive check outcomes across calls, so
a single dropped probe doesn't flip a dependency's reported health: it
takes Config.Retries consecutive failures. Status.InStartPeriod reports
whether Config.StartPeriod is still running, so a caller can hold back
reporting a slow-starting dependency; Update counts failures either way.

# Usage

	checker := health.NewTCPChecker(endpoint).WithTimeout(3 * time.Second)
	cfg := health.DefaultConfig()
	status := health.NewStatus()

	result := checker.Check(ctx)
	status.Update(result, cfg)
	if !status.InStartPeriod(cfg) {
		metrics.RegisterComponent("tracing", status.Healthy, result.Message)
	}

# See Also

  - pkg/metrics: exposes component health via /healthz
*/
package health
