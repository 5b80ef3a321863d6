/*
Package log provides structured logging for cabinetd using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific and connection-specific child loggers, configurable log
levels, and helper functions for common logging patterns. All logs include
timestamps and support filtering by severity level.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout or custom writer          │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Context Loggers                     │          │
	│  │  - WithComponent("server")                  │          │
	│  │  - WithConn(connID)                         │          │
	│  │  - WithTenant(tenant)                       │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  {"level":"info","component":"server",      │          │
	│  │   "conn_id":"...","tenant":"acme",          │          │
	│  │   "time":"...","message":"..."}             │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from every cabinetd package
  - Thread-safe concurrent writes

Log Levels:
  - Debug: accepted by Init; no cabinetd code path logs at it
  - Info: startup progress, connection lifecycle, auth, shutdown
  - Warn: retried transactions, socket read and write errors
  - Error: failed commands (non-retryable backing-store or codec
    failures) and startup failures (bind failure, backing store
    unreachable); Level has no Fatal value

Context Loggers:
  - WithComponent: tag logs with a subsystem name (server, store, txn)
  - WithConn: tag logs with the connection's correlation ID
  - WithTenant: tag logs with the authenticated tenant

# Usage

Initializing the logger:

	import "github.com/cuemby/cabinetd/pkg/log"

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Per-connection logging:

	connLog := log.WithConn(log.WithComponent("server"), connID)
	connLog.Info().Msg("accepted connection")

	connLog = log.WithTenant(connLog, tenant)
	connLog.Info().Str("command", "put").Msg("authenticated")

Structured logging:

	log.Logger.Error().
		Err(err).
		Str("tenant", tenant).
		Str("command", "get").
		Msg("backing store returned a non-retryable error")

# Log Output Examples

JSON (production):

	{"level":"info","component":"server","conn_id":"3f9a...","remote_addr":"127.0.0.1:52114","time":"2026-07-30T10:30:00Z","message":"accepted connection"}
	{"level":"warn","component":"server","conn_id":"3f9a...","tenant":"acme","error":"store: update: timeout","attempt":0,"command":"put","time":"2026-07-30T10:30:01Z","message":"retrying transaction"}
	{"level":"error","component":"server","conn_id":"3f9a...","tenant":"acme","error":"store: update: invalid count stats value","command":"stats","time":"2026-07-30T10:30:02Z","message":"command failed"}

Console (development):

	2026-07-30T10:30:00Z INF accepted connection component=server conn_id=3f9a... remote_addr=127.0.0.1:52114
	2026-07-30T10:30:01Z WRN retrying transaction error="store: update: timeout" attempt=0 command=put component=server conn_id=3f9a... tenant=acme
	2026-07-30T10:30:02Z ERR command failed error="store: update: invalid count stats value" command=stats component=server conn_id=3f9a... tenant=acme

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance, initialized once at startup
  - Accessible from all packages without threading a logger through

Context Logger Pattern:
  - Build a connection-scoped child logger once per accepted socket
  - Promote it to tenant-scoped once AUTH succeeds
  - Pass the scoped logger down into command dispatch, not the global one

Structured Logging Pattern:
  - Typed fields (.Str, .Int64, .Err), never string concatenation
  - Keeps tenant and command identifiers queryable in aggregated logs

# Best Practices

Do:
  - Use Info level in production
  - Tag every connection's logs with conn_id from acceptance to close
  - Log retried transactions at Warn with the attempt number
  - Log errors with .Err() for structured stack context

Don't:
  - Log stored values (may contain tenant data)
  - Expect per-command detail at Debug level (nothing logs at Debug)
  - Block on log writes in the per-connection goroutine's hot path

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
*/
package log
