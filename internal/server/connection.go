package server

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/cuemby/cabinetd/internal/cabinet"
	"github.com/cuemby/cabinetd/internal/protocol"
	"github.com/cuemby/cabinetd/internal/store"
	"github.com/cuemby/cabinetd/internal/txn"
	"github.com/cuemby/cabinetd/pkg/log"
	"github.com/cuemby/cabinetd/pkg/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// connState is the per-connection state machine: unauthenticated until an
// AUTH command succeeds, after which every data command runs against
// tenant.
type connState struct {
	tenant        string
	authenticated bool
	log           zerolog.Logger
}

func handleConnection(ctx context.Context, conn net.Conn, db store.Database, maxRetries int) {
	defer conn.Close()

	connID := uuid.NewString()
	connLog := log.WithConn(log.WithComponent("server"), connID)
	connLog.Info().Str("remote_addr", conn.RemoteAddr().String()).Msg("accepted connection")

	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	state := &connState{log: connLog}
	quit := make(chan struct{})
	buf := make([]byte, 1024)

	for {
		select {
		case <-ctx.Done():
			state.log.Info().Msg("shutdown signal received, closing connection")
			return
		case <-quit:
			state.log.Info().Msg("client sent quit")
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(pollInterval))
		n, err := conn.Read(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, io.EOF) {
				state.log.Info().Msg("connection closed by client")
			} else {
				state.log.Warn().Err(err).Msg("read error, closing connection")
			}
			return
		}

		if err := handleBuffer(ctx, buf[:n], conn, db, maxRetries, state, quit); err != nil {
			state.log.Warn().Err(err).Msg("write error, closing connection")
			return
		}
	}
}

// handleBuffer parses every pipelined command in raw and writes each
// command's response before moving to the next, per the wire protocol's
// in-order guarantee. It returns a non-nil error only on a write failure,
// and nil once the buffer is exhausted or a QUIT has been answered; a
// closed quit channel signals the caller to stop reading further buffers.
func handleBuffer(ctx context.Context, raw []byte, conn net.Conn, db store.Database, maxRetries int, state *connState, quit chan struct{}) error {
	parser := protocol.NewParser(raw)

	for {
		cmd, parseErr, ok := parser.Next()
		if !ok {
			return nil
		}
		if parseErr != nil {
			if _, err := conn.Write(protocol.Err(parseErr.Error())); err != nil {
				return err
			}
			continue
		}

		resp, shouldQuit := dispatch(ctx, cmd, db, maxRetries, state)
		if _, err := conn.Write(resp); err != nil {
			return err
		}
		if shouldQuit {
			close(quit)
			return nil
		}
	}
}

func dispatch(ctx context.Context, cmd protocol.Command, db store.Database, maxRetries int, state *connState) (resp []byte, quit bool) {
	switch cmd.Kind {
	case protocol.Auth:
		if cmd.Tenant == "" {
			return protocol.AuthFailed(), false
		}
		state.tenant = cmd.Tenant
		state.authenticated = true
		state.log = log.WithTenant(state.log, cmd.Tenant)
		state.log.Info().Msg("authenticated")
		metrics.Observe(cmd.Tenant)
		return protocol.OK(), false

	case protocol.Unknown:
		return protocol.UnknownCommand(), false

	case protocol.Quit:
		return protocol.OK(), true

	default:
		if !state.authenticated || state.tenant == "" {
			return protocol.AuthRequired(), false
		}
		return dispatchData(ctx, cmd, db, maxRetries, state), false
	}
}

func dispatchData(ctx context.Context, cmd protocol.Command, db store.Database, maxRetries int, state *connState) []byte {
	name := commandName(cmd.Kind)
	timer := metrics.NewTimer()

	hooks := txn.Hooks{
		OnRetry: func(attempt int, err error) {
			metrics.TransactionRetriesTotal.Inc()
			state.log.Warn().Err(err).Int("attempt", attempt).Str("command", name).Msg("retrying transaction")
		},
	}

	var count, size int64
	resp, err := txn.WithTenant(ctx, db, maxRetries, hooks, state.tenant, func(c *cabinet.Cabinet) ([]byte, error) {
		r, execErr := execute(cmd, c)
		if execErr != nil {
			return nil, execErr
		}
		// Read the tenant's counters inside the same attempt that just
		// mutated them, so the exported gauges below always reflect a
		// committed value rather than a stale one from a failed attempt.
		count, size, execErr = c.Stats()
		return r, execErr
	})

	timer.ObserveDurationVec(metrics.CommandDuration, name)

	if err != nil {
		metrics.CommandsTotal.WithLabelValues(name, "error").Inc()
		state.log.Error().Err(err).Str("command", name).Msg("command failed")
		return protocol.Err(err.Error())
	}

	metrics.CommandsTotal.WithLabelValues(name, "ok").Inc()
	metrics.TenantCount.WithLabelValues(state.tenant).Set(float64(count))
	metrics.TenantSizeBytes.WithLabelValues(state.tenant).Set(float64(size))
	return resp
}

func execute(cmd protocol.Command, c *cabinet.Cabinet) ([]byte, error) {
	switch cmd.Kind {
	case protocol.Put:
		if err := c.Put(cmd.Key, cmd.Value); err != nil {
			return nil, err
		}
		return protocol.OK(), nil

	case protocol.Get:
		v, ok, err := c.Get(cmd.Key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return protocol.Nil(), nil
		}
		return protocol.Value(v)

	case protocol.Delete:
		err := c.Delete(cmd.Key)
		if errors.Is(err, cabinet.ErrNotFound) {
			return protocol.Nil(), nil
		}
		if err != nil {
			return nil, err
		}
		return protocol.OK(), nil

	case protocol.Clear:
		if err := c.Clear(); err != nil {
			return nil, err
		}
		return protocol.OK(), nil

	case protocol.Stats:
		count, size, err := c.Stats()
		if err != nil {
			return nil, err
		}
		return protocol.Stats(count, size), nil

	default:
		return protocol.UnknownCommand(), nil
	}
}

func commandName(k protocol.Kind) string {
	switch k {
	case protocol.Auth:
		return "auth"
	case protocol.Put:
		return "put"
	case protocol.Get:
		return "get"
	case protocol.Delete:
		return "delete"
	case protocol.Clear:
		return "clear"
	case protocol.Stats:
		return "stats"
	case protocol.Quit:
		return "quit"
	default:
		return "unknown"
	}
}
