// Package server implements the TCP accept loop and per-connection state
// machine: the part of the service that turns bytes on a socket into
// calls against internal/txn and internal/cabinet.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cuemby/cabinetd/internal/store"
	"github.com/cuemby/cabinetd/internal/txn"
	"github.com/cuemby/cabinetd/pkg/log"
)

// pollInterval bounds how long a per-connection read blocks before the
// handler loop rechecks ctx and the connection's own quit signal. Go's
// net.Conn has no cancellable Read, so this polling read deadline stands
// in for the Rust original's tokio::select! over the socket read and two
// broadcast channels.
const pollInterval = 500 * time.Millisecond

// Config holds the accept loop's tunables.
type Config struct {
	Address    string
	MaxRetries int
}

// Server runs the accept loop and owns the backing-store handle every
// connection transacts against.
type Server struct {
	cfg      Config
	db       store.Database
	listener net.Listener
	wg       sync.WaitGroup
}

// New returns a Server bound to no socket yet; call Start to bind and
// begin accepting.
func New(db store.Database, cfg Config) *Server {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = txn.DefaultMaxRetries
	}
	return &Server{cfg: cfg, db: db}
}

// CheckPortAvailable performs the pre-bind liveness check: a synchronous
// bind-then-close that surfaces a port-in-use failure before Start commits
// to serving on the address.
func CheckPortAvailable(address string) error {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %w", address, err)
	}
	return ln.Close()
}

// Start binds the listen address and runs the accept loop until ctx is
// canceled. It blocks until every in-flight connection handler has
// returned, so the caller can rely on a clean return meaning the backing
// store has no more in-flight transaction attempts from this server.
func (s *Server) Start(ctx context.Context) error {
	return s.start(ctx, nil)
}

// start is Start with an optional readiness channel: once the listener is
// bound, the address is sent on addrReady if non-nil. Tests use this to
// learn the OS-assigned port from an "address:0" bind without sleeping.
func (s *Server) start(ctx context.Context, addrReady chan<- net.Addr) error {
	if err := CheckPortAvailable(s.cfg.Address); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Address, err)
	}
	s.listener = ln
	if addrReady != nil {
		addrReady <- ln.Addr()
	}

	serverLog := log.WithComponent("server")
	serverLog.Info().Str("address", s.cfg.Address).Msg("listening")

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stopped:
		}
	}()
	defer close(stopped)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			serverLog.Error().Err(err).Msg("accept failed")
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			handleConnection(ctx, conn, s.db, s.cfg.MaxRetries)
		}()
	}

	serverLog.Info().Msg("accept loop stopped, draining connections")
	s.wg.Wait()
	serverLog.Info().Msg("all connections drained")
	return nil
}

// Addr returns the address the server is bound to. Only meaningful after
// Start has begun listening.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
