package server

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/cuemby/cabinetd/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPortAvailableDetectsConflict(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = CheckPortAvailable(ln.Addr().String())
	assert.Error(t, err)
}

func TestCheckPortAvailableSucceedsOnFreePort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	assert.NoError(t, CheckPortAvailable(addr))
}

func TestServerAcceptsConnectionsAndServesCommands(t *testing.T) {
	db := store.NewMemory()
	srv := New(db, Config{Address: "127.0.0.1:0", MaxRetries: 10})

	ctx, cancel := context.WithCancel(context.Background())
	serverErr := make(chan error, 1)
	addrReady := make(chan net.Addr, 1)

	go func() {
		serverErr <- srv.start(ctx, addrReady)
	}()

	var addr net.Addr
	select {
	case addr = <-addrReady:
	case <-time.After(2 * time.Second):
		t.Fatal("server never started listening")
	}

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	reader := bufio.NewReader(conn)

	_, err = conn.Write([]byte(`auth "acme"`))
	require.NoError(t, err)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "OK\n", line)

	conn.Close()
	cancel()

	select {
	case err := <-serverErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}
