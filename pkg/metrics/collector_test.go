package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRefreshesObservedTenants(t *testing.T) {
	calls := make(chan string, 8)
	statsFn := func(tenant string) (int64, int64, error) {
		calls <- tenant
		return 3, 30, nil
	}

	c := NewCollector(statsFn, 10*time.Millisecond)
	c.Observe("acme")
	c.Start()
	defer c.Stop()

	select {
	case tenant := <-calls:
		assert.Equal(t, "acme", tenant)
	case <-time.After(time.Second):
		t.Fatal("collector never polled the observed tenant")
	}
}

func TestCollectorSkipsUnobservedTenants(t *testing.T) {
	called := make(chan struct{}, 1)
	statsFn := func(tenant string) (int64, int64, error) {
		called <- struct{}{}
		return 0, 0, nil
	}

	c := NewCollector(statsFn, 10*time.Millisecond)
	c.Start()
	defer c.Stop()

	select {
	case <-called:
		t.Fatal("collector polled a tenant that was never observed")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestActiveObserveIsNoOpWithoutInstalledCollector(t *testing.T) {
	active = nil
	require.NotPanics(t, func() { Observe("acme") })
}

func TestSetActiveInstallsCollector(t *testing.T) {
	c := NewCollector(func(string) (int64, int64, error) { return 0, 0, nil }, time.Hour)
	SetActive(c)
	defer SetActive(nil)

	Observe("tenant-a")

	c.mu.Lock()
	_, ok := c.tenants["tenant-a"]
	c.mu.Unlock()
	assert.True(t, ok)
}
