package health

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Interval != 30*time.Second {
		t.Errorf("expected 30s interval, got %v", cfg.Interval)
	}
	if cfg.Retries != 3 {
		t.Errorf("expected 3 retries, got %d", cfg.Retries)
	}
}

func TestNewStatusStartsHealthy(t *testing.T) {
	status := NewStatus()

	if !status.Healthy {
		t.Error("expected a fresh status to start healthy")
	}
	if status.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
}

func TestStatusStaysHealthyBeforeRetryThreshold(t *testing.T) {
	status := NewStatus()
	cfg := DefaultConfig()

	status.Update(Result{Healthy: false, CheckedAt: time.Now()}, cfg)
	status.Update(Result{Healthy: false, CheckedAt: time.Now()}, cfg)

	if !status.Healthy {
		t.Error("expected status to stay healthy below the retry threshold")
	}
	if status.ConsecutiveFailures != 2 {
		t.Errorf("expected 2 consecutive failures, got %d", status.ConsecutiveFailures)
	}
}

func TestStatusFlipsUnhealthyAtRetryThreshold(t *testing.T) {
	status := NewStatus()
	cfg := DefaultConfig()

	for i := 0; i < cfg.Retries; i++ {
		status.Update(Result{Healthy: false, CheckedAt: time.Now()}, cfg)
	}

	if status.Healthy {
		t.Error("expected status to flip unhealthy once failures reach cfg.Retries")
	}
}

func TestStatusRecoversOnSuccess(t *testing.T) {
	status := NewStatus()
	cfg := DefaultConfig()

	for i := 0; i < cfg.Retries; i++ {
		status.Update(Result{Healthy: false, CheckedAt: time.Now()}, cfg)
	}
	status.Update(Result{Healthy: true, CheckedAt: time.Now()}, cfg)

	if !status.Healthy {
		t.Error("expected a single success to mark status healthy again")
	}
	if status.ConsecutiveFailures != 0 {
		t.Errorf("expected consecutive failures reset to 0, got %d", status.ConsecutiveFailures)
	}
}

func TestInStartPeriod(t *testing.T) {
	status := NewStatus()
	cfg := Config{StartPeriod: time.Hour}

	if !status.InStartPeriod(cfg) {
		t.Error("expected a freshly started status to be within its start period")
	}

	cfg.StartPeriod = 0
	if status.InStartPeriod(cfg) {
		t.Error("expected InStartPeriod to be false when StartPeriod is unset")
	}
}
