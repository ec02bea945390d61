package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failingCall(_ context.Context) error { return errors.New("boom") }
func succeedingCall(_ context.Context) error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), failingCall)
	}
	if got := cb.State(); got != CircuitOpen {
		t.Fatalf("expected open, got %s", got)
	}

	err := cb.Execute(context.Background(), succeedingCall)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	_ = cb.Execute(context.Background(), failingCall)
	_ = cb.Execute(context.Background(), failingCall)
	_ = cb.Execute(context.Background(), succeedingCall)
	_ = cb.Execute(context.Background(), failingCall)
	_ = cb.Execute(context.Background(), failingCall)

	if got := cb.State(); got != CircuitClosed {
		t.Errorf("expected closed, got %s", got)
	}
}

func TestCircuitBreaker_HalfOpenProbeCloses(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	now := time.Now()
	cb.nowFunc = func() time.Time { return now }

	_ = cb.Execute(context.Background(), failingCall)
	if got := cb.State(); got != CircuitOpen {
		t.Fatalf("expected open, got %s", got)
	}

	// Advance past the reset timeout; the next call is the probe.
	now = now.Add(2 * time.Minute)
	if err := cb.Execute(context.Background(), succeedingCall); err != nil {
		t.Fatalf("probe should be allowed: %v", err)
	}
	if got := cb.State(); got != CircuitClosed {
		t.Errorf("expected closed after successful probe, got %s", got)
	}
}

func TestCircuitBreaker_HalfOpenProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	now := time.Now()
	cb.nowFunc = func() time.Time { return now }

	_ = cb.Execute(context.Background(), failingCall)
	now = now.Add(2 * time.Minute)
	_ = cb.Execute(context.Background(), failingCall)

	if err := cb.Execute(context.Background(), succeedingCall); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen after failed probe, got %v", err)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})

	_ = cb.Execute(context.Background(), failingCall)
	cb.Reset()

	if err := cb.Execute(context.Background(), succeedingCall); err != nil {
		t.Errorf("expected call to pass after reset: %v", err)
	}
}

func TestExecuteVal_PassesValue(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig())

	val, err := ExecuteVal(context.Background(), cb, func(_ context.Context) (int, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != 42 {
		t.Errorf("expected 42, got %d", val)
	}
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(context.Background(), failingCall)
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Errorf("unexpected transitions: %v", transitions)
	}
}
