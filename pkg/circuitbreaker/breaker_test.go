package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBreakerOpensAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		FailureThreshold: 3,
		Timeout:          time.Minute,
	})

	failing := errors.New("downstream failure")
	for i := 0; i < 3; i++ {
		if err := cb.Execute(context.Background(), func() error { return failing }); !errors.Is(err, failing) {
			t.Fatalf("attempt %d error = %v, want downstream failure", i+1, err)
		}
	}

	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %s, want open", got)
	}

	err := cb.Execute(context.Background(), func() error {
		t.Fatal("function must not run while open")
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("error = %v, want ErrCircuitOpen", err)
	}
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{FailureThreshold: 2})

	failing := errors.New("boom")
	cb.Execute(context.Background(), func() error { return failing })
	cb.Execute(context.Background(), func() error { return nil })
	cb.Execute(context.Background(), func() error { return failing })

	if got := cb.State(); got != StateClosed {
		t.Errorf("state = %s, want closed", got)
	}
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		MaxRequests:      2,
		Timeout:          10 * time.Millisecond,
	})

	cb.Execute(context.Background(), func() error { return errors.New("boom") })
	if got := cb.State(); got != StateOpen {
		t.Fatalf("state = %s, want open", got)
	}

	time.Sleep(15 * time.Millisecond)
	if got := cb.State(); got != StateHalfOpen {
		t.Fatalf("state after timeout = %s, want half-open", got)
	}

	for i := 0; i < 2; i++ {
		if err := cb.Execute(context.Background(), func() error { return nil }); err != nil {
			t.Fatalf("probe %d error = %v", i+1, err)
		}
	}

	if got := cb.State(); got != StateClosed {
		t.Errorf("state after probes = %s, want closed", got)
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", Config{
		FailureThreshold: 1,
		Timeout:          10 * time.Millisecond,
	})

	cb.Execute(context.Background(), func() error { return errors.New("boom") })
	time.Sleep(15 * time.Millisecond)

	cb.Execute(context.Background(), func() error { return errors.New("still broken") })
	if got := cb.State(); got != StateOpen {
		t.Errorf("state = %s, want open", got)
	}
}
