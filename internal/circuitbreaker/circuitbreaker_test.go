package circuitbreaker_test

import (
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/cowprotocol/solver-rewards/internal/circuitbreaker"
)

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := circuitbreaker.DefaultConfig("test")
	cfg.ConsecutiveFailures = 2

	var transitions []gobreaker.State
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}
	cb := circuitbreaker.New[int](cfg)

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("expected open breaker, got %s", cb.State())
	}

	called := false
	_, err := cb.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected ErrOpenState, got %v", err)
	}
	if called {
		t.Error("open breaker should not call fn")
	}
	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Errorf("unexpected transitions %v", transitions)
	}
}

func TestCircuitBreaker_PassesResult(t *testing.T) {
	cb := circuitbreaker.New[string](circuitbreaker.DefaultConfig("ok"))

	got, err := cb.Execute(func() (string, error) { return "price", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "price" {
		t.Errorf("expected price, got %s", got)
	}
	if cb.Name() != "ok" {
		t.Errorf("expected name ok, got %s", cb.Name())
	}
}
