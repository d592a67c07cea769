package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/cowprotocol/solver-rewards/internal/ratelimit"
)

func TestNew_Burst(t *testing.T) {
	tests := []struct {
		rpm       int
		wantBurst int
	}{
		{rpm: 600, wantBurst: 60},
		{rpm: 60, wantBurst: 6},
		{rpm: 5, wantBurst: 1},
	}

	for _, tt := range tests {
		if got := ratelimit.New(tt.rpm).Burst(); got != tt.wantBurst {
			t.Errorf("New(%d).Burst() = %d, want %d", tt.rpm, got, tt.wantBurst)
		}
	}
}

func TestLimiter_ExhaustsBurst(t *testing.T) {
	l := ratelimit.New(6)

	if !l.Allow() {
		t.Fatal("first call should be allowed")
	}
	if l.Allow() {
		t.Error("second call should be limited")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("expected wait to fail before the next token")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l := ratelimit.New(0)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatal("disabled limiter should allow every call")
		}
	}
}
