package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	if !rl.allow(now) || !rl.allow(now.Add(time.Second)) {
		t.Fatalf("first two messages should pass")
	}
	if rl.allow(now.Add(2 * time.Second)) {
		t.Fatalf("third message in window should be limited")
	}
	if !rl.allow(now.Add(time.Minute)) {
		t.Fatalf("new window should reset the counter")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := newRateLimiter(0, time.Minute)
	now := time.Now()
	for i := 0; i < 1000; i++ {
		if !rl.allow(now) {
			t.Fatalf("disabled limiter rejected message %d", i)
		}
	}
}
