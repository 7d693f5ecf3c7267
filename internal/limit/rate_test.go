package limit

import (
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, maxCount int, sweepEvery time.Duration) *RateLimiter {
	t.Helper()
	l := NewRateLimiter(maxCount, sweepEvery)
	t.Cleanup(l.Stop)
	return l
}

func TestWindowLifecycle(t *testing.T) {
	l := newTestLimiter(t, 5, time.Hour) // sweep only on demand

	l.StartWindow("k", 50*time.Millisecond)
	w := l.Get("k")
	if w == nil {
		t.Fatal("window missing right after start")
	}
	if w.Count != 0 {
		t.Fatalf("fresh window count = %d", w.Count)
	}

	l.Increment("k")
	l.Increment("k")
	if got := l.Get("k").Count; got != 2 {
		t.Fatalf("count = %d, want 2", got)
	}

	// Lazy expiry: Get sweeps before reading.
	time.Sleep(60 * time.Millisecond)
	if w := l.Get("k"); w != nil {
		t.Fatalf("expired window survived read: %+v", w)
	}
}

func TestIncrementWithoutWindowIsNoop(t *testing.T) {
	l := newTestLimiter(t, 5, time.Hour)

	l.Increment("nope")
	if w := l.Get("nope"); w != nil {
		t.Fatalf("increment created a window: %+v", w)
	}
}

func TestStartWindowResets(t *testing.T) {
	l := newTestLimiter(t, 5, time.Hour)

	l.StartWindow("k", time.Second)
	l.Increment("k")
	l.StartWindow("k", time.Second)
	if got := l.Get("k").Count; got != 0 {
		t.Fatalf("restart kept count %d", got)
	}
}

func TestGuardOpensWindowAndCounts(t *testing.T) {
	l := newTestLimiter(t, 3, time.Hour)

	if !l.Guard("k", nil) {
		t.Fatal("first guarded event must pass")
	}
	w := l.Get("k")
	if w == nil || w.Duration != DefaultWindow {
		t.Fatalf("implicit window = %+v", w)
	}

	for i := 0; i < 3; i++ {
		if !l.Guard("k", nil) {
			t.Fatalf("event %d within budget rejected", i)
		}
	}
}

func TestGuardRejectsBeyondMax(t *testing.T) {
	l := newTestLimiter(t, 2, time.Hour)

	// First call opens the window; each following allowed call increments.
	// The counter must pass maxCount before guard trips.
	allowed := 0
	for i := 0; i < 10; i++ {
		if !l.Guard("k", nil) {
			break
		}
		allowed++
	}
	if allowed != 4 {
		t.Fatalf("allowed = %d, want 4 (open + counts 1..3)", allowed)
	}

	fired := false
	if l.Guard("k", func() { fired = true }) {
		t.Fatal("guard must keep rejecting")
	}
	if !fired {
		t.Fatal("onExceeded not invoked")
	}
}

func TestGuardRecoversAfterExpiry(t *testing.T) {
	l := newTestLimiter(t, 1, time.Hour)

	for l.Guard("k", nil) {
	}

	// The window's own duration passes; guard sweeps and starts fresh.
	time.Sleep(DefaultWindow + 50*time.Millisecond)
	if !l.Guard("k", nil) {
		t.Fatal("guard must allow again after the window expired")
	}
}

func TestBackgroundSweep(t *testing.T) {
	l := newTestLimiter(t, 5, 20*time.Millisecond)

	l.StartWindow("k1", 30*time.Millisecond)
	l.StartWindow("k2", 50*time.Millisecond)
	l.StartWindow("k3", 10*time.Millisecond)

	time.Sleep(120 * time.Millisecond)

	// peek skips the eager sweep, so only the background timer can have
	// removed these.
	for _, key := range []string{"k1", "k2", "k3"} {
		if w := l.peek(key); w != nil {
			t.Fatalf("window %s survived the background sweep: %+v", key, w)
		}
	}
}

func TestStopIsIdempotent(t *testing.T) {
	l := NewRateLimiter(5, 10*time.Millisecond)
	l.Stop()
	l.Stop()
}

func TestSweepKeepsLiveWindows(t *testing.T) {
	l := newTestLimiter(t, 5, time.Hour)

	l.StartWindow("short", 10*time.Millisecond)
	l.StartWindow("long", time.Hour)

	time.Sleep(20 * time.Millisecond)
	l.Sweep()

	if w := l.peek("short"); w != nil {
		t.Fatalf("stale window survived sweep: %+v", w)
	}
	if w := l.peek("long"); w == nil {
		t.Fatal("live window removed by sweep")
	}
}
