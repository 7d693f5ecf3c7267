package limit

import (
	"sync"
	"time"
)

// DefaultWindow is the duration Guard uses when it opens a window
// implicitly.
const DefaultWindow = time.Second

// Window is one bounded-duration counting interval for a single key.
type Window struct {
	Start    time.Time
	Duration time.Duration
	Count    int
}

func (w *Window) expired(now time.Time) bool {
	return now.Sub(w.Start) >= w.Duration
}

// RateLimiter bounds per-address event throughput with lazily expired
// counter windows. A window restarts its own clock on first use and is torn
// down wholesale once stale instead of rolling, which keeps memory at O(1)
// per active address with no per-event timestamps. Expiry runs eagerly
// before every read and periodically on a background sweep, so the map
// cannot grow unboundedly even when nothing reads it.
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*Window

	maxCount   int
	sweepEvery time.Duration

	done     chan struct{}
	stopOnce sync.Once

	now func() time.Time
}

// NewRateLimiter constructs a limiter allowing maxCount guarded events per
// window and starts the background sweep. Callers own the lifecycle and
// must Stop it on shutdown.
func NewRateLimiter(maxCount int, sweepEvery time.Duration) *RateLimiter {
	l := &RateLimiter{
		windows:    make(map[string]*Window),
		maxCount:   maxCount,
		sweepEvery: sweepEvery,
		done:       make(chan struct{}),
		now:        time.Now,
	}
	go l.sweepLoop()
	return l
}

// Stop terminates the background sweep. Safe to call more than once.
func (l *RateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(l.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Sweep()
		case <-l.done:
			return
		}
	}
}

// StartWindow (re)initializes the window for key with a zero count.
func (l *RateLimiter) StartWindow(key string, duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows[key] = &Window{Start: l.now(), Duration: duration}
}

// Increment bumps the window counter for key. Without a window it is a
// no-op.
func (l *RateLimiter) Increment(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.windows[key]; ok {
		w.Count++
	}
}

// Get sweeps stale windows, then returns a snapshot of the window for key,
// or nil if none survives.
func (l *RateLimiter) Get(key string) *Window {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked(l.now())
	w, ok := l.windows[key]
	if !ok {
		return nil
	}
	cp := *w
	return &cp
}

// Sweep removes every window that has lived past its duration.
func (l *RateLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(l.now())
}

func (l *RateLimiter) sweepLocked(now time.Time) {
	for key, w := range l.windows {
		if w.expired(now) {
			delete(l.windows, key)
		}
	}
}

// peek returns the stored window without sweeping. Test hook mirroring the
// lazy-expiry contract: a stale window may still be present until a sweep
// runs.
func (l *RateLimiter) peek(key string) *Window {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		return nil
	}
	cp := *w
	return &cp
}

// Guard applies the throttling policy for one inbound event from key. With
// no live window it opens a default one and allows. When the window count
// has gone past the configured maximum it invokes onExceeded (call sites
// ban the address and drop the connection) and rejects. Otherwise it
// increments and allows. onExceeded runs outside the limiter lock.
func (l *RateLimiter) Guard(key string, onExceeded func()) bool {
	l.mu.Lock()
	l.sweepLocked(l.now())

	w, ok := l.windows[key]
	exceeded := ok && w.Count > l.maxCount
	if !exceeded {
		if ok {
			w.Count++
		} else {
			l.windows[key] = &Window{Start: l.now(), Duration: DefaultWindow}
		}
	}
	l.mu.Unlock()

	if exceeded {
		if onExceeded != nil {
			onExceeded()
		}
		return false
	}
	return true
}
