package pubcards

import (
	"sync"
	"time"
)

// LoginLimiter rate-limits password attempts per IP address. It guards both
// the admin login and protected post unlocks.
type LoginLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoginLimiter creates a LoginLimiter that allows max attempts per window.
// Call Stop to end its background cleanup.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		done:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *LoginLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for ip := range l.attempts {
				if len(l.prune(ip, now)) == 0 {
					delete(l.attempts, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

// prune drops attempts older than the window. l.mu must be held.
func (l *LoginLimiter) prune(ip string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	hits := l.attempts[ip]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	l.attempts[ip] = kept
	return kept
}

// Stop ends the background cleanup. It is safe to call more than once.
func (l *LoginLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Allow checks the limit and records the attempt in one step.
func (l *LoginLimiter) Allow(ip string) bool {
	if !l.Check(ip) {
		return false
	}
	l.Record(ip)
	return true
}

// Check returns true if the IP has not exceeded the rate limit.
// It does not record an attempt; call Record on failure.
func (l *LoginLimiter) Check(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(ip, time.Now())) < l.max
}

// Record registers a failed attempt for the given IP.
func (l *LoginLimiter) Record(ip string) {
	l.mu.Lock()
	l.attempts[ip] = append(l.attempts[ip], time.Now())
	l.mu.Unlock()
}
