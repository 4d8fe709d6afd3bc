// Package lock implements advisory, TTL-based mutual exclusion keyed by
// resource id.
//
// This is NOT a true mutex: it guards only cooperative callers. Acquire
// never blocks — a caller that loses the race must surface the conflict to
// its own caller instead of spinning. A crashed holder self-expires after
// the TTL, trading correctness-under-failure for liveness.
package lock

import (
	"log"
	"sync"
	"time"
)

// DefaultTTL bounds the blast radius of a crashed lock holder.
const DefaultTTL = 5 * time.Second

// Registry is a set of advisory locks. The map is owned by the instance —
// never a package-level singleton — so tests can run isolated registries.
type Registry struct {
	mu    sync.Mutex
	held  map[string]time.Time // key → expiry
	now   func() time.Time
	quiet bool // suppress contention logging in tests
}

// NewRegistry creates an empty lock registry.
func NewRegistry() *Registry {
	return &Registry{
		held: make(map[string]time.Time),
		now:  time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Quiet disables the contention warning log.
func (r *Registry) Quiet() *Registry {
	r.quiet = true
	return r
}

// Acquire takes the lock for key if no unexpired holder exists, setting
// expiry to now+ttl. It returns false immediately on contention.
func (r *Registry) Acquire(key string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if expiry, ok := r.held[key]; ok && now.Before(expiry) {
		if !r.quiet {
			log.Printf("lock: contention on %q (held for %s more)", key, expiry.Sub(now).Round(time.Millisecond))
		}
		return false
	}

	r.held[key] = now.Add(ttl)
	return true
}

// Release drops the lock for key unconditionally.
func (r *Registry) Release(key string) {
	r.mu.Lock()
	delete(r.held, key)
	r.mu.Unlock()
}

// IsHeld reports whether key has an unexpired holder.
func (r *Registry) IsHeld(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	expiry, ok := r.held[key]
	return ok && r.now().Before(expiry)
}
