// Package replay implements a short-lived nonce registry that rejects reuse
// of a mutation token within its retention window.
//
// Expired nonces are reclaimed lazily on Accept via a min-heap of expiry
// times, so the guard needs no background sweeper goroutine and stays fully
// deterministic under an injected clock.
package replay

import (
	"container/heap"
	"sync"
	"time"
)

// DefaultWindow is how long a consumed nonce stays rejected.
const DefaultWindow = 5 * time.Minute

// Guard is a TTL nonce registry. Like the lock registry, it is
// instance-owned state, never a package singleton.
type Guard struct {
	mu     sync.Mutex
	seen   map[string]time.Time // nonce → expiry
	expiry expiryHeap
	window time.Duration
	now    func() time.Time
}

// NewGuard creates a guard with the given retention window.
// A non-positive window falls back to DefaultWindow.
func NewGuard(window time.Duration) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{
		seen:   make(map[string]time.Time),
		window: window,
		now:    time.Now,
	}
}

// WithClock overrides the clock for deterministic testing.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Accept consumes a nonce. The first call within the retention window
// returns true and records it; any repeat within the window returns false.
// After the window elapses the nonce may be accepted again.
func (g *Guard) Accept(nonce string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.sweep(now)

	if expiry, ok := g.seen[nonce]; ok && now.Before(expiry) {
		return false
	}

	exp := now.Add(g.window)
	g.seen[nonce] = exp
	heap.Push(&g.expiry, expiryEntry{nonce: nonce, at: exp})
	return true
}

// Forget releases a consumed nonce so it may be accepted again
// immediately. Callers use it to hand a caller-supplied key back when the
// operation it was spent on did not commit. Forgetting an unknown nonce
// is a no-op; the stale heap entry is skipped by sweep.
func (g *Guard) Forget(nonce string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, nonce)
}

// Size returns the number of live nonces (after reclaiming expired ones).
func (g *Guard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sweep(g.now())
	return len(g.seen)
}

// sweep reclaims expired entries from the heap head. Caller holds g.mu.
func (g *Guard) sweep(now time.Time) {
	for g.expiry.Len() > 0 && !now.Before(g.expiry[0].at) {
		e := heap.Pop(&g.expiry).(expiryEntry)
		// A nonce re-accepted after expiry has a fresher map entry; only
		// delete when this heap entry is the current one.
		if cur, ok := g.seen[e.nonce]; ok && cur.Equal(e.at) {
			delete(g.seen, e.nonce)
		}
	}
}

// ─── Expiry Heap ────────────────────────────────────────────────────────────

type expiryEntry struct {
	nonce string
	at    time.Time
}

type expiryHeap []expiryEntry

func (h expiryHeap) Len() int            { return len(h) }
func (h expiryHeap) Less(i, j int) bool  { return h[i].at.Before(h[j].at) }
func (h expiryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *expiryHeap) Push(x interface{}) { *h = append(*h, x.(expiryEntry)) }
func (h *expiryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
