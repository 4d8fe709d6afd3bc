package replay

import (
	"testing"
	"time"
)

func TestAccept_FirstUse(t *testing.T) {
	g := NewGuard(DefaultWindow)

	if !g.Accept("nonce-1") {
		t.Error("fresh nonce should be accepted")
	}
	if !g.Accept("nonce-2") {
		t.Error("distinct nonce should be accepted")
	}
}

func TestAccept_ReuseWithinWindow(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	g := NewGuard(5 * time.Minute).WithClock(func() time.Time { return now })

	if !g.Accept("nonce-1") {
		t.Fatal("first use should be accepted")
	}

	now = base.Add(4 * time.Minute)
	if g.Accept("nonce-1") {
		t.Error("reuse within retention window should be rejected")
	}
}

func TestAccept_ReuseAfterExpiry(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	g := NewGuard(5 * time.Minute).WithClock(func() time.Time { return now })

	g.Accept("nonce-1")

	now = base.Add(5 * time.Minute)
	if !g.Accept("nonce-1") {
		t.Error("nonce should be accepted again after the window elapses")
	}
}

func TestSweep_ReclaimsExpired(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	g := NewGuard(time.Minute).WithClock(func() time.Time { return now })

	for _, n := range []string{"a", "b", "c"} {
		g.Accept(n)
	}
	if g.Size() != 3 {
		t.Fatalf("size = %d, want 3", g.Size())
	}

	now = base.Add(2 * time.Minute)
	if g.Size() != 0 {
		t.Errorf("size after expiry = %d, want 0", g.Size())
	}
}

// Re-accepting a nonce after expiry must not let the stale heap entry
// delete the fresh registration.
func TestSweep_StaleHeapEntry(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	g := NewGuard(time.Minute).WithClock(func() time.Time { return now })

	g.Accept("nonce-1")

	now = base.Add(time.Minute) // first registration expired
	if !g.Accept("nonce-1") {
		t.Fatal("re-accept after expiry failed")
	}

	now = now.Add(30 * time.Second) // stale entry long gone, fresh one live
	if g.Accept("nonce-1") {
		t.Error("fresh registration should still reject reuse")
	}
}

func TestForget_ReleasesNonceImmediately(t *testing.T) {
	g := NewGuard(DefaultWindow)

	if !g.Accept("nonce-1") {
		t.Fatal("first use should be accepted")
	}
	g.Forget("nonce-1")
	if !g.Accept("nonce-1") {
		t.Error("forgotten nonce should be accepted again")
	}
	if g.Accept("nonce-1") {
		t.Error("re-accepted nonce should be rejected on reuse")
	}

	// Unknown nonces are a no-op.
	g.Forget("never-seen")
}

// The stale heap entry left behind by Forget must not delete a later
// re-registration of the same nonce when it expires.
func TestForget_StaleHeapEntryDoesNotEvictFresh(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	g := NewGuard(time.Minute).WithClock(func() time.Time { return now })

	g.Accept("nonce-1")
	g.Forget("nonce-1")

	now = base.Add(30 * time.Second)
	if !g.Accept("nonce-1") {
		t.Fatal("re-accept after forget failed")
	}

	// First registration's heap entry expires here; the fresh one must
	// survive it.
	now = base.Add(70 * time.Second)
	if g.Accept("nonce-1") {
		t.Error("fresh registration should still reject reuse")
	}
}

func TestNewGuard_ZeroWindowUsesDefault(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	g := NewGuard(0).WithClock(func() time.Time { return now })

	g.Accept("nonce-1")
	now = base.Add(DefaultWindow - time.Second)
	if g.Accept("nonce-1") {
		t.Error("nonce should still be rejected inside the default window")
	}
}
