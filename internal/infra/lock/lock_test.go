package lock

import (
	"sync"
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAcquire_FirstHolderWins(t *testing.T) {
	r := NewRegistry().Quiet()

	if !r.Acquire("value:u1", DefaultTTL) {
		t.Fatal("first acquire should succeed")
	}
	if r.Acquire("value:u1", DefaultTTL) {
		t.Error("second acquire on held key should fail")
	}
	if !r.Acquire("value:u2", DefaultTTL) {
		t.Error("independent key should be acquirable")
	}
}

func TestRelease_FreesKey(t *testing.T) {
	r := NewRegistry().Quiet()

	r.Acquire("value:u1", DefaultTTL)
	r.Release("value:u1")

	if r.IsHeld("value:u1") {
		t.Error("key should not be held after release")
	}
	if !r.Acquire("value:u1", DefaultTTL) {
		t.Error("released key should be acquirable again")
	}
}

func TestAcquire_ExpiredHolderIsEvicted(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	r := NewRegistry().Quiet().WithClock(func() time.Time { return now })

	if !r.Acquire("value:u1", 5*time.Second) {
		t.Fatal("acquire failed")
	}

	// Just before expiry the lock still holds.
	now = base.Add(4 * time.Second)
	if r.Acquire("value:u1", 5*time.Second) {
		t.Error("acquire before TTL expiry should fail")
	}

	// A crashed holder self-expires: after the TTL the key is free.
	now = base.Add(5 * time.Second)
	if !r.Acquire("value:u1", 5*time.Second) {
		t.Error("acquire after TTL expiry should succeed")
	}
}

func TestIsHeld_ExpiredIsNotHeld(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	r := NewRegistry().Quiet().WithClock(func() time.Time { return now })

	r.Acquire("value:u1", time.Second)
	now = base.Add(2 * time.Second)

	if r.IsHeld("value:u1") {
		t.Error("expired lock should not report held")
	}
}

func TestAcquire_ZeroTTLUsesDefault(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	now := base
	r := NewRegistry().Quiet().WithClock(func() time.Time { return now })

	r.Acquire("value:u1", 0)

	now = base.Add(DefaultTTL - time.Millisecond)
	if !r.IsHeld("value:u1") {
		t.Error("zero TTL should fall back to DefaultTTL")
	}
}

// Exactly one of N racing goroutines may win any free key.
func TestAcquire_Race(t *testing.T) {
	r := NewRegistry().Quiet()

	const n = 32
	var wg sync.WaitGroup
	wins := make(chan bool, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Acquire("value:u1", DefaultTTL) {
				wins <- true
			}
		}()
	}
	wg.Wait()
	close(wins)

	got := 0
	for range wins {
		got++
	}
	if got != 1 {
		t.Errorf("winners = %d, want exactly 1", got)
	}
}
