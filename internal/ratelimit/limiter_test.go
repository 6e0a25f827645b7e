package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

// failingStore simulates an unreachable shared store.
type failingStore struct {
	claimErr error
	lastErr  error
	claims   int
}

func (s *failingStore) Claim(context.Context, string, time.Time, time.Duration) (bool, error) {
	s.claims++
	return false, s.claimErr
}

func (s *failingStore) Last(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, s.lastErr
}

// heldStore always reports the slot as taken at a fixed timestamp.
type heldStore struct {
	at      time.Time
	lastErr error
}

func (s *heldStore) Claim(context.Context, string, time.Time, time.Duration) (bool, error) {
	return false, nil
}

func (s *heldStore) Last(context.Context, string) (time.Time, bool, error) {
	if s.lastErr != nil {
		return time.Time{}, false, s.lastErr
	}
	return s.at, true, nil
}

func newTestLimiter(primary Store) (*Limiter, *time.Time) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(primary)
	l.now = func() time.Time { return now }
	l.fallback.now = l.now
	return l, &now
}

func TestCheck_FirstActionAllowed(t *testing.T) {
	l, _ := newTestLimiter(nil)

	res := l.Check(context.Background(), "propose:abc", time.Minute)
	if !res.Allowed {
		t.Fatal("first action should be allowed")
	}
	if res.RetryAfter != 0 {
		t.Errorf("RetryAfter = %d, want 0 on allow", res.RetryAfter)
	}
}

func TestCheck_SecondActionWithinWindowDenied(t *testing.T) {
	l, now := newTestLimiter(nil)

	l.Check(context.Background(), "propose:abc", time.Minute)

	*now = now.Add(10 * time.Second)
	res := l.Check(context.Background(), "propose:abc", time.Minute)
	if res.Allowed {
		t.Fatal("second action inside window should be denied")
	}
	if res.RetryAfter != 50 {
		t.Errorf("RetryAfter = %d, want 50", res.RetryAfter)
	}
}

func TestCheck_RetryAfterRoundsUp(t *testing.T) {
	l, now := newTestLimiter(nil)

	l.Check(context.Background(), "propose:abc", time.Minute)

	*now = now.Add(59*time.Second + 500*time.Millisecond)
	res := l.Check(context.Background(), "propose:abc", time.Minute)
	if res.Allowed {
		t.Fatal("should still be denied with 500ms remaining")
	}
	if res.RetryAfter != 1 {
		t.Errorf("RetryAfter = %d, want 1 (rounded up, never 0)", res.RetryAfter)
	}
}

func TestCheck_AllowedAfterWindow(t *testing.T) {
	l, now := newTestLimiter(nil)

	l.Check(context.Background(), "propose:abc", time.Minute)

	*now = now.Add(time.Minute)
	res := l.Check(context.Background(), "propose:abc", time.Minute)
	if !res.Allowed {
		t.Fatal("action after window elapsed should be allowed")
	}
}

func TestCheck_KeysIndependent(t *testing.T) {
	l, _ := newTestLimiter(nil)

	l.Check(context.Background(), "propose:aaa", time.Minute)

	res := l.Check(context.Background(), "propose:bbb", time.Minute)
	if !res.Allowed {
		t.Fatal("different key should not share the cooldown")
	}
}

func TestCheck_AllowOverwritesSlot(t *testing.T) {
	l, now := newTestLimiter(nil)

	l.Check(context.Background(), "vote:abc", time.Minute)

	// New window opens, action allowed and slot re-armed
	*now = now.Add(61 * time.Second)
	l.Check(context.Background(), "vote:abc", time.Minute)

	// Immediately after, the fresh slot denies again
	*now = now.Add(time.Second)
	res := l.Check(context.Background(), "vote:abc", time.Minute)
	if res.Allowed {
		t.Fatal("allow must re-arm the cooldown slot")
	}
}

func TestCheck_HeldSlotDeniedWithRetryAfter(t *testing.T) {
	l, now := newTestLimiter(nil)
	l.primary = &heldStore{at: now.Add(-10 * time.Second)}

	res := l.Check(context.Background(), "vote:abc", time.Minute)
	if res.Allowed {
		t.Fatal("held slot should deny")
	}
	if res.RetryAfter != 50 {
		t.Errorf("RetryAfter = %d, want 50", res.RetryAfter)
	}
}

func TestCheck_HeldSlotLastFailureStillDenies(t *testing.T) {
	l, _ := newTestLimiter(nil)
	l.primary = &heldStore{lastErr: errors.New("connection reset")}

	// The claim itself was refused; a broken deadline read must not turn
	// that into an allow or a zero wait.
	res := l.Check(context.Background(), "vote:abc", time.Minute)
	if res.Allowed {
		t.Fatal("claim refusal should deny even when the deadline read fails")
	}
	if res.RetryAfter != 60 {
		t.Errorf("RetryAfter = %d, want full window of 60", res.RetryAfter)
	}
}

func TestCheck_PrimaryClaimFailureFallsBack(t *testing.T) {
	primary := &failingStore{claimErr: errors.New("connection refused")}
	l, now := newTestLimiter(primary)

	res := l.Check(context.Background(), "vote:abc", time.Minute)
	if !res.Allowed {
		t.Fatal("store failure must not deny the caller")
	}
	if primary.claims != 1 {
		t.Errorf("primary claims = %d, want 1 attempt", primary.claims)
	}

	// Fallback still enforces the cooldown on its own
	*now = now.Add(time.Second)
	res = l.Check(context.Background(), "vote:abc", time.Minute)
	if res.Allowed {
		t.Fatal("fallback store should enforce the window after primary failure")
	}
}

func TestMemoryStore_ConcurrentClaimsSingleWinner(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	wins := make(chan bool, 8)
	for i := 0; i < 8; i++ {
		go func() {
			ok, _ := s.Claim(ctx, "vote:abc", now, time.Minute)
			wins <- ok
		}()
	}

	won := 0
	for i := 0; i < 8; i++ {
		if <-wins {
			won++
		}
	}
	if won != 1 {
		t.Errorf("concurrent claims on one key: %d winners, want exactly 1", won)
	}
}

func TestMemoryStore_PruneBoundsSize(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	// Fill past the threshold with entries that expire quickly.
	ctx := context.Background()
	for i := 0; i < DefaultPruneThreshold; i++ {
		key := string(rune('a'+i%26)) + string(rune('0'+i/26))
		if ok, err := s.Claim(ctx, key, now, time.Second); err != nil || !ok {
			t.Fatalf("Claim(%q) = (%v, %v), want fresh slot", key, ok, err)
		}
	}
	if s.Len() < DefaultPruneThreshold {
		t.Fatalf("precondition: store should be at threshold, got %d", s.Len())
	}

	// Everything has expired; the next claim should sweep the map.
	now = now.Add(2 * time.Second)
	if ok, _ := s.Claim(ctx, "fresh", now, time.Minute); !ok {
		t.Fatal("claim on a fresh key should win")
	}
	if got := s.Len(); got != 1 {
		t.Errorf("store size after prune = %d, want 1", got)
	}
}

func TestMemoryStore_ExpiredEntryNotReturned(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ctx := context.Background()
	s.Claim(ctx, "k", now, time.Second)

	now = now.Add(2 * time.Second)
	if _, ok, _ := s.Last(ctx, "k"); ok {
		t.Error("expired entry should not be returned")
	}
}
