package ratelimit

import (
	"context"
	"log"
	"time"
)

// Result is the outcome of a limiter check.
type Result struct {
	Allowed bool
	// RetryAfter is the number of whole seconds until the key's window
	// reopens. Zero when Allowed.
	RetryAfter int
}

// Limiter is a single-slot sliding-window gate: one allowed action per key
// per window. This is a cooldown, not a token bucket - the second action
// inside the window is denied no matter how the window is sliced.
//
// The primary store is shared (Redis); when it is absent or failing, checks
// degrade to the per-process memory store. A store failure never denies the
// caller on its own.
type Limiter struct {
	primary  Store
	fallback *MemoryStore
	now      func() time.Time
}

// New creates a limiter. primary may be nil, in which case only the
// in-process store is used.
func New(primary Store) *Limiter {
	return &Limiter{
		primary:  primary,
		fallback: NewMemoryStore(),
		now:      time.Now,
	}
}

// Check allows the action keyed by key at most once per window. The slot is
// taken with a single atomic claim, so two concurrent first actions on the
// same key cannot both pass. On deny it reports how long the caller must
// wait.
func (l *Limiter) Check(ctx context.Context, key string, window time.Duration) Result {
	now := l.now()

	store := Store(l.fallback)
	if l.primary != nil {
		store = l.primary
	}

	ok, err := store.Claim(ctx, key, now, window)
	if err != nil {
		log.Printf("ratelimit: shared store claim failed, using fallback: %v", err)
		store = l.fallback
		ok, err = store.Claim(ctx, key, now, window)
		if err != nil {
			return Result{Allowed: true}
		}
	}
	if ok {
		return Result{Allowed: true}
	}

	last, found, err := store.Last(ctx, key)
	if err != nil || !found {
		// The slot holder expired between claim and read; the caller still
		// waits out a full window rather than getting a zero.
		return Result{RetryAfter: retryAfterSeconds(window)}
	}
	if remaining := window - now.Sub(last); remaining > 0 {
		return Result{RetryAfter: retryAfterSeconds(remaining)}
	}
	return Result{RetryAfter: 1}
}

// retryAfterSeconds rounds a remaining wait up to whole seconds, never
// reporting zero for a denied check.
func retryAfterSeconds(remaining time.Duration) int {
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
