package service

import (
	"errors"
	"fmt"
)

// Rejection reasons surfaced to callers. Each maps to a distinct
// machine-readable code at the transport layer; transient storage failures
// are deliberately not in this list and surface as generic errors.
var (
	ErrAlreadyProposed = errors.New("track already proposed")
	ErrAlreadyApproved = errors.New("track already in the approved catalog")
	ErrAlreadyVoted    = errors.New("identity already voted this way")
	ErrNotApproved     = errors.New("song is not in the approved catalog")
	ErrCaptchaFailed   = errors.New("human verification failed")
	ErrNotFound        = errors.New("not found")
)

// RateLimitedError carries the whole-seconds wait until the caller's
// cooldown window reopens.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %ds", e.RetryAfter)
}
