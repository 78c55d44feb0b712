package estimator

import (
	"context"
	"time"

	"keyword-volume/pkg/source"
)

// Retry re-runs a failing source call with exponential backoff. It is off
// by default; adapters themselves never retry.
type Retry struct {
	maxRetries        int
	retryDelay        time.Duration
	backoffMultiplier float64
}

func NewRetry(maxRetries int, retryDelay time.Duration) *Retry {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Retry{
		maxRetries:        maxRetries,
		retryDelay:        retryDelay,
		backoffMultiplier: 2.0,
	}
}

// Fetch calls fn until it yields a usable Result, the error is final, the
// retry budget runs out or ctx is done. The last Result is returned.
func (r *Retry) Fetch(ctx context.Context, fn func() source.Result) source.Result {
	var last source.Result
	delay := r.retryDelay

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		last = fn()
		if last.OK() || attempt == r.maxRetries || !source.Retryable(last.Err) {
			return last
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * r.backoffMultiplier)
	}
	return last
}
