package forge

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/anicka-net/ossuary/schema"
)

// Retry policy for forge calls: bounded exponential backoff with jitter.
const (
	maxAttempts  = 3
	initialDelay = 500 * time.Millisecond
	maxDelay     = 10 * time.Second
)

// withRetry runs fn up to maxAttempts times, backing off between attempts.
// Only transient failures are retried; everything else surfaces immediately.
func withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil || !errors.Is(lastErr, schema.ErrTransientCollect) {
			return lastErr
		}
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitteredDelay(attempt)):
		}
	}
	return lastErr
}

func jitteredDelay(attempt int) time.Duration {
	d := time.Duration(float64(initialDelay) * math.Pow(2, float64(attempt)))
	if d > maxDelay {
		d = maxDelay
	}
	// Up to 25% random jitter keeps concurrent tasks from synchronizing.
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}
