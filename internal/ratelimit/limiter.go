// Package ratelimit provides per-host token buckets for outbound API calls.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Default request rates per second. An auth token raises the forge rate.
const (
	DefaultRegistryRate = 5.0
	ForgeAnonymousRate  = 1.0
	ForgeAuthedRate     = 10.0
)

// PerHost hands out one token bucket per hostname. Exceeding a bucket makes
// the caller sleep, never fail.
type PerHost struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     float64
	burst   int
}

// NewPerHost creates a limiter set with the given steady rate and burst.
func NewPerHost(rps float64, burst int) *PerHost {
	if burst < 1 {
		burst = 1
	}
	return &PerHost{
		buckets: make(map[string]*rate.Limiter),
		rps:     rps,
		burst:   burst,
	}
}

// Wait blocks until the host's bucket grants a token or ctx is done.
func (p *PerHost) Wait(ctx context.Context, host string) error {
	p.mu.Lock()
	bucket, ok := p.buckets[host]
	if !ok {
		bucket = rate.NewLimiter(rate.Limit(p.rps), p.burst)
		p.buckets[host] = bucket
	}
	p.mu.Unlock()
	return bucket.Wait(ctx)
}
