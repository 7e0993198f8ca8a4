package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestWaitSleepsInsteadOfFailing verifies the bucket throttles rather than
// errors once the burst is spent.
func TestWaitSleepsInsteadOfFailing(t *testing.T) {
	p := NewPerHost(20, 1) // 20 rps, burst 1
	ctx := context.Background()

	require.NoError(t, p.Wait(ctx, "api.github.com"))

	start := time.Now()
	require.NoError(t, p.Wait(ctx, "api.github.com"))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

// TestHostsAreIndependent gives each host its own bucket.
func TestHostsAreIndependent(t *testing.T) {
	p := NewPerHost(1, 1)
	ctx := context.Background()

	require.NoError(t, p.Wait(ctx, "registry.npmjs.org"))

	start := time.Now()
	require.NoError(t, p.Wait(ctx, "pypi.org"))
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

// TestWaitHonorsContext aborts on cancellation.
func TestWaitHonorsContext(t *testing.T) {
	p := NewPerHost(0.001, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Wait(ctx, "slow.example"))
	assert.Error(t, p.Wait(ctx, "slow.example"))
}
