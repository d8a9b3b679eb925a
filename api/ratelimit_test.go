package api

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geeklurk/lurkgate/internal/config"
)

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		General:   config.LimitConfig{WindowSecs: 60, Limit: 3},
		Admin:     config.LimitConfig{WindowSecs: 60, Limit: 3},
		Comments:  config.LimitConfig{WindowSecs: 60, Limit: 2},
		Reactions: config.LimitConfig{WindowSecs: 60, Limit: 2},
	}
}

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := newRateLimiter(testLimits())

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Allow(nsGeneral, "1.2.3.4"), "request %d should pass", i+1)
	}

	err := rl.Allow(nsGeneral, "1.2.3.4")
	require.Error(t, err)

	var rle *RateLimitedError
	require.True(t, errors.As(err, &rle))
	assert.Greater(t, rle.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, rle.RetryAfter, 60*time.Second)
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := newRateLimiter(testLimits())

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Allow(nsGeneral, "1.2.3.4"))
	}
	require.Error(t, rl.Allow(nsGeneral, "1.2.3.4"))

	assert.NoError(t, rl.Allow(nsGeneral, "5.6.7.8"))
}

func TestRateLimiterIsolatesNamespaces(t *testing.T) {
	rl := newRateLimiter(testLimits())

	for i := 0; i < 2; i++ {
		require.NoError(t, rl.Allow(nsComments, "1.2.3.4"))
	}
	require.Error(t, rl.Allow(nsComments, "1.2.3.4"))

	// The same client still has budget everywhere else.
	assert.NoError(t, rl.Allow(nsReactions, "1.2.3.4"))
	assert.NoError(t, rl.Allow(nsGeneral, "1.2.3.4"))
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := newRateLimiter(testLimits())

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Allow(nsGeneral, "1.2.3.4"))
	}
	require.Error(t, rl.Allow(nsGeneral, "1.2.3.4"))

	// Expire the window by hand rather than sleeping it out.
	rl.mu.Lock()
	rl.records[rateKey{namespace: nsGeneral, client: "1.2.3.4"}].resetAt = time.Now().Add(-time.Second)
	rl.mu.Unlock()

	assert.NoError(t, rl.Allow(nsGeneral, "1.2.3.4"))
}

func TestRateLimiterUnknownNamespaceAllows(t *testing.T) {
	rl := newRateLimiter(testLimits())
	for i := 0; i < 100; i++ {
		require.NoError(t, rl.Allow("bogus", "1.2.3.4"))
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := newRateLimiter(testLimits())

	for i := 0; i < 10; i++ {
		require.NoError(t, rl.Allow(nsGeneral, fmt.Sprintf("10.0.0.%d", i)))
	}

	rl.mu.Lock()
	for _, rec := range rl.records {
		rec.resetAt = time.Now().Add(-time.Second)
	}
	rl.mu.Unlock()

	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.records)
}
