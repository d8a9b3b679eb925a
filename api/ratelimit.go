package api

import (
	"sync"
	"time"

	"github.com/geeklurk/lurkgate/internal/config"
)

// Rate-limit namespaces. Each is an independent counting domain so
// abuse in one area cannot exhaust the budget for another.
const (
	nsGeneral   = "general"
	nsAdmin     = "admin"
	nsComments  = "comments"
	nsReactions = "reactions"
)

type rateKey struct {
	namespace string
	client    string
}

type rateRecord struct {
	count   int
	resetAt time.Time
}

// rateLimiter is a fixed-window counter keyed by (namespace, client).
// Fixed windows reset sharply at resetAt, so a burst straddling the
// boundary can reach up to twice the nominal rate. That is a known
// property of this scheme, accepted for its O(1) state per key.
type rateLimiter struct {
	mu         sync.Mutex
	namespaces map[string]config.LimitConfig
	records    map[rateKey]*rateRecord
}

func newRateLimiter(limits config.LimitsConfig) *rateLimiter {
	return &rateLimiter{
		namespaces: map[string]config.LimitConfig{
			nsGeneral:   limits.General,
			nsAdmin:     limits.Admin,
			nsComments:  limits.Comments,
			nsReactions: limits.Reactions,
		},
		records: make(map[rateKey]*rateRecord),
	}
}

// Allow counts one request for (namespace, client). It returns nil when
// the request may proceed, or a *RateLimitedError carrying the time
// until the window resets.
func (rl *rateLimiter) Allow(namespace, client string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cfg, ok := rl.namespaces[namespace]
	if !ok {
		// Unknown namespaces do not limit; they indicate a wiring bug
		// caught by tests, not a reason to reject traffic.
		return nil
	}

	now := time.Now()
	key := rateKey{namespace: namespace, client: client}
	rec, ok := rl.records[key]
	if !ok || now.After(rec.resetAt) {
		rl.records[key] = &rateRecord{count: 1, resetAt: now.Add(cfg.Window())}
		return nil
	}
	if rec.count < cfg.Limit {
		rec.count++
		return nil
	}
	return &RateLimitedError{RetryAfter: rec.resetAt.Sub(now)}
}

// sweep removes records whose window has passed. Called periodically so
// a swarm of unique client keys cannot grow the map without bound.
func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, rec := range rl.records {
		if now.After(rec.resetAt) {
			delete(rl.records, key)
		}
	}
}
