package api

import (
	"sync"
	"time"
)

const (
	// lockoutThreshold is the number of consecutive failed logins before
	// a client is blocked.
	lockoutThreshold = 5
	// lockoutDuration is how long a blocked client stays blocked.
	lockoutDuration = 10 * time.Minute
	// lockoutExpiry is how long after the last failure an unblocked
	// record is kept before the sweep discards it.
	lockoutExpiry = 1 * time.Hour
)

type lockoutRecord struct {
	failCount    int
	blockedUntil time.Time
	lastFailure  time.Time
}

// lockoutTracker counts consecutive failed login attempts per client
// and escalates to a timed block once the threshold is reached. A
// successful login must call Clear, otherwise old failures would count
// against later sessions indefinitely.
type lockoutTracker struct {
	mu      sync.Mutex
	records map[string]*lockoutRecord
}

func newLockoutTracker() *lockoutTracker {
	return &lockoutTracker{records: make(map[string]*lockoutRecord)}
}

// CheckAllowed reports whether the client may attempt authentication.
// A block that has expired is deleted on first observation, so the next
// failure starts a fresh count.
func (lt *lockoutTracker) CheckAllowed(client string) (allowed bool, blockedUntil time.Time) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	rec, ok := lt.records[client]
	if !ok {
		return true, time.Time{}
	}
	if rec.blockedUntil.IsZero() {
		return true, time.Time{}
	}
	now := time.Now()
	if now.Before(rec.blockedUntil) {
		return false, rec.blockedUntil
	}
	delete(lt.records, client)
	return true, time.Time{}
}

// RecordFailure counts one failed attempt and starts the block once the
// threshold is reached.
func (lt *lockoutTracker) RecordFailure(client string) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	rec, ok := lt.records[client]
	if !ok {
		rec = &lockoutRecord{}
		lt.records[client] = rec
	}
	rec.failCount++
	rec.lastFailure = time.Now()
	if rec.failCount >= lockoutThreshold {
		rec.blockedUntil = time.Now().Add(lockoutDuration)
	}
}

// Clear removes the client's record. Called on successful
// authentication so the counter tracks consecutive failures only.
func (lt *lockoutTracker) Clear(client string) {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	delete(lt.records, client)
}

// sweep removes expired blocks and stale failure counts.
func (lt *lockoutTracker) sweep() {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	now := time.Now()
	for client, rec := range lt.records {
		expiredBlock := !rec.blockedUntil.IsZero() && now.After(rec.blockedUntil)
		staleCount := rec.blockedUntil.IsZero() && now.Sub(rec.lastFailure) > lockoutExpiry
		if expiredBlock || staleCount {
			delete(lt.records, client)
		}
	}
}
