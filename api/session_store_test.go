package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geeklurk/lurkgate/storage/memory"
)

// The memory and persistent stores must behave identically from the
// gateway's point of view, so both run the same suite.
func sessionStores(t *testing.T) map[string]SessionStore {
	t.Helper()
	persistent := NewPersistentSessionStore(memory.NewStore())
	t.Cleanup(persistent.Close)
	return map[string]SessionStore{
		"memory":     NewMemorySessionStore(),
		"persistent": persistent,
	}
}

func TestSessionStoreRoundTrip(t *testing.T) {
	for name, store := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			session := AdminSession{
				Identity:  "geeklurk",
				ExpiresAt: time.Now().Add(time.Hour).UTC(),
			}
			store.Put("token-a", session)

			got, ok := store.Get("token-a")
			require.True(t, ok)
			assert.Equal(t, "geeklurk", got.Identity)
			assert.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Second)

			_, ok = store.Get("token-b")
			assert.False(t, ok)
		})
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	for name, store := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			store.Put("expired", AdminSession{
				Identity:  "geeklurk",
				ExpiresAt: time.Now().Add(-time.Minute),
			})

			_, ok := store.Get("expired")
			require.False(t, ok)

			// Expired entries are removed on first read; a second read is
			// indistinguishable from a token that never existed.
			_, ok = store.Get("expired")
			assert.False(t, ok)
		})
	}
}

func TestSessionStoreDelete(t *testing.T) {
	for name, store := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			store.Put("token", AdminSession{
				Identity:  "geeklurk",
				ExpiresAt: time.Now().Add(time.Hour),
			})
			store.Delete("token")

			_, ok := store.Get("token")
			assert.False(t, ok)

			// Deleting again is a no-op.
			store.Delete("token")
		})
	}
}

func TestSessionStoreOverwriteSlidesExpiry(t *testing.T) {
	for name, store := range sessionStores(t) {
		t.Run(name, func(t *testing.T) {
			store.Put("token", AdminSession{
				Identity:  "geeklurk",
				ExpiresAt: time.Now().Add(time.Minute),
			})
			later := time.Now().Add(time.Hour).UTC()
			store.Put("token", AdminSession{Identity: "geeklurk", ExpiresAt: later})

			got, ok := store.Get("token")
			require.True(t, ok)
			assert.WithinDuration(t, later, got.ExpiresAt, time.Second)
		})
	}
}

func TestMemorySessionStoreSweep(t *testing.T) {
	store := NewMemorySessionStore()
	store.Put("live", AdminSession{ExpiresAt: time.Now().Add(time.Hour)})
	store.Put("dead", AdminSession{ExpiresAt: time.Now().Add(-time.Minute)})

	store.sweep()

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Contains(t, store.data, "live")
	assert.NotContains(t, store.data, "dead")
}

func TestPersistentSessionStoreSweep(t *testing.T) {
	backing := memory.NewStore()
	store := NewPersistentSessionStore(backing)
	t.Cleanup(store.Close)

	store.Put("live", AdminSession{ExpiresAt: time.Now().Add(time.Hour)})
	store.Put("dead", AdminSession{ExpiresAt: time.Now().Add(-time.Minute)})

	store.sweep()

	tokens, err := backing.SessionTokens()
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, tokens)
}

func TestPersistentSessionStoreDropsCorruptRecord(t *testing.T) {
	backing := memory.NewStore()
	store := NewPersistentSessionStore(backing)
	t.Cleanup(store.Close)

	require.NoError(t, backing.PutSession("garbled", []byte("not json")))

	_, ok := store.Get("garbled")
	require.False(t, ok)

	tokens, err := backing.SessionTokens()
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
