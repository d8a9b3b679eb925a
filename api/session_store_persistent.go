package api

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/geeklurk/lurkgate/storage"
)

const sessionCleanupInterval = 5 * time.Minute

// PersistentSessionStore keeps sessions in a storage.Store so admin
// logins survive a server restart. A background loop sweeps expired
// entries.
type PersistentSessionStore struct {
	store    storage.Store
	stopOnce sync.Once
	stopCh   chan struct{}
}

var _ SessionStore = (*PersistentSessionStore)(nil)

// NewPersistentSessionStore creates a session store backed by the given
// storage.Store and starts its cleanup loop.
func NewPersistentSessionStore(store storage.Store) *PersistentSessionStore {
	s := &PersistentSessionStore{
		store:  store,
		stopCh: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Close stops the background cleanup goroutine.
func (s *PersistentSessionStore) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *PersistentSessionStore) Get(token string) (AdminSession, bool) {
	data, err := s.store.GetSession(token)
	if err != nil {
		return AdminSession{}, false
	}
	var session AdminSession
	if err := json.Unmarshal(data, &session); err != nil {
		// An undecodable record is useless; drop it.
		s.Delete(token)
		return AdminSession{}, false
	}
	if time.Now().After(session.ExpiresAt) {
		s.Delete(token)
		return AdminSession{}, false
	}
	return session, true
}

func (s *PersistentSessionStore) Put(token string, session AdminSession) {
	data, err := json.Marshal(session)
	if err != nil {
		slog.Error("encoding session", "error", err)
		return
	}
	if err := s.store.PutSession(token, data); err != nil {
		slog.Error("persisting session", "error", err)
	}
}

func (s *PersistentSessionStore) Delete(token string) {
	if err := s.store.DeleteSession(token); err != nil {
		slog.Error("deleting session", "error", err)
	}
}

func (s *PersistentSessionStore) cleanupLoop() {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *PersistentSessionStore) sweep() {
	tokens, err := s.store.SessionTokens()
	if err != nil {
		slog.Error("listing sessions for sweep", "error", err)
		return
	}
	for _, token := range tokens {
		// Get deletes expired entries as a side effect.
		s.Get(token)
	}
}
