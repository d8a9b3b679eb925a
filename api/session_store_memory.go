package api

import (
	"sync"
	"time"
)

// MemorySessionStore is a thread-safe in-memory SessionStore.
// Sessions are lost on server restart.
type MemorySessionStore struct {
	mu   sync.RWMutex
	data map[string]AdminSession
}

var _ SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates an in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{data: make(map[string]AdminSession)}
}

func (s *MemorySessionStore) Get(token string) (AdminSession, bool) {
	s.mu.RLock()
	session, ok := s.data[token]
	s.mu.RUnlock()
	if !ok {
		return AdminSession{}, false
	}
	if time.Now().After(session.ExpiresAt) {
		s.Delete(token)
		return AdminSession{}, false
	}
	return session, true
}

func (s *MemorySessionStore) Put(token string, session AdminSession) {
	s.mu.Lock()
	s.data[token] = session
	s.mu.Unlock()
}

func (s *MemorySessionStore) Delete(token string) {
	s.mu.Lock()
	delete(s.data, token)
	s.mu.Unlock()
}

// sweep removes expired sessions so the map stays bounded even when
// clients never revisit their stale tokens.
func (s *MemorySessionStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, session := range s.data {
		if now.After(session.ExpiresAt) {
			delete(s.data, token)
		}
	}
}
