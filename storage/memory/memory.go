// Package memory provides a thread-safe in-memory implementation of
// storage.Store. Suitable for testing and single-process demos.
package memory

import (
	"sort"
	"sync"

	"github.com/geeklurk/lurkgate/storage"
)

// Store is a thread-safe in-memory implementation of storage.Store.
type Store struct {
	mu        sync.RWMutex
	comments  map[string][]storage.Comment
	reactions map[string]map[string]int
	sessions  map[string][]byte
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a new empty in-memory Store.
func NewStore() *Store {
	return &Store{
		comments:  make(map[string][]storage.Comment),
		reactions: make(map[string]map[string]int),
		sessions:  make(map[string][]byte),
	}
}

func (s *Store) AddComment(c storage.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[c.PostID] = append(s.comments[c.PostID], c)
	return nil
}

func (s *Store) CommentsByPost(postID string, limit int) ([]storage.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.comments[postID]
	out := make([]storage.Comment, len(stored))
	copy(out, stored)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) AddReaction(postID, reaction string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts, ok := s.reactions[postID]
	if !ok {
		counts = make(map[string]int)
		s.reactions[postID] = counts
	}
	counts[reaction]++
	return counts[reaction], nil
}

func (s *Store) Reactions(postID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.reactions[postID]))
	for k, v := range s.reactions[postID] {
		out[k] = v
	}
	return out, nil
}

func (s *Store) PutSession(token string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = append([]byte(nil), data...)
	return nil
}

func (s *Store) GetSession(token string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.sessions[token]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *Store) DeleteSession(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Store) SessionTokens() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tokens := make([]string, 0, len(s.sessions))
	for tok := range s.sessions {
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

func (s *Store) Close() error { return nil }
