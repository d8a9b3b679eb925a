// Package bbolt provides a BBolt-backed storage.Store.
package bbolt

import (
	"encoding/json"
	"fmt"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/geeklurk/lurkgate/storage"
)

var (
	bucketComments  = []byte("comments")
	bucketReactions = []byte("reactions")
	bucketSessions  = []byte("sessions")
)

// Store implements storage.Store backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ storage.Store = (*Store)(nil)

// NewStore wraps an already-open BBolt database.
func NewStore(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketComments, bucketReactions, bucketSessions} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("initializing buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreFromFile opens a BBolt database at the given path.
func NewStoreFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewStore(db)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AddComment(c storage.Comment) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketComments)
		var comments []storage.Comment
		if data := b.Get([]byte(c.PostID)); data != nil {
			if err := json.Unmarshal(data, &comments); err != nil {
				return fmt.Errorf("decoding comments for %q: %w", c.PostID, err)
			}
		}
		comments = append(comments, c)
		data, err := json.Marshal(comments)
		if err != nil {
			return err
		}
		return b.Put([]byte(c.PostID), data)
	})
}

func (s *Store) CommentsByPost(postID string, limit int) ([]storage.Comment, error) {
	var comments []storage.Comment
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketComments).Get([]byte(postID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &comments)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].Date.After(comments[j].Date) })
	if limit > 0 && len(comments) > limit {
		comments = comments[:limit]
	}
	if comments == nil {
		comments = []storage.Comment{}
	}
	return comments, nil
}

func (s *Store) AddReaction(postID, reaction string) (int, error) {
	var count int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReactions)
		counts := make(map[string]int)
		if data := b.Get([]byte(postID)); data != nil {
			if err := json.Unmarshal(data, &counts); err != nil {
				return fmt.Errorf("decoding reactions for %q: %w", postID, err)
			}
		}
		counts[reaction]++
		count = counts[reaction]
		data, err := json.Marshal(counts)
		if err != nil {
			return err
		}
		return b.Put([]byte(postID), data)
	})
	return count, err
}

func (s *Store) Reactions(postID string) (map[string]int, error) {
	counts := make(map[string]int)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketReactions).Get([]byte(postID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &counts)
	})
	return counts, err
}

func (s *Store) PutSession(token string, data []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(token), data)
	})
}

func (s *Store) GetSession(token string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketSessions).Get([]byte(token))
		if v == nil {
			return storage.ErrNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

func (s *Store) DeleteSession(token string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(token))
	})
}

func (s *Store) SessionTokens() ([]string, error) {
	var tokens []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(k, _ []byte) error {
			tokens = append(tokens, string(k))
			return nil
		})
	})
	return tokens, err
}
