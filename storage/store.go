// Package storage provides the persistence abstraction for blog
// engagement data (comments, reactions) and admin sessions.
package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Comment is one reader comment on a writeup.
type Comment struct {
	ID       string    `json:"id"`
	PostID   string    `json:"postId"`
	Username string    `json:"username"`
	Text     string    `json:"text"`
	Date     time.Time `json:"date"`
}

// Store defines the persistence operations the gateway's collaborators
// need. Implementations must be safe for concurrent use.
type Store interface {
	// AddComment appends a comment to its post.
	AddComment(c Comment) error
	// CommentsByPost returns up to limit comments for a post, newest
	// first. A missing post yields an empty slice, not an error.
	CommentsByPost(postID string, limit int) ([]Comment, error)

	// AddReaction increments the named reaction counter for a post and
	// returns the new count.
	AddReaction(postID, reaction string) (int, error)
	// Reactions returns all reaction counters for a post. A missing
	// post yields an empty map.
	Reactions(postID string) (map[string]int, error)

	// PutSession stores an opaque session blob under its token.
	PutSession(token string, data []byte) error
	// GetSession returns the blob for token, or ErrNotFound.
	GetSession(token string) ([]byte, error)
	// DeleteSession removes a session. Deleting a missing token is not
	// an error.
	DeleteSession(token string) error
	// SessionTokens lists all stored session tokens, for expiry sweeps.
	SessionTokens() ([]string, error)

	Close() error
}
