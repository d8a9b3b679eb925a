package api

import "time"

// SessionStore abstracts session CRUD so that sessions can be stored
// in-memory (default) or in persistent backing storage.
type SessionStore interface {
	// Get retrieves a session by token. Returns false if the session
	// does not exist or has expired; expired entries are removed.
	Get(token string) (AdminSession, bool)
	// Put creates or updates a session for the given token.
	Put(token string, session AdminSession)
	// Delete removes a session by token.
	Delete(token string)
}

// AdminSession holds the server-side state for an authenticated admin
// session. The client only ever holds the opaque token.
type AdminSession struct {
	Identity  string    `json:"identity"`
	ExpiresAt time.Time `json:"expires_at"`
}
