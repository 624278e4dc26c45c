package api

import "time"

// SessionStore abstracts session CRUD so that sessions can be stored
// in-memory (default) or in a future persistent backend.
type SessionStore interface {
	// Get retrieves a session by token. Returns false if the session
	// does not exist, has expired, or has exceeded the idle timeout.
	Get(token string) (AuthSession, bool)
	// Put creates or updates a session for the given token.
	Put(token string, session AuthSession)
	// Delete removes a session by token.
	Delete(token string)
}

// AuthSession holds the server-side state for one browser session as it
// moves through the two authentication stages. Authenticated flips to
// true only after a one-time code has been verified; until then the
// session may fetch provisioning info and submit codes, nothing else.
type AuthSession struct {
	AccountID      string    `json:"account_id"`
	Authenticated  bool      `json:"authenticated"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
}
