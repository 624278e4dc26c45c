// Package storage provides the credential store abstraction for account records.
package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no account matches the given key.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned when a create or update would violate
	// email uniqueness.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateAPIKey is returned when a create or update would violate
	// API key uniqueness.
	ErrDuplicateAPIKey = errors.New("api key already in use")
)

// Account is a persisted user identity record.
type Account struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"password_hash"`
	TOTPSecret     string    `json:"totp_secret,omitempty"`
	FailedAttempts int       `json:"failed_attempts"`
	APIKey         string    `json:"api_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

// Store defines the interface for account persistence. Email and API key
// uniqueness are enforced at the storage boundary.
//
// Update applies fn to a single account as an atomic read-modify-write, so
// two concurrent mutations of the same account (e.g. failed-attempt
// increments) are never lost to a lost-update race. No cross-account
// locking is implied.
type Store interface {
	Create(account *Account) error
	GetByID(id string) (*Account, error)
	GetByEmail(email string) (*Account, error)
	GetByAPIKey(apiKey string) (*Account, error)
	Update(id string, fn func(*Account) error) error
	Delete(id string) error
}
