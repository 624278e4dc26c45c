package auth

import (
	"github.com/jlowell/doorman/storage"
)

// MaxFailedAttempts is the number of recorded failures after which an
// account is denied further authentication attempts.
const MaxFailedAttempts = 5

// Lockout tracks failed attempts per account against the credential store
// and decides admit/deny. The policy is account-scoped, not IP-scoped, and
// does not distinguish failed-password from failed-OTP causes; both count
// toward the same threshold. The counter has no time-based decay; a locked
// account stays locked until an explicit reset.
type Lockout struct {
	store storage.Store
	max   int
}

// NewLockout creates a Lockout policy over the given store with the
// default threshold.
func NewLockout(store storage.Store) *Lockout {
	return &Lockout{store: store, max: MaxFailedAttempts}
}

// Admit reports whether the account is still below the failure threshold.
func (l *Lockout) Admit(account *storage.Account) bool {
	return account.FailedAttempts < l.max
}

// RecordFailure increments the account's failed-attempt counter and
// persists it, returning the new count and whether the account is now
// locked. The write completes before the caller surfaces any error, so a
// crash after recording cannot lose the attempt.
func (l *Lockout) RecordFailure(accountID string) (locked bool, err error) {
	var attempts int
	err = l.store.Update(accountID, func(a *storage.Account) error {
		a.FailedAttempts++
		attempts = a.FailedAttempts
		return nil
	})
	if err != nil {
		return false, err
	}
	return attempts >= l.max, nil
}

// RecordSuccess resets the account's failed-attempt counter to zero and
// persists it.
func (l *Lockout) RecordSuccess(accountID string) error {
	return l.store.Update(accountID, func(a *storage.Account) error {
		a.FailedAttempts = 0
		return nil
	})
}
