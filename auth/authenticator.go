// Package auth implements the authentication core: password verification,
// TOTP secret provisioning and verification, per-account lockout
// accounting, and API key issuance. It operates on an injected
// storage.Store handle; there is no ambient global state.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jlowell/doorman/internal/util"
	"github.com/jlowell/doorman/storage"
)

const (
	defaultIssuer          = "Doorman"
	defaultHashConcurrency = 4
	apiKeyBytes            = 32
)

// Authenticator orchestrates the authentication state machine for
// interactive callers and the stateless API-key path. All methods are safe
// for concurrent use; per-account mutations are serialized by the store.
type Authenticator struct {
	store    storage.Store
	lockout  *Lockout
	issuer   string
	hashGate chan struct{}
	now      func() time.Time
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithIssuer sets the issuer label embedded in provisioning URIs.
func WithIssuer(issuer string) Option {
	return func(a *Authenticator) {
		a.issuer = issuer
	}
}

// WithHashConcurrency bounds how many password hashes may run at once.
// Argon2id is deliberately memory- and CPU-hungry; the gate keeps a burst
// of login attempts from starving I/O-bound request handling.
func WithHashConcurrency(n int) Option {
	return func(a *Authenticator) {
		if n > 0 {
			a.hashGate = make(chan struct{}, n)
		}
	}
}

// WithClock overrides the time source used for TOTP verification.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// New creates an Authenticator over the given store.
func New(store storage.Store, opts ...Option) *Authenticator {
	a := &Authenticator{
		store:    store,
		lockout:  NewLockout(store),
		issuer:   defaultIssuer,
		hashGate: make(chan struct{}, defaultHashConcurrency),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Lockout exposes the policy shared by the interactive and API paths.
func (a *Authenticator) Lockout() *Lockout {
	return a.lockout
}

// LoginResult reports a successful password check.
type LoginResult struct {
	AccountID string
	// NeedsProvisioning is true when this login created the TOTP secret;
	// the caller must surface Secret / ProvisioningURI before asking for
	// a code.
	NeedsProvisioning bool
	Secret            string
	ProvisioningURI   string
}

// dummyDigest is verified against when an email lookup misses, so the
// response time for "no such account" matches "wrong password".
var dummyDigest = sync.OnceValue(func() string {
	digest, err := HashPassword(uuid.NewString())
	if err != nil {
		return ""
	}
	return digest
})

// Register creates an account for an unused email and hashes the password
// immediately. Returns the new account ID, or ErrDuplicateEmail.
func (a *Authenticator) Register(ctx context.Context, email, password string) (string, error) {
	account, err := a.newAccount(ctx, email, password)
	if err != nil {
		return "", err
	}
	if err := a.store.Create(account); err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return "", ErrDuplicateEmail
		}
		return "", err
	}
	return account.ID, nil
}

// RegisterWithAPIKey creates an account like Register and additionally
// issues its API key at creation time, for third-party integrations that
// never hold a session.
func (a *Authenticator) RegisterWithAPIKey(ctx context.Context, email, password string) (id, apiKey string, err error) {
	account, err := a.newAccount(ctx, email, password)
	if err != nil {
		return "", "", err
	}
	for attempt := 0; attempt < 3; attempt++ {
		account.APIKey, err = util.RandomHex(apiKeyBytes)
		if err != nil {
			return "", "", err
		}
		err = a.store.Create(account)
		if errors.Is(err, storage.ErrDuplicateAPIKey) {
			continue
		}
		break
	}
	if err != nil {
		if errors.Is(err, storage.ErrDuplicateEmail) {
			return "", "", ErrDuplicateEmail
		}
		return "", "", err
	}
	return account.ID, account.APIKey, nil
}

func (a *Authenticator) newAccount(ctx context.Context, email, password string) (*storage.Account, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	digest, err := a.hashPassword(ctx, password)
	if err != nil {
		return nil, err
	}
	return &storage.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: digest,
		CreatedAt:    a.now().UTC(),
	}, nil
}

// Login performs the password stage of the interactive state machine:
// lookup, lockout admission, password verification, counter reset, and
// first-time TOTP secret provisioning. A hit on an unknown email never
// creates an account and never touches a counter.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	account, err := a.store.GetByEmail(email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Burn a verification so unknown emails are not
			// distinguishable by response time.
			a.verifyPassword(ctx, password, dummyDigest())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !a.lockout.Admit(account) {
		return nil, ErrAccountLocked
	}
	if !a.verifyPassword(ctx, password, account.PasswordHash) {
		locked, err := a.lockout.RecordFailure(account.ID)
		if err != nil {
			return nil, err
		}
		if locked {
			return nil, ErrAccountLocked
		}
		return nil, ErrInvalidCredentials
	}
	if err := a.lockout.RecordSuccess(account.ID); err != nil {
		return nil, err
	}

	result := &LoginResult{AccountID: account.ID}
	if account.TOTPSecret == "" {
		secret, err := a.provisionSecret(account.ID)
		if err != nil {
			return nil, err
		}
		result.NeedsProvisioning = true
		result.Secret = secret
		result.ProvisioningURI = ProvisioningURI(a.issuer, account.Email, secret)
	}
	return result, nil
}

// provisionSecret generates and persists the TOTP secret if the account
// does not have one yet. The set-if-absent inside the store transaction
// keeps the secret immutable under concurrent first logins; the winner's
// secret is returned either way.
func (a *Authenticator) provisionSecret(accountID string) (string, error) {
	fresh, err := GenerateSecret()
	if err != nil {
		return "", err
	}
	var secret string
	err = a.store.Update(accountID, func(acc *storage.Account) error {
		if acc.TOTPSecret == "" {
			acc.TOTPSecret = fresh
		}
		secret = acc.TOTPSecret
		return nil
	})
	if err != nil {
		return "", err
	}
	return secret, nil
}

// ProvisioningInfo returns the account's TOTP secret and provisioning URI
// for rendering (e.g. as a QR code) by the transport layer.
func (a *Authenticator) ProvisioningInfo(ctx context.Context, accountID string) (secret, uri string, err error) {
	account, err := a.store.GetByID(accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", "", ErrUnauthorized
		}
		return "", "", err
	}
	if account.TOTPSecret == "" {
		return "", "", ErrNotProvisioned
	}
	return account.TOTPSecret, ProvisioningURI(a.issuer, account.Email, account.TOTPSecret), nil
}

// VerifyOTP performs the second stage of the interactive state machine.
// Lockout is re-checked independently of the password stage, so an
// account can lock purely from repeated OTP guesses. The failure is
// persisted before the classified error is returned.
func (a *Authenticator) VerifyOTP(ctx context.Context, accountID, code string) error {
	account, err := a.store.GetByID(accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if account.TOTPSecret == "" {
		return ErrNotProvisioned
	}
	return a.checkCode(account, code)
}

// IssueAPIKey issues the account's API key, generating one on first call
// and returning the existing key on every call after that.
func (a *Authenticator) IssueAPIKey(ctx context.Context, accountID string) (string, error) {
	account, err := a.store.GetByID(accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}
	if account.APIKey != "" {
		return account.APIKey, nil
	}

	var key string
	for attempt := 0; attempt < 3; attempt++ {
		fresh, err := util.RandomHex(apiKeyBytes)
		if err != nil {
			return "", err
		}
		err = a.store.Update(accountID, func(acc *storage.Account) error {
			if acc.APIKey == "" {
				acc.APIKey = fresh
			}
			key = acc.APIKey
			return nil
		})
		if errors.Is(err, storage.ErrDuplicateAPIKey) {
			continue
		}
		if err != nil {
			return "", err
		}
		return key, nil
	}
	return "", storage.ErrDuplicateAPIKey
}

// AuthorizeAPI authenticates a stateless request by API key plus one-time
// code. An unknown key or an account without a provisioned secret fails
// closed as ErrUnauthorized. The same lockout policy and counter as the
// interactive path apply, so the API path cannot be used for unlimited
// code guessing while the interactive path is locked.
func (a *Authenticator) AuthorizeAPI(ctx context.Context, apiKey, code string) error {
	if apiKey == "" {
		return ErrUnauthorized
	}
	account, err := a.store.GetByAPIKey(apiKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if account.TOTPSecret == "" {
		return ErrUnauthorized
	}
	return a.checkCode(account, code)
}

// checkCode runs the shared lockout-then-verify sequence for a submitted
// one-time code.
func (a *Authenticator) checkCode(account *storage.Account, code string) error {
	if !a.lockout.Admit(account) {
		return ErrAccountLocked
	}
	if !VerifyCode(account.TOTPSecret, code, ToleranceSteps, a.now()) {
		locked, err := a.lockout.RecordFailure(account.ID)
		if err != nil {
			return err
		}
		if locked {
			return ErrAccountLocked
		}
		return ErrInvalidOTP
	}
	return a.lockout.RecordSuccess(account.ID)
}

// Logout resets the failed-attempt counter; clearing a lockout is tied to
// an explicit logout rather than a timer.
func (a *Authenticator) Logout(ctx context.Context, accountID string) error {
	err := a.lockout.RecordSuccess(accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// Delete removes the account and, through the storage boundary, all of
// its index entries. Deleting an already-gone account is not an error.
func (a *Authenticator) Delete(ctx context.Context, accountID string) error {
	err := a.store.Delete(accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// hashPassword runs HashPassword behind the bounded concurrency gate.
func (a *Authenticator) hashPassword(ctx context.Context, password string) (string, error) {
	a.hashGate <- struct{}{}
	defer func() { <-a.hashGate }()
	return HashPassword(password)
}

// verifyPassword runs VerifyPassword behind the bounded concurrency gate.
func (a *Authenticator) verifyPassword(ctx context.Context, password, digest string) bool {
	a.hashGate <- struct{}{}
	defer func() { <-a.hashGate }()
	return VerifyPassword(password, digest)
}
