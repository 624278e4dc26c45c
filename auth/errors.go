package auth

import "errors"

// Every failure surfaced by this package is one of these classified
// sentinels; callers never see raw storage or crypto errors for an
// authentication outcome. A failure is terminal for the current attempt;
// any retry is caller-driven.
var (
	// ErrDuplicateEmail is returned when registering an email that is
	// already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned for a wrong password or an unknown
	// email. The two cases are intentionally indistinguishable.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked is returned once the failed-attempt threshold is
	// reached.
	ErrAccountLocked = errors.New("account locked due to too many failed attempts")
	// ErrInvalidOTP is returned when a submitted one-time code does not
	// match any code in the tolerance window, or is malformed.
	ErrInvalidOTP = errors.New("invalid one-time code")
	// ErrUnauthorized is returned for a bad or unknown API key, or when
	// TOTP has not been provisioned on the API path.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotProvisioned is returned when an operation requires a TOTP
	// secret that has not been set up yet.
	ErrNotProvisioned = errors.New("two-factor setup required")
)
