package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jlowell/doorman/auth"
)

// minPasswordLen is the minimum password length required for
// registration. The password is the only human-chosen secret in the
// scheme; enforcing a minimum length ensures a baseline of entropy.
const minPasswordLen = 10

// Register handles POST /auth/register.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[RegisterRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, http.StatusBadRequest, "password must be at least 10 characters")
		return
	}

	accountID, err := a.authenticator.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		mapError(w, err)
		return
	}

	a.events.logEvent(EventRegister, r, accountID)
	writeJSON(w, http.StatusCreated, RegisterResponse{AccountID: accountID})
}

// Login handles POST /auth/login. A successful password check opens a
// session that is not yet authenticated; the one-time code must follow.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[LoginRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := a.authenticator.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.logAuthFailure(EventLoginFailure, r, err)
		mapError(w, err)
		return
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(a.sessionTTL)
	a.sessions.Put(token, AuthSession{
		AccountID:      result.AccountID,
		ExpiresAt:      expiresAt,
		LastAccessedAt: time.Now(),
	})
	writeSessionCookie(w, r, token, expiresAt)

	a.events.logEvent(EventLoginSuccess, r, result.AccountID,
		slog.Bool("needs_provisioning", result.NeedsProvisioning))
	writeJSON(w, http.StatusOK, LoginResponse{
		NeedsProvisioning: result.NeedsProvisioning,
		Secret:            result.Secret,
		OtpauthURL:        result.ProvisioningURI,
	})
}

// Provisioning handles GET /auth/totp. It is reachable after the
// password stage so a client that lost the first-login response can
// still enroll its authenticator.
func (a *API) Provisioning(w http.ResponseWriter, r *http.Request) {
	ref, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	secret, uri, err := a.authenticator.ProvisioningInfo(r.Context(), ref.session.AccountID)
	if err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProvisioningResponse{
		Secret:     secret,
		OtpauthURL: uri,
	})
}

// VerifyOTP handles POST /auth/otp/verify, the second stage of the
// interactive flow. Success upgrades the session to authenticated.
func (a *API) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	ref, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	req, ok := decodeJSON[VerifyOTPRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if req.OTP == "" {
		writeError(w, http.StatusBadRequest, "otp is required")
		return
	}

	if err := a.authenticator.VerifyOTP(r.Context(), ref.session.AccountID, req.OTP); err != nil {
		a.logAuthFailure(EventOTPFailure, r, err, slog.String("account_id", ref.session.AccountID))
		mapError(w, err)
		return
	}

	ref.session.Authenticated = true
	a.sessions.Put(ref.token, ref.session)

	a.events.logEvent(EventOTPSuccess, r, ref.session.AccountID)
	writeJSON(w, http.StatusOK, StatusResponse{Status: "authenticated"})
}

// IssueAPIKey handles POST /auth/api-key. The key is returned on every
// call; issuing is a one-time event per account.
func (a *API) IssueAPIKey(w http.ResponseWriter, r *http.Request) {
	ref, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	key, err := a.authenticator.IssueAPIKey(r.Context(), ref.session.AccountID)
	if err != nil {
		mapError(w, err)
		return
	}

	a.events.logEvent(EventAPIKeyIssued, r, ref.session.AccountID)
	writeJSON(w, http.StatusOK, IssueAPIKeyResponse{APIKey: key})
}

// Logout handles POST /auth/logout. Logging out is always reported as
// success, even without a live session.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	var accountID string
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		if session, ok := a.sessions.Get(cookie.Value); ok {
			accountID = session.AccountID
		}
		a.sessions.Delete(cookie.Value)
	}
	if accountID != "" {
		if err := a.authenticator.Logout(r.Context(), accountID); err != nil {
			writeInternalError(w, "failed to end session")
			return
		}
	}
	clearSessionCookie(w, r)
	a.events.logEvent(EventLogout, r, accountID)
	writeJSON(w, http.StatusOK, StatusResponse{Status: "logged_out"})
}

// DeleteAccount handles DELETE /auth/account.
func (a *API) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ref, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := a.authenticator.Delete(r.Context(), ref.session.AccountID); err != nil {
		writeInternalError(w, "failed to delete account")
		return
	}
	a.sessions.Delete(ref.token)
	clearSessionCookie(w, r)

	a.events.logEvent(EventAccountDeleted, r, ref.session.AccountID)
	writeJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

// logAuthFailure classifies a failed attempt for the event log, calling
// out lockouts so they can be alerted on.
func (a *API) logAuthFailure(event AuthEvent, r *http.Request, err error, extra ...slog.Attr) {
	if errors.Is(err, auth.ErrAccountLocked) {
		a.events.logFailure(EventAccountLocked, r, err.Error(), extra...)
		return
	}
	a.events.logFailure(event, r, err.Error(), extra...)
}
