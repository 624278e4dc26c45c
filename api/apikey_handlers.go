package api

import (
	"errors"
	"net/http"

	"github.com/jlowell/doorman/auth"
)

// apiKeyHeader carries the account's API key on the stateless path.
const apiKeyHeader = "X-API-Key"

// APIRegister handles POST /api/register: account creation for machine
// clients, returning the API key alongside the new account ID. The TOTP
// secret is still provisioned through an interactive first login.
func (a *API) APIRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[APIRegisterRequest](w, r, maxAuthBodySize)
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

	accountID, apiKey, err := a.authenticator.RegisterWithAPIKey(r.Context(), req.Email, req.Password)
	if err != nil {
		mapError(w, err)
		return
	}

	a.events.logEvent(EventRegister, r, accountID)
	writeJSON(w, http.StatusCreated, APIRegisterResponse{
		AccountID: accountID,
		APIKey:    apiKey,
	})
}

// APIVerify handles POST /api/2fa/verify: stateless two-factor
// verification by API key plus one-time code. No session is created;
// every request authenticates from scratch.
func (a *API) APIVerify(w http.ResponseWriter, r *http.Request) {
	apiKey := r.Header.Get(apiKeyHeader)
	if apiKey == "" {
		writeError(w, http.StatusUnauthorized, "missing X-API-Key header")
		return
	}

	req, ok := decodeJSON[APIVerifyRequest](w, r, maxAuthBodySize)
	if !ok {
		return
	}
	if req.OTP == "" {
		writeError(w, http.StatusBadRequest, "otp is required")
		return
	}

	if err := a.authenticator.AuthorizeAPI(r.Context(), apiKey, req.OTP); err != nil {
		a.logAuthFailure(EventAPIAuthFailure, r, err)
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, http.StatusForbidden, "invalid api key")
			return
		}
		mapError(w, err)
		return
	}

	a.events.log(EventAPIAuthSuccess, r)
	writeJSON(w, http.StatusOK, StatusResponse{Status: "verified"})
}
