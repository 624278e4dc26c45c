package api

import (
	"context"
	"net/http"
	"strings"
	"time"
)

type contextKey int

const sessionKey contextKey = iota

const sessionCookieName = "doorman_session"

// sessionRef ties a session to its token so handlers can update or
// delete it.
type sessionRef struct {
	token   string
	session AuthSession
}

// SessionMiddleware requires a valid session cookie at any stage of the
// authentication flow. Handlers behind it can still be waiting on the
// one-time code.
func (a *API) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref, ok := a.sessionFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, ref)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthMiddleware requires a session that has completed both stages.
func (a *API) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref, ok := a.sessionFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if !ref.session.Authenticated {
			writeError(w, http.StatusUnauthorized, "two-factor verification required")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, ref)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFromRequest resolves the session cookie and refreshes the
// last-accessed timestamp.
func (a *API) sessionFromRequest(r *http.Request) (sessionRef, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return sessionRef{}, false
	}
	session, ok := a.sessions.Get(cookie.Value)
	if !ok {
		return sessionRef{}, false
	}
	session.LastAccessedAt = time.Now()
	a.sessions.Put(cookie.Value, session)
	return sessionRef{token: cookie.Value, session: session}, true
}

func sessionFromContext(ctx context.Context) (sessionRef, bool) {
	ref, ok := ctx.Value(sessionKey).(sessionRef)
	return ref, ok
}

func writeSessionCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
	})
}

func clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestIsSecure(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func requestIsSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return true
	}
	return strings.Contains(strings.ToLower(r.Header.Get("Forwarded")), "proto=https")
}
