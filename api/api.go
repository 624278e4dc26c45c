// Package api exposes the authentication core over REST. Interactive
// clients hold a session cookie and walk the two-stage login flow;
// machine clients authenticate every request with an API key plus a
// one-time code.
package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/jlowell/doorman/auth"
)

const defaultSessionTTL = 24 * time.Hour

//go:embed openapi.yaml
var openapiSpec []byte

// API holds the dependencies needed by the REST handlers.
type API struct {
	authenticator *auth.Authenticator
	sessions      SessionStore
	sessionTTL    time.Duration
	events        *eventLogger
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for authentication events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.events = newEventLogger(logger)
	}
}

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(store SessionStore) Option {
	return func(a *API) {
		a.sessions = store
	}
}

// WithSessionTTL sets how long a session lives after login.
func WithSessionTTL(ttl time.Duration) Option {
	return func(a *API) {
		if ttl > 0 {
			a.sessionTTL = ttl
		}
	}
}

// New creates a new API instance.
func New(authenticator *auth.Authenticator, opts ...Option) *API {
	a := &API{
		authenticator: authenticator,
		sessionTTL:    defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sessions == nil {
		a.sessions = NewMemorySessionStore(0)
	}
	if a.events == nil {
		a.events = newEventLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Post("/auth/register", a.Register)
	r.Post("/auth/login", a.Login)
	r.Post("/auth/logout", a.Logout)
	r.With(a.SessionMiddleware).Get("/auth/totp", a.Provisioning)
	r.With(a.SessionMiddleware).Post("/auth/otp/verify", a.VerifyOTP)
	r.With(a.AuthMiddleware).Post("/auth/api-key", a.IssueAPIKey)
	r.With(a.AuthMiddleware).Delete("/auth/account", a.DeleteAccount)

	r.Post("/api/register", a.APIRegister)
	r.Post("/api/2fa/verify", a.APIVerify)

	return r
}
