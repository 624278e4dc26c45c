package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuthEvent identifies the type of security-relevant action being logged.
type AuthEvent string

const (
	EventRegister       AuthEvent = "register"
	EventLoginSuccess   AuthEvent = "login_success"
	EventLoginFailure   AuthEvent = "login_failure"
	EventOTPSuccess     AuthEvent = "otp_success"
	EventOTPFailure     AuthEvent = "otp_failure"
	EventAccountLocked  AuthEvent = "account_locked"
	EventAPIKeyIssued   AuthEvent = "api_key_issued"
	EventAPIAuthSuccess AuthEvent = "api_auth_success"
	EventAPIAuthFailure AuthEvent = "api_auth_failure"
	EventLogout         AuthEvent = "logout"
	EventAccountDeleted AuthEvent = "account_deleted"
)

// eventLogger wraps slog.Logger for structured security event logging.
type eventLogger struct {
	logger *slog.Logger
}

func newEventLogger(logger *slog.Logger) *eventLogger {
	return &eventLogger{
		logger: logger.With("component", "auth-events"),
	}
}

// log writes a structured event entry. Account IDs are opaque UUIDs, safe
// for logs; emails, passwords, secrets, and API keys never appear here.
func (el *eventLogger) log(event AuthEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	el.logger.LogAttrs(r.Context(), slog.LevelInfo, "auth", baseAttrs...)
}

// logEvent is a convenience for events with an account ID.
func (el *eventLogger) logEvent(event AuthEvent, r *http.Request, accountID string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("account_id", accountID),
	}
	attrs = append(attrs, extra...)
	el.log(event, r, attrs...)
}

// logFailure logs a failed authentication attempt.
func (el *eventLogger) logFailure(event AuthEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	el.log(event, r, attrs...)
}
