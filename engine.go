package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Pisol00/jobsdb-backend/jwt"
	"github.com/Pisol00/jobsdb-backend/password"
)

// Engine defines a public type used by the authentication module APIs.
//
// Engine is the orchestration core: login with brute-force protection,
// email one-time-code two-factor, trusted devices, email verification,
// password reset, federated login, and the unverified-account sweep.
// Construct it through [Builder.Build]; all methods are safe for concurrent
// use afterwards.
type Engine struct {
	config   Config
	users    UserStore
	attempts LoginAttemptStore
	devices  TrustedDeviceStore
	mailer   MailSender
	tokens   *jwt.Manager
	hasher   *password.Hasher
	validate *validator.Validate

	resendLimiter *fixedWindowLimiter
	resetLimiter  *fixedWindowLimiter

	audit   *auditDispatcher
	metrics *Metrics
}

// Close releases background resources (the audit dispatcher). The engine
// must not be used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// Metrics exposes the engine's counter set for exporters.
func (e *Engine) Metrics() *Metrics {
	if e == nil {
		return nil
	}
	return e.metrics
}

// MetricsSnapshot copies the current counter values for exporters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded under pressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Authenticate parses and validates a session token, rejecting pending
// two-factor tokens. It is the check behind every protected surface.
//
// Authenticate may return [ErrTokenExpired] or [ErrTokenInvalid]; a pending
// two-factor token presented here maps to [ErrTokenInvalid].
func (e *Engine) Authenticate(ctx context.Context, token string) (*jwt.SessionClaims, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseSession(token)
	if err != nil {
		return nil, mapTokenError(err)
	}
	return claims, nil
}

// AuthenticateTemp parses and validates a pending two-factor token. Only
// the two-factor completion surfaces accept these.
func (e *Engine) AuthenticateTemp(ctx context.Context, token string) (*jwt.SessionClaims, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.ParseTemp(token)
	if err != nil {
		return nil, mapTokenError(err)
	}
	return claims, nil
}

func mapTokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// findByIdentifier resolves a login identifier to an account. Identifiers
// containing "@" are treated as email addresses; everything else as a
// username. Both are matched case-insensitively.
func (e *Engine) findByIdentifier(ctx context.Context, identifier string) (*User, error) {
	identifier = normalizeIdentifier(identifier)
	if identifier == "" {
		return nil, ErrUserNotFound
	}

	if strings.Contains(identifier, "@") {
		return e.users.FindByEmail(ctx, identifier)
	}
	return e.users.FindByUsername(ctx, identifier)
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func (e *Engine) issueSession(user *User, rememberMe bool) (string, error) {
	token, err := e.tokens.CreateSession(user.ID, user.Email, rememberMe)
	if err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	return token, nil
}

// sendMail delivers through the configured sender and folds failures into
// metrics and audit. Callers decide whether a failure aborts the flow.
func (e *Engine) sendMail(ctx context.Context, userID string, to string, subject string, body string) error {
	if err := e.mailer.Send(ctx, to, subject, body); err != nil {
		e.metricInc(MetricMailFailure)
		e.emitAudit(ctx, auditEventMailFailure, false, userID, ErrMailDelivery, func() map[string]string {
			return map[string]string{"subject": subject}
		})
		return fmt.Errorf("%w: %v", ErrMailDelivery, err)
	}
	return nil
}

// clearTwoFactorChallenge wipes any pending one-time code and temp token
// pin from the user record. The caller persists the record.
func clearTwoFactorChallenge(user *User) {
	user.TwoFactorOTP = ""
	user.TwoFactorExpires = time.Time{}
	user.LastTempToken = ""
}
