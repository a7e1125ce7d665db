package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Pisol00/jobsdb-backend/internal"
	"github.com/Pisol00/jobsdb-backend/mail"
)

// LoginOptions defines a public type used by the authentication module APIs.
type LoginOptions struct {
	RememberMe bool
}

// Login describes the login operation and its observable behavior.
//
// The attempt passes the brute-force guard first; a locked caller is
// rejected before any credential work with a [LockoutError]. Valid
// credentials on an unverified account return [ErrEmailNotVerified]
// without a token. With two-factor enabled, a trusted device receives a
// session token directly; otherwise a one-time code is emailed and the
// returned [LoginResult] carries only the pending temp token.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, identifier string, pass string, opts LoginOptions) (*LoginResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	filter := e.loginFilter(ctx, identifier)
	if state := e.checkLockout(ctx, filter); state.Locked {
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, auditEventLoginLocked, false, "", ErrAccountLocked, func() map[string]string {
			return map[string]string{
				"identifier": normalizeIdentifier(identifier),
				"retry_in_s": strconv.Itoa(int(state.Remaining.Seconds() + 0.5)),
			}
		})
		return nil, &LockoutError{Until: state.Until, Remaining: state.Remaining}
	}

	user, err := e.findByIdentifier(ctx, identifier)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("lookup user: %w", err)
		}
		return nil, e.failLogin(ctx, "", identifier)
	}

	if user.PasswordHash == "" || pass == "" {
		// Federated-only account, or empty submission. Same answer as a
		// wrong password so the distinction is not observable.
		return nil, e.failLogin(ctx, user.ID, identifier)
	}

	ok, err := e.hasher.Verify(pass, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, e.failLogin(ctx, user.ID, identifier)
	}

	if e.config.EmailVerification.RequireForLogin && !user.IsEmailVerified {
		e.recordLoginAttempt(ctx, user.ID, identifier, true)
		e.metricInc(MetricLoginUnverified)
		e.emitAudit(ctx, auditEventLoginUnverified, false, user.ID, ErrEmailNotVerified, nil)
		return nil, ErrEmailNotVerified
	}

	e.resetFailedLoginAttempts(ctx, user, identifier)

	if !user.TwoFactorEnabled {
		return e.completeLogin(ctx, user, opts.RememberMe)
	}

	if deviceID := deviceIDFromContext(ctx); deviceID != "" {
		device, err := e.devices.Get(ctx, user.ID, deviceID)
		if err == nil {
			e.touchTrustedDevice(ctx, device)
			e.metricInc(MetricTrustedDeviceHit)
			e.emitAudit(ctx, auditEventTrustedDeviceUsed, true, user.ID, nil, nil)
			return e.completeLogin(ctx, user, opts.RememberMe)
		}
		// Unknown device or store failure both fall through to the
		// two-factor challenge.
	}

	return e.beginTwoFactor(ctx, user)
}

func (e *Engine) failLogin(ctx context.Context, userID string, identifier string) error {
	e.recordLoginAttempt(ctx, userID, identifier, false)
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, ErrInvalidCredentials, func() map[string]string {
		return map[string]string{"identifier": normalizeIdentifier(identifier)}
	})
	return ErrInvalidCredentials
}

func (e *Engine) completeLogin(ctx context.Context, user *User, rememberMe bool) (*LoginResult, error) {
	token, err := e.issueSession(user, rememberMe)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, nil, nil)

	return &LoginResult{
		SessionToken: token,
		User:         user.Sanitized(),
	}, nil
}

// beginTwoFactor issues a fresh one-time code and pending temp token. The
// new challenge replaces any previous one: the temp token pin on the user
// record means only the latest token can complete the flow.
//
// The emailed code is the whole point of the challenge, so a delivery
// failure rolls the challenge state back and fails the login.
func (e *Engine) beginTwoFactor(ctx context.Context, user *User) (*LoginResult, error) {
	otp, err := internal.NewOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	tempToken, err := e.tokens.CreateTemp(user.ID, user.Email, deviceIDFromContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("temp token: %w", err)
	}

	prevOTP := user.TwoFactorOTP
	prevExpires := user.TwoFactorExpires
	prevTemp := user.LastTempToken

	user.TwoFactorOTP = otp
	user.TwoFactorExpires = time.Now().Add(e.config.TwoFactor.OTPTTL)
	user.LastTempToken = tempToken
	if err := e.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("store otp challenge: %w", err)
	}

	subject, body := mail.TwoFactorEmail(e.config.Mail.AppName, otp, e.config.TwoFactor.OTPTTL)
	if err := e.sendMail(ctx, user.ID, user.Email, subject, body); err != nil {
		user.TwoFactorOTP = prevOTP
		user.TwoFactorExpires = prevExpires
		user.LastTempToken = prevTemp
		_ = e.users.Update(ctx, user)
		return nil, err
	}

	e.metricInc(MetricOTPIssued)
	e.emitAudit(ctx, auditEventOTPIssued, true, user.ID, nil, nil)

	return &LoginResult{
		TwoFactorRequired: true,
		TempToken:         tempToken,
		User:              user.Sanitized(),
	}, nil
}

func (e *Engine) touchTrustedDevice(ctx context.Context, device *TrustedDevice) {
	now := time.Now()
	device.LastUsedAt = now
	device.IP = clientIPFromContext(ctx)
	if ua := userAgentFromContext(ctx); ua != "" {
		device.UserAgent = ua
	}
	if e.config.TrustedDevice.SlidingExpiry {
		device.ExpiresAt = now.Add(e.config.TrustedDevice.TTL)
	}
	_ = e.devices.Upsert(ctx, device)
}
