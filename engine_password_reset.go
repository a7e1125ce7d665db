package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pisol00/jobsdb-backend/internal"
	"github.com/Pisol00/jobsdb-backend/mail"
)

// ForgotPassword starts the reset flow for a local account.
//
// The surface is enumeration-safe: a nil error means "if that address has
// an account, mail was sent", whether or not it does. Unknown addresses
// and federated-only accounts burn a small delay so the negative path does
// not answer faster than the real one. The throttle keys on the submitted
// address and the caller IP before any lookup.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}
	email = normalizeIdentifier(email)

	if e.resetLimiter != nil {
		limited, err := e.resetLimiter.Check(ctx, email, clientIPFromContext(ctx))
		if err == nil && limited {
			return ErrResetThrottled
		}
		// Limiter backend failure fails open.
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.sleepEnumerationDelay(ctx)
			return nil
		}
		return fmt.Errorf("lookup email: %w", err)
	}
	if user.PasswordHash == "" {
		// Federated-only account, nothing to reset.
		e.sleepEnumerationDelay(ctx)
		return nil
	}

	secret, err := internal.NewChallengeSecret()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	prevToken, prevExpires := user.ResetToken, user.ResetExpires
	user.ResetToken = internal.HashChallengeSecret(secret)
	user.ResetExpires = time.Now().Add(e.config.PasswordReset.TokenTTL)
	if err := e.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store reset challenge: %w", err)
	}

	resetURL := e.config.Mail.BaseURL + "/auth/reset-password?token=" + secret
	subject, body := mail.ResetEmail(e.config.Mail.AppName, resetURL, e.config.PasswordReset.TokenTTL)
	if err := e.sendMail(ctx, user.ID, user.Email, subject, body); err != nil {
		user.ResetToken = prevToken
		user.ResetExpires = prevExpires
		_ = e.users.Update(ctx, user)
		return err
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, user.ID, nil, nil)
	return nil
}

// VerifyResetToken reports whether a reset token is currently redeemable,
// without consuming it. Front ends call this before showing the new
// password form.
func (e *Engine) VerifyResetToken(ctx context.Context, token string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	_, err := e.userByResetToken(ctx, token)
	return err
}

// ResetPassword redeems a reset token and installs the new password. The
// token is single use; success wipes it together with every trusted device
// and any pending two-factor challenge.
func (e *Engine) ResetPassword(ctx context.Context, token string, newPass string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	user, err := e.userByResetToken(ctx, token)
	if err != nil {
		return err
	}

	if len(newPass) < e.config.Password.MinLength {
		return ErrPasswordPolicy
	}
	if user.PasswordHash != "" {
		same, err := e.hasher.Verify(newPass, user.PasswordHash)
		if err != nil {
			return fmt.Errorf("verify password: %w", err)
		}
		if same {
			return ErrPasswordReuse
		}
	}

	hash, err := e.hasher.Hash(newPass)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = hash
	user.ResetToken = ""
	user.ResetExpires = time.Time{}
	clearTwoFactorChallenge(user)
	user.UpdatedAt = time.Now()
	if err := e.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store password: %w", err)
	}

	e.purgeTrustedDevices(ctx, user.ID, "password_reset")

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, user.ID, nil, nil)
	return nil
}

func (e *Engine) userByResetToken(ctx context.Context, token string) (*User, error) {
	if !internal.ValidChallengeSecret(token) {
		return nil, e.failReset(ctx)
	}

	user, err := e.users.FindByResetTokenDigest(ctx, internal.HashChallengeSecret(token))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, e.failReset(ctx)
		}
		return nil, fmt.Errorf("lookup reset token: %w", err)
	}
	if time.Now().After(user.ResetExpires) {
		return nil, e.failReset(ctx)
	}
	return user, nil
}

func (e *Engine) failReset(ctx context.Context) error {
	e.metricInc(MetricPasswordResetFailure)
	e.emitAudit(ctx, auditEventPasswordResetFailure, false, "", ErrResetTokenInvalid, nil)
	return ErrResetTokenInvalid
}

func (e *Engine) sleepEnumerationDelay(ctx context.Context) {
	d := e.config.PasswordReset.EnumerationDelay
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
