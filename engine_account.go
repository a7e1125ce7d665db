package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ChangePassword rotates a local account's password after verifying the
// current one. The new password must differ from the current one, and the
// rotation revokes every trusted device plus any pending challenges, so
// two-factor is required again everywhere.
//
// ChangePassword may return an error when input validation, dependency calls, or security checks fail.
// ChangePassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ChangePassword(ctx context.Context, userID string, currentPass string, newPass string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.PasswordHash == "" {
		// Federated-only accounts have no password to change.
		return e.failPasswordChange(ctx, user.ID, ErrInvalidCredentials)
	}

	ok, err := e.hasher.Verify(currentPass, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return e.failPasswordChange(ctx, user.ID, ErrInvalidCredentials)
	}

	if len(newPass) < e.config.Password.MinLength {
		return e.failPasswordChange(ctx, user.ID, ErrPasswordPolicy)
	}
	same, err := e.hasher.Verify(newPass, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if same {
		return e.failPasswordChange(ctx, user.ID, ErrPasswordReuse)
	}

	hash, err := e.hasher.Hash(newPass)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = hash
	clearTwoFactorChallenge(user)
	user.ResetToken = ""
	user.ResetExpires = time.Time{}
	user.UpdatedAt = time.Now()
	if err := e.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store password: %w", err)
	}

	e.purgeTrustedDevices(ctx, user.ID, "password_change")

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, user.ID, nil, nil)
	return nil
}

func (e *Engine) failPasswordChange(ctx context.Context, userID string, cause error) error {
	e.metricInc(MetricPasswordChangeFailure)
	e.emitAudit(ctx, auditEventPasswordChangeFailure, false, userID, cause, nil)
	return cause
}

// EnableTwoFactor turns on the email one-time-code challenge for future
// logins.
func (e *Engine) EnableTwoFactor(ctx context.Context, userID string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if user.TwoFactorEnabled {
		return nil
	}

	user.TwoFactorEnabled = true
	user.UpdatedAt = time.Now()
	if err := e.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store user: %w", err)
	}

	e.emitAudit(ctx, auditEventTwoFactorEnabled, true, user.ID, nil, nil)
	return nil
}

// DisableTwoFactor turns the challenge off, wipes any pending one-time
// code, and forgets every trusted device: re-enabling later starts from a
// clean slate.
func (e *Engine) DisableTwoFactor(ctx context.Context, userID string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}

	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	user.TwoFactorEnabled = false
	clearTwoFactorChallenge(user)
	user.UpdatedAt = time.Now()
	if err := e.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store user: %w", err)
	}

	e.purgeTrustedDevices(ctx, user.ID, "two_factor_disabled")

	e.emitAudit(ctx, auditEventTwoFactorDisabled, true, user.ID, nil, nil)
	return nil
}

// purgeTrustedDevices drops every trusted-device record for the user.
// Best effort: a store failure is audited but never fails the calling
// security operation.
func (e *Engine) purgeTrustedDevices(ctx context.Context, userID string, reason string) {
	n, err := e.devices.DeleteAllForUser(ctx, userID)
	if err != nil {
		e.emitAudit(ctx, auditEventTrustedDevicesPurged, false, userID, ErrStoreUnavailable, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return
	}
	if n == 0 {
		return
	}

	e.metricInc(MetricTrustedDevicesPurged)
	e.emitAudit(ctx, auditEventTrustedDevicesPurged, true, userID, nil, func() map[string]string {
		return map[string]string{"reason": reason, "count": fmt.Sprintf("%d", n)}
	})
}
