package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pisol00/jobsdb-backend/password"
)

// VerifyOTPOptions defines a public type used by the authentication module APIs.
type VerifyOTPOptions struct {
	RememberDevice bool
	RememberMe     bool
}

// VerifyOTP completes a pending two-factor login.
//
// The presented temp token must be the exact token pinned on the user
// record; a token superseded by a regeneration fails with
// [ErrTempTokenStale] even when the one-time code itself is correct. The
// code is compared in constant time against the stored challenge. On
// success the challenge is consumed, the device is optionally remembered,
// and a full session token is issued.
func (e *Engine) VerifyOTP(ctx context.Context, tempToken string, otp string, opts VerifyOTPOptions) (*VerifyOTPResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.pendingTwoFactorUser(ctx, tempToken)
	if err != nil {
		return nil, err
	}

	if !password.ConstantTimeCompare(tempToken, user.LastTempToken) {
		e.metricInc(MetricTempTokenStale)
		e.emitAudit(ctx, auditEventTempTokenStale, false, user.ID, ErrTempTokenStale, nil)
		return nil, ErrTempTokenStale
	}

	if time.Now().After(user.TwoFactorExpires) {
		return nil, e.failOTP(ctx, user.ID)
	}
	if !password.ConstantTimeCompare(otp, user.TwoFactorOTP) {
		return nil, e.failOTP(ctx, user.ID)
	}

	clearTwoFactorChallenge(user)
	if err := e.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("consume otp challenge: %w", err)
	}

	deviceTrusted := false
	if deviceID := deviceIDFromContext(ctx); opts.RememberDevice && deviceID != "" {
		now := time.Now()
		device := &TrustedDevice{
			UserID:      user.ID,
			DeviceID:    deviceID,
			UserAgent:   userAgentFromContext(ctx),
			IP:          clientIPFromContext(ctx),
			FirstSeenAt: now,
			LastUsedAt:  now,
			ExpiresAt:   now.Add(e.config.TrustedDevice.TTL),
		}
		if err := e.devices.Upsert(ctx, device); err == nil {
			deviceTrusted = true
			e.metricInc(MetricTrustedDeviceSaved)
			e.emitAudit(ctx, auditEventTrustedDeviceSaved, true, user.ID, nil, nil)
		}
	}

	token, err := e.issueSession(user, opts.RememberMe)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricOTPVerified)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventOTPVerified, true, user.ID, nil, nil)

	return &VerifyOTPResult{
		SessionToken:  token,
		DeviceTrusted: deviceTrusted,
		User:          user.Sanitized(),
	}, nil
}

// RegenerateOTP replaces a pending two-factor challenge with a fresh code
// and a fresh temp token, invalidating both previous values. Regeneration
// is throttled against the issuance time of the code it replaces.
func (e *Engine) RegenerateOTP(ctx context.Context, tempToken string) (*LoginResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.pendingTwoFactorUser(ctx, tempToken)
	if err != nil {
		return nil, err
	}

	if !password.ConstantTimeCompare(tempToken, user.LastTempToken) {
		e.metricInc(MetricTempTokenStale)
		e.emitAudit(ctx, auditEventTempTokenStale, false, user.ID, ErrTempTokenStale, nil)
		return nil, ErrTempTokenStale
	}

	issuedAt := user.TwoFactorExpires.Add(-e.config.TwoFactor.OTPTTL)
	if time.Now().Before(issuedAt.Add(e.config.TwoFactor.RegenerateCooldown)) {
		e.emitAudit(ctx, auditEventOTPRegenerated, false, user.ID, ErrOTPThrottled, nil)
		return nil, ErrOTPThrottled
	}

	result, err := e.beginTwoFactor(ctx, user)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricOTPRegenerated)
	e.emitAudit(ctx, auditEventOTPRegenerated, true, user.ID, nil, nil)
	return result, nil
}

// pendingTwoFactorUser resolves the temp token to a user with a live
// pending challenge. Token parse failures are uniformly reported as
// [ErrTempTokenInvalid] so callers cannot probe token state.
func (e *Engine) pendingTwoFactorUser(ctx context.Context, tempToken string) (*User, error) {
	claims, err := e.tokens.ParseTemp(tempToken)
	if err != nil {
		return nil, ErrTempTokenInvalid
	}

	user, err := e.users.FindByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTempTokenInvalid
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.LastTempToken == "" || user.TwoFactorOTP == "" {
		return nil, ErrTwoFactorNotPending
	}
	return user, nil
}

func (e *Engine) failOTP(ctx context.Context, userID string) error {
	e.metricInc(MetricOTPFailure)
	e.emitAudit(ctx, auditEventOTPFailure, false, userID, ErrOTPInvalid, nil)
	return ErrOTPInvalid
}
