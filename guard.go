package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// checkLockout evaluates the brute-force guard for one login attempt.
//
// Failures are counted inside the configured window, but never further back
// than the most recent successful attempt matching the same filter: a
// successful login always clears accumulated suspicion. Reaching the
// ceiling locks the filter for the lockout duration measured from the most
// recent failure. Once that expires the caller is let through again and the
// next failure starts a fresh lockout.
//
// The guard fails open: if the attempt store is unreachable the check
// reports unlocked rather than denying all logins.
func (e *Engine) checkLockout(ctx context.Context, filter AttemptFilter) LockoutState {
	if !e.config.BruteForce.Enabled {
		return LockoutState{AttemptsLeft: e.config.BruteForce.MaxAttempts}
	}

	now := time.Now()
	windowStart := now.Add(-e.config.BruteForce.Window)

	lastSuccess, err := e.attempts.LastSuccessAt(ctx, filter)
	if err != nil {
		return LockoutState{AttemptsLeft: e.config.BruteForce.MaxAttempts}
	}
	if lastSuccess.After(windowStart) {
		windowStart = lastSuccess
	}

	count, err := e.attempts.CountFailuresSince(ctx, filter, windowStart)
	if err != nil {
		return LockoutState{AttemptsLeft: e.config.BruteForce.MaxAttempts}
	}
	if count < e.config.BruteForce.MaxAttempts {
		return LockoutState{AttemptsLeft: e.config.BruteForce.MaxAttempts - count}
	}

	lastFailure, err := e.attempts.LastFailureAt(ctx, filter, windowStart)
	if err != nil {
		return LockoutState{AttemptsLeft: e.config.BruteForce.MaxAttempts}
	}

	until := lastFailure.Add(e.config.BruteForce.LockoutDuration)
	if now.Before(until) {
		return LockoutState{
			Locked:    true,
			Until:     until,
			Remaining: until.Sub(now),
		}
	}

	// Lockout expired. One more attempt is allowed; a failure re-locks.
	return LockoutState{AttemptsLeft: 1}
}

// recordLoginAttempt persists one credential-check outcome. Recording is
// best effort: a write failure never turns a decided login outcome into an
// error.
func (e *Engine) recordLoginAttempt(ctx context.Context, userID string, identifier string, success bool) {
	attempt := &LoginAttempt{
		ID:         uuid.NewString(),
		UserID:     userID,
		Identifier: normalizeIdentifier(identifier),
		IP:         clientIPFromContext(ctx),
		DeviceID:   deviceIDFromContext(ctx),
		UserAgent:  userAgentFromContext(ctx),
		Success:    success,
		CreatedAt:  time.Now(),
	}
	_ = e.attempts.Record(ctx, attempt)
}

// resetFailedLoginAttempts records the successful attempt that anchors a
// fresh counting window and backfills the user ID onto recent anonymous
// failures so per-account history stays attributable.
func (e *Engine) resetFailedLoginAttempts(ctx context.Context, user *User, identifier string) {
	e.recordLoginAttempt(ctx, user.ID, identifier, true)

	since := time.Now().Add(-e.config.BruteForce.Window)
	filter := AttemptFilter{
		IP:         clientIPFromContext(ctx),
		Identifier: normalizeIdentifier(identifier),
		DeviceID:   deviceIDFromContext(ctx),
	}
	_ = e.attempts.AttributeUser(ctx, filter, since, user.ID)
}

func (e *Engine) loginFilter(ctx context.Context, identifier string) AttemptFilter {
	return AttemptFilter{
		IP:         clientIPFromContext(ctx),
		Identifier: normalizeIdentifier(identifier),
		DeviceID:   deviceIDFromContext(ctx),
	}
}
