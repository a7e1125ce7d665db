package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/Pisol00/jobsdb-backend/mail"
)

// CleanupUnverifiedAccounts runs one sweep over accounts that never
// completed email verification: accounts older than the deletion age are
// removed, and accounts past the warning age receive a deletion warning,
// capped per account and spaced by the minimum warning interval. With
// warnings disabled in [CleanupConfig] the sweep only deletes.
//
// The sweep is idempotent: a second run right after the first deletes
// nothing new and sends no duplicate warnings. Per-account failures are
// skipped so one bad record cannot stall the sweep.
func (e *Engine) CleanupUnverifiedAccounts(ctx context.Context) (CleanupResult, error) {
	if e == nil || e.users == nil {
		return CleanupResult{}, ErrEngineNotReady
	}

	now := time.Now()
	warningCutoff := now.Add(-e.config.Cleanup.WarningAge)
	deletionCutoff := now.Add(-e.config.Cleanup.DeletionAge)

	candidates, err := e.users.FindUnverifiedCreatedBefore(ctx, warningCutoff)
	if err != nil {
		return CleanupResult{}, fmt.Errorf("list unverified accounts: %w", err)
	}

	result := CleanupResult{Scanned: len(candidates)}
	for _, user := range candidates {
		if user.IsEmailVerified {
			continue
		}

		if !user.CreatedAt.After(deletionCutoff) {
			if err := e.users.Delete(ctx, user.ID); err != nil {
				continue
			}
			result.Deleted++
			e.metricInc(MetricAccountDeleted)
			e.emitAudit(ctx, auditEventAccountDeleted, true, user.ID, nil, func() map[string]string {
				return map[string]string{"reason": "unverified_expired"}
			})
			continue
		}

		if e.config.Cleanup.SendWarnings && e.warnUnverified(ctx, user, now) {
			result.WarningsSent++
		}
	}

	return result, nil
}

// warnUnverified sends at most one deletion warning per interval per
// account. The counter advances only after the mail was accepted, so a
// failed delivery is retried on the next sweep.
func (e *Engine) warnUnverified(ctx context.Context, user *User, now time.Time) bool {
	if user.WarningEmailCount >= e.config.Cleanup.MaxWarningEmails {
		return false
	}
	if !user.LastWarningEmailAt.IsZero() &&
		now.Sub(user.LastWarningEmailAt) < e.config.Cleanup.MinWarningInterval {
		return false
	}

	deleteAt := user.CreatedAt.Add(e.config.Cleanup.DeletionAge)
	daysLeft := int(deleteAt.Sub(now).Hours()/24) + 1
	if daysLeft < 1 {
		daysLeft = 1
	}

	subject, body := mail.DeletionWarningEmail(e.config.Mail.AppName, user.Username, daysLeft)
	if err := e.sendMail(ctx, user.ID, user.Email, subject, body); err != nil {
		return false
	}

	user.WarningEmailCount++
	user.LastWarningEmailAt = now
	if err := e.users.Update(ctx, user); err != nil {
		return false
	}

	e.metricInc(MetricDeletionWarningSent)
	e.emitAudit(ctx, auditEventDeletionWarningEmailed, true, user.ID, nil, func() map[string]string {
		return map[string]string{"warning_count": fmt.Sprintf("%d", user.WarningEmailCount)}
	})
	return true
}
