package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Pisol00/jobsdb-backend/internal"
	"github.com/Pisol00/jobsdb-backend/mail"
	"github.com/Pisol00/jobsdb-backend/password"
)

// VerifyEmail completes the email-verification challenge and signs the
// caller in.
//
// Two redemption paths exist: the emailed link token alone, or the emailed
// one-time code together with the account's email address. Both consume
// the challenge, so redeeming the same link twice fails the second time.
// A successful verification also clears brute-force suspicion for the
// account identity and sends a welcome email in the background.
func (e *Engine) VerifyEmail(ctx context.Context, email string, otp string, linkToken string) (*LoginResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	var user *User
	var err error

	switch {
	case linkToken != "":
		user, err = e.userByVerifyToken(ctx, linkToken)
	case otp != "":
		user, err = e.userByVerifyOTP(ctx, email, otp)
	default:
		err = ErrVerificationInvalid
	}
	if err != nil {
		if errors.Is(err, ErrVerificationInvalid) {
			e.metricInc(MetricEmailVerifyFailure)
			e.emitAudit(ctx, auditEventEmailVerifyFailure, false, "", ErrVerificationInvalid, nil)
		}
		return nil, err
	}

	user.IsEmailVerified = true
	user.EmailVerifyToken = ""
	user.EmailVerifyExpires = time.Time{}
	clearTwoFactorChallenge(user)
	user.WarningEmailCount = 0
	user.LastWarningEmailAt = time.Time{}
	if err := e.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}

	// Proving mailbox ownership clears any suspicion accumulated against
	// the account identity.
	e.resetFailedLoginAttempts(ctx, user, user.Email)

	token, err := e.issueSession(user, false)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricEmailVerified)
	e.emitAudit(ctx, auditEventEmailVerified, true, user.ID, nil, nil)

	// Welcome mail is a courtesy; it never blocks or fails verification.
	go func(to string, username string, userID string) {
		sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		subject, body := mail.WelcomeEmail(e.config.Mail.AppName, username)
		_ = e.sendMail(sendCtx, userID, to, subject, body)
	}(user.Email, user.Username, user.ID)

	return &LoginResult{
		SessionToken: token,
		User:         user.Sanitized(),
	}, nil
}

func (e *Engine) userByVerifyToken(ctx context.Context, linkToken string) (*User, error) {
	if !internal.ValidChallengeSecret(linkToken) {
		return nil, ErrVerificationInvalid
	}

	user, err := e.users.FindByVerifyTokenDigest(ctx, internal.HashChallengeSecret(linkToken))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrVerificationInvalid
		}
		return nil, fmt.Errorf("lookup verify token: %w", err)
	}
	if time.Now().After(user.EmailVerifyExpires) {
		return nil, ErrVerificationInvalid
	}
	return user, nil
}

func (e *Engine) userByVerifyOTP(ctx context.Context, email string, otp string) (*User, error) {
	user, err := e.users.FindByEmail(ctx, normalizeIdentifier(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrVerificationInvalid
		}
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user.IsEmailVerified || user.TwoFactorOTP == "" {
		return nil, ErrVerificationInvalid
	}
	if time.Now().After(user.TwoFactorExpires) {
		return nil, ErrVerificationInvalid
	}
	if !password.ConstantTimeCompare(otp, user.TwoFactorOTP) {
		return nil, ErrVerificationInvalid
	}
	return user, nil
}

// ResendVerification re-issues the verification challenge for an
// unverified account. The response is identical whether or not the address
// belongs to an account, and the throttle applies before any lookup, so
// the surface cannot be used to enumerate registered emails.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	if e == nil || e.users == nil {
		return ErrEngineNotReady
	}
	email = normalizeIdentifier(email)

	if e.resendLimiter != nil {
		limited, err := e.resendLimiter.Check(ctx, email, clientIPFromContext(ctx))
		if err == nil && limited {
			return ErrVerificationThrottled
		}
		// Limiter backend failure fails open.
	}

	user, err := e.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("lookup email: %w", err)
	}
	if user.IsEmailVerified {
		return nil
	}

	if err := e.issueVerificationChallenge(ctx, user); err != nil {
		return err
	}

	e.metricInc(MetricVerificationResent)
	e.emitAudit(ctx, auditEventVerificationResent, true, user.ID, nil, nil)
	return nil
}
