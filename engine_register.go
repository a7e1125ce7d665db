package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Pisol00/jobsdb-backend/internal"
	"github.com/Pisol00/jobsdb-backend/mail"
)

// Register creates a local account in the unverified state and immediately
// emails a verification challenge (one-time code plus signed link). The
// account cannot log in until the challenge is completed.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeIdentifier(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	if err := e.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("%w: %s failed on %s", ErrValidation, strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return nil, ErrValidation
	}
	if len(req.Password) < e.config.Password.MinLength {
		return nil, ErrPasswordPolicy
	}

	username := strings.ToLower(req.Username)
	if _, err := e.users.FindByUsername(ctx, username); err == nil {
		return nil, e.failRegistration(ctx, ErrUsernameTaken)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if _, err := e.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, e.failRegistration(ctx, ErrEmailTaken)
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        req.Email,
		PasswordHash: hash,
		FullName:     req.FullName,
		Provider:     ProviderLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// The account exists even if the challenge email cannot be delivered;
	// the caller can resend later.
	if err := e.issueVerificationChallenge(ctx, user); err != nil {
		return nil, err
	}

	e.metricInc(MetricRegistration)
	e.emitAudit(ctx, auditEventRegistration, true, user.ID, nil, func() map[string]string {
		return map[string]string{"username": user.Username}
	})

	return &RegisterResult{User: user.Sanitized()}, nil
}

func (e *Engine) failRegistration(ctx context.Context, cause error) error {
	e.metricInc(MetricRegistrationDuplicate)
	e.emitAudit(ctx, auditEventRegistrationDuplicate, false, "", cause, nil)
	return cause
}

// issueVerificationChallenge stamps a fresh one-time code and link-token
// digest onto the user and emails both. Delivery failure rolls the
// challenge state back so no unreachable challenge stays pending.
func (e *Engine) issueVerificationChallenge(ctx context.Context, user *User) error {
	otp, err := internal.NewOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	secret, err := internal.NewChallengeSecret()
	if err != nil {
		return fmt.Errorf("generate verify token: %w", err)
	}

	prevOTP, prevOTPExpires := user.TwoFactorOTP, user.TwoFactorExpires
	prevToken, prevTokenExpires := user.EmailVerifyToken, user.EmailVerifyExpires

	now := time.Now()
	ttl := e.config.EmailVerification.ChallengeTTL
	user.TwoFactorOTP = otp
	user.TwoFactorExpires = now.Add(ttl)
	user.EmailVerifyToken = internal.HashChallengeSecret(secret)
	user.EmailVerifyExpires = now.Add(ttl)
	if err := e.users.Update(ctx, user); err != nil {
		return fmt.Errorf("store verification challenge: %w", err)
	}

	verifyURL := e.config.Mail.BaseURL + "/auth/verify-email?token=" + secret
	subject, body := mail.VerificationEmail(e.config.Mail.AppName, otp, verifyURL, ttl)
	if err := e.sendMail(ctx, user.ID, user.Email, subject, body); err != nil {
		user.TwoFactorOTP = prevOTP
		user.TwoFactorExpires = prevOTPExpires
		user.EmailVerifyToken = prevToken
		user.EmailVerifyExpires = prevTokenExpires
		_ = e.users.Update(ctx, user)
		return err
	}

	return nil
}

func registerUsernameValidation(v *validator.Validate) error {
	// Letters, digits, underscore. Anything else is rejected before any
	// store lookup.
	return v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		for _, r := range value {
			switch {
			case r >= 'a' && r <= 'z':
			case r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9':
			case r == '_':
			default:
				return false
			}
		}
		return true
	})
}
