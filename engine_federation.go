package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FederatedLogin signs in (or signs up) a user asserted by an external
// identity provider. The provider already authenticated the user, so the
// brute-force guard and the two-factor challenge do not apply here.
//
// A returning (provider, subject) pair reuses its account and only the
// profile image is refreshed from the assertion. A first-time pair whose
// email already belongs to a password account is refused rather than
// silently linked; the caller must sign in locally instead.
func (e *Engine) FederatedLogin(ctx context.Context, identity ExternalIdentity, opts LoginOptions) (*LoginResult, error) {
	if e == nil || e.users == nil {
		return nil, ErrEngineNotReady
	}

	if identity.Provider == "" || identity.ProviderID == "" || identity.Email == "" {
		return nil, fmt.Errorf("%w: incomplete provider assertion", ErrValidation)
	}
	identity.Email = normalizeIdentifier(identity.Email)

	user, err := e.users.FindByProvider(ctx, identity.Provider, identity.ProviderID)
	if err == nil {
		if identity.ProfileImage != "" && identity.ProfileImage != user.ProfileImage {
			user.ProfileImage = identity.ProfileImage
			user.UpdatedAt = time.Now()
			_ = e.users.Update(ctx, user)
		}
		return e.completeFederatedLogin(ctx, user, opts, false)
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup provider identity: %w", err)
	}

	if existing, err := e.users.FindByEmail(ctx, identity.Email); err == nil {
		cause := ErrEmailTaken
		if existing.PasswordHash != "" {
			cause = ErrEmailLinkedToLocalAccount
		}
		e.metricInc(MetricFederatedLoginRefused)
		e.emitAudit(ctx, auditEventFederatedLoginRefused, false, existing.ID, cause, func() map[string]string {
			return map[string]string{"provider": identity.Provider}
		})
		return nil, cause
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	username, err := e.deriveUsername(ctx, identity)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user = &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        identity.Email,
		FullName:     identity.FullName,
		ProfileImage: identity.ProfileImage,
		Provider:     identity.Provider,
		ProviderID:   identity.ProviderID,
		// The provider asserted ownership of the address.
		IsEmailVerified: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return e.completeFederatedLogin(ctx, user, opts, true)
}

func (e *Engine) completeFederatedLogin(ctx context.Context, user *User, opts LoginOptions, created bool) (*LoginResult, error) {
	token, err := e.issueSession(user, opts.RememberMe)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricFederatedLogin)
	e.emitAudit(ctx, auditEventFederatedLogin, true, user.ID, nil, func() map[string]string {
		return map[string]string{
			"provider": user.Provider,
			"created":  strconv.FormatBool(created),
		}
	})

	return &LoginResult{
		SessionToken: token,
		User:         user.Sanitized(),
	}, nil
}

// deriveUsername builds a unique username from the provider assertion:
// the email local part (or full name) reduced to safe characters, then a
// bounded numeric-suffix search, then a random suffix as the final
// fallback.
func (e *Engine) deriveUsername(ctx context.Context, identity ExternalIdentity) (string, error) {
	base := usernameBase(identity)

	if free, err := e.usernameFree(ctx, base); err != nil {
		return "", err
	} else if free {
		return base, nil
	}

	for i := 1; i <= e.config.Account.MaxUsernameAttempts; i++ {
		candidate := clampUsername(base, strconv.Itoa(i))
		if free, err := e.usernameFree(ctx, candidate); err != nil {
			return "", err
		} else if free {
			return candidate, nil
		}
	}

	return clampUsername(base, "_"+uuid.NewString()[:8]), nil
}

// clampUsername appends a suffix while keeping the result inside the
// account username length ceiling.
func clampUsername(base string, suffix string) string {
	if len(base)+len(suffix) > maxUsernameLen {
		base = base[:maxUsernameLen-len(suffix)]
	}
	return base + suffix
}

func (e *Engine) usernameFree(ctx context.Context, username string) (bool, error) {
	_, err := e.users.FindByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup username: %w", err)
	}
	return false, nil
}

// maxUsernameLen mirrors the registration rule: usernames are 3..20
// characters over [A-Za-z0-9_]. Derived usernames follow the same policy.
const maxUsernameLen = 20

func usernameBase(identity ExternalIdentity) string {
	source := identity.Email
	if at := strings.IndexByte(source, '@'); at > 0 {
		source = source[:at]
	}
	if source == "" {
		source = identity.FullName
	}

	var b strings.Builder
	for _, r := range strings.ToLower(source) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
		if b.Len() >= maxUsernameLen {
			break
		}
	}

	base := b.String()
	if len(base) < 3 {
		base = "user" + base
	}
	return base
}
