package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoginSuccessIssuesSession(t *testing.T) {
	engine, store, _, done := newTestEngine(t, testConfig())
	defer done()

	user := seedUser(t, engine, store)

	result, err := engine.Login(requestContext("203.0.113.7", ""), user.Username, testPassword, LoginOptions{})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.TwoFactorRequired {
		t.Fatal("expected direct login without two-factor")
	}
	if result.SessionToken == "" {
		t.Fatal("expected session token")
	}

	claims, err := engine.Authenticate(context.Background(), result.SessionToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if claims.UID != user.ID {
		t.Fatalf("expected uid %s, got %s", user.ID, claims.UID)
	}
	if result.User.PasswordHash != "" {
		t.Fatal("expected sanitized user in result")
	}
}

func TestLoginByEmailIdentifier(t *testing.T) {
	engine, store, _, done := newTestEngine(t, testConfig())
	defer done()

	seedUser(t, engine, store)

	if _, err := engine.Login(context.Background(), "  Alice@Example.COM ", testPassword, LoginOptions{}); err != nil {
		t.Fatalf("expected case-insensitive email login, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	engine, store, _, done := newTestEngine(t, testConfig())
	defer done()

	user := seedUser(t, engine, store)

	if _, err := engine.Login(context.Background(), user.Username, "wrong-password", LoginOptions{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownUserSameError(t *testing.T) {
	engine, _, _, done := newTestEngine(t, testConfig())
	defer done()

	if _, err := engine.Login(context.Background(), "nobody", testPassword, LoginOptions{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLoginFederatedOnlyAccountRejected(t *testing.T) {
	engine, store, _, done := newTestEngine(t, testConfig())
	defer done()

	user := seedUser(t, engine, store, func(u *User) {
		u.PasswordHash = ""
		u.Provider = ProviderGoogle
		u.ProviderID = "sub-123"
	})

	if _, err := engine.Login(context.Background(), user.Username, testPassword, LoginOptions{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for federated-only account, got %v", err)
	}
}

func TestLoginUnverifiedAccountBlocked(t *testing.T) {
	engine, store, _, done := newTestEngine(t, testConfig())
	defer done()

	user := seedUser(t, engine, store, func(u *User) {
		u.IsEmailVerified = false
	})

	_, err := engine.Login(context.Background(), user.Username, testPassword, LoginOptions{})
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
}

func TestLoginUnverifiedDoesNotAccumulateSuspicion(t *testing.T) {
	cfg := testConfig()
	cfg.BruteForce.MaxAttempts = 2
	engine, store, _, done := newTestEngine(t, cfg)
	defer done()

	user := seedUser(t, engine, store, func(u *User) {
		u.IsEmailVerified = false
	})
	ctx := requestContext("203.0.113.7", "")

	// The password was correct each time; these are not brute-force
	// failures and must never trip the guard.
	for i := 0; i < 5; i++ {
		if _, err := engine.Login(ctx, user.Username, testPassword, LoginOptions{}); !errors.Is(err, ErrEmailNotVerified) {
			t.Fatalf("attempt %d: expected ErrEmailNotVerified, got %v", i+1, err)
		}
	}
}

func TestLoginWithTwoFactorIssuesChallenge(t *testing.T) {
	engine, store, mailer, done := newTestEngine(t, testConfig())
	defer done()

	user := seedUser(t, engine, store, func(u *User) {
		u.TwoFactorEnabled = true
	})

	result, err := engine.Login(requestContext("203.0.113.7", "dev-1"), user.Username, testPassword, LoginOptions{})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !result.TwoFactorRequired {
		t.Fatal("expected two-factor challenge")
	}
	if result.SessionToken != "" {
		t.Fatal("expected no session token before the challenge is answered")
	}
	if result.TempToken == "" {
		t.Fatal("expected pending temp token")
	}

	stored := storedUser(t, store, user.ID)
	if stored.TwoFactorOTP == "" || stored.LastTempToken != result.TempToken {
		t.Fatal("expected challenge state pinned on the user record")
	}

	msg := mailer.last(t)
	if msg.To != user.Email {
		t.Fatalf("expected mail to %s, got %s", user.Email, msg.To)
	}
	if !strings.Contains(msg.Body, stored.TwoFactorOTP) {
		t.Fatal("expected one-time code in mail body")
	}
}

func TestLoginTrustedDeviceSkipsTwoFactor(t *testing.T) {
	engine, store, _, done := newTestEngine(t, testConfig())
	defer done()

	user := seedUser(t, engine, store, func(u *User) {
		u.TwoFactorEnabled = true
	})

	now := time.Now()
	if err := store.Upsert(context.Background(), &TrustedDevice{
		UserID:      user.ID,
		DeviceID:    "dev-1",
		FirstSeenAt: now,
		LastUsedAt:  now,
		ExpiresAt:   now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	result, err := engine.Login(requestContext("203.0.113.7", "dev-1"), user.Username, testPassword, LoginOptions{})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.TwoFactorRequired {
		t.Fatal("expected trusted device to skip two-factor")
	}
	if result.SessionToken == "" {
		t.Fatal("expected session token")
	}
}

func TestLoginTrustedDeviceSlidesExpiry(t *testing.T) {
	engine, store, _, done := newTestEngine(t, testConfig())
	defer done()

	user := seedUser(t, engine, store, func(u *User) {
		u.TwoFactorEnabled = true
	})

	now := time.Now()
	nearExpiry := now.Add(time.Hour)
	if err := store.Upsert(context.Background(), &TrustedDevice{
		UserID:      user.ID,
		DeviceID:    "dev-1",
		FirstSeenAt: now.Add(-29 * 24 * time.Hour),
		LastUsedAt:  now.Add(-10 * 24 * time.Hour),
		ExpiresAt:   nearExpiry,
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if _, err := engine.Login(requestContext("203.0.113.7", "dev-1"), user.Username, testPassword, LoginOptions{}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	device, err := store.Get(context.Background(), user.ID, "dev-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !device.ExpiresAt.After(nearExpiry) {
		t.Fatalf("expected sliding expiry to push ExpiresAt forward, got %v", device.ExpiresAt)
	}
}

func TestLoginExpiredTrustedDeviceFallsBackToChallenge(t *testing.T) {
	engine, store, mailer, done := newTestEngine(t, testConfig())
	defer done()

	user := seedUser(t, engine, store, func(u *User) {
		u.TwoFactorEnabled = true
	})

	now := time.Now()
	if err := store.Upsert(context.Background(), &TrustedDevice{
		UserID:      user.ID,
		DeviceID:    "dev-1",
		FirstSeenAt: now.Add(-60 * 24 * time.Hour),
		LastUsedAt:  now.Add(-40 * 24 * time.Hour),
		ExpiresAt:   now.Add(-time.Minute),
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	result, err := engine.Login(requestContext("203.0.113.7", "dev-1"), user.Username, testPassword, LoginOptions{})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !result.TwoFactorRequired {
		t.Fatal("expected expired trust to fall back to the challenge")
	}
	if mailer.count() != 1 {
		t.Fatalf("expected one challenge mail, got %d", mailer.count())
	}
}

func TestLoginTwoFactorMailFailureRollsBackChallenge(t *testing.T) {
	engine, store, mailer, done := newTestEngine(t, testConfig())
	defer done()

	user := seedUser(t, engine, store, func(u *User) {
		u.TwoFactorEnabled = true
	})
	mailer.failWith(errors.New("smtp down"))

	_, err := engine.Login(context.Background(), user.Username, testPassword, LoginOptions{})
	if !errors.Is(err, ErrMailDelivery) {
		t.Fatalf("expected ErrMailDelivery, got %v", err)
	}

	stored := storedUser(t, store, user.ID)
	if stored.TwoFactorOTP != "" || stored.LastTempToken != "" {
		t.Fatal("expected challenge state rolled back after mail failure")
	}
}

func TestLoginRememberMeExtendsSessionTTL(t *testing.T) {
	cfg := testConfig()
	cfg.Token.SessionTTL = time.Hour
	cfg.Token.RememberMeTTL = 72 * time.Hour
	engine, store, _, done := newTestEngine(t, cfg)
	defer done()

	user := seedUser(t, engine, store)

	short, err := engine.Login(context.Background(), user.Username, testPassword, LoginOptions{})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	long, err := engine.Login(context.Background(), user.Username, testPassword, LoginOptions{RememberMe: true})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	shortClaims, err := engine.Authenticate(context.Background(), short.SessionToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	longClaims, err := engine.Authenticate(context.Background(), long.SessionToken)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if !longClaims.ExpiresAt.Time.After(shortClaims.ExpiresAt.Time.Add(24 * time.Hour)) {
		t.Fatalf("expected remember-me expiry far beyond session expiry: %v vs %v",
			longClaims.ExpiresAt.Time, shortClaims.ExpiresAt.Time)
	}
}
