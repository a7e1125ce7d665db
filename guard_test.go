package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

// failingAttemptStore simulates an unreachable attempt store so the guard's
// fail-open behavior can be observed.
type failingAttemptStore struct{}

func (failingAttemptStore) Record(context.Context, *LoginAttempt) error { return ErrStoreUnavailable }
func (failingAttemptStore) CountFailuresSince(context.Context, AttemptFilter, time.Time) (int, error) {
	return 0, ErrStoreUnavailable
}
func (failingAttemptStore) LastSuccessAt(context.Context, AttemptFilter) (time.Time, error) {
	return time.Time{}, ErrStoreUnavailable
}
func (failingAttemptStore) LastFailureAt(context.Context, AttemptFilter, time.Time) (time.Time, error) {
	return time.Time{}, ErrStoreUnavailable
}
func (failingAttemptStore) AttributeUser(context.Context, AttemptFilter, time.Time, string) error {
	return ErrStoreUnavailable
}

func lockoutTestConfig() Config {
	cfg := testConfig()
	cfg.BruteForce.MaxAttempts = 3
	cfg.BruteForce.Window = 30 * time.Minute
	cfg.BruteForce.LockoutDuration = 5 * time.Minute
	return cfg
}

func exhaustAttempts(t *testing.T, engine *Engine, ctx context.Context, identifier string) {
	t.Helper()

	for i := 0; i < engine.config.BruteForce.MaxAttempts; i++ {
		if _, err := engine.Login(ctx, identifier, "wrong-password", LoginOptions{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
}

func TestLockoutAfterMaxFailures(t *testing.T) {
	engine, store, _, done := newTestEngine(t, lockoutTestConfig())
	defer done()

	user := seedUser(t, engine, store)
	ctx := requestContext("203.0.113.7", "dev-1")

	exhaustAttempts(t, engine, ctx, user.Username)

	_, err := engine.Login(ctx, user.Username, testPassword, LoginOptions{})
	var lockErr *LockoutError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected LockoutError, got %v", err)
	}
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatal("expected LockoutError to unwrap to ErrAccountLocked")
	}
	if lockErr.Remaining <= 0 || lockErr.Remaining > engine.config.BruteForce.LockoutDuration {
		t.Fatalf("expected remaining within lockout duration, got %v", lockErr.Remaining)
	}
}

func TestLockoutCountsAcrossIdentifiersFromSameIP(t *testing.T) {
	engine, store, _, done := newTestEngine(t, lockoutTestConfig())
	defer done()

	user := seedUser(t, engine, store)
	ctx := requestContext("203.0.113.7", "")

	// Spray failures across different identifiers; the IP accumulates all
	// of them.
	identifiers := []string{"bob", "carol", "dave"}
	for _, id := range identifiers {
		if _, err := engine.Login(ctx, id, "wrong-password", LoginOptions{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials for %s, got %v", id, err)
		}
	}

	_, err := engine.Login(ctx, user.Username, testPassword, LoginOptions{})
	var lockErr *LockoutError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected IP-dimension lockout, got %v", err)
	}
}

func TestLockoutDoesNotFollowAttackerToNewIP(t *testing.T) {
	engine, store, _, done := newTestEngine(t, lockoutTestConfig())
	defer done()

	user := seedUser(t, engine, store)

	exhaustAttempts(t, engine, requestContext("203.0.113.7", ""), "nobody")

	// Different IP, different identifier, no device: no tracked dimension
	// matches, so the victim logs in normally.
	result, err := engine.Login(requestContext("198.51.100.9", ""), user.Username, testPassword, LoginOptions{})
	if err != nil {
		t.Fatalf("expected clean login from unrelated IP, got %v", err)
	}
	if result.SessionToken == "" {
		t.Fatal("expected session token")
	}
}

func TestLockoutIdentifierDimensionFollowsAcrossIPs(t *testing.T) {
	engine, store, _, done := newTestEngine(t, lockoutTestConfig())
	defer done()

	user := seedUser(t, engine, store)

	// Distributed attack: each failure from a fresh IP, same identifier.
	ips := []string{"203.0.113.1", "203.0.113.2", "203.0.113.3"}
	for _, ip := range ips {
		if _, err := engine.Login(requestContext(ip, ""), user.Username, "wrong-password", LoginOptions{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials from %s, got %v", ip, err)
		}
	}

	_, err := engine.Login(requestContext("198.51.100.9", ""), user.Username, testPassword, LoginOptions{})
	var lockErr *LockoutError
	if !errors.As(err, &lockErr) {
		t.Fatalf("expected identifier-dimension lockout, got %v", err)
	}
}

func TestSuccessfulLoginResetsFailureWindow(t *testing.T) {
	engine, store, _, done := newTestEngine(t, lockoutTestConfig())
	defer done()

	user := seedUser(t, engine, store)
	ctx := requestContext("203.0.113.7", "dev-1")

	// Two failures, then a success, then two more failures: the success
	// anchors a fresh window, so the ceiling of three is never reached.
	for i := 0; i < 2; i++ {
		if _, err := engine.Login(ctx, user.Username, "wrong-password", LoginOptions{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}
	if _, err := engine.Login(ctx, user.Username, testPassword, LoginOptions{}); err != nil {
		t.Fatalf("expected successful login, got %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := engine.Login(ctx, user.Username, "wrong-password", LoginOptions{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("post-success attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	if _, err := engine.Login(ctx, user.Username, testPassword, LoginOptions{}); err != nil {
		t.Fatalf("expected login despite pre-success failures, got %v", err)
	}
}

func TestLockedRejectionRecordsNoAttempt(t *testing.T) {
	engine, store, _, done := newTestEngine(t, lockoutTestConfig())
	defer done()

	user := seedUser(t, engine, store)
	ctx := requestContext("203.0.113.7", "")

	exhaustAttempts(t, engine, ctx, user.Username)
	before := len(store.attempts)

	if _, err := engine.Login(ctx, user.Username, testPassword, LoginOptions{}); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected lockout, got %v", err)
	}
	if got := len(store.attempts); got != before {
		t.Fatalf("locked rejection must not record an attempt: before=%d after=%d", before, got)
	}
}

func TestExpiredLockoutAllowsOneAttempt(t *testing.T) {
	engine, store, _, done := newTestEngine(t, lockoutTestConfig())
	defer done()

	seedUser(t, engine, store)
	ctx := requestContext("203.0.113.7", "")
	exhaustAttempts(t, engine, ctx, "alice")

	// Age every failure past the lockout duration but keep it inside the
	// counting window.
	store.mu.Lock()
	for _, a := range store.attempts {
		a.CreatedAt = a.CreatedAt.Add(-6 * time.Minute)
	}
	store.mu.Unlock()

	state := engine.checkLockout(ctx, engine.loginFilter(ctx, "alice"))
	if state.Locked {
		t.Fatalf("expected expired lockout to admit the caller, got locked until %v", state.Until)
	}
	if state.AttemptsLeft != 1 {
		t.Fatalf("expected exactly one admitted attempt after expiry, got %d", state.AttemptsLeft)
	}

	// The next failure re-locks immediately.
	if _, err := engine.Login(ctx, "alice", "wrong-password", LoginOptions{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if state := engine.checkLockout(ctx, engine.loginFilter(ctx, "alice")); !state.Locked {
		t.Fatal("expected immediate re-lock after post-expiry failure")
	}
}

func TestGuardFailsOpenWhenStoreUnavailable(t *testing.T) {
	engine, store, _, done := newTestEngine(t, lockoutTestConfig())
	defer done()

	user := seedUser(t, engine, store)
	engine.attempts = failingAttemptStore{}

	result, err := engine.Login(requestContext("203.0.113.7", ""), user.Username, testPassword, LoginOptions{})
	if err != nil {
		t.Fatalf("expected fail-open login with unreachable attempt store, got %v", err)
	}
	if result.SessionToken == "" {
		t.Fatal("expected session token")
	}
}

func TestGuardDisabledSkipsCounting(t *testing.T) {
	cfg := lockoutTestConfig()
	cfg.BruteForce.Enabled = false
	engine, store, _, done := newTestEngine(t, cfg)
	defer done()

	user := seedUser(t, engine, store)
	ctx := requestContext("203.0.113.7", "")

	for i := 0; i < 10; i++ {
		if _, err := engine.Login(ctx, user.Username, "wrong-password", LoginOptions{}); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}
	if _, err := engine.Login(ctx, user.Username, testPassword, LoginOptions{}); err != nil {
		t.Fatalf("expected login with guard disabled, got %v", err)
	}
}

func TestSuccessBackfillsUserIDOnAnonymousFailures(t *testing.T) {
	engine, store, _, done := newTestEngine(t, lockoutTestConfig())
	defer done()

	user := seedUser(t, engine, store)
	ctx := requestContext("203.0.113.7", "")

	// Unknown identifier: the failure row has no user ID yet.
	if _, err := engine.Login(ctx, "ghost", "wrong-password", LoginOptions{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := engine.Login(ctx, user.Username, testPassword, LoginOptions{}); err != nil {
		t.Fatalf("expected successful login, got %v", err)
	}

	store.mu.RLock()
	defer store.mu.RUnlock()
	for _, a := range store.attempts {
		if a.UserID == "" {
			t.Fatalf("expected all recent attempts attributed to %s, found anonymous row %+v", user.ID, a)
		}
	}
}
