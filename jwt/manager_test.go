package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"
)

func testManagerConfig() Config {
	return Config{
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:        "jobsdb-auth",
		Audience:      "jobsdb-api",
		SessionTTL:    time.Hour,
		RememberMeTTL: 24 * time.Hour,
		TempTTL:       10 * time.Minute,
	}
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestSessionRoundTrip(t *testing.T) {
	m := newTestManager(t, testManagerConfig())

	token, err := m.CreateSession("user-1", "alice@example.com", false)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	claims, err := m.ParseSession(token)
	if err != nil {
		t.Fatalf("ParseSession failed: %v", err)
	}
	if claims.UID != "user-1" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Temp {
		t.Fatal("session claims must not be marked temp")
	}
	if claims.Issuer != "jobsdb-auth" {
		t.Fatalf("issuer = %q, want jobsdb-auth", claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("token must carry a jti")
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	cfg := testManagerConfig()
	cfg.SigningMethod = MethodEd25519
	cfg.PrivateKey = priv
	cfg.PublicKey = pub
	m := newTestManager(t, cfg)

	token, err := m.CreateSession("user-1", "alice@example.com", false)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	claims, err := m.ParseSession(token)
	if err != nil {
		t.Fatalf("ParseSession failed: %v", err)
	}
	if claims.UID != "user-1" {
		t.Fatalf("uid = %q, want user-1", claims.UID)
	}
}

func TestRememberMeExtendsExpiry(t *testing.T) {
	m := newTestManager(t, testManagerConfig())

	short, err := m.CreateSession("user-1", "", false)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	long, err := m.CreateSession("user-1", "", true)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	shortClaims, err := m.Parse(short)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	longClaims, err := m.Parse(long)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !longClaims.ExpiresAt.After(shortClaims.ExpiresAt.Time) {
		t.Fatal("remember-me token must outlive the plain session token")
	}
}

func TestParseSessionRejectsTempToken(t *testing.T) {
	m := newTestManager(t, testManagerConfig())

	temp, err := m.CreateTemp("user-1", "alice@example.com", "device-1")
	if err != nil {
		t.Fatalf("CreateTemp failed: %v", err)
	}

	if _, err := m.ParseSession(temp); !errors.Is(err, ErrTokenScope) {
		t.Fatalf("expected ErrTokenScope, got %v", err)
	}

	claims, err := m.ParseTemp(temp)
	if err != nil {
		t.Fatalf("ParseTemp failed: %v", err)
	}
	if !claims.Temp || claims.DeviceID != "device-1" {
		t.Fatalf("unexpected temp claims: %+v", claims)
	}
}

func TestParseTempRejectsSessionToken(t *testing.T) {
	m := newTestManager(t, testManagerConfig())

	session, err := m.CreateSession("user-1", "", false)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := m.ParseTemp(session); !errors.Is(err, ErrTokenScope) {
		t.Fatalf("expected ErrTokenScope, got %v", err)
	}
}

func TestExpiredTokenReported(t *testing.T) {
	cfg := testManagerConfig()
	cfg.SessionTTL = time.Millisecond
	cfg.RememberMeTTL = time.Millisecond
	m := newTestManager(t, cfg)

	token, err := m.CreateSession("user-1", "", false)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := m.Parse(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestGarbageTokenInvalid(t *testing.T) {
	m := newTestManager(t, testManagerConfig())

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.Parse(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("Parse(%q): expected ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestCrossKeyTokenRejected(t *testing.T) {
	m := newTestManager(t, testManagerConfig())

	other := testManagerConfig()
	other.PrivateKey = []byte("ffffffffffffffffffffffffffffffff")
	foreign := newTestManager(t, other)

	token, err := foreign.CreateSession("user-1", "", false)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for a foreign signature, got %v", err)
	}
}

func TestSameSecondTokensAreDistinct(t *testing.T) {
	m := newTestManager(t, testManagerConfig())

	first, err := m.CreateTemp("user-1", "alice@example.com", "device-1")
	if err != nil {
		t.Fatalf("CreateTemp failed: %v", err)
	}
	second, err := m.CreateTemp("user-1", "alice@example.com", "device-1")
	if err != nil {
		t.Fatalf("CreateTemp failed: %v", err)
	}
	if first == second {
		t.Fatal("two temp tokens minted back to back must differ")
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero session ttl", func(c *Config) { c.SessionTTL = 0 }},
		{"zero temp ttl", func(c *Config) { c.TempTTL = 0 }},
		{"remember-me below session", func(c *Config) { c.RememberMeTTL = time.Minute }},
		{"excessive leeway", func(c *Config) { c.Leeway = 5 * time.Minute }},
		{"hs256 without key", func(c *Config) { c.PrivateKey = nil }},
		{"unknown method", func(c *Config) { c.SigningMethod = "rs512" }},
		{"ed25519 bad keys", func(c *Config) {
			c.SigningMethod = MethodEd25519
			c.PrivateKey = []byte("short")
			c.PublicKey = []byte("short")
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testManagerConfig()
			tc.mutate(&cfg)
			if _, err := NewManager(cfg); err == nil {
				t.Fatal("expected configuration rejection")
			}
		})
	}
}
