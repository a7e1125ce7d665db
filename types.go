package auth

import (
	"context"
	"time"
)

// Account provider identifiers. Local accounts authenticate with a password;
// federated accounts carry the provider name and the provider's subject ID.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User defines a public type used by the authentication module APIs.
//
// The engine reads and writes User records exclusively through a
// [UserStore]; persistence is owned by the caller. Challenge fields
// (TwoFactorOTP, LastTempToken, verify and reset digests) are engine
// state and must round-trip through the store unmodified.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // empty for federated-only accounts
	FullName     string
	ProfileImage string

	Provider   string
	ProviderID string

	IsEmailVerified  bool
	TwoFactorEnabled bool

	// Active one-time code challenge. Shared between the login two-factor
	// flow and the post-registration email verification flow; a user never
	// has both pending at once.
	TwoFactorOTP     string
	TwoFactorExpires time.Time

	// LastTempToken pins the single currently valid pending two-factor
	// token. Issuing a new one invalidates the previous.
	LastTempToken string

	// Digests of emailed single-use link tokens. Raw tokens are never stored.
	EmailVerifyToken   string
	EmailVerifyExpires time.Time
	ResetToken         string
	ResetExpires       time.Time

	// Unverified-account cleanup bookkeeping.
	WarningEmailCount  int
	LastWarningEmailAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Sanitized returns a copy of the user with credential and challenge state
// stripped, safe to hand back to transport layers.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}

	s := *u
	s.PasswordHash = ""
	s.TwoFactorOTP = ""
	s.TwoFactorExpires = time.Time{}
	s.LastTempToken = ""
	s.EmailVerifyToken = ""
	s.EmailVerifyExpires = time.Time{}
	s.ResetToken = ""
	s.ResetExpires = time.Time{}
	return &s
}

// LoginAttempt defines a public type used by the authentication module APIs.
//
// One row per credential check. UserID may be empty when the submitted
// identifier did not resolve to an account; a later successful login
// backfills it via [LoginAttemptStore.AttributeUser].
type LoginAttempt struct {
	ID         string
	UserID     string
	Identifier string
	IP         string
	DeviceID   string
	UserAgent  string
	Success    bool
	CreatedAt  time.Time
}

// TrustedDevice defines a public type used by the authentication module APIs.
//
// A trusted device skips the two-factor challenge until ExpiresAt. Every
// trusted login slides ExpiresAt forward.
type TrustedDevice struct {
	UserID      string
	DeviceID    string
	UserAgent   string
	IP          string
	FirstSeenAt time.Time
	LastUsedAt  time.Time
	ExpiresAt   time.Time
}

// AttemptFilter selects login attempts by any of the three tracked
// dimensions. Empty fields are ignored; non-empty fields match with OR
// semantics, so suspicion accumulated against an IP, an identifier, or a
// device all counts toward the same ceiling.
type AttemptFilter struct {
	IP         string
	Identifier string
	DeviceID   string
}

// LockoutState describes the outcome of a brute-force guard check.
type LockoutState struct {
	Locked       bool
	Until        time.Time
	Remaining    time.Duration
	AttemptsLeft int
}

// UserStore abstracts account persistence. Implementations return
// [ErrUserNotFound] when no record matches; any other error is treated as a
// store failure.
//
// All lookups by email and username are case-insensitive on the
// implementation side; the engine lowercases inputs before calling.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByProvider(ctx context.Context, provider string, providerID string) (*User, error)
	FindByVerifyTokenDigest(ctx context.Context, digest string) (*User, error)
	FindByResetTokenDigest(ctx context.Context, digest string) (*User, error)
	FindUnverifiedCreatedBefore(ctx context.Context, cutoff time.Time) ([]*User, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
}

// LoginAttemptStore abstracts durable failed/successful login accounting.
// The engine never deletes attempts; counting windows make old rows inert.
type LoginAttemptStore interface {
	Record(ctx context.Context, attempt *LoginAttempt) error
	CountFailuresSince(ctx context.Context, filter AttemptFilter, since time.Time) (int, error)
	LastSuccessAt(ctx context.Context, filter AttemptFilter) (time.Time, error)
	LastFailureAt(ctx context.Context, filter AttemptFilter, since time.Time) (time.Time, error)
	AttributeUser(ctx context.Context, filter AttemptFilter, since time.Time, userID string) error
}

// TrustedDeviceStore abstracts trusted-device persistence. Get returns
// [ErrDeviceNotTrusted] when no live record matches.
type TrustedDeviceStore interface {
	Get(ctx context.Context, userID string, deviceID string) (*TrustedDevice, error)
	Upsert(ctx context.Context, device *TrustedDevice) error
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
}

// MailSender delivers a rendered HTML message. Implementations must be safe
// for concurrent use. See the mail sub-package for the SMTP implementation.
type MailSender interface {
	Send(ctx context.Context, to string, subject string, htmlBody string) error
}

// RegisterRequest defines a public type used by the authentication module APIs.
type RegisterRequest struct {
	Username string `validate:"required,min=3,max=20,username"`
	Email    string `validate:"required,email,max=254"`
	Password string `validate:"required,min=8,max=128"`
	FullName string `validate:"max=100"`
}

// RegisterResult defines a public type used by the authentication module APIs.
type RegisterResult struct {
	User *User
}

// LoginResult defines a public type used by the authentication module APIs.
//
// When TwoFactorRequired is true, TempToken carries the pending challenge
// and SessionToken is empty; otherwise SessionToken is the issued session.
type LoginResult struct {
	TwoFactorRequired bool
	SessionToken      string
	TempToken         string
	User              *User
}

// VerifyOTPResult defines a public type used by the authentication module APIs.
type VerifyOTPResult struct {
	SessionToken  string
	DeviceTrusted bool
	User          *User
}

// ExternalIdentity is the provider-asserted profile handed to
// [Engine.FederatedLogin] after the OAuth/OIDC dance completed.
type ExternalIdentity struct {
	Provider     string
	ProviderID   string
	Email        string
	FullName     string
	ProfileImage string
}

// CleanupResult reports one unverified-account sweep.
type CleanupResult struct {
	Scanned      int
	Deleted      int
	WarningsSent int
}
