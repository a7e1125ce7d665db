package auth

import (
	"errors"
	"time"

	"github.com/Pisol00/jobsdb-backend/password"
)

// Config defines a public type used by the authentication module APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token             TokenConfig
	Password          PasswordConfig
	BruteForce        BruteForceConfig
	TwoFactor         TwoFactorConfig
	TrustedDevice     TrustedDeviceConfig
	EmailVerification EmailVerificationConfig
	PasswordReset     PasswordResetConfig
	Cleanup           CleanupConfig
	Account           AccountConfig
	Mail              MailConfig
	Audit             AuditConfig
	Metrics           MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by the authentication module APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration

	SessionTTL    time.Duration
	RememberMeTTL time.Duration
	TempTTL       time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by the authentication module APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	BcryptCost int
	MinLength  int
}

/*
====================================
BRUTE FORCE CONFIG
====================================
*/

// BruteForceConfig defines a public type used by the authentication module APIs.
//
// Failed attempts within Window count toward MaxAttempts; reaching the
// ceiling locks the matching IP, identifier, and device for LockoutDuration
// measured from the most recent failure. A successful login resets the
// counting window.
type BruteForceConfig struct {
	Enabled         bool
	Window          time.Duration
	MaxAttempts     int
	LockoutDuration time.Duration
}

/*
====================================
TWO FACTOR CONFIG
====================================
*/

// TwoFactorConfig defines a public type used by the authentication module APIs.
//
// TwoFactorConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TwoFactorConfig struct {
	OTPTTL             time.Duration
	RegenerateCooldown time.Duration
}

/*
====================================
TRUSTED DEVICE CONFIG
====================================
*/

// TrustedDeviceConfig defines a public type used by the authentication module APIs.
//
// TTL bounds how long a device skips the two-factor challenge. With
// SlidingExpiry every trusted login pushes the expiry forward by TTL.
type TrustedDeviceConfig struct {
	TTL           time.Duration
	SlidingExpiry bool
}

/*
====================================
EMAIL VERIFICATION CONFIG
====================================
*/

// EmailVerificationConfig defines a public type used by the authentication module APIs.
//
// EmailVerificationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EmailVerificationConfig struct {
	ChallengeTTL    time.Duration
	ResendCooldown  time.Duration
	RequireForLogin bool
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig defines a public type used by the authentication module APIs.
//
// PasswordResetConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordResetConfig struct {
	TokenTTL        time.Duration
	RequestCooldown time.Duration

	// EnumerationDelay pads the unknown-address path of a reset request so
	// its latency resembles the real path.
	EnumerationDelay time.Duration
}

/*
====================================
CLEANUP CONFIG
====================================
*/

// CleanupConfig defines a public type used by the authentication module APIs.
//
// The sweep deletes unverified accounts older than DeletionAge and, when
// SendWarnings is set, warns accounts older than WarningAge, at most
// MaxWarningEmails times per account and never more often than
// MinWarningInterval. With SendWarnings off the sweep only deletes.
type CleanupConfig struct {
	WarningAge         time.Duration
	DeletionAge        time.Duration
	SendWarnings       bool
	MaxWarningEmails   int
	MinWarningInterval time.Duration
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig defines a public type used by the authentication module APIs.
//
// AccountConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AccountConfig struct {
	// MaxUsernameAttempts bounds the numeric-suffix search when deriving a
	// unique username for a federated signup before falling back to a
	// random suffix.
	MaxUsernameAttempts int
}

/*
====================================
MAIL CONFIG
====================================
*/

// MailConfig defines a public type used by the authentication module APIs.
//
// BaseURL is the public origin used to build emailed verification and
// reset links, without a trailing slash.
type MailConfig struct {
	AppName string
	BaseURL string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by the authentication module APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by the authentication module APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			SigningMethod: "ed25519",
			SessionTTL:    24 * time.Hour,
			RememberMeTTL: 30 * 24 * time.Hour,
			TempTTL:       10 * time.Minute,
		},
		Password: PasswordConfig{
			BcryptCost: password.DefaultCost,
			MinLength:  8,
		},
		BruteForce: BruteForceConfig{
			Enabled:         true,
			Window:          30 * time.Minute,
			MaxAttempts:     5,
			LockoutDuration: 5 * time.Minute,
		},
		TwoFactor: TwoFactorConfig{
			OTPTTL:             10 * time.Minute,
			RegenerateCooldown: 60 * time.Second,
		},
		TrustedDevice: TrustedDeviceConfig{
			TTL:           30 * 24 * time.Hour,
			SlidingExpiry: true,
		},
		EmailVerification: EmailVerificationConfig{
			ChallengeTTL:    24 * time.Hour,
			ResendCooldown:  60 * time.Second,
			RequireForLogin: true,
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL:         10 * time.Minute,
			RequestCooldown:  60 * time.Second,
			EnumerationDelay: 80 * time.Millisecond,
		},
		Cleanup: CleanupConfig{
			WarningAge:         5 * 24 * time.Hour,
			DeletionAge:        7 * 24 * time.Hour,
			SendWarnings:       true,
			MaxWarningEmails:   3,
			MinWarningInterval: 24 * time.Hour,
		},
		Account: AccountConfig{
			MaxUsernameAttempts: 20,
		},
		Mail: MailConfig{
			AppName: "JobsDB",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Token
	if c.Token.SigningMethod != "ed25519" && c.Token.SigningMethod != "hs256" {
		return errors.New("unsupported token signing method")
	}
	if c.Token.SigningMethod == "ed25519" && len(c.Token.PrivateKey) == 0 {
		return errors.New("ed25519 requires PrivateKey")
	}
	if c.Token.SigningMethod == "ed25519" && len(c.Token.PublicKey) == 0 {
		return errors.New("ed25519 requires PublicKey")
	}
	if c.Token.SigningMethod == "hs256" && len(c.Token.PrivateKey) == 0 {
		return errors.New("hs256 requires PrivateKey")
	}
	if c.Token.SessionTTL <= 0 {
		return errors.New("Token SessionTTL must be > 0")
	}
	if c.Token.RememberMeTTL < c.Token.SessionTTL {
		return errors.New("Token RememberMeTTL must be >= SessionTTL")
	}
	if c.Token.TempTTL <= 0 {
		return errors.New("Token TempTTL must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Password
	if c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31 {
		return errors.New("Password BcryptCost out of bcrypt range")
	}
	if c.Password.MinLength < 8 {
		return errors.New("Password MinLength must be >= 8")
	}

	// BruteForce
	if c.BruteForce.Enabled {
		if c.BruteForce.Window <= 0 {
			return errors.New("BruteForce Window must be > 0")
		}
		if c.BruteForce.MaxAttempts < 1 {
			return errors.New("BruteForce MaxAttempts must be >= 1")
		}
		if c.BruteForce.LockoutDuration <= 0 {
			return errors.New("BruteForce LockoutDuration must be > 0")
		}
	}

	// TwoFactor
	if c.TwoFactor.OTPTTL <= 0 {
		return errors.New("TwoFactor OTPTTL must be > 0")
	}
	if c.TwoFactor.RegenerateCooldown < 0 {
		return errors.New("TwoFactor RegenerateCooldown must be >= 0")
	}
	if c.TwoFactor.RegenerateCooldown >= c.TwoFactor.OTPTTL {
		return errors.New("TwoFactor RegenerateCooldown must be < OTPTTL")
	}

	// TrustedDevice
	if c.TrustedDevice.TTL <= 0 {
		return errors.New("TrustedDevice TTL must be > 0")
	}

	// EmailVerification
	if c.EmailVerification.ChallengeTTL <= 0 {
		return errors.New("EmailVerification ChallengeTTL must be > 0")
	}
	if c.EmailVerification.ResendCooldown < 0 {
		return errors.New("EmailVerification ResendCooldown must be >= 0")
	}

	// PasswordReset
	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset TokenTTL must be > 0")
	}
	if c.PasswordReset.RequestCooldown < 0 {
		return errors.New("PasswordReset RequestCooldown must be >= 0")
	}
	if c.PasswordReset.EnumerationDelay < 0 || c.PasswordReset.EnumerationDelay > time.Second {
		return errors.New("PasswordReset EnumerationDelay must be between 0 and 1s")
	}

	// Cleanup
	if c.Cleanup.WarningAge <= 0 {
		return errors.New("Cleanup WarningAge must be > 0")
	}
	if c.Cleanup.DeletionAge <= c.Cleanup.WarningAge {
		return errors.New("Cleanup DeletionAge must be > WarningAge")
	}
	if c.Cleanup.MaxWarningEmails < 1 {
		return errors.New("Cleanup MaxWarningEmails must be >= 1")
	}
	if c.Cleanup.MinWarningInterval <= 0 {
		return errors.New("Cleanup MinWarningInterval must be > 0")
	}

	// Account
	if c.Account.MaxUsernameAttempts < 1 {
		return errors.New("Account MaxUsernameAttempts must be >= 1")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
