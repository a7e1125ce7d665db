package auth

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/Pisol00/jobsdb-backend/jwt"
	"github.com/Pisol00/jobsdb-backend/password"
)

// Builder defines a public type used by the authentication module APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	users    UserStore
	attempts LoginAttemptStore
	devices  TrustedDeviceStore
	mailer   MailSender

	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRedis hands the engine the Redis client backing the outbound-email
// throttles (verification resend, reset requests).
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore describes the withuserstore operation and its observable behavior.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithLoginAttemptStore describes the withloginattemptstore operation and its observable behavior.
func (b *Builder) WithLoginAttemptStore(store LoginAttemptStore) *Builder {
	b.attempts = store
	return b
}

// WithTrustedDeviceStore describes the withtrusteddevicestore operation and its observable behavior.
func (b *Builder) WithTrustedDeviceStore(store TrustedDeviceStore) *Builder {
	b.devices = store
	return b
}

// WithStore wires one object implementing [UserStore],
// [LoginAttemptStore], and [TrustedDeviceStore], such as [MemoryStore].
func (b *Builder) WithStore(store interface {
	UserStore
	LoginAttemptStore
	TrustedDeviceStore
}) *Builder {
	b.users = store
	b.attempts = store
	b.devices = store
	return b
}

// WithMailer describes the withmailer operation and its observable behavior.
func (b *Builder) WithMailer(mailer MailSender) *Builder {
	b.mailer = mailer
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.attempts == nil {
		return nil, errors.New("login attempt store required")
	}
	if b.devices == nil {
		return nil, errors.New("trusted device store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mail sender required")
	}
	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	tokens, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		PrivateKey:    cfg.Token.PrivateKey,
		PublicKey:     cfg.Token.PublicKey,
		Issuer:        cfg.Token.Issuer,
		Audience:      cfg.Token.Audience,
		Leeway:        cfg.Token.Leeway,
		SessionTTL:    cfg.Token.SessionTTL,
		RememberMeTTL: cfg.Token.RememberMeTTL,
		TempTTL:       cfg.Token.TempTTL,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(cfg.Password.BcryptCost)
	if err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerUsernameValidation(validate); err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   cfg,
		users:    b.users,
		attempts: b.attempts,
		devices:  b.devices,
		mailer:   b.mailer,
		tokens:   tokens,
		hasher:   hasher,
		validate: validate,
		resendLimiter: newFixedWindowLimiter(
			b.redis, "av:resend", 1, cfg.EmailVerification.ResendCooldown),
		resetLimiter: newFixedWindowLimiter(
			b.redis, "ar:request", 1, cfg.PasswordReset.RequestCooldown),
		audit:   newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true
	return engine, nil
}
