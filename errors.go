package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrInvalidCredentials is an exported constant or variable used by the authentication engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is an exported constant or variable used by the authentication engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailNotVerified is an exported constant or variable used by the authentication engine.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrAccountLocked is an exported constant or variable used by the authentication engine.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrValidation is an exported constant or variable used by the authentication engine.
	ErrValidation = errors.New("invalid request")
	// ErrUsernameTaken is an exported constant or variable used by the authentication engine.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrEmailTaken is an exported constant or variable used by the authentication engine.
	ErrEmailTaken = errors.New("email already registered")
	// ErrEmailLinkedToLocalAccount is an exported constant or variable used by the authentication engine.
	ErrEmailLinkedToLocalAccount = errors.New("email already linked to a password account")
	// ErrPasswordPolicy is an exported constant or variable used by the authentication engine.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReuse is an exported constant or variable used by the authentication engine.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrOTPInvalid is an exported constant or variable used by the authentication engine.
	ErrOTPInvalid = errors.New("invalid or expired verification code")
	// ErrTempTokenInvalid is an exported constant or variable used by the authentication engine.
	ErrTempTokenInvalid = errors.New("invalid or expired temporary token")
	// ErrTempTokenStale is an exported constant or variable used by the authentication engine.
	ErrTempTokenStale = errors.New("outdated token")
	// ErrOTPThrottled is an exported constant or variable used by the authentication engine.
	ErrOTPThrottled = errors.New("verification code recently sent")
	// ErrVerificationInvalid is an exported constant or variable used by the authentication engine.
	ErrVerificationInvalid = errors.New("email verification challenge invalid")
	// ErrVerificationThrottled is an exported constant or variable used by the authentication engine.
	ErrVerificationThrottled = errors.New("verification email recently sent")
	// ErrResetTokenInvalid is an exported constant or variable used by the authentication engine.
	ErrResetTokenInvalid = errors.New("password reset challenge invalid")
	// ErrResetThrottled is an exported constant or variable used by the authentication engine.
	ErrResetThrottled = errors.New("password reset recently requested")
	// ErrMailDelivery is an exported constant or variable used by the authentication engine.
	ErrMailDelivery = errors.New("mail delivery failed")
	// ErrTokenInvalid is an exported constant or variable used by the authentication engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is an exported constant or variable used by the authentication engine.
	ErrTokenExpired = errors.New("token expired")
	// ErrTwoFactorNotPending is an exported constant or variable used by the authentication engine.
	ErrTwoFactorNotPending = errors.New("no two-factor challenge pending")
	// ErrDeviceNotTrusted is an exported constant or variable used by the authentication engine.
	ErrDeviceNotTrusted = errors.New("device not trusted")
	// ErrEngineNotReady is an exported constant or variable used by the authentication engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrStoreUnavailable is an exported constant or variable used by the authentication engine.
	ErrStoreUnavailable = errors.New("backing store unavailable")
)

// LockoutError carries the remaining lockout window alongside
// [ErrAccountLocked] so transports can surface a retry hint.
type LockoutError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("account temporarily locked, retry in %ds", int(e.Remaining.Seconds()))
}

// Unwrap makes errors.Is(err, ErrAccountLocked) hold for lockout errors.
func (e *LockoutError) Unwrap() error {
	return ErrAccountLocked
}

// Stable machine-readable codes carried in the response envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	CodeAccountLocked      = "ACCOUNT_LOCKED"
	CodeOTPInvalid         = "OTP_INVALID"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeEmailTakenLocal    = "EMAIL_LINKED_TO_LOCAL_ACCOUNT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Code maps an engine error to its stable envelope code. Invalid one-time
// codes and stale temp tokens intentionally share one code so callers cannot
// probe which part of a two-factor challenge failed.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrPasswordReuse),
		errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrEmailTaken):
		return CodeValidation
	case errors.Is(err, ErrEmailLinkedToLocalAccount):
		return CodeEmailTakenLocal
	case errors.Is(err, ErrInvalidCredentials):
		return CodeInvalidCredentials
	case errors.Is(err, ErrEmailNotVerified):
		return CodeEmailNotVerified
	case errors.Is(err, ErrAccountLocked):
		return CodeAccountLocked
	case errors.Is(err, ErrOTPInvalid),
		errors.Is(err, ErrTempTokenStale),
		errors.Is(err, ErrTempTokenInvalid),
		errors.Is(err, ErrVerificationInvalid),
		errors.Is(err, ErrResetTokenInvalid),
		errors.Is(err, ErrTwoFactorNotPending):
		return CodeOTPInvalid
	case errors.Is(err, ErrOTPThrottled),
		errors.Is(err, ErrVerificationThrottled),
		errors.Is(err, ErrResetThrottled):
		return CodeTooManyRequests
	case errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired):
		return CodeUnauthorized
	default:
		return CodeInternal
	}
}

// StatusFor maps an engine error to the HTTP status its envelope is written
// with. Unknown errors map to 500 without leaking detail.
func StatusFor(err error) int {
	switch Code(err) {
	case CodeValidation, CodeEmailTakenLocal:
		return http.StatusBadRequest
	case CodeInvalidCredentials, CodeOTPInvalid, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeEmailNotVerified:
		return http.StatusForbidden
	case CodeAccountLocked, CodeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
