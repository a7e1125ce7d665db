package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestErrorCodeMapping(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{ErrValidation, CodeValidation},
		{ErrPasswordPolicy, CodeValidation},
		{ErrPasswordReuse, CodeValidation},
		{ErrUsernameTaken, CodeValidation},
		{ErrEmailTaken, CodeValidation},
		{ErrEmailLinkedToLocalAccount, CodeEmailTakenLocal},
		{ErrInvalidCredentials, CodeInvalidCredentials},
		{ErrEmailNotVerified, CodeEmailNotVerified},
		{ErrAccountLocked, CodeAccountLocked},
		{ErrOTPInvalid, CodeOTPInvalid},
		{ErrTempTokenStale, CodeOTPInvalid},
		{ErrTempTokenInvalid, CodeOTPInvalid},
		{ErrVerificationInvalid, CodeOTPInvalid},
		{ErrResetTokenInvalid, CodeOTPInvalid},
		{ErrTwoFactorNotPending, CodeOTPInvalid},
		{ErrOTPThrottled, CodeTooManyRequests},
		{ErrVerificationThrottled, CodeTooManyRequests},
		{ErrResetThrottled, CodeTooManyRequests},
		{ErrTokenInvalid, CodeUnauthorized},
		{ErrTokenExpired, CodeUnauthorized},
		{ErrStoreUnavailable, CodeInternal},
		{errors.New("something else"), CodeInternal},
	}

	for _, tc := range cases {
		if got := Code(tc.err); got != tc.code {
			t.Errorf("Code(%v) = %q, want %q", tc.err, got, tc.code)
		}
	}
}

func TestErrorCodeSeesWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("verify otp: %w", ErrOTPInvalid)
	if got := Code(wrapped); got != CodeOTPInvalid {
		t.Fatalf("Code(wrapped) = %q, want %q", got, CodeOTPInvalid)
	}
}

func TestStatusForMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrEmailLinkedToLocalAccount, http.StatusBadRequest},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrOTPInvalid, http.StatusUnauthorized},
		{ErrTokenExpired, http.StatusUnauthorized},
		{ErrEmailNotVerified, http.StatusForbidden},
		{ErrAccountLocked, http.StatusTooManyRequests},
		{ErrOTPThrottled, http.StatusTooManyRequests},
		{ErrStoreUnavailable, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.status {
			t.Errorf("StatusFor(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}
}

func TestLockoutErrorCarriesRetryHint(t *testing.T) {
	lockErr := &LockoutError{
		Until:     time.Now().Add(90 * time.Second),
		Remaining: 90 * time.Second,
	}

	if !errors.Is(lockErr, ErrAccountLocked) {
		t.Fatal("LockoutError must unwrap to ErrAccountLocked")
	}
	if got := Code(lockErr); got != CodeAccountLocked {
		t.Fatalf("Code(LockoutError) = %q, want %q", got, CodeAccountLocked)
	}
	if got := StatusFor(lockErr); got != http.StatusTooManyRequests {
		t.Fatalf("StatusFor(LockoutError) = %d, want 429", got)
	}

	var target *LockoutError
	wrapped := fmt.Errorf("login: %w", lockErr)
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As must recover the lockout detail through wrapping")
	}
	if target.Remaining != 90*time.Second {
		t.Fatalf("Remaining = %v, want 90s", target.Remaining)
	}
}
