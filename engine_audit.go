package auth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess           = "login_success"
	auditEventLoginFailure           = "login_failure"
	auditEventLoginLocked            = "login_locked"
	auditEventLoginUnverified        = "login_unverified"
	auditEventOTPIssued              = "otp_issued"
	auditEventOTPVerified            = "otp_verified"
	auditEventOTPFailure             = "otp_failure"
	auditEventOTPRegenerated         = "otp_regenerated"
	auditEventTempTokenStale         = "temp_token_stale"
	auditEventTrustedDeviceUsed      = "trusted_device_used"
	auditEventTrustedDeviceSaved     = "trusted_device_saved"
	auditEventTrustedDevicesPurged   = "trusted_devices_purged"
	auditEventTwoFactorEnabled       = "two_factor_enabled"
	auditEventTwoFactorDisabled      = "two_factor_disabled"
	auditEventRegistration           = "registration"
	auditEventRegistrationDuplicate  = "registration_duplicate"
	auditEventEmailVerified          = "email_verified"
	auditEventEmailVerifyFailure     = "email_verify_failure"
	auditEventVerificationResent     = "verification_resent"
	auditEventPasswordChangeSuccess  = "password_change_success"
	auditEventPasswordChangeFailure  = "password_change_failure"
	auditEventPasswordResetRequest   = "password_reset_request"
	auditEventPasswordResetConfirm   = "password_reset_confirm"
	auditEventPasswordResetFailure   = "password_reset_failure"
	auditEventFederatedLogin         = "federated_login"
	auditEventFederatedLoginRefused  = "federated_login_refused"
	auditEventAccountDeleted         = "account_deleted"
	auditEventDeletionWarningEmailed = "deletion_warning_emailed"
	auditEventMailFailure            = "mail_failure"
)

// AuditErrorCode defines a public type used by the authentication module APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrEmailNotVerified   AuditErrorCode = "email_not_verified"
	auditErrAccountLocked      AuditErrorCode = "account_locked"
	auditErrOTPInvalid         AuditErrorCode = "otp_invalid"
	auditErrTempTokenStale     AuditErrorCode = "temp_token_stale"
	auditErrTempTokenInvalid   AuditErrorCode = "temp_token_invalid"
	auditErrThrottled          AuditErrorCode = "throttled"
	auditErrChallengeInvalid   AuditErrorCode = "challenge_invalid"
	auditErrValidation         AuditErrorCode = "validation"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrPasswordReuse      AuditErrorCode = "password_reuse"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrMailDelivery       AuditErrorCode = "mail_delivery"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		DeviceID:  deviceIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrEmailNotVerified):
		return auditErrEmailNotVerified
	case errors.Is(err, ErrAccountLocked):
		return auditErrAccountLocked
	case errors.Is(err, ErrTempTokenStale):
		return auditErrTempTokenStale
	case errors.Is(err, ErrTempTokenInvalid),
		errors.Is(err, ErrTwoFactorNotPending):
		return auditErrTempTokenInvalid
	case errors.Is(err, ErrOTPInvalid):
		return auditErrOTPInvalid
	case errors.Is(err, ErrOTPThrottled),
		errors.Is(err, ErrVerificationThrottled),
		errors.Is(err, ErrResetThrottled):
		return auditErrThrottled
	case errors.Is(err, ErrVerificationInvalid),
		errors.Is(err, ErrResetTokenInvalid),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired):
		return auditErrChallengeInvalid
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrEmailLinkedToLocalAccount):
		return auditErrDuplicate
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrPasswordReuse):
		return auditErrPasswordReuse
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrMailDelivery):
		return auditErrMailDelivery
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
