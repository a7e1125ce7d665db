package internaldefs

import (
	auth "github.com/Pisol00/jobsdb-backend"
)

// CounterDef defines a public type used by the authentication module APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   auth.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the authentication engine.
var CounterDefs = []CounterDef{
	{ID: auth.MetricLoginSuccess, Name: "jobsdb_auth_login_success_total", Help: "Successful login attempts."},
	{ID: auth.MetricLoginFailure, Name: "jobsdb_auth_login_failure_total", Help: "Failed login attempts."},
	{ID: auth.MetricLoginLocked, Name: "jobsdb_auth_login_locked_total", Help: "Login attempts rejected by the lockout guard."},
	{ID: auth.MetricLoginUnverified, Name: "jobsdb_auth_login_unverified_total", Help: "Logins refused because of a pending email verification."},
	{ID: auth.MetricOTPIssued, Name: "jobsdb_auth_otp_issued_total", Help: "Two-factor one-time passwords issued."},
	{ID: auth.MetricOTPVerified, Name: "jobsdb_auth_otp_verified_total", Help: "Successful two-factor verifications."},
	{ID: auth.MetricOTPFailure, Name: "jobsdb_auth_otp_failure_total", Help: "Failed two-factor verifications."},
	{ID: auth.MetricOTPRegenerated, Name: "jobsdb_auth_otp_regenerated_total", Help: "Two-factor one-time passwords regenerated."},
	{ID: auth.MetricTempTokenStale, Name: "jobsdb_auth_temp_token_stale_total", Help: "Pending two-factor tokens rejected as superseded."},
	{ID: auth.MetricTrustedDeviceHit, Name: "jobsdb_auth_trusted_device_hit_total", Help: "Logins that skipped two-factor via a trusted device."},
	{ID: auth.MetricTrustedDeviceSaved, Name: "jobsdb_auth_trusted_device_saved_total", Help: "Devices remembered after two-factor verification."},
	{ID: auth.MetricTrustedDevicesPurged, Name: "jobsdb_auth_trusted_devices_purged_total", Help: "Trusted-device purge operations."},
	{ID: auth.MetricRegistration, Name: "jobsdb_auth_registration_total", Help: "Successful account registrations."},
	{ID: auth.MetricRegistrationDuplicate, Name: "jobsdb_auth_registration_duplicate_total", Help: "Registrations rejected as duplicate."},
	{ID: auth.MetricEmailVerified, Name: "jobsdb_auth_email_verified_total", Help: "Successful email verifications."},
	{ID: auth.MetricEmailVerifyFailure, Name: "jobsdb_auth_email_verify_failure_total", Help: "Failed email verification attempts."},
	{ID: auth.MetricVerificationResent, Name: "jobsdb_auth_verification_resent_total", Help: "Verification challenges re-issued."},
	{ID: auth.MetricPasswordChangeSuccess, Name: "jobsdb_auth_password_change_success_total", Help: "Successful password changes."},
	{ID: auth.MetricPasswordChangeFailure, Name: "jobsdb_auth_password_change_failure_total", Help: "Failed password change attempts."},
	{ID: auth.MetricPasswordResetRequest, Name: "jobsdb_auth_password_reset_request_total", Help: "Password reset requests."},
	{ID: auth.MetricPasswordResetSuccess, Name: "jobsdb_auth_password_reset_success_total", Help: "Successful password reset confirmations."},
	{ID: auth.MetricPasswordResetFailure, Name: "jobsdb_auth_password_reset_failure_total", Help: "Failed password reset confirmations."},
	{ID: auth.MetricFederatedLogin, Name: "jobsdb_auth_federated_login_total", Help: "Successful federated logins."},
	{ID: auth.MetricFederatedLoginRefused, Name: "jobsdb_auth_federated_login_refused_total", Help: "Federated logins refused over an email collision."},
	{ID: auth.MetricAccountDeleted, Name: "jobsdb_auth_account_deleted_total", Help: "Unverified accounts deleted by the cleanup sweep."},
	{ID: auth.MetricDeletionWarningSent, Name: "jobsdb_auth_deletion_warning_sent_total", Help: "Deletion warning emails delivered."},
	{ID: auth.MetricMailFailure, Name: "jobsdb_auth_mail_failure_total", Help: "Outbound mail deliveries that failed."},
}
