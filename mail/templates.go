package mail

import (
	"fmt"
	"html"
	"time"
)

// TwoFactorEmail renders the login one-time-code message. The code is the
// only secret in the body; it expires after ttl.
func TwoFactorEmail(appName string, otp string, ttl time.Duration) (subject string, body string) {
	appName = html.EscapeString(appName)
	subject = fmt.Sprintf("%s sign-in code: %s", appName, otp)
	body = fmt.Sprintf(`<div style="font-family:sans-serif;max-width:480px">
<h2>Your sign-in code</h2>
<p>Use this code to finish signing in to %s:</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold">%s</p>
<p>The code expires in %d minutes. If you did not try to sign in, you can ignore this email.</p>
</div>`, appName, otp, int(ttl.Minutes()))
	return subject, body
}

// VerificationEmail renders the post-registration message carrying both
// the one-time code and the signed verification link.
func VerificationEmail(appName string, otp string, verifyURL string, ttl time.Duration) (subject string, body string) {
	appName = html.EscapeString(appName)
	subject = fmt.Sprintf("Verify your %s email address", appName)
	body = fmt.Sprintf(`<div style="font-family:sans-serif;max-width:480px">
<h2>Welcome to %s</h2>
<p>Confirm your email address by entering this code:</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold">%s</p>
<p>Or click the link below:</p>
<p><a href="%s">Verify my email</a></p>
<p>This challenge expires in %d hours. If you did not create an account, you can ignore this email.</p>
</div>`, appName, otp, html.EscapeString(verifyURL), int(ttl.Hours()))
	return subject, body
}

// ResetEmail renders the password-reset message with the single-use link.
func ResetEmail(appName string, resetURL string, ttl time.Duration) (subject string, body string) {
	appName = html.EscapeString(appName)
	subject = fmt.Sprintf("Reset your %s password", appName)
	body = fmt.Sprintf(`<div style="font-family:sans-serif;max-width:480px">
<h2>Password reset</h2>
<p>Someone requested a password reset for your %s account. If that was you, use the link below:</p>
<p><a href="%s">Choose a new password</a></p>
<p>The link is valid for %d minutes and can be used once. If you did not ask for a reset, no action is needed.</p>
</div>`, appName, html.EscapeString(resetURL), int(ttl.Minutes()))
	return subject, body
}

// DeletionWarningEmail renders the unverified-account warning sent before
// the cleanup sweep removes the account.
func DeletionWarningEmail(appName string, username string, daysLeft int) (subject string, body string) {
	appName = html.EscapeString(appName)
	subject = fmt.Sprintf("Your %s account will be deleted soon", appName)
	body = fmt.Sprintf(`<div style="font-family:sans-serif;max-width:480px">
<h2>Your account is still unverified</h2>
<p>Hi %s, the email address on your %s account was never verified. Unverified accounts are removed automatically.</p>
<p><strong>Your account will be deleted in about %d day(s)</strong> unless you verify your email before then.</p>
</div>`, html.EscapeString(username), appName, daysLeft)
	return subject, body
}

// WelcomeEmail renders the message sent once after successful verification.
func WelcomeEmail(appName string, username string) (subject string, body string) {
	appName = html.EscapeString(appName)
	subject = fmt.Sprintf("Welcome to %s", appName)
	body = fmt.Sprintf(`<div style="font-family:sans-serif;max-width:480px">
<h2>You're all set</h2>
<p>Hi %s, your email address is verified and your %s account is ready to use.</p>
</div>`, html.EscapeString(username), appName)
	return subject, body
}
