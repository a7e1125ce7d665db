package mail

import (
	"strings"
	"testing"
	"time"
)

func TestTwoFactorEmail(t *testing.T) {
	subject, body := TwoFactorEmail("JobsDB", "482913", 10*time.Minute)

	if !strings.Contains(subject, "482913") {
		t.Fatalf("subject %q must carry the code", subject)
	}
	if !strings.Contains(body, "482913") {
		t.Fatal("body must carry the code")
	}
	if !strings.Contains(body, "10 minutes") {
		t.Fatal("body must name the expiry")
	}
}

func TestVerificationEmailCarriesCodeAndLink(t *testing.T) {
	url := "https://jobsdb.example.com/auth/verify-email?token=abc123"
	subject, body := VerificationEmail("JobsDB", "482913", url, 24*time.Hour)

	if !strings.Contains(subject, "JobsDB") {
		t.Fatalf("subject %q must name the app", subject)
	}
	if !strings.Contains(body, "482913") {
		t.Fatal("body must carry the code")
	}
	if !strings.Contains(body, url) {
		t.Fatal("body must carry the verification link")
	}
	if !strings.Contains(body, "24 hours") {
		t.Fatal("body must name the expiry")
	}
}

func TestResetEmailCarriesLinkOnly(t *testing.T) {
	url := "https://jobsdb.example.com/auth/reset-password?token=abc123"
	subject, body := ResetEmail("JobsDB", url, 10*time.Minute)

	if !strings.Contains(subject, "Reset") {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, url) {
		t.Fatal("body must carry the reset link")
	}
	if !strings.Contains(body, "10 minutes") {
		t.Fatal("body must name the validity window")
	}
}

func TestDeletionWarningEmail(t *testing.T) {
	subject, body := DeletionWarningEmail("JobsDB", "alice", 2)

	if !strings.Contains(subject, "deleted") {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "alice") {
		t.Fatal("body must address the user")
	}
	if !strings.Contains(body, "2 day(s)") {
		t.Fatal("body must name the days left")
	}
}

func TestWelcomeEmail(t *testing.T) {
	subject, body := WelcomeEmail("JobsDB", "alice")

	if !strings.Contains(subject, "Welcome") {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(body, "alice") {
		t.Fatal("body must address the user")
	}
}

func TestTemplatesEscapeHTML(t *testing.T) {
	_, body := DeletionWarningEmail("<script>x</script>", `<img src=x>`, 1)
	if strings.Contains(body, "<script>") || strings.Contains(body, "<img") {
		t.Fatal("app name and username must be HTML-escaped")
	}

	_, body = VerificationEmail("JobsDB", "482913", `https://example.com/?a=1&b="2"`, time.Hour)
	if strings.Contains(body, `"2"`) {
		t.Fatal("link must be HTML-escaped inside the href")
	}
}
