package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	auth "github.com/Pisol00/jobsdb-backend"
)

type fakeSource struct {
	snapshot auth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() auth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                  { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: auth.MetricsSnapshot{
			Counters: map[auth.MetricID]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounters(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: auth.MetricsSnapshot{
			Counters: map[auth.MetricID]uint64{
				auth.MetricLoginSuccess: 7,
				auth.MetricOTPIssued:    4,
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "jobsdb_auth_login_success_total 7") {
		t.Fatalf("expected login_success counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "jobsdb_auth_otp_issued_total 4") {
		t.Fatalf("expected otp_issued counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "jobsdb_auth_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: auth.MetricsSnapshot{
			Counters: map[auth.MetricID]uint64{auth.MetricLoginSuccess: 1},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: auth.MetricsSnapshot{
			Counters: map[auth.MetricID]uint64{
				auth.MetricLoginSuccess:         1000,
				auth.MetricLoginFailure:         40,
				auth.MetricOTPIssued:            200,
				auth.MetricOTPVerified:          180,
				auth.MetricTrustedDeviceHit:     600,
				auth.MetricRegistration:         90,
				auth.MetricPasswordResetFailure: 3,
				auth.MetricDeletionWarningSent:  12,
			},
		},
		dropped: 0,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
