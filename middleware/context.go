package middleware

import (
	"net"
	"net/http"

	auth "github.com/Pisol00/jobsdb-backend"
)

// WithRequestContext copies the request's client IP, device ID, and
// User-Agent into the context the engine reads. The device ID travels in
// the X-Device-Id header set by the client application.
func WithRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = auth.WithClientIP(ctx, clientIP(r))
		if deviceID := r.Header.Get("X-Device-Id"); deviceID != "" {
			ctx = auth.WithDeviceID(ctx, deviceID)
		}
		if ua := r.UserAgent(); ua != "" {
			ctx = auth.WithUserAgent(ctx, ua)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
