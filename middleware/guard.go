package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	auth "github.com/Pisol00/jobsdb-backend"
	"github.com/Pisol00/jobsdb-backend/jwt"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the validated claims injected by a guard.
func ClaimsFromContext(ctx context.Context) (*jwt.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*jwt.SessionClaims)
	return claims, ok
}

// Envelope is the uniform JSON response body: success flag, a
// human-readable message, and a stable machine code on failures.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WriteError writes the error as a JSON envelope with the status mapped by
// [auth.StatusFor]. Internal errors are masked with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	status := auth.StatusFor(err)
	code := auth.Code(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		Success: false,
		Message: message,
		Code:    code,
	})
}

// RequireSession guards a handler with full session authentication. A
// pending two-factor token is rejected: holding one means the password was
// verified but the challenge was not answered, which grants nothing here.
func RequireSession(engine *auth.Engine) func(http.Handler) http.Handler {
	return guard(engine, (*auth.Engine).Authenticate)
}

// RequireTempToken guards the two-factor completion surfaces. Only a
// pending two-factor token is accepted.
func RequireTempToken(engine *auth.Engine) func(http.Handler) http.Handler {
	return guard(engine, (*auth.Engine).AuthenticateTemp)
}

func guard(engine *auth.Engine, authenticate func(*auth.Engine, context.Context, string) (*jwt.SessionClaims, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, auth.ErrTokenInvalid)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, auth.ErrTokenInvalid)
				return
			}

			claims, err := authenticate(engine, r.Context(), token)
			if err != nil {
				WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
