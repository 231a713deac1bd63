package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/zonemap/zonemap/internal/auth"
)

const bearerPrefix = "Bearer "

// Auth returns middleware that validates the session token from the
// Authorization header and stores the authenticated principal in the
// request context. Requests without a valid token get 401.
func Auth(issuer *auth.TokenIssuer, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, bearerPrefix) {
				writeAuthError(w, "missing or malformed Authorization header")
				return
			}

			principal, err := issuer.Verify(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				logger.Warn("token rejected",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("error", err.Error()),
				)
				writeAuthError(w, "invalid or expired session")
				return
			}

			ctx := auth.ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin returns middleware that restricts a route to admin-realm
// principals. Must be applied after Auth.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			if principal == nil {
				writeAuthError(w, "authentication required")
				return
			}
			if !principal.IsAdmin() {
				logger.Warn("admin route denied",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Int64("principal_id", principal.ID),
					slog.String("realm", string(principal.Realm)),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","code":"FORBIDDEN"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeAuthError writes a 401 response with a generic message.
func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `","code":"UNAUTHORIZED"}`))
}
