package admin

import (
	"log/slog"
	"net/http"
	"strings"

	"sigil/pkg/requestcontext"
)

// TokenVerifier validates admin session tokens. Implemented by the admin
// module's JWT service.
type TokenVerifier interface {
	VerifyAdminToken(token string) (adminID string, err error)
}

// RequireAdmin guards admin-only routes. It expects an "Authorization: Bearer"
// header carrying an admin session token, and on success places the admin
// identifier in the request context for audit attribution.
func RequireAdmin(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := bearerToken(r)
			if token == "" {
				unauthorized(w)
				return
			}

			adminID, err := verifier.VerifyAdminToken(token)
			if err != nil {
				logger.WarnContext(ctx, "admin token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				unauthorized(w)
				return
			}

			ctx = requestcontext.WithAdminActor(ctx, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`))
}
