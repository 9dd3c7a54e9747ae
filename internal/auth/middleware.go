package auth

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/storefront-labs/storefront/internal/platform/httpx"
)

// Middleware wires token verification helpers for HTTP handlers.
type Middleware struct {
	Verifier *Verifier
	Logger   *slog.Logger
}

// RequireRole ensures the request carries a valid token whose role is one of roles.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.Verifier == nil {
				httpx.Fail(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			claims, err := m.Verifier.Verify(bearerToken(r))
			if err != nil {
				if m.Logger != nil {
					m.Logger.Debug("token rejected", slog.Any("error", err), slog.String("path", r.URL.Path))
				}
				httpx.Fail(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
				httpx.Fail(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
