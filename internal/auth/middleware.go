package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type claimsKey struct{}

// RequireScope admits requests that carry a valid bearer token granting
// scope. The token's claims are available to the next handler through
// ClaimsFromContext.
func (s *Service) RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}

			claims, err := s.ValidateToken(token)
			if err != nil {
				slog.Debug("token rejected", "path", r.URL.Path, "error", err)
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}
			if !claims.HasScope(scope) {
				slog.Warn("token lacks scope", "subject", claims.Subject, "scope", scope, "path", r.URL.Path)
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient scope", "scope": scope})
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// ClaimsFromContext returns the claims stored by RequireScope.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok
}

// Editor names who made a change, for logging.
func Editor(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.Subject
	}
	return "anonymous"
}
