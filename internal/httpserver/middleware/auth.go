package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/davidbz/promptforge/internal/config"
)

// apiKeyHeader is the dedicated shared-secret header.
const apiKeyHeader = "X-Api-Key"

// Auth creates a middleware enforcing the shared secret. A request is
// authorized when the dedicated header matches exactly, or the
// Authorization header carries the secret as a bearer token. With no secret
// configured, every request is authorized.
func Auth(cfg *config.AuthConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg == nil || cfg.SharedSecret == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !authorized(r, cfg.SharedSecret) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func authorized(r *http.Request, secret string) bool {
	if secureEqual(r.Header.Get(apiKeyHeader), secret) {
		return true
	}

	auth := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	return secureEqual(strings.TrimSpace(token), secret)
}

func secureEqual(a, b string) bool {
	if a == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
