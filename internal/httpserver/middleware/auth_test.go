package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/promptforge/internal/config"
	"github.com/davidbz/promptforge/internal/httpserver/middleware"
)

func authHandler(secret string) http.Handler {
	cfg := &config.AuthConfig{SharedSecret: secret}
	return middleware.Auth(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAuth(t *testing.T) {
	t.Run("should allow everything when no secret is configured", func(t *testing.T) {
		handler := authHandler("")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/generate", nil))

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should accept the api key header", func(t *testing.T) {
		handler := authHandler("s3cret")

		req := httptest.NewRequest(http.MethodPost, "/v1/generate", nil)
		req.Header.Set("X-Api-Key", "s3cret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should accept a bearer token", func(t *testing.T) {
		handler := authHandler("s3cret")

		req := httptest.NewRequest(http.MethodPost, "/v1/generate", nil)
		req.Header.Set("Authorization", "Bearer s3cret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("should reject a missing credential", func(t *testing.T) {
		handler := authHandler("s3cret")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/generate", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should reject a wrong secret", func(t *testing.T) {
		handler := authHandler("s3cret")

		req := httptest.NewRequest(http.MethodPost, "/v1/generate", nil)
		req.Header.Set("X-Api-Key", "wrong")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should reject a non-bearer authorization scheme", func(t *testing.T) {
		handler := authHandler("s3cret")

		req := httptest.NewRequest(http.MethodPost, "/v1/generate", nil)
		req.Header.Set("Authorization", "Basic s3cret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
