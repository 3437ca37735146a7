package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/davidbz/promptforge/internal/config"
)

// CORS creates a middleware that reflects allow-listed origins using the
// github.com/rs/cors library. Origins outside the allow-set get no CORS
// headers; the request is still served. Browser-side enforcement only.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		// Return no-op middleware if config is nil.
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: cfg.AllowedMethods,
		AllowedHeaders: cfg.AllowedHeaders,
		MaxAge:         cfg.MaxAge,
	})

	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
