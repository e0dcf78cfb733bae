package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"

	"github.com/davidbz/folio/internal/config"
)

// Headers set by Trace that browsers may read.
var exposedHeaders = []string{headerTraceID, headerRequestID}

// CORS wraps the read-only API in an rs/cors policy. A nil config disables it.
// Credentials are never allowed together with a wildcard origin.
func CORS(cfg *config.CORSConfig) Middleware {
	if cfg == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: cfg.AllowCredentials && !slices.Contains(cfg.AllowedOrigins, "*"),
		MaxAge:           cfg.MaxAge,
	})

	return c.Handler
}
