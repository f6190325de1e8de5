package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows the storefront and back-office frontends. Local dev origins are
// used when none are configured.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			idempotencyHeader,
			requestIDHeader,
		},
		ExposedHeaders:   []string{requestIDHeader, "X-Storefront-Token", "Idempotency-Replayed"},
		AllowCredentials: true,
		MaxAge:           600,
	})
}
