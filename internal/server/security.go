package server

import (
	"net/http"
	"slices"
	"strings"

	"github.com/agbru/bassfit/internal/config"
)

// SecurityConfig holds the response header policy and request limits.
type SecurityConfig struct {
	// EnableCORS enables Cross-Origin Resource Sharing headers.
	EnableCORS bool
	// AllowedOrigins lists allowed CORS origins. "*" allows all.
	AllowedOrigins []string
	// AllowedMethods lists the HTTP methods announced to CORS clients.
	AllowedMethods []string
	// MaxObservations limits the length of a submitted series.
	MaxObservations int
	// MaxBodyBytes limits the size of a POST body.
	MaxBodyBytes int64
	// MaxHorizon limits the forecast horizon of a request.
	MaxHorizon int
}

// DefaultSecurityConfig returns the default security configuration.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:      true,
		AllowedOrigins:  []string{"*"},
		AllowedMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		MaxObservations: 1000,
		MaxBodyBytes:    1 << 20,
		MaxHorizon:      config.MaxHorizon,
	}
}

// SecurityMiddleware sets the hardening headers and answers CORS
// preflight requests.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if config.EnableCORS {
			origin := r.Header.Get("Origin")
			allowed := ""
			if slices.Contains(config.AllowedOrigins, "*") {
				allowed = "*"
			} else if origin != "" && slices.Contains(config.AllowedOrigins, origin) {
				allowed = origin
				h.Add("Vary", "Origin")
			}

			if allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, "+RequestIDHeader)
				h.Set("Access-Control-Expose-Headers", RequestIDHeader)
				h.Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		next(w, r)
	}
}
