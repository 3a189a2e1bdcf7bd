package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"profile_sync/internal/config"
	"profile_sync/internal/ws"
)

var (
	corsHeaders = strings.Join([]string{"Content-Type", "Authorization"}, ", ")
	corsMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}, ", ")
)

const corsMaxAge = 600

// corsMiddleware answers preflights and tags responses for allowed origins.
// A preflight from an origin that is not allowed gets 403.
func corsMiddleware(cfg config.CorsConfig, next http.Handler) http.Handler {
	wildcard := false
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			wildcard = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := origin != "" && ws.OriginAllowed(cfg.AllowOrigins, origin)

		if allowed {
			h := w.Header()
			h.Add("Vary", "Origin")
			// Credentials cannot be combined with a literal "*".
			if wildcard && !cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Headers", corsHeaders)
			h.Set("Access-Control-Allow-Methods", corsMethods)
			h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
		}

		if r.Method == http.MethodOptions {
			if origin != "" && !allowed {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
