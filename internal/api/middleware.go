package api

// This file contains the middleware for API token authentication.

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware verifies the configured API token on every request. The
// comparison is constant-time. When no token is configured the service is
// open, which is only sensible for local development.
func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := s.app.Config.API.Token
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: Missing bearer token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// WebhookAuthMiddleware checks the optional shared secret on the webhook
// routes. The backend appends it as a query parameter; when none is
// configured the routes are open so local backends can post freely.
func (s *Server) WebhookAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secret := s.app.Config.Webhook.Secret
		if secret == "" {
			next.ServeHTTP(w, r)
			return
		}
		provided := r.URL.Query().Get("secret")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: Invalid webhook secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}
