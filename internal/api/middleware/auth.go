package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/speedq/internal/metrics"
)

// RouterSecretHeader carries the shared secret when it is not in the query.
const RouterSecretHeader = "X-Router-Secret"

// RouterSecret returns the secret supplied with r and whether one was given.
// The query parameter takes precedence over the header.
func RouterSecret(r *http.Request) (string, bool) {
	if s := r.URL.Query().Get("secret"); s != "" {
		return s, true
	}
	if s := r.Header.Get(RouterSecretHeader); s != "" {
		return s, true
	}
	return "", false
}

// SecretMatches compares secrets in constant time.
func SecretMatches(expected, given string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}

// RouterAuth rejects requests that do not carry the router's shared secret.
// Rejected requests never reach the handler.
func RouterAuth(secret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			given, _ := RouterSecret(r)
			if !SecretMatches(secret, given) {
				metrics.AuthFailures.Inc()
				logger.Warn().
					Str("type", "security").
					Str("event", "router_auth_failed").
					Str("ip", RealIP(r)).
					Str("endpoint", r.URL.Path).
					Msg("router secret mismatch")
				jsonError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
