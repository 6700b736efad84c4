package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// GatewaySecretHeader carries the pre-shared secret the gateway attaches
// to every forwarded request.
const GatewaySecretHeader = "X-Gateway-Secret"

// GatewaySecret rejects any request that does not carry the configured
// pre-shared secret, closing direct access from outside the gateway.
// With an empty secret the gate is disabled and passes every request
// through; this is logged once at startup.
//
// The comparison is exact and case-sensitive. Rejection terminates the
// pipeline; no later stage runs.
func GatewaySecret(secret string, log *zap.Logger) func(http.Handler) http.Handler {
	if secret == "" {
		log.Info("gateway secret not configured, gate disabled")
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(GatewaySecretHeader)
			if strings.TrimSpace(got) == "" {
				log.Warn("gateway secret header missing",
					zap.String("path", r.URL.Path),
					zap.String("ip", r.RemoteAddr))
				writeError(w, http.StatusForbidden, "forbidden", "Forbidden: missing gateway secret")
				return
			}

			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				log.Warn("gateway secret invalid",
					zap.String("path", r.URL.Path),
					zap.String("ip", r.RemoteAddr))
				writeError(w, http.StatusForbidden, "forbidden", "Forbidden: invalid gateway secret")
				return
			}

			log.Debug("gateway secret accepted", zap.String("path", r.URL.Path))
			next.ServeHTTP(w, r)
		})
	}
}
