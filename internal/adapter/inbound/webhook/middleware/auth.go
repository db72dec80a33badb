package middleware

import (
	"crypto/ed25519"
	"encoding/hex"
	"log/slog"
	"net/http"
)

const (
	headerSignature = "X-Signature-Ed25519"
	headerTimestamp = "X-Signature-Timestamp"
)

// Ed25519Auth returns middleware that verifies the interaction signature
// Discord attaches to every webhook delivery. The signed message is the
// timestamp header concatenated with the raw request body, exactly as
// received; verification happens before any payload parsing, and any
// failure is a 401.
func Ed25519Auth(publicKey ed25519.PublicKey, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sigHex := r.Header.Get(headerSignature)
			timestamp := r.Header.Get(headerTimestamp)
			if sigHex == "" || timestamp == "" {
				logger.Warn("interaction rejected: signature headers missing",
					"remote", remoteIP(r, false))
				http.Error(w, "missing signature", http.StatusUnauthorized)
				return
			}

			sig, err := hex.DecodeString(sigHex)
			if err != nil || len(sig) != ed25519.SignatureSize {
				logger.Warn("interaction rejected: signature not decodable",
					"remote", remoteIP(r, false))
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}

			body, ok := r.Context().Value(rawBodyKey{}).([]byte)
			if !ok {
				http.Error(w, "request body not available for signature verification", http.StatusInternalServerError)
				return
			}

			message := make([]byte, 0, len(timestamp)+len(body))
			message = append(message, timestamp...)
			message = append(message, body...)
			if !ed25519.Verify(publicKey, message, sig) {
				logger.Warn("interaction rejected: signature verification failed",
					"remote", remoteIP(r, false))
				http.Error(w, "invalid signature", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// rawBodyKey is used to store the raw request body in context (set by BodyReader middleware).
type rawBodyKey struct{}
