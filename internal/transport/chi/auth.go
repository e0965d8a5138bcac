package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// keyring holds digests of the accepted API keys. Comparing fixed-size
// digests keeps the check constant-time regardless of token length.
type keyring [][sha256.Size]byte

func newKeyring(keys []string) keyring {
	ring := make(keyring, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			ring = append(ring, sha256.Sum256([]byte(k)))
		}
	}
	return ring
}

func (ring keyring) accepts(token string) bool {
	sum := sha256.Sum256([]byte(token))
	match := 0
	for i := range ring {
		match |= subtle.ConstantTimeCompare(ring[i][:], sum[:])
	}
	return match == 1
}

// bearerToken extracts the credentials of a Bearer Authorization header.
// The scheme name is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// BearerAuthMiddleware guards write routes with static API keys. With no
// non-blank keys configured it passes every request through.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	ring := newKeyring(apiKeys)
	return func(next http.Handler) http.Handler {
		if len(ring) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := bearerToken(header)
			switch {
			case header == "":
				unauthorized(w, "missing authorization header")
			case !ok:
				unauthorized(w, "authorization header must use Bearer scheme")
			case !ring.accepts(token):
				unauthorized(w, "invalid api key")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="geodex"`)
	writeError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
}
