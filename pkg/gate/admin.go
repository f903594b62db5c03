package gate

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// AdminToken guards admin routes with a static bearer token.
// An empty token disables the admin routes entirely.
func AdminToken(token string) func(http.Handler) http.Handler {
	return adminGuard(token != "", func(got string) bool {
		return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
	})
}

// AdminTokenHash is AdminToken for deployments that only keep a bcrypt hash
// of the token in their environment.
func AdminTokenHash(hash string) func(http.Handler) http.Handler {
	return adminGuard(hash != "", func(got string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(got)) == nil
	})
}

func adminGuard(enabled bool, valid func(token string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				writeError(w, http.StatusNotFound, CodeNotFound, "Not found.")
				return
			}
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || got == "" || !valid(got) {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "Admin token required.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
