package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// RequireCronAuth guards internal scheduler endpoints. It accepts either
// the shared secret in X-Cron-Secret or an HS256 bearer token signed with
// the same secret, so both plain cron jobs and external schedulers work.
func RequireCronAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				unauthorized(w)
				return
			}
			if header := r.Header.Get("X-Cron-Secret"); header != "" {
				if subtle.ConstantTimeCompare([]byte(header), []byte(secret)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
				unauthorized(w)
				return
			}
			if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				if validCronToken(bearer, secret) {
					next.ServeHTTP(w, r)
					return
				}
			}
			unauthorized(w)
		})
	}
}

func validCronToken(token, secret string) bool {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	return err == nil && parsed.Valid
}
