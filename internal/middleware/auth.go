package middleware

import (
	"net/http"

	"github.com/hostfold/hostfold/internal/auth"
	"github.com/hostfold/hostfold/internal/store"
)

const sessionCookieName = "hostfold_session"

// RequireAuth validates the session cookie and populates AuthContext.
// This is a JSON API, so failures answer 401 rather than redirecting.
func RequireAuth(sessions *store.SessionStore, admins *store.AdminUserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			admin, err := admins.GetByID(sess.AdminUserID)
			if err != nil || admin == nil {
				unauthorized(w)
				return
			}

			ac := auth.AuthContext{
				UserID:    admin.ID,
				Role:      admin.Role,
				SessionID: sess.ID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"authentication required"}`))
}
