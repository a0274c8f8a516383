package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/mrequena/cesta/internal/auth"
	"github.com/mrequena/cesta/internal/model"
	"github.com/mrequena/cesta/internal/store"
)

const SessionCookieName = "cesta_session"

// RequireAuth validates the session cookie and populates the AuthContext.
// A session whose display name is not a known household member is treated
// as "no valid application user": its sessions are revoked and the client
// is told to sign in again.
func RequireAuth(sessionStore *store.SessionStore, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			user, err := userStore.GetByID(sess.UserID)
			if err != nil || user == nil {
				unauthorized(w)
				return
			}

			if !model.KnownUser(user.DisplayName) {
				// Forced sign-out: the account exists but is not bound
				// to a household member.
				sessionStore.DeleteByUserID(user.ID)
				clearSessionCookie(w)
				writeAuthError(w, http.StatusForbidden, "usuario no válido")
				return
			}

			ac := auth.AuthContext{
				UserID:      user.ID,
				DisplayName: user.DisplayName,
				SessionID:   sess.ID,
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAuth(r.Context(), ac)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	writeAuthError(w, http.StatusUnauthorized, "sesión no válida")
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
