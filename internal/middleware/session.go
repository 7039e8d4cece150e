package middleware

import (
	"net/http"

	"github.com/baharkarakas/premiumshop-backend/internal/api/httpx"
	"github.com/baharkarakas/premiumshop-backend/internal/auth"
)

type Authenticator interface {
	Authenticate(token string) (string, error)
}

// Session resolves the session cookie to a user email or answers 401 not_logged_in.
func Session(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(auth.CookieName)
			if err != nil || c.Value == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "not_logged_in", nil)
				return
			}
			email, err := a.Authenticate(c.Value)
			if err != nil || email == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "not_logged_in", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), UserCtx{Email: email})))
		})
	}
}
