package cart

import (
	"net/http"

	"github.com/google/uuid"
)

const CookieName = "atelier_cart"

const cookieMaxAge = 60 * 60 * 24 * 90

// PeekToken returns the visitor token without issuing one.
func PeekToken(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

// EnsureToken returns the visitor token, issuing a new cookie on first use.
func EnsureToken(w http.ResponseWriter, r *http.Request) string {
	if token := PeekToken(r); token != "" {
		return token
	}
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}
