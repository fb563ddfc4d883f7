package httpx

import (
	"net/http"
	"time"
)

// Cookie names for the two credential classes.
const (
	AccessCookieName  = "gh_access"
	RefreshCookieName = "gh_refresh"
)

// SetCredentialCookie writes a credential as a Secure, HttpOnly,
// SameSite=Strict cookie. Expiry should match the credential's own lifetime
// so the browser drops it when it stops being usable anyway.
func SetCredentialCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearCredentialCookie expires a credential cookie immediately.
func ClearCredentialCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// CredentialFromCookie returns the named cookie's value, or "" when absent.
// Callers fall back to this when the request body omits the credential.
func CredentialFromCookie(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
