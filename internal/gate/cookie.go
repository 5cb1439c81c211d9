package gate

import (
	"net/http"
	"strings"

	"github.com/charlesng35/agegate/internal/models"
)

const (
	// CookieName transports the consent flag to returning visitors.
	CookieName = models.ConsentKey
	// CookiePath scopes the cookie to the whole site.
	CookiePath = "/"
	// CookieMaxAge is 30 days, in seconds.
	CookieMaxAge = 30 * 24 * 60 * 60
)

// HasConsentCookie reports whether the request carries the consent sentinel.
func HasConsentCookie(r *http.Request) bool {
	if r == nil {
		return false
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return false
	}
	return cookie.Value == models.ConsentGranted
}

// SetConsentCookie writes the consent sentinel cookie on the response.
func SetConsentCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    models.ConsentGranted,
		Path:     CookiePath,
		MaxAge:   CookieMaxAge,
		Secure:   isSecureRequest(r),
		HttpOnly: false, // page scripts check the flag too, as the original gate did
		SameSite: http.SameSiteLaxMode,
	})
}

func isSecureRequest(r *http.Request) bool {
	if r == nil {
		return false
	}
	if r.TLS != nil {
		return true
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	return strings.EqualFold(scheme, "https")
}
