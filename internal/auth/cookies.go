package auth

import (
	"net/http"
	"strings"
	"time"
)

const (
	AccessCookie  = "access_token"
	RefreshCookie = "refresh_token"

	AccessCookiePath  = "/"
	RefreshCookiePath = "/api/auth/"
)

type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// ParseSameSite maps the configured name onto http.SameSite, defaulting to Lax.
func ParseSameSite(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SetTokenCookies writes both tokens as httpOnly cookies.
func (c CookieConfig) SetTokenCookies(w http.ResponseWriter, pair Pair) {
	http.SetCookie(w, c.cookie(AccessCookie, pair.Access.Signed, AccessCookiePath, pair.Access.ExpiresAt))
	http.SetCookie(w, c.cookie(RefreshCookie, pair.Refresh.Signed, RefreshCookiePath, pair.Refresh.ExpiresAt))
}

// ClearTokenCookies expires both cookies on the paths they were set with.
func (c CookieConfig) ClearTokenCookies(w http.ResponseWriter) {
	for _, ck := range []*http.Cookie{
		c.cookie(AccessCookie, "", AccessCookiePath, time.Unix(0, 0)),
		c.cookie(RefreshCookie, "", RefreshCookiePath, time.Unix(0, 0)),
	} {
		ck.MaxAge = -1
		http.SetCookie(w, ck)
	}
}

func (c CookieConfig) cookie(name, value, path string, expires time.Time) *http.Cookie {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   c.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   c.Secure,
		HttpOnly: true,
		SameSite: c.SameSite,
	}
}
