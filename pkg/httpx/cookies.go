package httpx

import (
	"net/http"
	"strings"
	"time"
)

// CookieOptions are the deployment specific cookie attributes.
type CookieOptions struct {
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite maps "lax", "strict" or "none" onto http.SameSite.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SetCookie writes a cookie that lives for ttl.
func SetCookie(w http.ResponseWriter, name, value string, ttl time.Duration, httpOnly bool, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     cookiePath(opts),
		Domain:   opts.Domain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		Secure:   opts.Secure,
		HttpOnly: httpOnly,
		SameSite: opts.SameSite,
	})
}

// ClearCookie expires a cookie on the client.
func ClearCookie(w http.ResponseWriter, name string, httpOnly bool, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     cookiePath(opts),
		Domain:   opts.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   opts.Secure,
		HttpOnly: httpOnly,
		SameSite: opts.SameSite,
	})
}

func cookiePath(opts CookieOptions) string {
	if opts.Path == "" {
		return "/"
	}
	return opts.Path
}
