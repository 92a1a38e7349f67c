package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

const (
	accessCookie   = "access_token"
	refreshCookie  = "refresh_token"
	loggedInCookie = "logged_in"
)

// sessionCookies writes the browser side of a session. The token cookies
// are httpOnly; logged_in is readable by scripts so a frontend can tell a
// session exists.
type sessionCookies struct {
	opts httpx.CookieOptions
}

func (c sessionCookies) setLogin(w http.ResponseWriter, pair domain.TokenPair) {
	c.setAccess(w, pair)
	httpx.SetCookie(w, refreshCookie, pair.RefreshToken, time.Until(pair.RefreshExpiresAt), true, c.opts)
}

func (c sessionCookies) setAccess(w http.ResponseWriter, pair domain.TokenPair) {
	ttl := time.Until(pair.AccessExpiresAt)
	httpx.SetCookie(w, accessCookie, pair.AccessToken, ttl, true, c.opts)
	httpx.SetCookie(w, loggedInCookie, "true", ttl, false, c.opts)
}

func (c sessionCookies) clear(w http.ResponseWriter) {
	httpx.ClearCookie(w, accessCookie, true, c.opts)
	httpx.ClearCookie(w, refreshCookie, true, c.opts)
	httpx.ClearCookie(w, loggedInCookie, false, c.opts)
}
