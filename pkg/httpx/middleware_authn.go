package httpx

import (
	"net/http"
	"strings"
)

// BearerToken pulls the token out of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}

// TokenFromRequest prefers the named cookie and falls back to the bearer
// header, so browsers and API clients share the same routes.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if tokens := TokensFromRequest(r, cookieName); len(tokens) > 0 {
		return tokens[0]
	}
	return ""
}

// TokensFromRequest lists every token the request carries, cookie first.
// A stale cookie must not shadow a good bearer header, so callers try each
// candidate until one verifies.
func TokensFromRequest(r *http.Request, cookieName string) []string {
	var tokens []string
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		tokens = append(tokens, c.Value)
	}
	if b := BearerToken(r); b != "" && (len(tokens) == 0 || tokens[0] != b) {
		tokens = append(tokens, b)
	}
	return tokens
}

// RequireAuthenticated rejects requests that reached it without a subject in
// the context. deny writes the response body.
func RequireAuthenticated(deny http.Handler) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := UserIDFromContext(r.Context()); !ok {
				WriteBearerChallenge(w, "authentication required")
				deny.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteBearerChallenge sets the RFC 6750 WWW-Authenticate header. The caller
// still owns the status code and body.
func WriteBearerChallenge(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
}
