package httpx

import "net/http"

// RequireFunc lets the request through only when allow reports true for it.
// deny writes the response otherwise.
func RequireFunc(deny http.Handler, allow func(*http.Request) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allow(r) {
				deny.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
