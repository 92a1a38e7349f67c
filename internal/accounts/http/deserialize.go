package http

import (
	"context"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/authsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

type userCtxKey struct{}

func withUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// userFromContext returns the user Deserialize attached to the request.
func userFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(domain.User)
	return u, ok
}

// Deserialize resolves the access token from the access_token cookie or the
// bearer header, falling back to the header when the cookie does not verify. Requests without a usable token continue anonymously; a
// valid token whose session has ended or whose user no longer exists is
// answered with 401.
func Deserialize(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				u   domain.User
				ok  bool
				err error
			)
			// The first token that verifies decides; unverifiable ones are skipped.
			for _, token := range httpx.TokensFromRequest(r, accessCookie) {
				u, ok, err = auth.Authenticate(r.Context(), token)
				if ok || err != nil {
					break
				}
			}
			if err != nil {
				writeError(w, r, err)
				return
			}
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := httpx.ContextWithAuth(r.Context(), u.ID)
			ctx = slogx.WithUserID(ctx, u.ID)
			ctx = withUser(ctx, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser() httpx.Middleware {
	return httpx.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authsdk.NewAPIError(http.StatusUnauthorized, authsdk.MsgSessionExpired).WriteError(w)
	}))
}

// RequireAdmin rejects callers who are not admins. It must run after
// Deserialize.
func RequireAdmin() httpx.Middleware {
	deny := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authsdk.NewAPIError(http.StatusForbidden, authsdk.MsgForbidden).WriteError(w)
	})
	return httpx.RequireFunc(deny, func(r *http.Request) bool {
		u, ok := userFromContext(r.Context())
		return ok && u.IsAdmin()
	})
}
