package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("cookie wins", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "access_token", Value: "from-cookie"})
		r.Header.Set("Authorization", "Bearer from-header")
		require.Equal(t, "from-cookie", httpx.TokenFromRequest(r, "access_token"))
	})

	t.Run("bearer fallback", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer from-header")
		require.Equal(t, "from-header", httpx.TokenFromRequest(r, "access_token"))
	})

	t.Run("neither", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Basic abc")
		require.Empty(t, httpx.TokenFromRequest(r, "access_token"))
	})
}

func TestTokensFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, httpx.TokensFromRequest(r, "access_token"))

	r.AddCookie(&http.Cookie{Name: "access_token", Value: "stale"})
	r.Header.Set("Authorization", "Bearer fresh")
	require.Equal(t, []string{"stale", "fresh"}, httpx.TokensFromRequest(r, "access_token"))

	same := httptest.NewRequest(http.MethodGet, "/", nil)
	same.AddCookie(&http.Cookie{Name: "access_token", Value: "tok"})
	same.Header.Set("Authorization", "Bearer tok")
	require.Equal(t, []string{"tok"}, httpx.TokensFromRequest(same, "access_token"))
}

func TestRequireAuthenticatedAndFunc(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	deny401 := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) })
	deny403 := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusForbidden) })

	h := httpx.Chain(ok, httpx.RequireAuthenticated(deny401), httpx.RequireFunc(deny403, func(r *http.Request) bool {
		return r.Header.Get("X-Admin") == "yes"
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(httpx.ContextWithAuth(r.Context(), "u1"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Equal(t, http.StatusForbidden, rec.Code)

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(httpx.ContextWithAuth(r.Context(), "u1"))
	r.Header.Set("X-Admin", "yes")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Email string `json:"email"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c"}`))
	require.NoError(t, httpx.DecodeJSON(httptest.NewRecorder(), r, &dst))
	require.Equal(t, "a@b.c", dst.Email)

	for _, body := range []string{"", "{", `{"email":"x"} {}`} {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		require.ErrorIs(t, httpx.DecodeJSON(httptest.NewRecorder(), r, &dst), httpx.ErrBadJSON, body)
	}
}

func TestCookies(t *testing.T) {
	opts := httpx.CookieOptions{SameSite: httpx.ParseSameSite("strict")}

	rec := httptest.NewRecorder()
	httpx.SetCookie(rec, "access_token", "tok", 15*time.Minute, true, opts)
	httpx.ClearCookie(rec, "refresh_token", true, opts)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	require.Equal(t, "tok", cookies[0].Value)
	require.True(t, cookies[0].HttpOnly)
	require.Equal(t, 900, cookies[0].MaxAge)
	require.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	require.Equal(t, "/", cookies[0].Path)
	require.Less(t, cookies[1].MaxAge, 0)
}

func TestWriteJSONSetsNoCache(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteJSON(rec, http.StatusCreated, map[string]string{"status": "success"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	require.JSONEq(t, `{"status":"success"}`, rec.Body.String())
}
