package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aussiebroadwan/accounts/internal/accounts/observability"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/session"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyRing
	store        store.Store
	cache        session.Cache
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	AuthService *service.AuthService
	UserService *service.UserService

	// Metrics and Registry are optional. /metrics is only mounted with a
	// registry.
	Metrics  *observability.Metrics
	Registry *prometheus.Registry

	// Cookies carries the deployment cookie attributes.
	Cookies httpx.CookieOptions
}

func NewRouter(
	keys *jwtx.KeyRing,
	st store.Store,
	cache session.Cache,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		store:        st,
		cache:        cache,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}
}

func (r *Router) ApplyRoutes() {
	// Request logging runs outermost; the metrics middleware has to sit
	// directly on the mux to see the matched pattern.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, "/api/auth/verifyemail/", "/api/auth/resetpassword/"),
		r.Metrics.HTTPMiddleware,
	}

	r.registerAuth()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) sessionCookies() sessionCookies {
	return sessionCookies{opts: r.Cookies}
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService: r.AuthService,
		Cookies:     r.sessionCookies(),
	}

	r.Mux.Handle("POST /api/auth/register", http.HandlerFunc(h.HandleRegister))
	r.Mux.Handle("POST /api/auth/login", http.HandlerFunc(h.HandleLogin))
	r.Mux.Handle("GET /api/auth/refresh", http.HandlerFunc(h.HandleRefresh))
	r.Mux.Handle("GET /api/auth/verifyemail/{verificationCode}", http.HandlerFunc(h.HandleVerifyEmail))
	r.Mux.Handle("POST /api/auth/forgotpassword", http.HandlerFunc(h.HandleForgotPassword))
	r.Mux.Handle("PATCH /api/auth/resetpassword/{resetToken}", http.HandlerFunc(h.HandleResetPassword))

	r.Mux.Handle("GET /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			Deserialize(r.AuthService),
			RequireUser(),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	r.Mux.Handle("GET /api/users/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			Deserialize(r.AuthService),
			RequireUser(),
		),
	)

	// Admin endpoints
	r.Mux.Handle("GET /api/users",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			Deserialize(r.AuthService),
			RequireUser(),
			RequireAdmin(),
		),
	)
	r.Mux.Handle("DELETE /api/users/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			Deserialize(r.AuthService),
			RequireUser(),
			RequireAdmin(),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.cache, r.keys))
	r.Mux.Handle("GET /.well-known/jwks.json", JWKSHandler(r.keys))

	if r.Registry != nil {
		r.Mux.Handle("GET /metrics", observability.Handler(r.Registry))
	}
}
