package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/accounts/internal/accounts/mail"
	"github.com/aussiebroadwan/accounts/internal/accounts/session"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := configFrom(t, map[string]string{"DATABASE_URL": ":memory:"})
	require.NoError(t, err)
	return cfg
}

func TestNewServesHealthAndRegistration(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	for _, path := range []string{"/livez", "/readyz", "/.well-known/jwks.json", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	body := `{"name":"Alice","email":"alice@example.com","password":"correct-horse","password_confirm":"correct-horse"}`
	resp, err := http.Post(srv.URL+"/api/auth/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestNewPicksBackendsFromConfig(t *testing.T) {
	app, err := New(context.Background(), testConfig(t), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	require.IsType(t, &session.MemoryCache{}, app.cache)
	require.IsType(t, &mail.LogDispatcher{}, app.authService.Mailer)
	require.Equal(t, app.cfg.SessionTTL, app.authService.CacheTTL)
}

func TestNewFailsWithoutReachableCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheURL = "redis://127.0.0.1:1/0"
	cfg.CacheConnectRetries = 0

	_, err := New(context.Background(), cfg, discardLogger())
	require.Error(t, err)
	require.Contains(t, err.Error(), "session cache")
}

func TestNewFailsWithoutKeysOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "prod"

	_, err := New(context.Background(), cfg, discardLogger())
	require.ErrorIs(t, err, errNoKeys)
}

func TestNewMailerUsesSMTPWhenConfigured(t *testing.T) {
	cfg := testConfig(t)
	cfg.SMTP.Host = "smtp.example.com"

	m, err := newMailer(cfg, discardLogger())
	require.NoError(t, err)
	require.IsType(t, &mail.SMTPDispatcher{}, m)
}
