//go:build integration

package accounts_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/accounts/internal/accounts/app"
	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	accountsvc "github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/authsdk"
)

/*
 * End-to-end helpers: the service runs in process against real postgres
 * and redis containers. Mail goes to the log, which the tests read back.
 */

const testPassword = "correct-horse"

// logbook collects JSON log lines so tests can read mailed links.
type logbook struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *logbook) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

// secret returns the last path segment of the newest link logged under msg
// for the given recipient.
func (l *logbook) secret(t *testing.T, msg, to string) string {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()

	var found string
	sc := bufio.NewScanner(bytes.NewReader(l.buf.Bytes()))
	for sc.Scan() {
		var line struct {
			Msg string `json:"msg"`
			To  string `json:"to"`
			URL string `json:"url"`
		}
		if json.Unmarshal(sc.Bytes(), &line) != nil {
			continue
		}
		if line.Msg == msg && line.To == to {
			found = path.Base(line.URL)
		}
	}
	require.NotEmpty(t, found, "no %q logged for %s", msg, to)
	return found
}

type service struct {
	client *authsdk.SDKClient
	cfg    app.Config
	log    *logbook
}

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:18-alpine",
		tcpostgres.WithDatabase("accounts_e2e"),
		tcpostgres.WithUsername("accounts"),
		tcpostgres.WithPassword("accounts"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

// setupService starts both backends and the service, and returns a client
// pointed at it.
func setupService(t *testing.T) *service {
	t.Helper()

	// dev with no keys configured runs on ephemeral signing keys.
	cfg := app.Config{
		Env:                  "dev",
		Issuer:               "accounts-e2e",
		Origin:               "http://localhost:3000",
		DatabaseDriver:       "postgres",
		DatabaseURL:          startPostgres(t),
		CacheURL:             startRedis(t),
		CacheConnectRetries:  5,
		CacheConnectBackoff:  250 * time.Millisecond,
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      60 * time.Minute,
		SessionTTL:           60 * time.Minute,
		ShutdownGracePeriod:  5 * time.Second,
		HousekeepingInterval: time.Hour,
	}

	book := &logbook{}
	logger := slog.New(slog.NewJSONHandler(book, nil))

	application, err := app.New(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)

	return &service{
		client: authsdk.NewSDKClient(srv.URL),
		cfg:    cfg,
		log:    book,
	}
}

// registerVerified registers an account and redeems its mailed code.
func (s *service) registerVerified(t *testing.T, name, email string) *authsdk.User {
	t.Helper()
	u, err := s.client.Register(t.Context(), authsdk.RegisterRequest{
		Name:            name,
		Email:           email,
		Password:        testPassword,
		PasswordConfirm: testPassword,
	})
	require.NoError(t, err)
	require.NoError(t, s.client.VerifyEmail(t.Context(), s.log.secret(t, "verification email", email)))
	return u
}

// promote grants the admin role the way the promote command does.
func (s *service) promote(t *testing.T, email string) {
	t.Helper()
	db, err := app.OpenStore(t.Context(), s.cfg)
	require.NoError(t, err)
	defer db.Close()

	users := &accountsvc.UserService{Store: db}
	_, err = users.SetRole(t.Context(), email, domain.RoleAdmin)
	require.NoError(t, err)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *authsdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
