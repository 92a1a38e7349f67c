package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/internal/accounts/session"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqlite"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

const testIssuer = "accounts"

var (
	keyRingOnce sync.Once
	keyRing     *jwtx.KeyRing
	keyRingErr  error
)

// testKeyRing generates RSA keys once per package run.
func testKeyRing(t *testing.T) *jwtx.KeyRing {
	t.Helper()
	keyRingOnce.Do(func() {
		pair := func(role jwtx.Role) *jwtx.KeyPair {
			priv, pub, err := cryptox.GenerateRSAKeyPair(2048)
			if err != nil {
				keyRingErr = err
				return nil
			}
			kp, err := jwtx.NewKeyPair(role, testIssuer, priv, pub)
			if err != nil {
				keyRingErr = err
			}
			return kp
		}
		access, refresh := pair(jwtx.RoleAccess), pair(jwtx.RoleRefresh)
		if keyRingErr != nil {
			return
		}
		keyRing, keyRingErr = jwtx.NewKeyRing(access, refresh)
	})
	require.NoError(t, keyRingErr)
	return keyRing
}

type sentMail struct {
	kind  string
	email string
	raw   string
}

// recordingMailer keeps every message instead of sending it.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *recordingMailer) SendVerificationCode(_ context.Context, u domain.User, rawCode string) error {
	return m.record("verification", u, rawCode)
}

func (m *recordingMailer) SendPasswordResetToken(_ context.Context, u domain.User, rawToken string) error {
	return m.record("reset", u, rawToken)
}

func (m *recordingMailer) record(kind string, u domain.User, raw string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: kind, email: u.Email, raw: raw})
	return m.err
}

// last returns the newest raw value mailed to email of kind.
func (m *recordingMailer) last(kind, email string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind && m.sent[i].email == email {
			return m.sent[i].raw, true
		}
	}
	return "", false
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type harness struct {
	store  *sqlite.Store
	cache  *session.MemoryCache
	mailer *recordingMailer
	keys   *jwtx.KeyRing
	auth   *service.AuthService
	users  *service.UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	h := &harness{
		store:  st,
		cache:  session.NewMemoryCache(),
		mailer: &recordingMailer{},
		keys:   testKeyRing(t),
	}
	h.auth = &service.AuthService{
		Store:  h.store,
		Cache:  h.cache,
		Keys:   h.keys,
		Mailer: h.mailer,
	}
	h.users = &service.UserService{Store: h.store, Cache: h.cache}
	return h
}

const testPassword = "correct-horse"

// register creates a user through the service and returns the mailed code.
func (h *harness) register(t *testing.T, name, email string) (domain.User, string) {
	t.Helper()
	u, err := h.auth.Register(context.Background(), service.RegisterInput{
		Name:            name,
		Email:           email,
		Password:        testPassword,
		PasswordConfirm: testPassword,
	})
	require.NoError(t, err)

	code, ok := h.mailer.last("verification", u.Email)
	require.True(t, ok, "verification mail not sent")
	return u, code
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr), "expected a ValidationError, got %v", err)

	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}
