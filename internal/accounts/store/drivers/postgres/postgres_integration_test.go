//go:build integration

package postgres_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/postgres"
)

func setupPostgresContainer() (*postgres.Store, func(), error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:18-alpine",
		tcpostgres.WithDatabase("accounts_test"),
		tcpostgres.WithUsername("accounts"),
		tcpostgres.WithPassword("accounts"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	st, err := postgres.NewStore(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	if err := st.ApplyMigrations(); err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		_ = st.Close()
		_ = container.Terminate(ctx)
	}
	return st, cleanup, nil
}

func newUser(email string, now time.Time) domain.User {
	return domain.User{
		Record:       domain.NewRecord(now),
		Name:         "Alice Example",
		Email:        email,
		PasswordHash: "$2a$12$not-a-real-hash",
		Role:         domain.RoleUser,
	}
}

var _ = Describe("Store", Ordered, func() {
	var (
		st      *postgres.Store
		cleanup func()
		ctx     = context.Background()
	)

	BeforeAll(func() {
		var err error
		st, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if cleanup != nil {
			cleanup()
		}
	})

	It("re-applies migrations without error", func() {
		Expect(st.ApplyMigrations()).To(Succeed())
	})

	It("round trips a user", func() {
		now := time.Now().UTC().Truncate(time.Microsecond)
		u := newUser("roundtrip@example.com", now)
		u.VerificationDigest = "digest"
		Expect(st.Users().CreateUser(ctx, u)).To(Succeed())

		got, err := st.Users().GetUserByEmail(ctx, "roundtrip@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.ID).To(Equal(u.ID))
		Expect(got.VerificationDigest).To(Equal("digest"))
		Expect(got.CreatedAt.Equal(now)).To(BeTrue())
	})

	It("rejects duplicate emails", func() {
		now := time.Now()
		Expect(st.Users().CreateUser(ctx, newUser("dup@example.com", now))).To(Succeed())

		err := st.Users().CreateUser(ctx, newUser("dup@example.com", now))
		Expect(err).To(MatchError(store.ErrAlreadyExists))
	})

	It("clears only expired reset tokens", func() {
		now := time.Now().UTC()
		past, future := now.Add(-time.Minute), now.Add(time.Minute)

		expired := newUser("expired@example.com", now)
		expired.PasswordResetDigest = "old-reset"
		expired.PasswordResetExpiresAt = &past

		live := newUser("live@example.com", now)
		live.PasswordResetDigest = "new-reset"
		live.PasswordResetExpiresAt = &future

		Expect(st.Users().CreateUser(ctx, expired)).To(Succeed())
		Expect(st.Users().CreateUser(ctx, live)).To(Succeed())

		n, err := st.Users().ClearExpiredResetTokens(ctx, now)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(1)))

		_, err = st.Users().GetUserByResetDigest(ctx, "old-reset")
		Expect(err).To(MatchError(store.ErrNotFound))
		_, err = st.Users().GetUserByResetDigest(ctx, "new-reset")
		Expect(err).NotTo(HaveOccurred())
	})

	It("rolls back a failed transaction", func() {
		u := newUser("tx@example.com", time.Now())
		err := st.WithTx(ctx, func(tx store.Tx) error {
			Expect(tx.Users().CreateUser(ctx, u)).To(Succeed())
			return store.ErrNotFound
		})
		Expect(err).To(MatchError(store.ErrNotFound))

		_, err = st.Users().GetUserByID(ctx, u.ID)
		Expect(err).To(MatchError(store.ErrNotFound))
	})

	It("deletes users", func() {
		u := newUser("delete@example.com", time.Now())
		Expect(st.Users().CreateUser(ctx, u)).To(Succeed())
		Expect(st.Users().DeleteUser(ctx, u.ID)).To(Succeed())
		Expect(st.Users().DeleteUser(ctx, u.ID)).To(MatchError(store.ErrNotFound))
	})
})
