package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/oops"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

const userColumns = `id, name, email, password_hash, role, verified,
	verification_digest, password_reset_digest, password_reset_expires_at,
	created_at, updated_at`

type usersRepo struct {
	q querier
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u            domain.User
		role         string
		verification pgtype.Text
		reset        pgtype.Text
		resetExpires pgtype.Timestamptz
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Verified,
		&verification, &reset, &resetExpires,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.Role, err = domain.ParseRole(role)
	if err != nil {
		return domain.User{}, oops.With("user_id", u.ID).Wrap(err)
	}
	u.VerificationDigest = verification.String
	u.PasswordResetDigest = reset.String
	u.PasswordResetExpiresAt = timePtr(resetExpires)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) getOne(ctx context.Context, op, where string, arg any) (domain.User, error) {
	row := r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		if err = mapNotFound(err); errors.Is(err, store.ErrNotFound) {
			return domain.User{}, err
		}
		return domain.User{}, oops.With("operation", op).Wrap(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role.String(), u.Verified,
		textOrNull(u.VerificationDigest),
		textOrNull(u.PasswordResetDigest),
		timestampOrNull(u.PasswordResetExpiresAt),
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return oops.With("email", u.Email).Wrap(store.ErrAlreadyExists)
	}
	if err != nil {
		return oops.With("operation", "create user").With("user_id", u.ID).Wrap(err)
	}
	return nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, "get user by id", `id = $1`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, "get user by email", `email = $1`, email)
}

func (r *usersRepo) GetUserByVerificationDigest(ctx context.Context, digest string) (domain.User, error) {
	if digest == "" {
		return domain.User{}, store.ErrNotFound
	}
	return r.getOne(ctx, "get user by verification digest", `verification_digest = $1`, digest)
}

func (r *usersRepo) GetUserByResetDigest(ctx context.Context, digest string) (domain.User, error) {
	if digest == "" {
		return domain.User{}, store.ErrNotFound
	}
	return r.getOne(ctx, "get user by reset digest", `password_reset_digest = $1`, digest)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE users SET
			name = $2,
			email = $3,
			password_hash = $4,
			role = $5,
			verified = $6,
			verification_digest = $7,
			password_reset_digest = $8,
			password_reset_expires_at = $9,
			updated_at = $10
		 WHERE id = $1`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role.String(), u.Verified,
		textOrNull(u.VerificationDigest),
		textOrNull(u.PasswordResetDigest),
		timestampOrNull(u.PasswordResetExpiresAt),
		u.UpdatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return oops.With("email", u.Email).Wrap(store.ErrAlreadyExists)
	}
	if err != nil {
		return oops.With("operation", "update user").With("user_id", u.ID).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return oops.With("operation", "delete user").With("user_id", id).Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, oops.With("operation", "list users").Wrap(err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, oops.With("operation", "scan user row").Wrap(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate users").Wrap(err)
	}
	return users, nil
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE users
		 SET password_reset_digest = NULL, password_reset_expires_at = NULL
		 WHERE password_reset_expires_at IS NOT NULL AND password_reset_expires_at < $1`,
		now.UTC(),
	)
	if err != nil {
		return 0, oops.With("operation", "clear expired reset tokens").Wrap(err)
	}
	return tag.RowsAffected(), nil
}
