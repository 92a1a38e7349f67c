package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
)

const userColumns = `id, name, email, password_hash, role, verified,
	verification_digest, password_reset_digest, password_reset_expires_at,
	created_at, updated_at`

type usersRepo struct {
	db dbtx
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u            domain.User
		role         string
		verification sql.NullString
		reset        sql.NullString
		resetExpires sql.NullTime
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
		return domain.User{}, err
	}
	u.VerificationDigest = mapNullString(verification)
	u.PasswordResetDigest = mapNullString(reset)
	u.PasswordResetExpiresAt = mapNullTimePtr(resetExpires)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) getOne(ctx context.Context, where string, arg any) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role.String(), u.Verified,
		mapStringNull(u.VerificationDigest),
		mapStringNull(u.PasswordResetDigest),
		mapOptionalTime(u.PasswordResetExpiresAt),
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	return mapUniqueViolation(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `id = ?`, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `email = ?`, email)
}

func (r *usersRepo) GetUserByVerificationDigest(ctx context.Context, digest string) (domain.User, error) {
	if digest == "" {
		return domain.User{}, store.ErrNotFound
	}
	return r.getOne(ctx, `verification_digest = ?`, digest)
}

func (r *usersRepo) GetUserByResetDigest(ctx context.Context, digest string) (domain.User, error) {
	if digest == "" {
		return domain.User{}, store.ErrNotFound
	}
	return r.getOne(ctx, `password_reset_digest = ?`, digest)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			name = ?,
			email = ?,
			password_hash = ?,
			role = ?,
			verified = ?,
			verification_digest = ?,
			password_reset_digest = ?,
			password_reset_expires_at = ?,
			updated_at = ?
		WHERE id = ?`,
		u.Name, u.Email, u.PasswordHash, u.Role.String(), u.Verified,
		mapStringNull(u.VerificationDigest),
		mapStringNull(u.PasswordResetDigest),
		mapOptionalTime(u.PasswordResetExpiresAt),
		u.UpdatedAt.UTC(),
		u.ID,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return requireRow(res)
}

func (r *usersRepo) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	users := make([]domain.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_reset_digest = NULL, password_reset_expires_at = NULL
		WHERE password_reset_expires_at IS NOT NULL AND password_reset_expires_at < ?`,
		now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
