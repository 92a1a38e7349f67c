package domain

import (
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
)

// PasswordResetTTL is how long a mailed reset token stays redeemable.
const PasswordResetTTL = 10 * time.Minute

type User struct {
	Record

	Name         string
	Email        string
	PasswordHash string // bcrypt, never the plaintext
	Role         Role
	Verified     bool

	// VerificationDigest is the SHA-256 of the mailed code. Empty once used.
	VerificationDigest string

	// PasswordResetDigest and PasswordResetExpiresAt are set by a forgot
	// password request and cleared once redeemed or expired.
	PasswordResetDigest    string
	PasswordResetExpiresAt *time.Time
}

// NewUser builds an unverified user with its password already hashed, so a
// plaintext password can never reach the store.
func NewUser(name, email, password string, now time.Time) (User, error) {
	u := User{
		Record: NewRecord(now),
		Name:   strings.TrimSpace(name),
		Email:  NormalizeEmail(email),
		Role:   RoleUser,
	}
	if err := u.SetPassword(password, now); err != nil {
		return User{}, err
	}
	return u, nil
}

// SetPassword hashes and replaces the password.
func (u *User) SetPassword(password string, now time.Time) error {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.Touch(now)
	return nil
}

// CheckPassword compares a candidate against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return cryptox.ComparePassword(password, u.PasswordHash)
}

// IssueVerificationCode stores the digest of a new code and returns the raw
// code for mailing.
func (u *User) IssueVerificationCode() (string, error) {
	raw, digest, err := cryptox.GenerateVerificationCode()
	if err != nil {
		return "", err
	}
	u.VerificationDigest = digest
	return raw, nil
}

// VerificationCodeMatches compares raw against the stored code digest in
// constant time.
func (u *User) VerificationCodeMatches(raw string) bool {
	return cryptox.CodeMatches(raw, u.VerificationDigest)
}

// MarkVerified flips the verified flag and burns the code.
func (u *User) MarkVerified(now time.Time) {
	u.Verified = true
	u.VerificationDigest = ""
	u.Touch(now)
}

// IssuePasswordReset stores the digest of a new reset token valid for
// PasswordResetTTL and returns the raw token.
func (u *User) IssuePasswordReset(now time.Time) (string, error) {
	raw, digest, err := cryptox.GenerateVerificationCode()
	if err != nil {
		return "", err
	}
	expires := now.UTC().Add(PasswordResetTTL)
	u.PasswordResetDigest = digest
	u.PasswordResetExpiresAt = &expires
	u.Touch(now)
	return raw, nil
}

func (u *User) PasswordResetMatches(raw string) bool {
	return cryptox.CodeMatches(raw, u.PasswordResetDigest)
}

// ClearPasswordReset drops any outstanding reset token.
func (u *User) ClearPasswordReset() {
	u.PasswordResetDigest = ""
	u.PasswordResetExpiresAt = nil
}

// PasswordResetValid reports whether a reset token is outstanding at now.
func (u *User) PasswordResetValid(now time.Time) bool {
	return u.PasswordResetDigest != "" &&
		u.PasswordResetExpiresAt != nil &&
		now.Before(*u.PasswordResetExpiresAt)
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// FirstName is used to greet the user in emails.
func (u *User) FirstName() string {
	if f := strings.Fields(u.Name); len(f) > 0 {
		return f[0]
	}
	return u.Name
}

// NormalizeEmail trims and lower-cases an address before lookups and writes.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicUser is the projection of a user that may leave the service.
type PublicUser struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Public strips the password hash and every outstanding digest.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
