package cryptox

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for every stored password.
const PasswordCost = 12

// ErrPasswordTooLong is returned for passwords bcrypt would silently
// truncate (anything over 72 bytes).
var ErrPasswordTooLong = errors.New("cryptox: password exceeds 72 bytes")

// HashPassword returns a salted bcrypt digest of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("cryptox: hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword reports whether password matches the bcrypt digest.
func ComparePassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// BurnPasswordCompare runs one comparison against a throwaway digest so a
// lookup miss costs about as much as a wrong password.
func BurnPasswordCompare(password string) {
	dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), PasswordCost)
		if err == nil {
			dummyHash = string(h)
		}
	})
	_ = ComparePassword(password, dummyHash)
}
