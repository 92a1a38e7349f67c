package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// VerificationCodeSize is the number of random bytes in a verification or
// reset code before hex encoding.
const VerificationCodeSize = 32

// GenerateVerificationCode returns a fresh raw code (hex of 32 random bytes)
// and the digest that gets persisted in its place. The raw code only ever
// leaves the process inside an email.
func GenerateVerificationCode() (raw, digest string, err error) {
	buf := make([]byte, VerificationCodeSize)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, DigestCode(raw), nil
}

// DigestCode is the hex encoded SHA-256 of a raw code.
func DigestCode(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CodeMatches compares a candidate raw code against a stored digest in
// constant time.
func CodeMatches(raw, digest string) bool {
	if digest == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(DigestCode(raw)), []byte(digest)) == 1
}
