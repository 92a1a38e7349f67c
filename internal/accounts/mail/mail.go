// Package mail delivers account emails: the verification code sent at
// registration and the password reset token.
package mail

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
)

const (
	SubjectVerification  = "Your account verification code"
	SubjectPasswordReset = "Your password reset token (valid for only 10 minutes)"
)

// Dispatcher sends account emails. Callers treat a failed send as
// non-fatal.
type Dispatcher interface {
	SendVerificationCode(ctx context.Context, u domain.User, rawCode string) error
	SendPasswordResetToken(ctx context.Context, u domain.User, rawToken string) error
}

// Links builds the front-end URLs a recipient follows.
type Links struct {
	Origin string
}

func (l Links) VerifyEmail(code string) string {
	return strings.TrimRight(l.Origin, "/") + "/verifyemail/" + code
}

func (l Links) ResetPassword(token string) string {
	return strings.TrimRight(l.Origin, "/") + "/resetpassword/" + token
}
