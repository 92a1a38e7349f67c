package mail

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// LogDispatcher writes the link to the request logger instead of sending
// anything. Meant for local development only: links are credentials.
type LogDispatcher struct {
	links Links
}

func NewLogDispatcher(origin string) *LogDispatcher {
	return &LogDispatcher{links: Links{Origin: origin}}
}

func (d *LogDispatcher) SendVerificationCode(ctx context.Context, u domain.User, rawCode string) error {
	slogx.FromContext(ctx).Info("verification email",
		slog.String("to", u.Email),
		slog.String("subject", SubjectVerification),
		slog.String("url", d.links.VerifyEmail(rawCode)),
	)
	return nil
}

func (d *LogDispatcher) SendPasswordResetToken(ctx context.Context, u domain.User, rawToken string) error {
	slogx.FromContext(ctx).Info("password reset email",
		slog.String("to", u.Email),
		slog.String("subject", SubjectPasswordReset),
		slog.String("url", d.links.ResetPassword(rawToken)),
	)
	return nil
}
