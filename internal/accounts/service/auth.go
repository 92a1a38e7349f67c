package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/mail"
	"github.com/aussiebroadwan/accounts/internal/accounts/observability"
	"github.com/aussiebroadwan/accounts/internal/accounts/session"
	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

var ErrRefreshFailed = fmt.Errorf("%w: could not refresh access token", ErrUnauthorized)

// AuthService runs the credential flows: registration, login, token
// refresh, logout, email verification and password reset.
type AuthService struct {
	Store   store.Store
	Cache   session.Cache
	Keys    *jwtx.KeyRing
	Mailer  mail.Dispatcher
	Metrics *observability.Metrics

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CacheTTL   time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// LoginResult carries the authenticated user and the freshly minted pair.
type LoginResult struct {
	User   domain.User
	Tokens domain.TokenPair
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return jwtx.DefaultAccessTokenTTL
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return jwtx.DefaultRefreshTokenTTL
}

func (s *AuthService) cacheTTL() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return session.DefaultTTL
}

// Register creates an unverified user and mails its verification code. A
// failed send is logged; the account still exists.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (u domain.User, err error) {
	defer func() { s.record(observability.EventRegister, err) }()

	if err := in.Validate(); err != nil {
		return domain.User{}, err
	}

	u, err = domain.NewUser(in.Name, in.Email, in.Password, s.now())
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}
	rawCode, err := u.IssueVerificationCode()
	if err != nil {
		return domain.User{}, fmt.Errorf("register: %w", err)
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("register: %w", err)
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", u.ID))

	if s.Mailer != nil {
		s.dispatch(ctx, "verification", u, func(ctx context.Context) error {
			return s.Mailer.SendVerificationCode(ctx, u, rawCode)
		})
	}
	return u, nil
}

// Login checks credentials and opens the user's session. Unknown email and
// wrong password fail with the same ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (res LoginResult, err error) {
	defer func() { s.record(observability.EventLogin, err) }()

	email = domain.NormalizeEmail(email)
	var v ValidationError
	validateEmail(&v, email)
	if err := v.err(); err != nil {
		return LoginResult{}, err
	}
	if len(password) < MinPasswordLength {
		return LoginResult{}, ErrInvalidCredentials
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		cryptox.BurnPasswordCompare(password)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	if !u.CheckPassword(password) {
		slogx.FromContext(ctx).Info("login rejected", slog.String("user_id", u.ID))
		return LoginResult{}, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, u)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	slogx.FromContext(ctx).Info("user logged in", slog.String("user_id", u.ID))
	return LoginResult{User: u, Tokens: pair}, nil
}

// issuePair mints both tokens and records the session marker. The marker is
// the refresh token's jti, which ties the cache entry to the login that
// wrote it.
func (s *AuthService) issuePair(ctx context.Context, u domain.User) (domain.TokenPair, error) {
	now := s.now()

	access, accessClaims, err := s.Keys.Issue(jwtx.RoleAccess, u.ID, s.accessTTL(), now)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshClaims, err := s.Keys.Issue(jwtx.RoleRefresh, u.ID, s.refreshTTL(), now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	if err := s.Cache.Set(ctx, u.ID, refreshClaims.ID, s.cacheTTL()); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessClaims.ExpiresAt.Time,
		RefreshExpiresAt: refreshClaims.ExpiresAt.Time,
	}, nil
}

// Refresh trades a refresh token for a new access token. The refresh token
// is not rotated. A validly signed token is refused once its user has no
// session marker.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (pair domain.TokenPair, err error) {
	defer func() { s.record(observability.EventRefresh, err) }()

	claims, ok := s.Keys.Verify(jwtx.RoleRefresh, refreshToken)
	if !ok {
		return domain.TokenPair{}, ErrRefreshFailed
	}
	userID := claims.Subject

	_, live, err := s.Cache.Get(ctx, userID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}
	if !live {
		return domain.TokenPair{}, ErrSessionExpired
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.TokenPair{}, ErrSessionExpired
	}
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}

	access, accessClaims, err := s.Keys.Issue(jwtx.RoleAccess, u.ID, s.accessTTL(), s.now())
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}
	return domain.TokenPair{
		AccessToken:     access,
		AccessExpiresAt: accessClaims.ExpiresAt.Time,
	}, nil
}

// Logout drops the session marker. Logging out twice is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) (err error) {
	defer func() { s.record(observability.EventLogout, err) }()

	if err := s.Cache.Delete(ctx, userID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	slogx.FromContext(ctx).Info("user logged out", slog.String("user_id", userID))
	return nil
}

// VerifyEmail redeems a mailed verification code. Codes are single use.
func (s *AuthService) VerifyEmail(ctx context.Context, rawCode string) (err error) {
	defer func() { s.record(observability.EventVerifyEmail, err) }()

	rawCode = strings.TrimSpace(rawCode)
	if rawCode == "" {
		return ErrInvalidCode
	}
	digest := cryptox.DigestCode(rawCode)

	var userID string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByVerificationDigest(ctx, digest)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidCode
		}
		if err != nil {
			return err
		}
		if !u.VerificationCodeMatches(rawCode) {
			return ErrInvalidCode
		}

		u.MarkVerified(s.now())
		userID = u.ID
		return tx.Users().UpdateUser(ctx, u)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return err
		}
		return fmt.Errorf("verify email: %w", err)
	}

	slogx.FromContext(ctx).Info("email verified", slog.String("user_id", userID))
	return nil
}

// Authenticate resolves an access token to its user. An unusable token is
// anonymous (ok=false, err=nil). A valid token is only honoured while its
// user has a session marker and still exists; otherwise ErrSessionExpired.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (domain.User, bool, error) {
	claims, ok := s.Keys.Verify(jwtx.RoleAccess, accessToken)
	if !ok {
		return domain.User{}, false, nil
	}

	_, live, err := s.Cache.Get(ctx, claims.Subject)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("authenticate: %w", err)
	}
	if !live {
		return domain.User{}, false, ErrSessionExpired
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, false, ErrSessionExpired
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("authenticate: %w", err)
	}
	return u, true, nil
}

// ForgotPassword mails a reset token when the address belongs to a user.
// The caller sees the same result either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (err error) {
	defer func() { s.record(observability.EventForgotPassword, err) }()

	email = domain.NormalizeEmail(email)
	var v ValidationError
	validateEmail(&v, email)
	if err := v.err(); err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		slogx.FromContext(ctx).Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	rawToken, err := u.IssuePasswordReset(s.now())
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	if err := s.Store.Users().UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	if s.Mailer != nil {
		s.dispatch(ctx, "password_reset", u, func(ctx context.Context) error {
			return s.Mailer.SendPasswordResetToken(ctx, u, rawToken)
		})
	}
	return nil
}

// ResetPassword redeems a reset token, sets the new password and ends the
// user's session.
func (s *AuthService) ResetPassword(ctx context.Context, in ResetPasswordInput) (err error) {
	defer func() { s.record(observability.EventResetPassword, err) }()

	if err := in.Validate(); err != nil {
		return err
	}
	token := strings.TrimSpace(in.Token)
	if token == "" {
		return ErrInvalidResetToken
	}
	digest := cryptox.DigestCode(token)
	now := s.now()

	var userID string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.Users().GetUserByResetDigest(ctx, digest)
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		if err != nil {
			return err
		}
		if !u.PasswordResetMatches(token) || !u.PasswordResetValid(now) {
			return ErrInvalidResetToken
		}

		if err := u.SetPassword(in.Password, now); err != nil {
			return err
		}
		u.ClearPasswordReset()
		userID = u.ID
		return tx.Users().UpdateUser(ctx, u)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			return err
		}
		return fmt.Errorf("reset password: %w", err)
	}

	if err := s.Cache.Delete(ctx, userID); err != nil {
		return fmt.Errorf("reset password: end session: %w", err)
	}

	slogx.FromContext(ctx).Info("password reset", slog.String("user_id", userID))
	return nil
}

// dispatch runs a mail send and swallows its error.
func (s *AuthService) dispatch(ctx context.Context, kind string, u domain.User, send func(context.Context) error) {
	if err := send(ctx); err != nil {
		slogx.FromContext(ctx).Error("mail dispatch failed",
			slog.String("kind", kind),
			slog.String("user_id", u.ID),
			slog.String("error", err.Error()),
		)
		s.Metrics.RecordAuthEvent(observability.EventMail, observability.OutcomeError)
		return
	}
	s.Metrics.RecordAuthEvent(observability.EventMail, observability.OutcomeSuccess)
}

func (s *AuthService) record(event string, err error) {
	s.Metrics.RecordAuthEvent(event, outcome(err))
}

// outcome separates caller mistakes from our own failures.
func outcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound):
		return observability.OutcomeFailure
	default:
		return observability.OutcomeError
	}
}
