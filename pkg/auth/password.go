package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jobhunt/identity/pkg/account"
	"github.com/jobhunt/identity/pkg/email"
	"github.com/jobhunt/identity/pkg/logger"
	"github.com/jobhunt/identity/pkg/otp"
	"github.com/jobhunt/identity/pkg/session"
)

// Authenticator provides password login, password reset and
// session-scoped profile access for verified accounts.
type Authenticator interface {
	// Login verifies email and password and issues a session. Any failure
	// is reported as ErrInvalidCredentials to prevent account enumeration.
	Login(ctx context.Context, email, password string) (*session.Session, *account.Account, error)

	// ForgotPassword stores a hashed single-use reset token and mails the
	// raw token as a reset link. On delivery failure the stored token is
	// rolled back and ErrNotificationFailed returned.
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword consumes a raw reset token and replaces the account
	// password, then issues a fresh session.
	ResetPassword(ctx context.Context, rawToken, newPassword, confirmPassword string) (*session.Session, *account.Account, error)

	// Profile resolves a session credential to its account.
	Profile(ctx context.Context, token string) (*account.Account, error)
}

type passwordService struct {
	registry account.Registry
	tokens   *otp.Generator
	mailer   email.EmailSender
	sessions *session.Issuer

	resetURLBase string
	bcryptCost   int
	logger       *slog.Logger
	now          func() time.Time
}

// AuthenticatorOption configures the password service.
type AuthenticatorOption func(*passwordService)

// WithAuthLogger sets a custom logger for the service.
func WithAuthLogger(l *slog.Logger) AuthenticatorOption {
	return func(s *passwordService) {
		s.logger = l
	}
}

// WithAuthBcryptCost sets the bcrypt cost for password hashing.
func WithAuthBcryptCost(cost int) AuthenticatorOption {
	return func(s *passwordService) {
		s.bcryptCost = cost
	}
}

// WithResetURLBase sets the frontend base URL embedded in reset links.
func WithResetURLBase(base string) AuthenticatorOption {
	return func(s *passwordService) {
		s.resetURLBase = base
	}
}

// WithAuthClock overrides the time source. Used by tests to control token
// expiry.
func WithAuthClock(now func() time.Time) AuthenticatorOption {
	return func(s *passwordService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAuthenticator creates the password authentication service.
func NewAuthenticator(
	registry account.Registry,
	tokens *otp.Generator,
	mailer email.EmailSender,
	sessions *session.Issuer,
	opts ...AuthenticatorOption,
) Authenticator {
	s := &passwordService{
		registry:     registry,
		tokens:       tokens,
		mailer:       mailer,
		sessions:     sessions,
		resetURLBase: "http://localhost:5173",
		bcryptCost:   bcrypt.DefaultCost,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *passwordService) Login(ctx context.Context, addr, password string) (*session.Session, *account.Account, error) {
	addr = normalizeEmail(addr)

	acct, err := s.registry.FindVerifiedByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to look up account",
			logger.Email(addr),
			logger.Error(err),
			logger.Component("login"),
		)
		return nil, nil, ErrUnavailable
	}

	hash, err := s.registry.GetPasswordHash(ctx, acct.ID)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := s.sessions.Issue(acct.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return sess, acct, nil
}

func (s *passwordService) ForgotPassword(ctx context.Context, addr string) error {
	addr = normalizeEmail(addr)

	acct, err := s.registry.FindVerifiedByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrAccountNotFound
		}
		s.logger.Error("failed to look up account",
			logger.Email(addr),
			logger.Error(err),
			logger.Component("password-reset"),
		)
		return ErrUnavailable
	}

	raw, hash, expiresAt, err := s.tokens.NewResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if err := s.registry.SetResetToken(ctx, acct.ID, hash, expiresAt); err != nil {
		s.logger.Error("failed to store reset token",
			logger.AccountID(acct.ID.String()),
			logger.Error(err),
			logger.Component("password-reset"),
		)
		return ErrUnavailable
	}

	resetURL := fmt.Sprintf("%s/password/reset/%s", s.resetURLBase, raw)
	err = s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   acct.Email,
		Subject:  "Password Reset Request",
		BodyHTML: email.PasswordResetBody(resetURL),
		Tag:      "password-reset",
	})
	if err != nil {
		// Roll the token back so no half-issued reset state lingers.
		if clearErr := s.registry.ClearResetToken(ctx, acct.ID); clearErr != nil {
			s.logger.Error("failed to roll back reset token",
				logger.AccountID(acct.ID.String()),
				logger.Error(clearErr),
				logger.Component("password-reset"),
			)
		}
		s.logger.Error("failed to send reset email",
			logger.AccountID(acct.ID.String()),
			logger.Email(acct.Email),
			logger.Error(err),
			logger.Component("password-reset"),
		)
		return ErrNotificationFailed
	}

	return nil
}

func (s *passwordService) ResetPassword(ctx context.Context, rawToken, newPassword, confirmPassword string) (*session.Session, *account.Account, error) {
	acct, err := s.registry.FindByResetTokenHash(ctx, otp.HashToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, nil, ErrInvalidOrExpiredToken
		}
		s.logger.Error("failed to look up reset token",
			logger.Error(err),
			logger.Component("password-reset"),
		)
		return nil, nil, ErrUnavailable
	}

	if newPassword != confirmPassword {
		return nil, nil, ErrPasswordMismatch
	}
	if len(newPassword) > MaxPasswordLength {
		return nil, nil, ErrPasswordTooLong
	}

	currentHash, err := s.registry.GetPasswordHash(ctx, acct.ID)
	if err != nil {
		s.logger.Error("failed to load password hash",
			logger.AccountID(acct.ID.String()),
			logger.Error(err),
			logger.Component("password-reset"),
		)
		return nil, nil, ErrUnavailable
	}
	if bcrypt.CompareHashAndPassword(currentHash, []byte(newPassword)) == nil {
		return nil, nil, ErrPasswordUnchanged
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.registry.UpdatePasswordHash(ctx, acct.ID, newHash); err != nil {
		s.logger.Error("failed to update password",
			logger.AccountID(acct.ID.String()),
			logger.Error(err),
			logger.Component("password-reset"),
		)
		return nil, nil, ErrUnavailable
	}

	// The token is single-use: clear it the moment the password changes.
	if err := s.registry.ClearResetToken(ctx, acct.ID); err != nil {
		s.logger.Error("failed to clear reset token",
			logger.AccountID(acct.ID.String()),
			logger.Error(err),
			logger.Component("password-reset"),
		)
		return nil, nil, ErrUnavailable
	}

	sess, err := s.sessions.Issue(acct.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return sess, acct, nil
}

func (s *passwordService) Profile(ctx context.Context, token string) (*account.Account, error) {
	accountID, err := s.sessions.Validate(token)
	if err != nil {
		return nil, err
	}

	acct, err := s.registry.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		s.logger.Error("failed to load account",
			logger.AccountID(accountID.String()),
			logger.Error(err),
			logger.Component("profile"),
		)
		return nil, ErrUnavailable
	}

	return acct, nil
}

// Compile-time interface assertion
var _ Authenticator = (*passwordService)(nil)
