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
	"github.com/jobhunt/identity/pkg/throttle"
)

// Registrar orchestrates account registration and email verification.
type Registrar interface {
	// Register creates an unverified account, issues a verification code
	// and delivers it via the notifier. A failed delivery surfaces
	// ErrNotificationFailed but keeps the account: the code can be
	// re-sent.
	Register(ctx context.Context, in RegistrationInput) (*account.Account, error)

	// ResendCode issues a fresh verification code for the newest
	// unverified registration of the email.
	ResendCode(ctx context.Context, email string) error

	// Verify promotes the newest unverified account for the email to
	// verified if the submitted code matches and has not expired, removes
	// leftover duplicate registrations and issues a session.
	Verify(ctx context.Context, email string, code int) (*session.Session, *account.Account, error)
}

type registrationService struct {
	registry account.Registry
	limiter  throttle.Limiter
	codes    *otp.Generator
	mailer   email.EmailSender
	sessions *session.Issuer

	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time

	// afterVerify runs async after a successful verification.
	afterVerify func(ctx context.Context, a *account.Account) error
}

// RegistrarOption configures the registration service.
type RegistrarOption func(*registrationService)

// WithRegistrarLogger sets a custom logger for the service.
func WithRegistrarLogger(l *slog.Logger) RegistrarOption {
	return func(s *registrationService) {
		s.logger = l
	}
}

// WithRegistrarBcryptCost sets the bcrypt cost for password hashing.
func WithRegistrarBcryptCost(cost int) RegistrarOption {
	return func(s *registrationService) {
		s.bcryptCost = cost
	}
}

// WithRegistrarClock overrides the time source. Used by tests to control
// code expiry.
func WithRegistrarClock(now func() time.Time) RegistrarOption {
	return func(s *registrationService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAfterVerify sets a hook that runs after successful verification (async).
func WithAfterVerify(fn func(context.Context, *account.Account) error) RegistrarOption {
	return func(s *registrationService) {
		s.afterVerify = fn
	}
}

// NewRegistrar creates the registration service.
func NewRegistrar(
	registry account.Registry,
	limiter throttle.Limiter,
	codes *otp.Generator,
	mailer email.EmailSender,
	sessions *session.Issuer,
	opts ...RegistrarOption,
) Registrar {
	s := &registrationService{
		registry:   registry,
		limiter:    limiter,
		codes:      codes,
		mailer:     mailer,
		sessions:   sessions,
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *registrationService) Register(ctx context.Context, in RegistrationInput) (*account.Account, error) {
	in.Email = normalizeEmail(in.Email)

	if err := in.validate(); err != nil {
		return nil, err
	}

	// Throttle on the email identifier before touching storage, so abusive
	// retries cannot pile up unverified accounts.
	if err := s.limiter.RecordAttempt(ctx, in.Email); err != nil {
		if errors.Is(err, throttle.ErrThrottled) {
			return nil, err
		}
		s.logger.Error("throttle store failed",
			logger.Email(in.Email),
			logger.Error(err),
			logger.Component("register"),
		)
		return nil, ErrUnavailable
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acct := &account.Account{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if in.Role == account.RoleJobSeeker {
		acct.Niches = in.Niches
		acct.CoverLetter = in.CoverLetter
		acct.Resume = in.Resume
	}

	if err := s.registry.CreateUnverified(ctx, acct); err != nil {
		if errors.Is(err, account.ErrDuplicateIdentity) {
			return nil, err
		}
		s.logger.Error("failed to create account",
			logger.Email(in.Email),
			logger.Error(err),
			logger.Component("register"),
		)
		return nil, ErrUnavailable
	}

	if err := s.issueCode(ctx, acct); err != nil {
		return acct, err
	}

	return acct, nil
}

func (s *registrationService) ResendCode(ctx context.Context, addr string) error {
	addr = normalizeEmail(addr)

	acct, err := s.registry.FindLatestUnverifiedByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return ErrAccountNotFound
		}
		s.logger.Error("failed to look up account",
			logger.Email(addr),
			logger.Error(err),
			logger.Component("register"),
		)
		return ErrUnavailable
	}

	return s.issueCode(ctx, acct)
}

// issueCode generates a fresh code, persists it alongside its expiry and
// hands it to the notifier. Code and expiry are always written together.
func (s *registrationService) issueCode(ctx context.Context, acct *account.Account) error {
	code, expiresAt, err := s.codes.Code()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	if err := s.registry.SetVerificationCode(ctx, acct.ID, code, expiresAt); err != nil {
		s.logger.Error("failed to store verification code",
			logger.AccountID(acct.ID.String()),
			logger.Error(err),
			logger.Component("register"),
		)
		return ErrUnavailable
	}

	err = s.mailer.SendEmail(ctx, email.SendEmailParams{
		SendTo:   acct.Email,
		Subject:  "Account Verification Code",
		BodyHTML: email.VerificationCodeBody(code),
		Tag:      "account-verification",
	})
	if err != nil {
		// The account stays resendable; only the delivery failed.
		s.logger.Error("failed to send verification code",
			logger.AccountID(acct.ID.String()),
			logger.Email(acct.Email),
			logger.Error(err),
			logger.Component("register"),
		)
		return ErrNotificationFailed
	}

	return nil
}

func (s *registrationService) Verify(ctx context.Context, addr string, code int) (*session.Session, *account.Account, error) {
	addr = normalizeEmail(addr)

	acct, err := s.registry.FindLatestUnverifiedByEmail(ctx, addr)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		s.logger.Error("failed to look up account",
			logger.Email(addr),
			logger.Error(err),
			logger.Component("verify"),
		)
		return nil, nil, ErrUnavailable
	}

	// The code check runs before any cleanup: a failed guess must never
	// destroy a still-valid pending registration.
	if acct.VerificationCode == nil || *acct.VerificationCode != code {
		return nil, nil, ErrInvalidCode
	}
	if acct.VerificationCodeExpiresAt == nil || !s.now().Before(*acct.VerificationCodeExpiresAt) {
		return nil, nil, ErrCodeExpired
	}

	// Promotion, code clearing and duplicate cleanup are one registry
	// operation. If the sweeper deleted the account mid-flight the
	// promotion fails cleanly.
	if err := s.registry.MarkVerified(ctx, acct.ID); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		if errors.Is(err, account.ErrDuplicateIdentity) {
			return nil, nil, err
		}
		s.logger.Error("failed to promote account",
			logger.AccountID(acct.ID.String()),
			logger.Error(err),
			logger.Component("verify"),
		)
		return nil, nil, ErrUnavailable
	}

	verified, err := s.registry.FindByID(ctx, acct.ID)
	if err != nil {
		s.logger.Error("failed to reload verified account",
			logger.AccountID(acct.ID.String()),
			logger.Error(err),
			logger.Component("verify"),
		)
		return nil, nil, ErrUnavailable
	}

	sess, err := s.sessions.Issue(verified.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue session: %w", err)
	}

	if s.afterVerify != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("afterVerify hook panicked",
						logger.AccountID(verified.ID.String()),
						slog.Any("panic", r),
						logger.Component("verify"),
					)
				}
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := s.afterVerify(ctx, verified); err != nil {
				s.logger.Error("afterVerify hook failed",
					logger.AccountID(verified.ID.String()),
					logger.Error(err),
					logger.Component("verify"),
				)
			}
		}()
	}

	return sess, verified, nil
}

// Compile-time interface assertion
var _ Registrar = (*registrationService)(nil)
