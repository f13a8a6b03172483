package auth

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"

	"github.com/jobhunt/identity/pkg/account"
	"github.com/jobhunt/identity/pkg/email"
	"github.com/jobhunt/identity/pkg/otp"
	"github.com/jobhunt/identity/pkg/session"
)

var resetLinkRegex = regexp.MustCompile(`/password/reset/([0-9a-f]{40})`)

type authFixture struct {
	auth     Authenticator
	store    *account.MemoryStore
	mailer   *MockEmailSender
	clock    *testClock
	sessions *session.Issuer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	clock := newTestClock()
	store := account.NewMemoryStore()

	sessions, err := session.NewIssuer(
		session.Config{Secret: "test-secret-32-chars-long-123456", TTL: time.Hour},
		session.WithClock(clock.Now),
	)
	require.NoError(t, err)

	mailer := &MockEmailSender{}

	auth := NewAuthenticator(
		store,
		otp.NewGenerator(otp.WithClock(clock.Now)),
		mailer,
		sessions,
		WithAuthBcryptCost(bcrypt.MinCost),
		WithAuthClock(clock.Now),
		WithResetURLBase("https://app.example.com"),
	)

	return &authFixture{
		auth:     auth,
		store:    store,
		mailer:   mailer,
		clock:    clock,
		sessions: sessions,
	}
}

// seedVerified puts a verified employer account with the given credentials
// straight into the store.
func (f *authFixture) seedVerified(t *testing.T, addr, password string) *account.Account {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	acct := &account.Account{
		Name:         "Seeded User",
		Email:        addr,
		Phone:        "9123456789",
		Address:      "1 Seed Road",
		Role:         account.RoleEmployer,
		PasswordHash: hash,
		CreatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.store.CreateUnverified(context.Background(), acct))
	require.NoError(t, f.store.MarkVerified(context.Background(), acct.ID))
	return acct
}

// resetTokenFromMail extracts the raw reset token from the last reset email
// captured by the mock.
func resetTokenFromMail(t *testing.T, params email.SendEmailParams) string {
	t.Helper()
	m := resetLinkRegex.FindStringSubmatch(params.BodyHTML)
	require.Len(t, m, 2, "reset email must carry the reset link")
	return m[1]
}

func TestPasswordService_Login(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("valid credentials issue a session", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		seeded := f.seedVerified(t, "login@example.com", "correct-horse")

		sess, acct, err := f.auth.Login(ctx, "login@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, acct.ID)
		assert.True(t, acct.Verified)

		id, err := f.sessions.Validate(sess.Token)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, id)
	})

	t.Run("email is normalized before lookup", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		f.seedVerified(t, "case@example.com", "correct-horse")

		_, _, err := f.auth.Login(ctx, " Case@Example.COM ", "correct-horse")
		assert.NoError(t, err)
	})

	t.Run("failures are indistinguishable", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		f.seedVerified(t, "known@example.com", "correct-horse")

		// Unknown account.
		_, _, err := f.auth.Login(ctx, "unknown@example.com", "whatever1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		// Wrong password.
		_, _, err = f.auth.Login(ctx, "known@example.com", "wrong-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)

		// Unverified account.
		unverified := &account.Account{
			Name: "Pending", Email: "pending@example.com", Phone: "9123456788",
			Address: "x", Role: account.RoleEmployer, CreatedAt: f.clock.Now(),
		}
		require.NoError(t, f.store.CreateUnverified(ctx, unverified))
		_, _, err = f.auth.Login(ctx, "pending@example.com", "whatever1")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestPasswordService_ForgotPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("stores the hashed token and mails the raw one", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		seeded := f.seedVerified(t, "forgot@example.com", "correct-horse")

		var sent email.SendEmailParams
		f.mailer.On("SendEmail", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(email.SendEmailParams) }).
			Return(nil).Once()

		require.NoError(t, f.auth.ForgotPassword(ctx, "forgot@example.com"))
		f.mailer.AssertExpectations(t)

		assert.Equal(t, "forgot@example.com", sent.SendTo)

		// The stored hash corresponds to the raw token from the email, and
		// the raw token itself never hits the store.
		raw := resetTokenFromMail(t, sent)
		found, err := f.store.FindByResetTokenHash(ctx, otp.HashToken(raw), f.clock.Now())
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, found.ID)
		require.NotNil(t, found.ResetPasswordTokenHash)
		assert.NotEqual(t, raw, *found.ResetPasswordTokenHash)
	})

	t.Run("unknown email", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		assert.ErrorIs(t, f.auth.ForgotPassword(ctx, "nobody@example.com"), ErrAccountNotFound)
	})

	t.Run("rolls the token back when delivery fails", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		seeded := f.seedVerified(t, "undeliverable@example.com", "correct-horse")

		f.mailer.On("SendEmail", mock.Anything, mock.Anything).Return(assert.AnError).Once()

		err := f.auth.ForgotPassword(ctx, "undeliverable@example.com")
		assert.ErrorIs(t, err, ErrNotificationFailed)

		acct, err := f.store.FindByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Nil(t, acct.ResetPasswordTokenHash)
		assert.Nil(t, acct.ResetPasswordExpiresAt)
	})
}

func TestPasswordService_ResetPassword(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// issueToken runs the forgot-password flow and returns the raw token
	// from the captured email.
	issueToken := func(t *testing.T, f *authFixture, addr string) string {
		t.Helper()
		var sent email.SendEmailParams
		f.mailer.On("SendEmail", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { sent = args.Get(1).(email.SendEmailParams) }).
			Return(nil).Once()
		require.NoError(t, f.auth.ForgotPassword(ctx, addr))
		return resetTokenFromMail(t, sent)
	}

	t.Run("valid token replaces the password and issues a session", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		seeded := f.seedVerified(t, "reset@example.com", "old-password")
		raw := issueToken(t, f, "reset@example.com")

		sess, acct, err := f.auth.ResetPassword(ctx, raw, "new-password", "new-password")
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, acct.ID)

		id, err := f.sessions.Validate(sess.Token)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, id)

		// Old password is dead, new one works.
		_, _, err = f.auth.Login(ctx, "reset@example.com", "old-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		_, _, err = f.auth.Login(ctx, "reset@example.com", "new-password")
		assert.NoError(t, err)
	})

	t.Run("token is single use", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		f.seedVerified(t, "once@example.com", "old-password")
		raw := issueToken(t, f, "once@example.com")

		_, _, err := f.auth.ResetPassword(ctx, raw, "new-password", "new-password")
		require.NoError(t, err)

		_, _, err = f.auth.ResetPassword(ctx, raw, "another-one", "another-one")
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		f.seedVerified(t, "slow@example.com", "old-password")
		raw := issueToken(t, f, "slow@example.com")

		f.clock.Advance(31 * time.Minute)

		_, _, err := f.auth.ResetPassword(ctx, raw, "new-password", "new-password")
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		_, _, err := f.auth.ResetPassword(ctx, "not-a-token", "new-password", "new-password")
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})

	t.Run("mismatched confirmation keeps the token usable", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		f.seedVerified(t, "typo@example.com", "old-password")
		raw := issueToken(t, f, "typo@example.com")

		_, _, err := f.auth.ResetPassword(ctx, raw, "new-password", "new-passwrod")
		assert.ErrorIs(t, err, ErrPasswordMismatch)

		// A failed confirmation does not consume the token.
		_, _, err = f.auth.ResetPassword(ctx, raw, "new-password", "new-password")
		assert.NoError(t, err)
	})

	t.Run("over-long password is rejected", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		f.seedVerified(t, "long@example.com", "old-password")
		raw := issueToken(t, f, "long@example.com")

		long := "0123456789abcdef0123456789abcdef!" // 33 chars
		_, _, err := f.auth.ResetPassword(ctx, raw, long, long)
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})

	t.Run("reusing the current password is rejected", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		f.seedVerified(t, "same@example.com", "old-password")
		raw := issueToken(t, f, "same@example.com")

		_, _, err := f.auth.ResetPassword(ctx, raw, "old-password", "old-password")
		assert.ErrorIs(t, err, ErrPasswordUnchanged)
	})
}

func TestPasswordService_Profile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("resolves a session token to its account", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		seeded := f.seedVerified(t, "me@example.com", "correct-horse")

		sess, _, err := f.auth.Login(ctx, "me@example.com", "correct-horse")
		require.NoError(t, err)

		acct, err := f.auth.Profile(ctx, sess.Token)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, acct.ID)
		assert.Equal(t, "me@example.com", acct.Email)
		assert.True(t, acct.Verified)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		_, err := f.auth.Profile(ctx, "not.a.token")
		assert.ErrorIs(t, err, session.ErrInvalidSession)
	})

	t.Run("expired session", func(t *testing.T) {
		t.Parallel()

		f := newAuthFixture(t)
		f.seedVerified(t, "stale@example.com", "correct-horse")

		sess, _, err := f.auth.Login(ctx, "stale@example.com", "correct-horse")
		require.NoError(t, err)

		f.clock.Advance(2 * time.Hour)

		_, err = f.auth.Profile(ctx, sess.Token)
		assert.ErrorIs(t, err, session.ErrSessionExpired)
	})
}
