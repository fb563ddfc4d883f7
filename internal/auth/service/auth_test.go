package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/auth/domain"
	"github.com/gatehouselabs/gatehouse/internal/auth/identity"
	"github.com/gatehouselabs/gatehouse/internal/auth/store"
	"github.com/gatehouselabs/gatehouse/internal/auth/store/drivers/sqlite"
	"github.com/gatehouselabs/gatehouse/pkg/cryptox"
	"github.com/gatehouselabs/gatehouse/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "gatehouse-service-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// recordingMailer captures the raw tokens the flows dispatch.
type recordingMailer struct {
	activationTokens []string
	resetTokens      []string
	fail             bool
}

func (m *recordingMailer) ActivationEmail(ctx context.Context, to, token string) error {
	if m.fail {
		return errors.New("relay down")
	}
	m.activationTokens = append(m.activationTokens, token)
	return nil
}

func (m *recordingMailer) PasswordResetEmail(ctx context.Context, to, token string) error {
	if m.fail {
		return errors.New("relay down")
	}
	m.resetTokens = append(m.resetTokens, token)
	return nil
}

func (m *recordingMailer) lastActivation(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.activationTokens)
	return m.activationTokens[len(m.activationTokens)-1]
}

func (m *recordingMailer) lastReset(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, m.resetTokens)
	return m.resetTokens[len(m.resetTokens)-1]
}

// fakeProvider vouches for a fixed identity when handed the right assertion.
type fakeProvider struct {
	assertion string
	identity  identity.Identity
}

func (p *fakeProvider) Name() string { return "google" }

func (p *fakeProvider) Verify(ctx context.Context, assertion string) (identity.Identity, error) {
	if assertion != p.assertion {
		return identity.Identity{}, identity.ErrInvalidAssertion
	}
	return p.identity, nil
}

func newTestService(t *testing.T) (*AuthService, *recordingMailer) {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	signer, err := jwtx.NewSigner("gatehouse-test",
		[]byte("access-secret-for-tests--------"),
		[]byte("refresh-secret-for-tests-------"))
	require.NoError(t, err)

	mailer := &recordingMailer{}
	svc := &AuthService{
		Store:  st,
		Signer: signer,
		Mailer: mailer,
		Google: &fakeProvider{
			assertion: "good-assertion",
			identity: identity.Identity{
				Subject: "google-sub-42",
				Email:   "fed@example.com",
				Name:    "Fed Example",
			},
		},
	}
	return svc, mailer
}

func registerAndActivate(t *testing.T, svc *AuthService, mailer *recordingMailer, email, password string) domain.Account {
	t.Helper()
	ctx := context.Background()

	account, err := svc.Register(ctx, email, "tester", password)
	require.NoError(t, err)
	require.NoError(t, svc.Activate(ctx, mailer.lastActivation(t)))
	return account
}

func TestRegister(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	account, err := svc.Register(ctx, "alice@example.com", "alice", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, account.ID)
	require.Equal(t, domain.StatusPending, account.Status)
	require.Len(t, mailer.activationTokens, 1)

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice@example.com", "alice2", "another password")
		require.ErrorIs(t, err, ErrDuplicateAccount)
	})

	t.Run("stored hash is not the password", func(t *testing.T) {
		got, err := svc.Store.Accounts().GetAccountByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotEqual(t, "correct horse battery", got.PasswordHash)
		require.NoError(t, cryptox.VerifyPassword("correct horse battery", got.PasswordHash))
	})

	t.Run("store holds fingerprint, not raw token", func(t *testing.T) {
		got, err := svc.Store.Accounts().GetAccountByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.NotNil(t, got.TokenHash)
		require.NotEqual(t, mailer.activationTokens[0], *got.TokenHash)
		require.Equal(t, cryptox.FingerprintToken(mailer.activationTokens[0]), *got.TokenHash)
	})
}

func TestRegister_EmailFailure(t *testing.T) {
	svc, mailer := newTestService(t)
	mailer.fail = true
	ctx := context.Background()

	account, err := svc.Register(ctx, "bob@example.com", "bob", "some password!")
	require.Error(t, err)

	var notifErr *NotificationError
	require.ErrorAs(t, err, &notifErr)
	require.NotEmpty(t, account.ID)

	// The account exists despite the failed dispatch.
	_, err = svc.Store.Accounts().GetAccountByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
}

func TestActivate(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol@example.com", "carol", "p4ssword here")
	require.NoError(t, err)
	token := mailer.lastActivation(t)

	t.Run("login before activation is refused", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "carol@example.com", "p4ssword here")
		require.ErrorIs(t, err, ErrNotActivated)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		require.ErrorIs(t, svc.Activate(ctx, "not-a-real-token"), ErrInvalidActivationToken)
	})

	t.Run("valid token activates", func(t *testing.T) {
		require.NoError(t, svc.Activate(ctx, token))

		got, err := svc.Store.Accounts().GetAccountByEmail(ctx, "carol@example.com")
		require.NoError(t, err)
		require.Equal(t, domain.StatusActive, got.Status)
		require.Nil(t, got.TokenHash)
	})

	t.Run("token spends once", func(t *testing.T) {
		require.ErrorIs(t, svc.Activate(ctx, token), ErrInvalidActivationToken)
	})
}

func TestActivate_ExpiredToken(t *testing.T) {
	svc, mailer := newTestService(t)
	svc.ActivationTTL = -time.Minute
	ctx := context.Background()

	_, err := svc.Register(ctx, "dan@example.com", "dan", "a password dan!")
	require.NoError(t, err)

	require.ErrorIs(t, svc.Activate(ctx, mailer.lastActivation(t)), ErrInvalidActivationToken)
}

func TestLogin(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	account := registerAndActivate(t, svc, mailer, "erin@example.com", "erins password!")

	t.Run("success issues verifiable credentials", func(t *testing.T) {
		pair, profile, err := svc.Login(ctx, "erin@example.com", "erins password!")
		require.NoError(t, err)
		require.Equal(t, account.ID, profile.ID)
		require.Equal(t, "Bearer", pair.TokenType)

		accessClaims, err := svc.Signer.Verify(pair.AccessToken, jwtx.PurposeAccess)
		require.NoError(t, err)
		require.Equal(t, account.ID, accessClaims.AccountID())

		refreshClaims, err := svc.Signer.Verify(pair.RefreshToken, jwtx.PurposeRefresh)
		require.NoError(t, err)
		require.Equal(t, account.ID, refreshClaims.AccountID())

		// The revocation record exists and expires with the credential.
		session, err := svc.Store.RefreshSessions().Get(ctx, cryptox.FingerprintToken(pair.RefreshToken))
		require.NoError(t, err)
		require.Equal(t, account.ID, session.AccountID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "erin@example.com", "not her password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email is indistinguishable", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "whatever password")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestLoginGoogle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	t.Run("bad assertion rejected", func(t *testing.T) {
		_, _, err := svc.LoginGoogle(ctx, "bad-assertion")
		require.ErrorIs(t, err, ErrInvalidAssertion)
	})

	t.Run("first login creates an active federated account", func(t *testing.T) {
		pair, profile, err := svc.LoginGoogle(ctx, "good-assertion")
		require.NoError(t, err)
		require.Equal(t, "fed@example.com", profile.Email)
		require.NotEmpty(t, pair.AccessToken)

		got, err := svc.Store.Accounts().GetAccountByFederatedSubject(ctx, domain.ProviderGoogle, "google-sub-42")
		require.NoError(t, err)
		require.True(t, got.Activated())
		require.True(t, got.Federated())
	})

	t.Run("second login reuses the account", func(t *testing.T) {
		_, profile1, err := svc.LoginGoogle(ctx, "good-assertion")
		require.NoError(t, err)
		_, profile2, err := svc.LoginGoogle(ctx, "good-assertion")
		require.NoError(t, err)
		require.Equal(t, profile1.ID, profile2.ID)
	})

	t.Run("password login refused for federated account", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "fed@example.com", "any password!!")
		require.ErrorIs(t, err, ErrFederatedAccount)
	})
}

func TestLoginGoogle_AdoptsLocalAccount(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	local := registerAndActivate(t, svc, mailer, "fed@example.com", "local password!")

	_, profile, err := svc.LoginGoogle(ctx, "good-assertion")
	require.NoError(t, err)
	require.Equal(t, local.ID, profile.ID)

	// Adoption clears the password: the old credentials stop working.
	_, _, err = svc.Login(ctx, "fed@example.com", "local password!")
	require.ErrorIs(t, err, ErrFederatedAccount)
}

func TestLoginGoogle_AdoptsPendingAccount(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	// Registered but never activated; the provider vouches for the email,
	// so the federated login must both adopt and activate the account.
	_, err := svc.Register(ctx, "fed@example.com", "tester", "local password!")
	require.NoError(t, err)

	pair, profile, err := svc.LoginGoogle(ctx, "good-assertion")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	got, err := svc.Store.Accounts().GetAccountByID(ctx, profile.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusActive, got.Status)
	require.Nil(t, got.TokenHash)

	// The superseded activation token no longer matches anything.
	require.ErrorIs(t, svc.Activate(ctx, mailer.lastActivation(t)), ErrInvalidActivationToken)
}

func TestRefresh(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	account := registerAndActivate(t, svc, mailer, "frank@example.com", "franks password!")
	pair, _, err := svc.Login(ctx, "frank@example.com", "franks password!")
	require.NoError(t, err)

	t.Run("valid refresh issues a new access credential", func(t *testing.T) {
		got, err := svc.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.NotEmpty(t, got.AccessToken)
		require.Equal(t, pair.RefreshToken, got.RefreshToken)

		claims, err := svc.Signer.Verify(got.AccessToken, jwtx.PurposeAccess)
		require.NoError(t, err)
		require.Equal(t, account.ID, claims.AccountID())
	})

	t.Run("access credential cannot refresh", func(t *testing.T) {
		_, err := svc.Refresh(ctx, pair.AccessToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("tampered credential rejected", func(t *testing.T) {
		_, err := svc.Refresh(ctx, pair.RefreshToken+"x")
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("refresh after logout rejected", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, pair.RefreshToken))

		_, err := svc.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidRefresh)
	})

	t.Run("logout is idempotent", func(t *testing.T) {
		require.NoError(t, svc.Logout(ctx, pair.RefreshToken))
		require.NoError(t, svc.Logout(ctx, "never-issued"))
		require.NoError(t, svc.Logout(ctx, ""))
	})
}

func TestRefresh_RevokedSession(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	registerAndActivate(t, svc, mailer, "gina@example.com", "ginas password!")
	pair, _, err := svc.Login(ctx, "gina@example.com", "ginas password!")
	require.NoError(t, err)

	// Kill the session row directly rather than sleeping out the JWT.
	require.NoError(t, svc.Store.RefreshSessions().Delete(ctx, cryptox.FingerprintToken(pair.RefreshToken)))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestPasswordReset(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	registerAndActivate(t, svc, mailer, "hana@example.com", "original pass!!")

	t.Run("unknown email", func(t *testing.T) {
		require.ErrorIs(t, svc.RequestPasswordReset(ctx, "nobody@example.com"), ErrAccountNotFound)
	})

	t.Run("full reset flow", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(ctx, "hana@example.com"))
		token := mailer.lastReset(t)

		require.NoError(t, svc.ResetPassword(ctx, token, "brand new pass!", "brand new pass!"))

		_, _, err := svc.Login(ctx, "hana@example.com", "original pass!!")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, _, err = svc.Login(ctx, "hana@example.com", "brand new pass!")
		require.NoError(t, err)
	})

	t.Run("reset token spends once", func(t *testing.T) {
		err := svc.ResetPassword(ctx, mailer.lastReset(t), "third pass!!!!", "third pass!!!!")
		require.ErrorIs(t, err, ErrInvalidResetToken)
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(ctx, "hana@example.com"))
		err := svc.ResetPassword(ctx, mailer.lastReset(t), "one password!!", "other password")
		require.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("newer request invalidates the older token", func(t *testing.T) {
		require.NoError(t, svc.RequestPasswordReset(ctx, "hana@example.com"))
		first := mailer.lastReset(t)
		require.NoError(t, svc.RequestPasswordReset(ctx, "hana@example.com"))
		second := mailer.lastReset(t)

		require.ErrorIs(t, svc.ResetPassword(ctx, first, "does not matter", "does not matter"), ErrInvalidResetToken)
		require.NoError(t, svc.ResetPassword(ctx, second, "fourth pass!!!", "fourth pass!!!"))
	})
}

func TestPasswordReset_Refusals(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	t.Run("pending account", func(t *testing.T) {
		_, err := svc.Register(ctx, "pending@example.com", "pending", "pending pass!!")
		require.NoError(t, err)
		require.ErrorIs(t, svc.RequestPasswordReset(ctx, "pending@example.com"), ErrNotActivated)
	})

	t.Run("federated account", func(t *testing.T) {
		_, _, err := svc.LoginGoogle(ctx, "good-assertion")
		require.NoError(t, err)
		require.ErrorIs(t, svc.RequestPasswordReset(ctx, "fed@example.com"), ErrFederatedAccount)
	})

	t.Run("expired reset token", func(t *testing.T) {
		registerAndActivate(t, svc, mailer, "ivy@example.com", "ivys password!!")
		svc.ResetTTL = -time.Minute
		require.NoError(t, svc.RequestPasswordReset(ctx, "ivy@example.com"))

		err := svc.ResetPassword(ctx, mailer.lastReset(t), "new password!!", "new password!!")
		require.ErrorIs(t, err, ErrInvalidResetToken)
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestHousekeeping_SweepsExpiredSessions(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	account := registerAndActivate(t, svc, mailer, "jay@example.com", "jays password!!")

	require.NoError(t, svc.Store.RefreshSessions().Put(ctx, domain.RefreshSession{
		TokenHash: "stale",
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	hk := NewHousekeepingService(svc.Store, discardLogger(), time.Hour)
	hk.Start()
	hk.Stop()

	_, err := svc.Store.RefreshSessions().Get(ctx, "stale")
	require.ErrorIs(t, err, store.ErrNotFound)
}
