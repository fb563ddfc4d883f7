package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/auth/domain"
	"github.com/gatehouselabs/gatehouse/internal/auth/identity"
	"github.com/gatehouselabs/gatehouse/internal/auth/store"
	"github.com/gatehouselabs/gatehouse/pkg/cryptox"
	"github.com/gatehouselabs/gatehouse/pkg/idx"
	"github.com/gatehouselabs/gatehouse/pkg/jwtx"
	"github.com/gatehouselabs/gatehouse/pkg/mailx"
	"github.com/gatehouselabs/gatehouse/pkg/slogx"
)

const (
	// DefaultActivationTTL bounds how long a newly registered account can sit
	// pending before its activation token dies.
	DefaultActivationTTL = 24 * time.Hour

	// DefaultResetTTL bounds the password reset window.
	DefaultResetTTL = 1 * time.Hour
)

type AuthService struct {
	Store  store.Store
	Signer *jwtx.Signer
	Mailer mailx.Notifier
	Google identity.Provider

	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ActivationTTL time.Duration
	ResetTTL      time.Duration
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

// RefreshCredentialTTL reports the effective refresh credential lifetime,
// for callers that size cookies to match.
func (s *AuthService) RefreshCredentialTTL() time.Duration { return s.refreshTTL() }

func (s *AuthService) activationTTL() time.Duration {
	if s.ActivationTTL > 0 {
		return s.ActivationTTL
	}
	return DefaultActivationTTL
}

func (s *AuthService) resetTTL() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return DefaultResetTTL
}

// Register creates a pending account and dispatches the activation email.
//
// The account is committed before the email goes out: a mail relay outage
// must not eat the registration. When dispatch fails the created account is
// returned together with a *NotificationError so the caller can still report
// success.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (domain.Account, error) {
	l := slogx.FromContext(ctx)

	if _, err := s.Store.Accounts().GetAccountByEmail(ctx, email); err == nil {
		return domain.Account{}, ErrDuplicateAccount
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Account{}, err
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Status:       domain.StatusPending,
		Provider:     domain.ProviderLocal,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().CreateAccount(ctx, account); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicateAccount
			}
			return err
		}
		return tx.Accounts().SetActionToken(ctx, account.ID,
			cryptox.FingerprintToken(token), domain.TokenPurposeActivation,
			time.Now().Add(s.activationTTL()))
	})
	if err != nil {
		return domain.Account{}, err
	}

	l.Info("account registered", slog.String("account_id", account.ID))

	if err := s.Mailer.ActivationEmail(ctx, account.Email, token); err != nil {
		l.Error("activation email dispatch failed", slog.String("account_id", account.ID), slog.Any("error", err))
		return account, &NotificationError{Err: err}
	}

	return account, nil
}

// Activate flips a pending account to active using the emailed token. Unknown,
// expired, and already-used tokens are indistinguishable to the caller.
func (s *AuthService) Activate(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidActivationToken
	}

	fingerprint := cryptox.FingerprintToken(token)

	account, err := s.Store.Accounts().GetAccountByActionToken(ctx, fingerprint, domain.TokenPurposeActivation)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidActivationToken
		}
		return err
	}

	if err := s.Store.Accounts().ActivateAccount(ctx, account.ID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("account activated", slog.String("account_id", account.ID))
	return nil
}

// decoyHash is verified against when the email is unknown, so that a login
// attempt costs the same whether or not the account exists.
var (
	decoyOnce sync.Once
	decoyHash string
)

func decoy() string {
	decoyOnce.Do(func() {
		decoyHash, _ = cryptox.HashPassword(cryptox.MustGenerateToken(cryptox.TokenSize128))
	})
	return decoyHash
}

// Login authenticates an email/password pair and issues credentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, domain.Profile, error) {
	l := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(password, decoy())
			return nil, domain.Profile{}, ErrInvalidCredentials
		}
		return nil, domain.Profile{}, err
	}

	if account.Federated() {
		return nil, domain.Profile{}, ErrFederatedAccount
	}

	if err := cryptox.VerifyPassword(password, account.PasswordHash); err != nil {
		l.Info("login failed", slog.String("account_id", account.ID))
		return nil, domain.Profile{}, ErrInvalidCredentials
	}

	if !account.Activated() {
		return nil, domain.Profile{}, ErrNotActivated
	}

	pair, err := s.issueCredentials(ctx, account.ID)
	if err != nil {
		return nil, domain.Profile{}, err
	}

	l.Info("login succeeded", slog.String("account_id", account.ID))
	return pair, domain.ProfileOf(account), nil
}

// LoginGoogle verifies a Google ID token and issues credentials. Match order:
// provider subject first, then email. An existing local account with the same
// email is adopted as federated; its password stops working from then on.
func (s *AuthService) LoginGoogle(ctx context.Context, assertion string) (*domain.TokenPair, domain.Profile, error) {
	l := slogx.FromContext(ctx)

	id, err := s.Google.Verify(ctx, assertion)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidAssertion) || errors.Is(err, identity.ErrUnverifiedEmail) {
			return nil, domain.Profile{}, ErrInvalidAssertion
		}
		return nil, domain.Profile{}, err
	}

	account, err := s.Store.Accounts().GetAccountByFederatedSubject(ctx, domain.ProviderGoogle, id.Subject)
	if errors.Is(err, store.ErrNotFound) {
		account, err = s.adoptOrCreateFederated(ctx, id)
	}
	if err != nil {
		return nil, domain.Profile{}, err
	}

	pair, err := s.issueCredentials(ctx, account.ID)
	if err != nil {
		return nil, domain.Profile{}, err
	}

	l.Info("federated login succeeded",
		slog.String("account_id", account.ID),
		slog.String("provider", string(domain.ProviderGoogle)))
	return pair, domain.ProfileOf(account), nil
}

func (s *AuthService) adoptOrCreateFederated(ctx context.Context, id identity.Identity) (domain.Account, error) {
	existing, err := s.Store.Accounts().GetAccountByEmail(ctx, id.Email)
	if err == nil {
		if err := s.Store.Accounts().AdoptFederatedIdentity(ctx, existing.ID, domain.ProviderGoogle, id.Subject); err != nil {
			return domain.Account{}, err
		}
		return s.Store.Accounts().GetAccountByID(ctx, existing.ID)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, err
	}

	subject := id.Subject
	account := domain.Account{
		ID:              idx.New().String(),
		Email:           id.Email,
		Username:        id.Name,
		Status:          domain.StatusActive, // Google already verified the email
		Provider:        domain.ProviderGoogle,
		ProviderSubject: &subject,
	}
	if err := s.Store.Accounts().CreateAccount(ctx, account); err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

// Refresh exchanges a live refresh credential for a fresh access credential.
// The refresh credential is not rotated; it stays valid until expiry or
// logout. Signature, expiry, purpose, and session liveness are all checked,
// and every failure collapses to ErrInvalidRefresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.Signer.Verify(refreshToken, jwtx.PurposeRefresh)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	session, err := s.Store.RefreshSessions().Get(ctx, cryptox.FingerprintToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	// Belt and braces: the session row must belong to the credential's subject.
	if session.AccountID != claims.AccountID() {
		return nil, ErrInvalidRefresh
	}

	access, err := s.Signer.IssueAccess(session.AccountID, s.accessTTL())
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTL(),
	}, nil
}

// Logout revokes the refresh session for the given credential. Revoking an
// unknown, expired, or already-revoked credential is a success: the desired
// end state holds either way.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Store.RefreshSessions().Delete(ctx, cryptox.FingerprintToken(refreshToken))
}

// RequestPasswordReset issues a reset token for an active local account and
// dispatches it by email. The new token lands in the same single-purpose slot
// as activation tokens, so any earlier outstanding token dies with it.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)

	account, err := s.Store.Accounts().GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	if account.Federated() {
		return ErrFederatedAccount
	}
	if !account.Activated() {
		return ErrNotActivated
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	err = s.Store.Accounts().SetActionToken(ctx, account.ID,
		cryptox.FingerprintToken(token), domain.TokenPurposeReset,
		time.Now().Add(s.resetTTL()))
	if err != nil {
		return err
	}

	l.Info("password reset requested", slog.String("account_id", account.ID))

	if err := s.Mailer.PasswordResetEmail(ctx, account.Email, token); err != nil {
		l.Error("reset email dispatch failed", slog.String("account_id", account.ID), slog.Any("error", err))
		return &NotificationError{Err: err}
	}

	return nil
}

// ResetPassword consumes a reset token and installs the new password. The
// slot is cleared in the same statement, so a token spends exactly once.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if token == "" {
		return ErrInvalidResetToken
	}

	fingerprint := cryptox.FingerprintToken(token)

	account, err := s.Store.Accounts().GetAccountByActionToken(ctx, fingerprint, domain.TokenPurposeReset)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}

	if err := s.Store.Accounts().SetPasswordAndClearToken(ctx, account.ID, hash); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password reset", slog.String("account_id", account.ID))
	return nil
}

func (s *AuthService) issueCredentials(ctx context.Context, accountID string) (*domain.TokenPair, error) {
	access, err := s.Signer.IssueAccess(accountID, s.accessTTL())
	if err != nil {
		return nil, err
	}

	refresh, err := s.Signer.IssueRefresh(accountID, s.refreshTTL())
	if err != nil {
		return nil, err
	}

	err = s.Store.RefreshSessions().Put(ctx, domain.RefreshSession{
		TokenHash: cryptox.FingerprintToken(refresh),
		AccountID: accountID,
		ExpiresAt: time.Now().Add(s.refreshTTL()),
	})
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.accessTTL(),
	}, nil
}
