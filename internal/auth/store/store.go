package store

import (
	"context"
	"errors"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable.
type Store interface {
	Accounts() Accounts
	RefreshSessions() RefreshSessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

// Accounts is the account directory: the narrow query interface the flows
// need, nothing more.
type Accounts interface {
	// CreateAccount inserts a new account (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is taken.
	CreateAccount(ctx context.Context, a domain.Account) error

	// GetAccountByID returns an account by id.
	GetAccountByID(ctx context.Context, id string) (domain.Account, error)

	// GetAccountByEmail is used during login and registration duplicate checks.
	GetAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	// GetAccountByActionToken returns the account currently holding the given
	// token fingerprint in its single-purpose slot, for the given purpose,
	// only while the token is unexpired.
	GetAccountByActionToken(ctx context.Context, tokenHash string, purpose domain.TokenPurpose) (domain.Account, error)

	// GetAccountByFederatedSubject returns the account owned by the given
	// provider subject id.
	GetAccountByFederatedSubject(ctx context.Context, provider domain.Provider, subject string) (domain.Account, error)

	// SetActionToken stores a new single-purpose token fingerprint + expiry,
	// overwriting (and thereby invalidating) any previous slot value.
	SetActionToken(ctx context.Context, accountID, tokenHash string, purpose domain.TokenPurpose, expiresAt time.Time) error

	// ActivateAccount flips the account to active and clears the token slot.
	ActivateAccount(ctx context.Context, accountID string) error

	// SetPasswordAndClearToken replaces the password hash and clears the
	// token slot (successful password reset).
	SetPasswordAndClearToken(ctx context.Context, accountID, newHash string) error

	// AdoptFederatedIdentity marks an existing local account as owned by the
	// given provider subject. The password hash is cleared (a federated
	// account never has a usable password), the account is activated since
	// the provider vouches for the email, and any pending token slot is
	// cleared.
	AdoptFederatedIdentity(ctx context.Context, accountID string, provider domain.Provider, subject string) error
}

// RefreshSessions is the revocation store: one row per outstanding refresh
// credential, keyed by the credential's fingerprint. Rows expire with the
// credential, so revocation bookkeeping never outlives the credential's own
// validity window.
type RefreshSessions interface {
	// Put records a refresh session. expiresAt must equal the credential's
	// expiry claim.
	Put(ctx context.Context, s domain.RefreshSession) error

	// Get returns the session for a fingerprint. Expired rows are treated as
	// absent (ErrNotFound).
	Get(ctx context.Context, tokenHash string) (domain.RefreshSession, error)

	// Delete revokes the session. Deleting an absent row is not an error:
	// logout is idempotent.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteExpired removes rows past their expiry (housekeeping).
	DeleteExpired(ctx context.Context) error
}
