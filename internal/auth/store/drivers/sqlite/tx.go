package sqlite

import (
	"context"
	"database/sql"

	"github.com/gatehouselabs/gatehouse/internal/auth/store"
)

// txStore wraps a *sql.Tx and satisfies store.Tx. The repos run against the
// transaction instead of the pool; everything else is a no-op or an error.
type txStore struct {
	tx *sql.Tx
}

func newTx(tx *sql.Tx) *txStore { return &txStore{tx: tx} }

func (t *txStore) Accounts() store.Accounts               { return &accountsRepo{q: t.tx} }
func (t *txStore) RefreshSessions() store.RefreshSessions { return &refreshSessionsRepo{q: t.tx} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// ApplyMigrations is not supported inside a transaction.
func (t *txStore) ApplyMigrations() error { return sql.ErrTxDone }

// Tx cannot be nested.
func (t *txStore) Tx(ctx context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Close() error                 { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }
