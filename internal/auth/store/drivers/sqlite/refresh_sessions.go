package sqlite

import (
	"context"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/auth/domain"
)

type refreshSessionsRepo struct {
	q querier
}

func (r *refreshSessionsRepo) Put(ctx context.Context, s domain.RefreshSession) error {
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, account_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)`,
		s.TokenHash, s.AccountID, s.ExpiresAt.UTC(), created.UTC())
	return mapConstraint(err)
}

// Get treats expired rows as absent: a session past its expiry is dead even
// if housekeeping has not swept it yet.
func (r *refreshSessionsRepo) Get(ctx context.Context, tokenHash string) (domain.RefreshSession, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT token_hash, account_id, expires_at, created_at
		FROM refresh_sessions
		WHERE token_hash = ? AND expires_at > ?`,
		tokenHash, time.Now().UTC())

	var s domain.RefreshSession
	if err := row.Scan(&s.TokenHash, &s.AccountID, &s.ExpiresAt, &s.CreatedAt); err != nil {
		return domain.RefreshSession{}, mapNotFound(err)
	}
	return s, nil
}

func (r *refreshSessionsRepo) Delete(ctx context.Context, tokenHash string) error {
	// No rows-affected check: deleting an absent session is fine (idempotent logout).
	_, err := r.q.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE token_hash = ?`, tokenHash)
	return err
}

func (r *refreshSessionsRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE expires_at <= ?`, time.Now().UTC())
	return err
}
