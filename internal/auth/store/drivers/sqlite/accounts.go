package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/gatehouselabs/gatehouse/internal/auth/domain"
)

type accountsRepo struct {
	q querier
}

const accountColumns = `id, email, username, password_hash, status, provider,
	provider_subject, token_hash, token_purpose, token_expires_at,
	created_at, updated_at`

func (r *accountsRepo) CreateAccount(ctx context.Context, a domain.Account) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accounts (
			id, email, username, password_hash, status, provider,
			provider_subject, token_hash, token_purpose, token_expires_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Email, a.Username, a.PasswordHash, string(a.Status), string(a.Provider),
		mapOptionalString(a.ProviderSubject),
		mapOptionalString(a.TokenHash),
		mapOptionalString((*string)(a.TokenPurpose)),
		mapOptionalTime(a.TokenExpiresAt),
		now, now,
	)
	return mapConstraint(err)
}

func (r *accountsRepo) GetAccountByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE email = ?`, email)
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByActionToken(ctx context.Context, tokenHash string, purpose domain.TokenPurpose) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE token_hash = ? AND token_purpose = ? AND token_expires_at > ?`,
		tokenHash, string(purpose), time.Now().UTC())
	return scanAccount(row)
}

func (r *accountsRepo) GetAccountByFederatedSubject(ctx context.Context, provider domain.Provider, subject string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts WHERE provider = ? AND provider_subject = ?`,
		string(provider), subject)
	return scanAccount(row)
}

func (r *accountsRepo) SetActionToken(ctx context.Context, accountID, tokenHash string, purpose domain.TokenPurpose, expiresAt time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET token_hash = ?, token_purpose = ?, token_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		tokenHash, string(purpose), expiresAt.UTC(), time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) ActivateAccount(ctx context.Context, accountID string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET status = ?, token_hash = NULL, token_purpose = NULL, token_expires_at = NULL, updated_at = ?
		WHERE id = ?`,
		string(domain.StatusActive), time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) SetPasswordAndClearToken(ctx context.Context, accountID, newHash string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET password_hash = ?, token_hash = NULL, token_purpose = NULL, token_expires_at = NULL, updated_at = ?
		WHERE id = ?`,
		newHash, time.Now().UTC(), accountID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *accountsRepo) AdoptFederatedIdentity(ctx context.Context, accountID string, provider domain.Provider, subject string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET provider = ?, provider_subject = ?, password_hash = '', status = ?,
			token_hash = NULL, token_purpose = NULL, token_expires_at = NULL, updated_at = ?
		WHERE id = ?`,
		string(provider), subject, string(domain.StatusActive), time.Now().UTC(), accountID)
	if err != nil {
		return mapConstraint(err)
	}
	return requireRow(res)
}

// requireRow translates "no rows updated" into ErrNotFound so callers can
// tell a vanished account from a silent no-op.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var (
		a               domain.Account
		status          string
		provider        string
		providerSubject sql.NullString
		tokenHash       sql.NullString
		tokenPurpose    sql.NullString
		tokenExpiresAt  sql.NullTime
	)

	err := row.Scan(
		&a.ID, &a.Email, &a.Username, &a.PasswordHash, &status, &provider,
		&providerSubject, &tokenHash, &tokenPurpose, &tokenExpiresAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.Status = domain.AccountStatus(status)
	a.Provider = domain.Provider(provider)
	a.ProviderSubject = mapNullStringPtr(providerSubject)
	a.TokenHash = mapNullStringPtr(tokenHash)
	if tokenPurpose.Valid {
		p := domain.TokenPurpose(tokenPurpose.String)
		a.TokenPurpose = &p
	}
	a.TokenExpiresAt = mapNullTimePtr(tokenExpiresAt)
	return a, nil
}
