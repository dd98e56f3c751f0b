package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/webster-hq/webster/internal/core/domain"
)

const operatorColumns = `id, email, credential_hash, session_token, session_issued_at,
	created_at, updated_at, last_login`

type OperatorRepository struct {
	db DBTX
}

func NewOperatorRepository(db DBTX) *OperatorRepository {
	return &OperatorRepository{db: db}
}

// Upsert rotates the credential of an existing operator without touching its
// session.
func (r *OperatorRepository) Upsert(ctx context.Context, email, credentialHash string, now time.Time) (*domain.OperatorAccount, error) {
	query :=
		`INSERT INTO operator_accounts (email, credential_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $3)
		 ON CONFLICT (email) DO UPDATE
		 SET credential_hash = EXCLUDED.credential_hash, updated_at = EXCLUDED.updated_at
		 RETURNING id, created_at, updated_at`

	op := domain.OperatorAccount{Email: email, CredentialHash: credentialHash}
	err := r.db.QueryRowContext(ctx, query, email, credentialHash, now).Scan(&op.ID, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &op, nil
}

func (r *OperatorRepository) FindByEmail(ctx context.Context, email string) (*domain.OperatorAccount, error) {
	query := `SELECT ` + operatorColumns + ` FROM operator_accounts WHERE email = $1`
	return scanOperator(r.db.QueryRowContext(ctx, query, email))
}

func (r *OperatorRepository) SetSession(ctx context.Context, email, token string, issuedAt time.Time) error {
	query :=
		`UPDATE operator_accounts
		 SET session_token = $2, session_issued_at = $3, last_login = $3
		 WHERE email = $1`

	res, err := r.db.ExecContext(ctx, query, email, token, issuedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res, domain.ErrAccountNotFound)
}

func (r *OperatorRepository) FindBySession(ctx context.Context, token string, cutoff time.Time) (*domain.OperatorAccount, error) {
	query := `SELECT ` + operatorColumns + ` FROM operator_accounts
		 WHERE session_token = $1 AND session_issued_at > $2`
	return scanOperator(r.db.QueryRowContext(ctx, query, token, cutoff))
}

func scanOperator(row *sql.Row) (*domain.OperatorAccount, error) {
	var (
		op                   domain.OperatorAccount
		sessionToken         sql.NullString
		sessionAt, lastLogin sql.NullTime
	)
	err := row.Scan(&op.ID, &op.Email, &op.CredentialHash, &sessionToken, &sessionAt,
		&op.CreatedAt, &op.UpdatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	op.SessionToken = sessionToken.String
	op.SessionIssuedAt = sessionAt.Time
	op.LastLogin = lastLogin.Time
	return &op, nil
}
