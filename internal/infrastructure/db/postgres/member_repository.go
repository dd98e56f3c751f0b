package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/webster-hq/webster/internal/core/domain"
)

const memberColumns = `id, email, credential_hash, verification_token, verification_issued_at,
	verified, session_token, session_issued_at, created_at, last_login`

type MemberRepository struct {
	db DBTX
}

func NewMemberRepository(db DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Create(ctx context.Context, acct *domain.MemberAccount) (*domain.MemberAccount, error) {
	query :=
		`INSERT INTO member_accounts (email, credential_hash, verification_token, verification_issued_at, verified, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`

	created := *acct
	err := r.db.QueryRowContext(ctx, query,
		acct.Email, acct.CredentialHash, nullString(acct.VerificationToken),
		nullTime(acct.VerificationIssuedAt), acct.Verified, acct.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAccountExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}

func (r *MemberRepository) FindByEmail(ctx context.Context, email string) (*domain.MemberAccount, error) {
	query := `SELECT ` + memberColumns + ` FROM member_accounts WHERE email = $1`
	return scanMember(r.db.QueryRowContext(ctx, query, email))
}

func (r *MemberRepository) SetSession(ctx context.Context, email, token string, issuedAt time.Time) error {
	query :=
		`UPDATE member_accounts
		 SET session_token = $2, session_issued_at = $3, last_login = $3
		 WHERE email = $1`

	res, err := r.db.ExecContext(ctx, query, email, token, issuedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res, domain.ErrAccountNotFound)
}

func (r *MemberRepository) FindBySession(ctx context.Context, token string, cutoff time.Time) (*domain.MemberAccount, error) {
	query := `SELECT ` + memberColumns + ` FROM member_accounts
		 WHERE session_token = $1 AND session_issued_at > $2 AND verified = TRUE`
	return scanMember(r.db.QueryRowContext(ctx, query, token, cutoff))
}

func (r *MemberRepository) MarkVerified(ctx context.Context, token string, cutoff time.Time) (int64, error) {
	query :=
		`UPDATE member_accounts SET verified = TRUE
		 WHERE verification_token = $1 AND verified = FALSE AND verification_issued_at > $2`

	res, err := r.db.ExecContext(ctx, query, token, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func scanMember(row *sql.Row) (*domain.MemberAccount, error) {
	var (
		m                              domain.MemberAccount
		verifyToken, sessionToken      sql.NullString
		verifyAt, sessionAt, lastLogin sql.NullTime
	)
	err := row.Scan(&m.ID, &m.Email, &m.CredentialHash, &verifyToken, &verifyAt,
		&m.Verified, &sessionToken, &sessionAt, &m.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	m.VerificationToken = verifyToken.String
	m.VerificationIssuedAt = verifyAt.Time
	m.SessionToken = sessionToken.String
	m.SessionIssuedAt = sessionAt.Time
	m.LastLogin = lastLogin.Time
	return &m, nil
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
