package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/webster-hq/webster/internal/core/domain"
)

// submissionLockKey is the advisory lock serialising duplicate scans.
const submissionLockKey int64 = 0x77656273

const registrationColumns = `id, identifier, contact_handle, secondary_contact, email, category,
	status, decided_by, decision_reason, decided_at, created_at`

type scanner interface {
	Scan(dest ...any) error
}

type RegistrationRepository struct {
	db DBTX
}

func NewRegistrationRepository(db DBTX) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// LockSubmissions takes a transaction-scoped advisory lock. Outside a
// transaction the lock is released as soon as the statement ends.
func (r *RegistrationRepository) LockSubmissions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, submissionLockKey); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) FindDuplicate(ctx context.Context, id domain.Identifier, contact, email string) (*domain.RegistrationRequest, error) {
	query := `SELECT ` + registrationColumns + ` FROM registration_requests
		 WHERE LOWER(identifier) = LOWER($1) OR LOWER(contact_handle) = LOWER($2) OR LOWER(email) = LOWER($3)
		 ORDER BY id
		 LIMIT 1`

	req, err := scanRegistration(r.db.QueryRowContext(ctx, query, string(id), contact, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

func (r *RegistrationRepository) Create(ctx context.Context, req *domain.RegistrationRequest) (*domain.RegistrationRequest, error) {
	query :=
		`INSERT INTO registration_requests (identifier, contact_handle, secondary_contact, email, category, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`

	created := *req
	err := r.db.QueryRowContext(ctx, query,
		string(req.Identifier), req.ContactHandle, req.SecondaryContact, req.Email,
		req.Category, string(req.Status), req.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}

func (r *RegistrationRepository) FindPendingByHandles(ctx context.Context, handles []string) ([]*domain.RegistrationRequest, error) {
	if len(handles) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(handles))
	args := make([]any, len(handles))
	for i, h := range handles {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = strings.ToLower(strings.TrimSpace(h))
	}
	in := strings.Join(placeholders, ", ")

	query := `SELECT ` + registrationColumns + ` FROM registration_requests
		 WHERE status = 'pending'
		   AND (LOWER(TRIM(split_part(identifier, '[]', 1))) IN (` + in + `)
		     OR LOWER(TRIM(split_part(identifier, '[]', 2))) IN (` + in + `))
		 ORDER BY id
		 FOR UPDATE`

	return r.query(ctx, query, args...)
}

func (r *RegistrationRepository) FindPendingByIdentifier(ctx context.Context, id domain.Identifier) (*domain.RegistrationRequest, error) {
	query := `SELECT ` + registrationColumns + ` FROM registration_requests
		 WHERE status = 'pending' AND identifier = $1
		 ORDER BY id
		 LIMIT 1
		 FOR UPDATE`

	req, err := scanRegistration(r.db.QueryRowContext(ctx, query, string(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return req, nil
}

func (r *RegistrationRepository) SaveDecision(ctx context.Context, req *domain.RegistrationRequest) error {
	query :=
		`UPDATE registration_requests
		 SET status = $2, decided_by = $3, decision_reason = $4, decided_at = $5
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		req.ID, string(req.Status), nullString(req.DecisionActor),
		nullString(req.DecisionReason), nullTime(req.DecidedAt),
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res, domain.ErrRegistrationNotFound)
}

func (r *RegistrationRepository) List(ctx context.Context, filter domain.StatusFilter) ([]*domain.RegistrationRequest, error) {
	if status, ok := filter.Status(); ok {
		query := `SELECT ` + registrationColumns + ` FROM registration_requests WHERE status = $1 ORDER BY id`
		return r.query(ctx, query, string(status))
	}
	return r.query(ctx, `SELECT `+registrationColumns+` FROM registration_requests ORDER BY id`)
}

func (r *RegistrationRepository) query(ctx context.Context, query string, args ...any) ([]*domain.RegistrationRequest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := []*domain.RegistrationRequest{}
	for rows.Next() {
		req, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func scanRegistration(s scanner) (*domain.RegistrationRequest, error) {
	var (
		req               domain.RegistrationRequest
		identifier        string
		status            string
		decidedBy, reason sql.NullString
		decidedAt         sql.NullTime
	)
	err := s.Scan(&req.ID, &identifier, &req.ContactHandle, &req.SecondaryContact, &req.Email,
		&req.Category, &status, &decidedBy, &reason, &decidedAt, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	if req.Status, err = domain.ParseRegistrationStatus(status); err != nil {
		return nil, err
	}
	req.Identifier = domain.Identifier(identifier)
	req.DecisionActor = decidedBy.String
	req.DecisionReason = reason.String
	req.DecidedAt = decidedAt.Time
	return &req, nil
}
