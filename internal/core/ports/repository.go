package ports

import (
	"context"
	"time"

	"github.com/webster-hq/webster/internal/core/domain"
)

// MemberRepository persists member accounts. Lookups by token only return
// rows whose token was issued after cutoff.
type MemberRepository interface {
	// Create inserts a member together with its verification token. It
	// returns domain.ErrAccountExists when the email is taken.
	Create(ctx context.Context, acct *domain.MemberAccount) (*domain.MemberAccount, error)
	FindByEmail(ctx context.Context, email string) (*domain.MemberAccount, error)
	// SetSession overwrites the stored session token and records the login.
	SetSession(ctx context.Context, email, token string, issuedAt time.Time) error
	// FindBySession returns the verified member holding token.
	FindBySession(ctx context.Context, token string, cutoff time.Time) (*domain.MemberAccount, error)
	// MarkVerified flags the unverified member holding token and returns the
	// number of rows updated.
	MarkVerified(ctx context.Context, token string, cutoff time.Time) (int64, error)
}

// OperatorRepository persists operator accounts.
type OperatorRepository interface {
	// Upsert inserts an operator or, when the email exists, replaces only its
	// credential and refreshes updated_at.
	Upsert(ctx context.Context, email, credentialHash string, now time.Time) (*domain.OperatorAccount, error)
	FindByEmail(ctx context.Context, email string) (*domain.OperatorAccount, error)
	SetSession(ctx context.Context, email, token string, issuedAt time.Time) error
	FindBySession(ctx context.Context, token string, cutoff time.Time) (*domain.OperatorAccount, error)
}

// RegistrationRepository persists membership requests.
type RegistrationRepository interface {
	// LockSubmissions serialises duplicate scans until the enclosing
	// transaction ends.
	LockSubmissions(ctx context.Context) error
	// FindDuplicate returns the oldest request sharing the identifier, contact
	// handle or email (ignoring case) in any status, or
	// domain.ErrRegistrationNotFound.
	FindDuplicate(ctx context.Context, id domain.Identifier, contact, email string) (*domain.RegistrationRequest, error)
	Create(ctx context.Context, r *domain.RegistrationRequest) (*domain.RegistrationRequest, error)
	// FindPendingByHandles locks and returns pending requests, oldest first,
	// with a component equal to any of handles ignoring case.
	FindPendingByHandles(ctx context.Context, handles []string) ([]*domain.RegistrationRequest, error)
	// FindPendingByIdentifier locks and returns the oldest pending request
	// whose identifier equals id exactly.
	FindPendingByIdentifier(ctx context.Context, id domain.Identifier) (*domain.RegistrationRequest, error)
	// SaveDecision stores the status and decision fields of r.
	SaveDecision(ctx context.Context, r *domain.RegistrationRequest) error
	// List returns requests in insertion order. FilterAll returns every row.
	List(ctx context.Context, filter domain.StatusFilter) ([]*domain.RegistrationRequest, error)
}

// ContentRepository persists editable page sections.
type ContentRepository interface {
	Get(ctx context.Context, pageKey, languageCode string) ([]domain.ContentEntry, error)
	// Upsert inserts e or overwrites body, editor and modified_at of the row
	// with the same key.
	Upsert(ctx context.Context, e domain.ContentEntry) error
}

// UnitOfWork groups repositories bound to one connection or transaction.
type UnitOfWork interface {
	Members() MemberRepository
	Operators() OperatorRepository
	Registrations() RegistrationRepository
	Content() ContentRepository
}

// Store is the pooled persistence backend. WithinTx commits when fn returns
// nil and rolls back otherwise.
type Store interface {
	UnitOfWork
	WithinTx(ctx context.Context, fn func(uow UnitOfWork) error) error
}
