package postgres

import (
	"context"
	"database/sql"

	"github.com/webster-hq/webster/internal/core/ports"
)

// Store vends repositories bound either to the pool or to one transaction.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Members() ports.MemberRepository             { return NewMemberRepository(s.db) }
func (s *Store) Operators() ports.OperatorRepository         { return NewOperatorRepository(s.db) }
func (s *Store) Registrations() ports.RegistrationRepository { return NewRegistrationRepository(s.db) }
func (s *Store) Content() ports.ContentRepository            { return NewContentRepository(s.db) }

// WithinTx runs fn with repositories sharing one transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(uow ports.UnitOfWork) error) error {
	return WithTx(ctx, s.db, nil, func(ctx context.Context, tx DBTX) error {
		return fn(txUnit{tx: tx})
	})
}

// Ping reports whether the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

type txUnit struct {
	tx DBTX
}

func (u txUnit) Members() ports.MemberRepository             { return NewMemberRepository(u.tx) }
func (u txUnit) Operators() ports.OperatorRepository         { return NewOperatorRepository(u.tx) }
func (u txUnit) Registrations() ports.RegistrationRepository { return NewRegistrationRepository(u.tx) }
func (u txUnit) Content() ports.ContentRepository            { return NewContentRepository(u.tx) }
