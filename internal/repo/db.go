// Package repo contains all database access logic for the bus schedule service.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// beginner is a db that can also open a transaction. *pgxpool.Pool opens a
// real transaction; pgx.Tx opens a savepoint, which is what tests rely on.
type beginner interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repos bundles the repositories bound to one connection or transaction.
type Repos struct {
	Stops      StopRepo
	Departures DepartureRepo
}

// Transactor runs a unit of work atomically.
// The service layer depends on this interface so multi-step operations
// (cascading deletes, full-replace imports) can be unit-tested with a fake.
type Transactor interface {
	// InTx calls fn with repos bound to a single transaction. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Repos) error) error
}

// Store is the Postgres-backed Transactor.
type Store struct {
	db beginner
}

// NewStore constructs a Store over the provided connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStore(db beginner) *Store {
	return &Store{db: db}
}

// Repos returns repositories that run outside any explicit transaction.
func (s *Store) Repos() Repos {
	return newRepos(s.db)
}

// InTx implements Transactor using pgx.BeginFunc.
func (s *Store) InTx(ctx context.Context, fn func(Repos) error) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(newRepos(tx))
	})
	if err != nil {
		return fmt.Errorf("repo.Store.InTx: %w", err)
	}
	return nil
}

func newRepos(db db) Repos {
	return Repos{
		Stops:      NewStopRepo(db),
		Departures: NewDepartureRepo(db),
	}
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// Postgres SQLSTATE codes the repo translates into domain errors.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// pgErrorCode returns the SQLSTATE of err, or "" if err is not a Postgres error.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
