package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tornimae/busboard/internal/domain"
)

// StopRepo defines the persistence operations for Stops.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested with a mock.
type StopRepo interface {
	// Create inserts a new stop and returns the persisted record.
	// Returns domain.ErrValidation if a stop with the same name exists.
	Create(ctx context.Context, name string) (domain.Stop, error)

	// Upsert inserts a stop by name, or returns the existing stop if the name
	// is already taken.
	Upsert(ctx context.Context, name string) (domain.Stop, error)

	// GetByID retrieves a single stop by its UUID.
	// Returns domain.ErrNotFound if no stop with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Stop, error)

	// GetByName retrieves a single stop by its exact name.
	// Returns domain.ErrNotFound if no stop has that name.
	GetByName(ctx context.Context, name string) (domain.Stop, error)

	// GetByIDForUpdate is GetByID that also row-locks the stop until the
	// surrounding transaction ends. Concurrent writers to the same stop's
	// timetable queue behind it.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Stop, error)

	// GetByNameForUpdate is GetByName with the same row lock.
	GetByNameForUpdate(ctx context.Context, name string) (domain.Stop, error)

	// List returns all stops in insertion order.
	List(ctx context.Context) ([]domain.Stop, error)

	// Delete removes a stop by ID and returns the number of rows removed.
	// Departures are not touched; callers delete them in the same transaction.
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
}

// pgStopRepo is the Postgres implementation of StopRepo.
type pgStopRepo struct {
	db db
}

// NewStopRepo constructs a StopRepo backed by the provided db connection.
func NewStopRepo(db db) StopRepo {
	return &pgStopRepo{db: db}
}

// Create inserts a new stop row. A unique violation on name is reported as
// a validation error rather than a storage failure.
func (r *pgStopRepo) Create(ctx context.Context, name string) (domain.Stop, error) {
	const q = `
		INSERT INTO stops (name)
		VALUES (@name)
		RETURNING id, name, created_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name})
	result, err := scanStop(row)
	if err != nil {
		if pgErrorCode(err) == uniqueViolation {
			return domain.Stop{}, fmt.Errorf("repo.StopRepo.Create: %w: stop name %q already exists", domain.ErrValidation, name)
		}
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.Create: %w", err)
	}
	return result, nil
}

// Upsert inserts a stop or returns the existing row on name conflict.
// The DO UPDATE SET trick forces the RETURNING clause to fire even when
// the conflict handler skips the insert.
func (r *pgStopRepo) Upsert(ctx context.Context, name string) (domain.Stop, error) {
	const q = `
		INSERT INTO stops (name)
		VALUES (@name)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name})
	result, err := scanStop(row)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.Upsert: %w", err)
	}
	return result, nil
}

// GetByID retrieves a stop by primary key.
func (r *pgStopRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Stop, error) {
	const q = `
		SELECT id, name, created_at
		FROM stops
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanStop(row)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.GetByID: %w", err)
	}
	return result, nil
}

// GetByName retrieves a stop by its unique name.
func (r *pgStopRepo) GetByName(ctx context.Context, name string) (domain.Stop, error) {
	const q = `
		SELECT id, name, created_at
		FROM stops
		WHERE name = @name`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name})
	result, err := scanStop(row)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.GetByName: %w", err)
	}
	return result, nil
}

// GetByIDForUpdate retrieves and locks a stop by primary key.
// Outside a transaction the lock is released as soon as the statement ends.
func (r *pgStopRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Stop, error) {
	const q = `
		SELECT id, name, created_at
		FROM stops
		WHERE id = @id
		FOR UPDATE`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanStop(row)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.GetByIDForUpdate: %w", err)
	}
	return result, nil
}

// GetByNameForUpdate retrieves and locks a stop by its unique name.
func (r *pgStopRepo) GetByNameForUpdate(ctx context.Context, name string) (domain.Stop, error) {
	const q = `
		SELECT id, name, created_at
		FROM stops
		WHERE name = @name
		FOR UPDATE`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"name": name})
	result, err := scanStop(row)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("repo.StopRepo.GetByNameForUpdate: %w", err)
	}
	return result, nil
}

// List returns all stops ordered by creation time (insertion order).
func (r *pgStopRepo) List(ctx context.Context) ([]domain.Stop, error) {
	const q = `
		SELECT id, name, created_at
		FROM stops
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.StopRepo.List: %w", err)
	}
	defer rows.Close()

	stops := []domain.Stop{}
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.StopRepo.List: scan: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StopRepo.List: rows: %w", err)
	}
	return stops, nil
}

// Delete removes a stop by primary key. Zero rows affected is not an error.
func (r *pgStopRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	const q = `DELETE FROM stops WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return 0, fmt.Errorf("repo.StopRepo.Delete: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanStop maps a single database row into a domain.Stop.
func scanStop(s scanner) (domain.Stop, error) {
	var (
		st domain.Stop
		id pgtype.UUID
	)
	err := s.Scan(&id, &st.Name, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Stop{}, domain.ErrNotFound
		}
		return domain.Stop{}, err
	}
	st.ID = uuid.UUID(id.Bytes)
	return st, nil
}
