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

// DepartureRepo defines the persistence operations for Departures.
type DepartureRepo interface {
	// Create inserts a departure and returns it with its stop name.
	// Returns domain.ErrNotFound if the referenced stop does not exist.
	Create(ctx context.Context, dep domain.Departure) (domain.Departure, error)

	// CreateBatch inserts all departures in one round trip and returns the
	// number of rows inserted. The first failing row aborts the batch.
	CreateBatch(ctx context.Context, deps []domain.Departure) (int64, error)

	// GetByID retrieves a single departure by its UUID.
	// Returns domain.ErrNotFound if no departure with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Departure, error)

	// ListByStop returns a stop's departures ordered by day type, then time.
	// A nil dayType returns every day type.
	ListByStop(ctx context.Context, stopID uuid.UUID, dayType *domain.DayType) ([]domain.Departure, error)

	// Delete removes one departure and returns rows affected (0 or 1).
	Delete(ctx context.Context, id uuid.UUID) (int64, error)

	// DeleteByStop removes every departure of a stop and returns rows affected.
	DeleteByStop(ctx context.Context, stopID uuid.UUID) (int64, error)
}

// pgDepartureRepo is the Postgres implementation of DepartureRepo.
type pgDepartureRepo struct {
	db db
}

// NewDepartureRepo constructs a DepartureRepo backed by the provided db connection.
func NewDepartureRepo(db db) DepartureRepo {
	return &pgDepartureRepo{db: db}
}

const insertDepartureSQL = `
	INSERT INTO departures (stop_id, departure_time, day_type, annotation)
	VALUES (@stop_id, @departure_time, @day_type, @annotation)`

func departureArgs(dep domain.Departure) pgx.NamedArgs {
	return pgx.NamedArgs{
		"stop_id":        dep.StopID,
		"departure_time": dep.Time,
		"day_type":       string(dep.DayType.OrDefault()),
		"annotation":     dep.Annotation,
	}
}

// Create inserts a departure. The CTE joins the new row back to its stop so
// the caller receives the stop name without a second query.
func (r *pgDepartureRepo) Create(ctx context.Context, dep domain.Departure) (domain.Departure, error) {
	const q = `
		WITH ins AS (` + insertDepartureSQL + `
			RETURNING id, stop_id, departure_time, day_type, annotation, created_at
		)
		SELECT ins.id, ins.stop_id, s.name, ins.departure_time, ins.day_type, ins.annotation, ins.created_at
		FROM ins
		JOIN stops s ON s.id = ins.stop_id`

	row := r.db.QueryRow(ctx, q, departureArgs(dep))
	result, err := scanDeparture(row)
	if err != nil {
		if pgErrorCode(err) == foreignKeyViolation {
			return domain.Departure{}, fmt.Errorf("repo.DepartureRepo.Create: stop %s: %w", dep.StopID, domain.ErrNotFound)
		}
		return domain.Departure{}, fmt.Errorf("repo.DepartureRepo.Create: %w", err)
	}
	return result, nil
}

// CreateBatch queues one INSERT per departure on a pgx.Batch.
func (r *pgDepartureRepo) CreateBatch(ctx context.Context, deps []domain.Departure) (int64, error) {
	if len(deps) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, d := range deps {
		b.Queue(insertDepartureSQL, departureArgs(d))
	}

	br := r.db.SendBatch(ctx, b)
	var inserted int64
	for i, d := range deps {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			if pgErrorCode(err) == foreignKeyViolation {
				return 0, fmt.Errorf("repo.DepartureRepo.CreateBatch: stop %s: %w", d.StopID, domain.ErrNotFound)
			}
			return 0, fmt.Errorf("repo.DepartureRepo.CreateBatch: row %d (%s %s): %w", i, d.DayType, d.Time, err)
		}
		inserted += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("repo.DepartureRepo.CreateBatch: close: %w", err)
	}
	return inserted, nil
}

const selectDepartureSQL = `
	SELECT d.id, d.stop_id, s.name, d.departure_time, d.day_type, d.annotation, d.created_at
	FROM departures d
	JOIN stops s ON s.id = d.stop_id`

// GetByID retrieves a departure by primary key.
func (r *pgDepartureRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Departure, error) {
	const q = selectDepartureSQL + `
		WHERE d.id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanDeparture(row)
	if err != nil {
		return domain.Departure{}, fmt.Errorf("repo.DepartureRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByStop returns a stop's departures, optionally for one day type.
// created_at breaks ties so duplicate times list in insertion order.
func (r *pgDepartureRepo) ListByStop(ctx context.Context, stopID uuid.UUID, dayType *domain.DayType) ([]domain.Departure, error) {
	const q = selectDepartureSQL + `
		WHERE d.stop_id = @stop_id
		  AND (@day_type::text IS NULL OR d.day_type = @day_type::text)
		ORDER BY d.day_type, d.departure_time, d.created_at`

	var dt *string
	if dayType != nil {
		s := string(*dayType)
		dt = &s
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"stop_id": stopID, "day_type": dt})
	if err != nil {
		return nil, fmt.Errorf("repo.DepartureRepo.ListByStop: %w", err)
	}
	defer rows.Close()

	deps := []domain.Departure{}
	for rows.Next() {
		d, err := scanDeparture(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.DepartureRepo.ListByStop: scan: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DepartureRepo.ListByStop: rows: %w", err)
	}
	return deps, nil
}

// Delete removes a departure by primary key. Zero rows affected is not an error.
func (r *pgDepartureRepo) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	const q = `DELETE FROM departures WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return 0, fmt.Errorf("repo.DepartureRepo.Delete: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteByStop removes every departure owned by stopID.
func (r *pgDepartureRepo) DeleteByStop(ctx context.Context, stopID uuid.UUID) (int64, error) {
	const q = `DELETE FROM departures WHERE stop_id = @stop_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"stop_id": stopID})
	if err != nil {
		return 0, fmt.Errorf("repo.DepartureRepo.DeleteByStop: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanDeparture maps a single database row into a domain.Departure.
func scanDeparture(s scanner) (domain.Departure, error) {
	var (
		d       domain.Departure
		id      pgtype.UUID
		stopID  pgtype.UUID
		dayType string
	)
	err := s.Scan(&id, &stopID, &d.StopName, &d.Time, &dayType, &d.Annotation, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Departure{}, domain.ErrNotFound
		}
		return domain.Departure{}, err
	}
	d.ID = uuid.UUID(id.Bytes)
	d.StopID = uuid.UUID(stopID.Bytes)
	d.DayType = domain.DayType(dayType)
	return d, nil
}
