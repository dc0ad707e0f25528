package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tornimae/busboard/internal/domain"
	"github.com/tornimae/busboard/internal/repo"
)

// StopService implements business logic for Stop operations.
// It needs the transactor because deleting a stop also deletes its
// departures as one unit of work.
type StopService struct {
	stops  repo.StopRepo
	tx     repo.Transactor
	events EventPublisher
	now    clock
}

// NewStopService constructs a StopService. events may be nil.
func NewStopService(stops repo.StopRepo, tx repo.Transactor, events EventPublisher) *StopService {
	return &StopService{stops: stops, tx: tx, events: events, now: time.Now}
}

// Create validates the name and persists a new stop.
// Returns domain.ErrValidation if the name is blank or already taken.
func (s *StopService) Create(ctx context.Context, name string) (domain.Stop, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Stop{}, fmt.Errorf("service.StopService.Create: %w: name is required", domain.ErrValidation)
	}
	stop, err := s.stops.Create(ctx, name)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("service.StopService.Create: %w", err)
	}
	notify(ctx, s.events, domain.Event{
		Kind:       domain.EventStopCreated,
		StopID:     stop.ID,
		StopName:   stop.Name,
		OccurredAt: s.now(),
	})
	return stop, nil
}

// GetByID returns a single stop.
// Returns domain.ErrNotFound if no stop with that ID exists.
func (s *StopService) GetByID(ctx context.Context, id uuid.UUID) (domain.Stop, error) {
	stop, err := s.stops.GetByID(ctx, id)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("service.StopService.GetByID: %w", err)
	}
	return stop, nil
}

// List returns all stops in insertion order.
// Always returns a non-nil slice so callers can safely range over it.
func (s *StopService) List(ctx context.Context) ([]domain.Stop, error) {
	stops, err := s.stops.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.StopService.List: %w", err)
	}
	if stops == nil {
		return []domain.Stop{}, nil
	}
	return stops, nil
}

// Delete removes a stop and all of its departures in one transaction.
// A missing stop is not an error; the returned counts are then zero.
func (s *StopService) Delete(ctx context.Context, id uuid.UUID) (domain.StopDeletion, error) {
	var (
		res  domain.StopDeletion
		stop domain.Stop
	)
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var err error
		stop, err = r.Stops.GetByIDForUpdate(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if res.Departures, err = r.Departures.DeleteByStop(ctx, id); err != nil {
			return err
		}
		res.Stops, err = r.Stops.Delete(ctx, id)
		return err
	})
	if err != nil {
		return domain.StopDeletion{}, fmt.Errorf("service.StopService.Delete: %w", err)
	}
	if res.Stops > 0 {
		notify(ctx, s.events, domain.Event{
			Kind:       domain.EventStopDeleted,
			StopID:     id,
			StopName:   stop.Name,
			Count:      res.Departures,
			OccurredAt: s.now(),
		})
	}
	return res, nil
}
