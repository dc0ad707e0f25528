package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tornimae/busboard/internal/domain"
	"github.com/tornimae/busboard/internal/repo"
	"github.com/tornimae/busboard/internal/timetable"
)

// MaxNextLimit caps how many upcoming departures one query may ask for.
const MaxNextLimit = 50

// DepartureService implements the departure query engine and departure
// mutations.
type DepartureService struct {
	stops      repo.StopRepo
	departures repo.DepartureRepo
	events     EventPublisher
	limit      int
	now        clock
}

// NewDepartureService constructs a DepartureService. nextLimit is the number
// of upcoming departures returned when a query does not set one; values
// outside 1..MaxNextLimit fall back to domain.DefaultNextLimit.
func NewDepartureService(stops repo.StopRepo, departures repo.DepartureRepo, events EventPublisher, nextLimit int) *DepartureService {
	if nextLimit < 1 || nextLimit > MaxNextLimit {
		nextLimit = domain.DefaultNextLimit
	}
	return &DepartureService{
		stops:      stops,
		departures: departures,
		events:     events,
		limit:      nextLimit,
		now:        time.Now,
	}
}

// Create validates and persists a new departure.
// Returns domain.ErrValidation naming the offending field, or
// domain.ErrNotFound if the stop does not exist.
func (s *DepartureService) Create(ctx context.Context, dep domain.Departure) (domain.Departure, error) {
	dep.DayType = dep.DayType.OrDefault()
	if err := validateDeparture(dep); err != nil {
		return domain.Departure{}, fmt.Errorf("service.DepartureService.Create: %w", err)
	}
	if _, err := s.stops.GetByID(ctx, dep.StopID); err != nil {
		return domain.Departure{}, fmt.Errorf("service.DepartureService.Create: %w", err)
	}
	created, err := s.departures.Create(ctx, dep)
	if err != nil {
		return domain.Departure{}, fmt.Errorf("service.DepartureService.Create: %w", err)
	}
	id := created.ID
	notify(ctx, s.events, domain.Event{
		Kind:        domain.EventDepartureCreated,
		StopID:      created.StopID,
		StopName:    created.StopName,
		DepartureID: &id,
		OccurredAt:  s.now(),
	})
	return created, nil
}

// Delete removes a departure and returns rows affected (0 or 1).
// Deleting an unknown ID is not an error.
func (s *DepartureService) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	dep, err := s.departures.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("service.DepartureService.Delete: %w", err)
	}
	n, err := s.departures.Delete(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("service.DepartureService.Delete: %w", err)
	}
	if n > 0 {
		notify(ctx, s.events, domain.Event{
			Kind:        domain.EventDepartureDeleted,
			StopID:      dep.StopID,
			StopName:    dep.StopName,
			DepartureID: &id,
			Count:       n,
			OccurredAt:  s.now(),
		})
	}
	return n, nil
}

// ListByStop returns every departure of a stop ordered by day type, then
// time. A nil dayType lists both day types. Unknown stops yield an empty list.
func (s *DepartureService) ListByStop(ctx context.Context, stopID uuid.UUID, dayType *domain.DayType) ([]domain.Departure, error) {
	if dayType != nil && !dayType.Valid() {
		return nil, fmt.Errorf("service.DepartureService.ListByStop: %w: day_type must be one of weekday, weekend", domain.ErrValidation)
	}
	deps, err := s.departures.ListByStop(ctx, stopID, dayType)
	if err != nil {
		return nil, fmt.Errorf("service.DepartureService.ListByStop: %w", err)
	}
	if deps == nil {
		return []domain.Departure{}, nil
	}
	return deps, nil
}

// Next returns the upcoming departures selected by q.
// An unknown stop yields an empty result rather than an error.
func (s *DepartureService) Next(ctx context.Context, q domain.NextQuery) ([]domain.Departure, error) {
	if !domain.ValidClock(q.Clock) {
		return nil, fmt.Errorf("service.DepartureService.Next: %w: at must be in format HH:MM", domain.ErrValidation)
	}
	q.DayType = q.DayType.OrDefault()
	if !q.DayType.Valid() {
		return nil, fmt.Errorf("service.DepartureService.Next: %w: day_type must be one of weekday, weekend", domain.ErrValidation)
	}
	if q.Limit == 0 {
		q.Limit = s.limit
	}
	if q.Limit < 1 || q.Limit > MaxNextLimit {
		return nil, fmt.Errorf("service.DepartureService.Next: %w: limit must be between 1 and %d", domain.ErrValidation, MaxNextLimit)
	}

	if _, err := s.stops.GetByID(ctx, q.StopID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return []domain.Departure{}, nil
		}
		return nil, fmt.Errorf("service.DepartureService.Next: %w", err)
	}

	dayType := q.DayType
	deps, err := s.departures.ListByStop(ctx, q.StopID, &dayType)
	if err != nil {
		return nil, fmt.Errorf("service.DepartureService.Next: %w", err)
	}
	return domain.UpcomingDepartures(deps, q.Clock, q.DayType, q.Limit), nil
}

// validateDeparture enforces the rules shared by single creates and imports.
func validateDeparture(dep domain.Departure) error {
	if dep.StopID == uuid.Nil {
		return fmt.Errorf("%w: stop_id is required", domain.ErrValidation)
	}
	if !domain.ValidClock(dep.Time) {
		return fmt.Errorf("%w: departure_time must be in format HH:MM", domain.ErrValidation)
	}
	if !dep.DayType.OrDefault().Valid() {
		return fmt.Errorf("%w: day_type must be one of weekday, weekend", domain.ErrValidation)
	}
	if !timetable.ValidAnnotation(dep.Annotation) {
		return fmt.Errorf("%w: annotation must be at most 8 letters", domain.ErrValidation)
	}
	return nil
}
