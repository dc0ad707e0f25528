package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tornimae/busboard/internal/domain"
	"github.com/tornimae/busboard/internal/repo"
)

// ImportMetrics records import outcomes. *metrics.Collector satisfies it.
type ImportMetrics interface {
	ImportObserved(ok bool, inserted int64)
}

// ImportService replaces a stop's whole timetable from a normalized plan.
type ImportService struct {
	tx      repo.Transactor
	events  EventPublisher
	metrics ImportMetrics
	now     clock
}

// NewImportService constructs an ImportService. events and m may be nil.
func NewImportService(tx repo.Transactor, events EventPublisher, m ImportMetrics) *ImportService {
	return &ImportService{tx: tx, events: events, metrics: m, now: time.Now}
}

// Import resolves the plan's stop, clears its departures and inserts the
// plan's departures, all in one transaction. Any failure rolls the whole
// import back, so a stop is never left half-populated.
//
// Returns domain.ErrNotFound when the stop does not exist and the plan does
// not ask for it to be created.
func (s *ImportService) Import(ctx context.Context, plan domain.ImportPlan) (domain.ImportResult, error) {
	res, err := s.run(ctx, plan)
	if s.metrics != nil {
		s.metrics.ImportObserved(err == nil, res.Inserted)
	}
	if err != nil {
		return domain.ImportResult{}, fmt.Errorf("service.ImportService.Import: %w", err)
	}
	notify(ctx, s.events, domain.Event{
		Kind:       domain.EventScheduleImported,
		StopID:     res.StopID,
		StopName:   res.StopName,
		Count:      res.Inserted,
		OccurredAt: s.now(),
	})
	return res, nil
}

func (s *ImportService) run(ctx context.Context, plan domain.ImportPlan) (domain.ImportResult, error) {
	name := strings.TrimSpace(plan.StopName)
	if name == "" {
		return domain.ImportResult{}, fmt.Errorf("%w: stop name is required", domain.ErrValidation)
	}
	for i, d := range plan.Departures {
		if !domain.ValidClock(d.Time) || !d.DayType.OrDefault().Valid() {
			return domain.ImportResult{}, fmt.Errorf("%w: departure %d (%s %q) is not normalized", domain.ErrValidation, i, d.DayType, d.Time)
		}
	}

	var res domain.ImportResult
	err := s.tx.InTx(ctx, func(r repo.Repos) error {
		var (
			stop domain.Stop
			err  error
		)
		// Both branches leave the stop row locked, so two imports of the same
		// stop run one after the other and the later one clears the earlier set.
		if plan.CreateStop {
			stop, err = r.Stops.Upsert(ctx, name)
		} else {
			stop, err = r.Stops.GetByNameForUpdate(ctx, name)
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("stop %q not found: %w", name, domain.ErrNotFound)
			}
		}
		if err != nil {
			return err
		}

		cleared, err := r.Departures.DeleteByStop(ctx, stop.ID)
		if err != nil {
			return fmt.Errorf("clear departures: %w", err)
		}

		rows := make([]domain.Departure, len(plan.Departures))
		for i, d := range plan.Departures {
			d.StopID = stop.ID
			d.DayType = d.DayType.OrDefault()
			rows[i] = d
		}
		inserted, err := r.Departures.CreateBatch(ctx, rows)
		if err != nil {
			return fmt.Errorf("insert departures: %w", err)
		}

		res = domain.ImportResult{
			StopID:   stop.ID,
			StopName: stop.Name,
			Cleared:  cleared,
			Inserted: inserted,
			Skipped:  plan.Skipped,
		}
		return nil
	})
	if err != nil {
		return domain.ImportResult{}, err
	}
	return res, nil
}
