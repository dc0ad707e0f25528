package service_test

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tornimae/busboard/internal/domain"
	"github.com/tornimae/busboard/internal/repo"
)

// memStore is an in-memory stand-in for the Postgres store. It implements
// StopRepo, DepartureRepo and Transactor; InTx snapshots state and restores
// it when fn fails, which is what makes the atomicity tests meaningful.
type memStore struct {
	mu         sync.Mutex
	stops      []domain.Stop
	departures []domain.Departure
	tick       time.Time

	// failBatch, when set, is returned by CreateBatch after it has inserted
	// the first row, imitating a failure halfway through an import.
	failBatch error
	// failDeleteStop, when set, is returned by StopRepo.Delete.
	failDeleteStop error

	// locked records every stop looked up with a ForUpdate method, by name.
	locked []string
}

var (
	_ repo.StopRepo      = (*memStopRepo)(nil)
	_ repo.DepartureRepo = (*memDepartureRepo)(nil)
	_ repo.Transactor    = (*memStore)(nil)
)

func newMemStore() *memStore {
	return &memStore{tick: time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)}
}

func (m *memStore) Repos() repo.Repos {
	return repo.Repos{Stops: &memStopRepo{m}, Departures: &memDepartureRepo{m}}
}

func (m *memStore) InTx(ctx context.Context, fn func(repo.Repos) error) error {
	m.mu.Lock()
	stops := append([]domain.Stop(nil), m.stops...)
	deps := append([]domain.Departure(nil), m.departures...)
	m.mu.Unlock()

	if err := fn(m.Repos()); err != nil {
		m.mu.Lock()
		m.stops, m.departures = stops, deps
		m.mu.Unlock()
		return fmt.Errorf("memStore.InTx: %w", err)
	}
	return nil
}

func (m *memStore) lock(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked = append(m.locked, name)
}

// sortDepartures mirrors the ORDER BY of the Postgres ListByStop: day type,
// then time, insertion order for ties.
func sortDepartures(deps []domain.Departure) {
	slices.SortStableFunc(deps, func(a, b domain.Departure) int {
		if c := cmp.Compare(a.DayType.OrDefault(), b.DayType.OrDefault()); c != 0 {
			return c
		}
		return cmp.Compare(a.Time, b.Time)
	})
}

func (m *memStore) next() time.Time {
	m.tick = m.tick.Add(time.Millisecond)
	return m.tick
}

func (m *memStore) stopByID(id uuid.UUID) (domain.Stop, bool) {
	for _, s := range m.stops {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Stop{}, false
}

// seedStop inserts a stop directly, bypassing services.
func (m *memStore) seedStop(name string) domain.Stop {
	s, err := (&memStopRepo{m}).Create(context.Background(), name)
	if err != nil {
		panic(err)
	}
	return s
}

// seedDepartures inserts departures for stopID directly.
func (m *memStore) seedDepartures(stopID uuid.UUID, dayType domain.DayType, times ...string) {
	for _, tm := range times {
		if _, err := (&memDepartureRepo{m}).Create(context.Background(), domain.Departure{StopID: stopID, Time: tm, DayType: dayType}); err != nil {
			panic(err)
		}
	}
}

func (m *memStore) departuresOf(stopID uuid.UUID) []domain.Departure {
	deps, _ := (&memDepartureRepo{m}).ListByStop(context.Background(), stopID, nil)
	return deps
}

type memStopRepo struct{ m *memStore }

func (r *memStopRepo) Create(_ context.Context, name string) (domain.Stop, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.stops {
		if s.Name == name {
			return domain.Stop{}, fmt.Errorf("%w: stop name %q already exists", domain.ErrValidation, name)
		}
	}
	s := domain.Stop{ID: uuid.New(), Name: name, CreatedAt: r.m.next()}
	r.m.stops = append(r.m.stops, s)
	return s, nil
}

func (r *memStopRepo) Upsert(ctx context.Context, name string) (domain.Stop, error) {
	if s, err := r.GetByName(ctx, name); err == nil {
		return s, nil
	}
	return r.Create(ctx, name)
}

func (r *memStopRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Stop, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if s, ok := r.m.stopByID(id); ok {
		return s, nil
	}
	return domain.Stop{}, domain.ErrNotFound
}

func (r *memStopRepo) GetByName(_ context.Context, name string) (domain.Stop, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, s := range r.m.stops {
		if s.Name == name {
			return s, nil
		}
	}
	return domain.Stop{}, domain.ErrNotFound
}

func (r *memStopRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (domain.Stop, error) {
	s, err := r.GetByID(ctx, id)
	if err == nil {
		r.m.lock(s.Name)
	}
	return s, err
}

func (r *memStopRepo) GetByNameForUpdate(ctx context.Context, name string) (domain.Stop, error) {
	s, err := r.GetByName(ctx, name)
	if err == nil {
		r.m.lock(s.Name)
	}
	return s, err
}

func (r *memStopRepo) List(context.Context) ([]domain.Stop, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return append([]domain.Stop{}, r.m.stops...), nil
}

func (r *memStopRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failDeleteStop != nil {
		return 0, r.m.failDeleteStop
	}
	for i, s := range r.m.stops {
		if s.ID == id {
			r.m.stops = append(r.m.stops[:i:i], r.m.stops[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

type memDepartureRepo struct{ m *memStore }

func (r *memDepartureRepo) insert(dep domain.Departure) (domain.Departure, error) {
	stop, ok := r.m.stopByID(dep.StopID)
	if !ok {
		return domain.Departure{}, domain.ErrNotFound
	}
	dep.ID = uuid.New()
	dep.StopName = stop.Name
	dep.DayType = dep.DayType.OrDefault()
	dep.CreatedAt = r.m.next()
	r.m.departures = append(r.m.departures, dep)
	return dep, nil
}

func (r *memDepartureRepo) Create(_ context.Context, dep domain.Departure) (domain.Departure, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.insert(dep)
}

func (r *memDepartureRepo) CreateBatch(_ context.Context, deps []domain.Departure) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for _, d := range deps {
		if r.m.failBatch != nil && n == 1 {
			return 0, r.m.failBatch
		}
		if _, err := r.insert(d); err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func (r *memDepartureRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Departure, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, d := range r.m.departures {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Departure{}, domain.ErrNotFound
}

func (r *memDepartureRepo) ListByStop(_ context.Context, stopID uuid.UUID, dayType *domain.DayType) ([]domain.Departure, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []domain.Departure{}
	for _, d := range r.m.departures {
		if d.StopID != stopID {
			continue
		}
		if dayType != nil && d.DayType != *dayType {
			continue
		}
		out = append(out, d)
	}
	sortDepartures(out)
	return out, nil
}

func (r *memDepartureRepo) Delete(_ context.Context, id uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for i, d := range r.m.departures {
		if d.ID == id {
			r.m.departures = append(r.m.departures[:i:i], r.m.departures[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (r *memDepartureRepo) DeleteByStop(_ context.Context, stopID uuid.UUID) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	kept := r.m.departures[:0:0]
	var n int64
	for _, d := range r.m.departures {
		if d.StopID == stopID {
			n++
			continue
		}
		kept = append(kept, d)
	}
	r.m.departures = kept
	return n, nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) kinds() []domain.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventKind, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

var errBoom = errors.New("boom")
