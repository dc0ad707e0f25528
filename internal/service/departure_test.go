package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tornimae/busboard/internal/domain"
	"github.com/tornimae/busboard/internal/service"
)

func newDepartureService(m *memStore, p service.EventPublisher) *service.DepartureService {
	r := m.Repos()
	return service.NewDepartureService(r.Stops, r.Departures, p, 3)
}

func timesOf(deps []domain.Departure) []string {
	out := make([]string, len(deps))
	for i, d := range deps {
		out[i] = d.Time
	}
	return out
}

// ---- Create ----------------------------------------------------------------

func TestDepartureService_Create_OK(t *testing.T) {
	m := newMemStore()
	stop := m.seedStop("Tuule")
	pub := &recordingPublisher{}
	svc := newDepartureService(m, pub)

	got, err := svc.Create(context.Background(), domain.Departure{StopID: stop.ID, Time: "07:26"})

	require.NoError(t, err)
	assert.Equal(t, "07:26", got.Time)
	assert.Equal(t, domain.DayTypeWeekday, got.DayType, "day type defaults to weekday")
	assert.Equal(t, "Tuule", got.StopName)
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventDepartureCreated, pub.events[0].Kind)
	require.NotNil(t, pub.events[0].DepartureID)
	assert.Equal(t, got.ID, *pub.events[0].DepartureID)
}

func TestDepartureService_Create_Validation(t *testing.T) {
	m := newMemStore()
	stop := m.seedStop("Tuule")
	svc := newDepartureService(m, nil)

	cases := []struct {
		name  string
		dep   domain.Departure
		field string
	}{
		{"hour out of range", domain.Departure{StopID: stop.ID, Time: "25:00"}, "departure_time"},
		{"not zero padded", domain.Departure{StopID: stop.ID, Time: "9:5"}, "departure_time"},
		{"annotated time", domain.Departure{StopID: stop.ID, Time: "12:20A"}, "departure_time"},
		{"empty time", domain.Departure{StopID: stop.ID}, "departure_time"},
		{"missing stop id", domain.Departure{Time: "10:00"}, "stop_id"},
		{"bad day type", domain.Departure{StopID: stop.ID, Time: "10:00", DayType: "holiday"}, "day_type"},
		{"bad annotation", domain.Departure{StopID: stop.ID, Time: "10:00", Annotation: "A1"}, "annotation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.dep)

			require.ErrorIs(t, err, domain.ErrValidation)
			assert.ErrorContains(t, err, tc.field)
		})
	}
	assert.Empty(t, m.departuresOf(stop.ID))
}

func TestDepartureService_Create_UnknownStop(t *testing.T) {
	svc := newDepartureService(newMemStore(), nil)

	_, err := svc.Create(context.Background(), domain.Departure{StopID: uuid.New(), Time: "10:00"})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Delete ----------------------------------------------------------------

func TestDepartureService_Delete(t *testing.T) {
	m := newMemStore()
	stop := m.seedStop("Tuule")
	pub := &recordingPublisher{}
	svc := newDepartureService(m, pub)
	dep, err := svc.Create(context.Background(), domain.Departure{StopID: stop.ID, Time: "10:00"})
	require.NoError(t, err)

	n, err := svc.Delete(context.Background(), dep.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = svc.Delete(context.Background(), dep.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n, "deleting again is not an error")

	assert.Equal(t, []domain.EventKind{domain.EventDepartureCreated, domain.EventDepartureDeleted}, pub.kinds())
}

// ---- ListByStop ------------------------------------------------------------

func TestDepartureService_ListByStop(t *testing.T) {
	m := newMemStore()
	stop := m.seedStop("Lehmja")
	m.seedDepartures(stop.ID, domain.DayTypeWeekend, "19:09", "07:34")
	m.seedDepartures(stop.ID, domain.DayTypeWeekday, "08:41", "06:05")
	svc := newDepartureService(m, nil)

	all, err := svc.ListByStop(context.Background(), stop.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"06:05", "08:41", "07:34", "19:09"}, timesOf(all))

	weekend := domain.DayTypeWeekend
	we, err := svc.ListByStop(context.Background(), stop.ID, &weekend)
	require.NoError(t, err)
	assert.Equal(t, []string{"07:34", "19:09"}, timesOf(we))
}

func TestDepartureService_ListByStop_InvalidDayType(t *testing.T) {
	svc := newDepartureService(newMemStore(), nil)
	bad := domain.DayType("holiday")

	_, err := svc.ListByStop(context.Background(), uuid.New(), &bad)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- Next ------------------------------------------------------------------

func TestDepartureService_Next(t *testing.T) {
	m := newMemStore()
	stop := m.seedStop("Lehmja")
	m.seedDepartures(stop.ID, domain.DayTypeWeekday, "14:00", "08:00", "10:30", "09:00")
	m.seedDepartures(stop.ID, domain.DayTypeWeekend, "09:30")
	svc := newDepartureService(m, nil)

	got, err := svc.Next(context.Background(), domain.NextQuery{
		StopID:  stop.ID,
		Clock:   "09:00",
		DayType: domain.DayTypeWeekday,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:30", "14:00"}, timesOf(got))
	assert.Equal(t, "Lehmja", got[0].StopName)
}

func TestDepartureService_Next_NoWrapAround(t *testing.T) {
	m := newMemStore()
	stop := m.seedStop("Lehmja")
	m.seedDepartures(stop.ID, domain.DayTypeWeekday, "06:05", "19:04")
	svc := newDepartureService(m, nil)

	got, err := svc.Next(context.Background(), domain.NextQuery{StopID: stop.ID, Clock: "23:00"})

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDepartureService_Next_UnknownStopIsEmpty(t *testing.T) {
	svc := newDepartureService(newMemStore(), nil)

	got, err := svc.Next(context.Background(), domain.NextQuery{StopID: uuid.New(), Clock: "09:00"})

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDepartureService_Next_Validation(t *testing.T) {
	svc := newDepartureService(newMemStore(), nil)

	for _, q := range []domain.NextQuery{
		{StopID: uuid.New(), Clock: "9:00"},
		{StopID: uuid.New(), Clock: "09:00", DayType: "holiday"},
		{StopID: uuid.New(), Clock: "09:00", Limit: -1},
		{StopID: uuid.New(), Clock: "09:00", Limit: service.MaxNextLimit + 1},
	} {
		_, err := svc.Next(context.Background(), q)
		assert.ErrorIs(t, err, domain.ErrValidation, "%+v", q)
	}
}

func TestDepartureService_Next_CustomLimit(t *testing.T) {
	m := newMemStore()
	stop := m.seedStop("Lehmja")
	m.seedDepartures(stop.ID, domain.DayTypeWeekday, "10:00", "11:00", "12:00", "13:00", "14:00")
	svc := newDepartureService(m, nil)

	got, err := svc.Next(context.Background(), domain.NextQuery{StopID: stop.ID, Clock: "00:00", Limit: 5})

	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestNewDepartureService_LimitFallsBackToDefault(t *testing.T) {
	m := newMemStore()
	stop := m.seedStop("Lehmja")
	m.seedDepartures(stop.ID, domain.DayTypeWeekday, "10:00", "11:00", "12:00", "13:00")
	r := m.Repos()
	svc := service.NewDepartureService(r.Stops, r.Departures, nil, 0)

	got, err := svc.Next(context.Background(), domain.NextQuery{StopID: stop.ID, Clock: "00:00"})

	require.NoError(t, err)
	assert.Len(t, got, domain.DefaultNextLimit)
}
