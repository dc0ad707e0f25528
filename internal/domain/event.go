package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a committed schedule change.
// The kind doubles as the suffix of the message subject it is published on.
type EventKind string

const (
	EventStopCreated      EventKind = "stop.created"
	EventStopDeleted      EventKind = "stop.deleted"
	EventDepartureCreated EventKind = "departure.created"
	EventDepartureDeleted EventKind = "departure.deleted"
	EventScheduleImported EventKind = "schedule.imported"
)

// Event describes a schedule change after its transaction has committed.
// DepartureID is set only for departure events; Count carries rows affected
// (departures inserted for imports, departures removed for stop deletes).
type Event struct {
	Kind        EventKind
	StopID      uuid.UUID
	StopName    string
	DepartureID *uuid.UUID
	Count       int64
	OccurredAt  time.Time
}
