// Package domain contains the core data types for the bus schedule service.
// Apart from uuid it has no external dependencies and is imported by every
// other internal package (repo, service, handler, timetable).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stop is a named bus stop. Name is unique across the store.
// CreatedAt is assigned by the database and defines listing order.
type Stop struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// StopDeletion reports how many rows a cascading stop delete removed.
// Both counts are zero when the stop did not exist.
type StopDeletion struct {
	Stops      int64
	Departures int64
}
