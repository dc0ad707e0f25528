package domain

import "github.com/google/uuid"

// ImportPlan is a normalized timetable ready to replace a stop's departures.
// Departures carry Time, DayType and Annotation; StopID is bound at import time.
type ImportPlan struct {
	StopName   string
	CreateStop bool
	Departures []Departure
	Skipped    int
}

// ImportResult summarises a committed full-replace import.
type ImportResult struct {
	StopID   uuid.UUID
	StopName string
	Cleared  int64
	Inserted int64
	Skipped  int
}
