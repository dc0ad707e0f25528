package domain

import (
	"time"

	"github.com/google/uuid"
)

// DayType partitions a stop's timetable into weekday and weekend services.
type DayType string

const (
	DayTypeWeekday DayType = "weekday"
	DayTypeWeekend DayType = "weekend"
)

// DayTypes lists every valid DayType in storage order.
var DayTypes = []DayType{DayTypeWeekday, DayTypeWeekend}

// Valid reports whether d is one of the known day types.
func (d DayType) Valid() bool {
	return d == DayTypeWeekday || d == DayTypeWeekend
}

// OrDefault returns d, or DayTypeWeekday when d is empty.
// Rows written before day types existed are weekday rows.
func (d DayType) OrDefault() DayType {
	if d == "" {
		return DayTypeWeekday
	}
	return d
}

// DayTypeOf returns the day type the given moment falls on.
func DayTypeOf(t time.Time) DayType {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return DayTypeWeekend
	default:
		return DayTypeWeekday
	}
}

// Departure is a single scheduled departure from a stop.
//
// Time is a local wall-clock "HH:MM" string. Annotation holds the marker
// letters a printed timetable attached to the time (e.g. "A" in "12:20A");
// it is empty for ordinary runs. StopName is filled by read queries that
// join the owning stop and is ignored on write.
type Departure struct {
	ID         uuid.UUID
	StopID     uuid.UUID
	StopName   string
	Time       string
	DayType    DayType
	Annotation string
	CreatedAt  time.Time
}

// DefaultNextLimit is how many upcoming departures a stop board shows.
const DefaultNextLimit = 3

// NextQuery selects the upcoming departures for one stop.
// Clock is the caller's current wall-clock time as "HH:MM".
// A zero Limit means DefaultNextLimit.
type NextQuery struct {
	StopID  uuid.UUID
	Clock   string
	DayType DayType
	Limit   int
}
