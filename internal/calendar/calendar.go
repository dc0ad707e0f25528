// Package calendar renders a stop's timetable as an iCalendar feed so riders
// can subscribe to departures from a calendar app.
package calendar

import (
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/tornimae/busboard/internal/domain"
)

const productID = "-//busboard//departures//EN"

// eventLength is the nominal duration of a departure event.
const eventLength = 5 * time.Minute

var byDay = map[domain.DayType]string{
	domain.DayTypeWeekday: "MO,TU,WE,TH,FR",
	domain.DayTypeWeekend: "SA,SU",
}

// floatingFormat is an iCalendar local date-time without a zone suffix.
const floatingFormat = "20060102T150405"

// Write serializes deps as one weekly recurring event each.
//
// Every event starts on the first day matching its day type on or after
// from's date, at the departure's wall-clock time in from's location.
// Holidays are not modelled.
func Write(w io.Writer, stop domain.Stop, deps []domain.Departure, from time.Time) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(stop.Name)

	for _, d := range deps {
		start, err := firstOccurrence(d, from)
		if err != nil {
			return fmt.Errorf("calendar.Write: departure %s: %w", d.ID, err)
		}

		ev := cal.AddEvent(d.ID.String() + "@busboard")
		ev.SetDtStampTime(from)
		setTime(ev, ics.ComponentPropertyDtStart, start)
		setTime(ev, ics.ComponentPropertyDtEnd, start.Add(eventLength))
		ev.SetSummary(summary(stop.Name, d))
		ev.SetLocation(stop.Name)
		ev.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY;BYDAY="+byDay[d.DayType.OrDefault()])
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("calendar.Write: %w", err)
	}
	return nil
}

// setTime writes t in its own zone so RRULE's BYDAY days are counted in the
// same zone the departure runs in. Converting to UTC would move late
// departures onto the next day. time.Local has no IANA name to put in TZID,
// so it is written as floating time.
func setTime(ev *ics.VEvent, prop ics.ComponentProperty, t time.Time) {
	switch loc := t.Location(); loc {
	case time.UTC:
		ev.SetProperty(prop, t.Format(floatingFormat+"Z"))
	case time.Local:
		ev.SetProperty(prop, t.Format(floatingFormat))
	default:
		ev.SetProperty(prop, t.Format(floatingFormat), ics.WithTZID(loc.String()))
	}
}

// firstOccurrence finds the first date on or after from that belongs to d's
// day type and places d's time on it.
func firstOccurrence(d domain.Departure, from time.Time) (time.Time, error) {
	clock, err := time.Parse("15:04", d.Time)
	if err != nil {
		return time.Time{}, err
	}
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for domain.DayTypeOf(day) != d.DayType.OrDefault() {
		day = day.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, from.Location()), nil
}

func summary(stopName string, d domain.Departure) string {
	s := fmt.Sprintf("Bus %s from %s", d.Time, stopName)
	if d.Annotation != "" {
		s += " (" + d.Annotation + ")"
	}
	return s
}
