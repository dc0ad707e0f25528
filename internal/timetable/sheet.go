package timetable

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/tornimae/busboard/internal/domain"
)

// Sheet is one stop's transcribed timetable.
//
//	stop: Tuule
//	create: true
//	weekday: ["05:56", "07:26", "-"]
//	weekend: ["09:16", "12:20A"]
type Sheet struct {
	Stop    string   `yaml:"stop"`
	Create  bool     `yaml:"create"`
	Weekday []string `yaml:"weekday"`
	Weekend []string `yaml:"weekend"`
}

// Decode reads a single YAML sheet. Unknown keys are rejected so a typo such
// as "weekdays" cannot silently drop half a timetable.
func Decode(r io.Reader) (Sheet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Sheet
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Sheet{}, fmt.Errorf("timetable.Decode: %w: empty sheet", domain.ErrValidation)
		}
		return Sheet{}, fmt.Errorf("timetable.Decode: %w: %v", domain.ErrValidation, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return Sheet{}, fmt.Errorf("timetable.Decode: %w: only one sheet per document", domain.ErrValidation)
	}
	return s, nil
}

// Plan normalizes every token of the sheet.
//
// Placeholders are counted in Skipped. Every invalid token is reported, not
// just the first, and the result wraps domain.ErrValidation. No plan is
// returned unless the whole sheet is valid.
func (s Sheet) Plan() (domain.ImportPlan, error) {
	name := strings.TrimSpace(s.Stop)
	if name == "" {
		return domain.ImportPlan{}, fmt.Errorf("timetable.Sheet.Plan: %w: stop is required", domain.ErrValidation)
	}

	plan := domain.ImportPlan{StopName: name, CreateStop: s.Create}
	var errs error
	for _, col := range []struct {
		dayType domain.DayType
		tokens  []string
	}{
		{domain.DayTypeWeekday, s.Weekday},
		{domain.DayTypeWeekend, s.Weekend},
	} {
		for i, raw := range col.tokens {
			entry, skip, err := ParseToken(raw)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s[%d]: %w", col.dayType, i, err))
				continue
			}
			if skip {
				plan.Skipped++
				continue
			}
			plan.Departures = append(plan.Departures, domain.Departure{
				Time:       entry.Time,
				DayType:    col.dayType,
				Annotation: entry.Annotation,
			})
		}
	}
	if errs != nil {
		return domain.ImportPlan{}, fmt.Errorf("timetable.Sheet.Plan: %w: stop %q: %v", domain.ErrValidation, name, errs)
	}
	return plan, nil
}
