package timetable_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tornimae/busboard/internal/domain"
	"github.com/tornimae/busboard/internal/timetable"
)

const tuuleSheet = `
stop: Tuule
create: true
weekday: ["05:56", "07:26", "-"]
weekend: ["09:16", "12:20A", "-", "-"]
`

func TestDecode(t *testing.T) {
	sheet, err := timetable.Decode(strings.NewReader(tuuleSheet))

	require.NoError(t, err)
	assert.Equal(t, "Tuule", sheet.Stop)
	assert.True(t, sheet.Create)
	assert.Equal(t, []string{"05:56", "07:26", "-"}, sheet.Weekday)
	assert.Equal(t, []string{"09:16", "12:20A", "-", "-"}, sheet.Weekend)
}

func TestDecode_UnknownField(t *testing.T) {
	_, err := timetable.Decode(strings.NewReader("stop: Tuule\nweekdays: [\"05:56\"]\n"))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecode_Empty(t *testing.T) {
	_, err := timetable.Decode(strings.NewReader(""))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecode_RejectsSecondDocument(t *testing.T) {
	_, err := timetable.Decode(strings.NewReader(tuuleSheet + "---\nstop: Lehmja\nweekday: [\"06:05\"]\n"))

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, "only one sheet")
}

func TestSheet_Plan(t *testing.T) {
	sheet, err := timetable.Decode(strings.NewReader(tuuleSheet))
	require.NoError(t, err)

	plan, err := sheet.Plan()

	require.NoError(t, err)
	assert.Equal(t, "Tuule", plan.StopName)
	assert.True(t, plan.CreateStop)
	assert.Equal(t, 3, plan.Skipped)
	assert.Equal(t, []domain.Departure{
		{Time: "05:56", DayType: domain.DayTypeWeekday},
		{Time: "07:26", DayType: domain.DayTypeWeekday},
		{Time: "09:16", DayType: domain.DayTypeWeekend},
		{Time: "12:20", DayType: domain.DayTypeWeekend, Annotation: "A"},
	}, plan.Departures)
	for _, d := range plan.Departures {
		assert.NotEqual(t, timetable.Placeholder, d.Time)
	}
}

func TestSheet_Plan_ReportsEveryBadToken(t *testing.T) {
	sheet := timetable.Sheet{
		Stop:    "Lehmja",
		Weekday: []string{"06:05", "25:00"},
		Weekend: []string{"9:5", "07:34"},
	}

	_, err := sheet.Plan()

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.ErrorContains(t, err, `weekday[1]: invalid departure token "25:00"`)
	assert.ErrorContains(t, err, `weekend[0]: invalid departure token "9:5"`)
}

func TestSheet_Plan_StopRequired(t *testing.T) {
	_, err := timetable.Sheet{Stop: "  ", Weekday: []string{"06:05"}}.Plan()

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSheet_Plan_OnlyPlaceholders(t *testing.T) {
	plan, err := timetable.Sheet{Stop: "Lehmja", Weekend: []string{"-", "-"}}.Plan()

	require.NoError(t, err)
	assert.Empty(t, plan.Departures)
	assert.Equal(t, 2, plan.Skipped)
}
