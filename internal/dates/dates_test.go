package dates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

func TestValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		date Date
		want bool
	}{
		{"zero", Date{}, false},
		{"regular", d(2024, time.January, 31), true},
		{"leap day", d(2024, time.February, 29), true},
		{"not a leap day", d(2023, time.February, 29), false},
		{"month 13", Date{Year: 2024, Month: 13, Day: 1}, false},
		{"day 0", d(2024, time.March, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.date.Valid())
		})
	}
}

func TestArithmetic(t *testing.T) {
	t.Parallel()

	assert.Equal(t, d(2024, time.February, 1), d(2024, time.January, 31).AddDays(1))
	assert.Equal(t, d(2023, time.December, 31), d(2024, time.January, 1).AddDays(-1))
	assert.Equal(t, d(2024, time.January, 22), d(2024, time.January, 15).AddWeeks(1))

	assert.Equal(t, d(2024, time.February, 29), d(2024, time.January, 31).AddMonths(1))
	assert.Equal(t, d(2023, time.November, 30), d(2024, time.January, 30).AddMonths(-2))
	assert.Equal(t, d(2025, time.January, 15), d(2024, time.December, 15).AddMonths(1))
	assert.Equal(t, d(2025, time.February, 28), d(2024, time.February, 29).AddYears(1))

	assert.Equal(t, Date{}, Date{}.AddDays(3))
	assert.Equal(t, d(2024, time.February, 1), d(2024, time.February, 17).StartOfMonth())
	assert.Equal(t, d(2024, time.February, 29), d(2024, time.February, 17).EndOfMonth())
}

func TestDifferences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 31, DifferenceInCalendarDays(d(2024, time.February, 1), d(2024, time.January, 1)))
	assert.Equal(t, -1, DifferenceInCalendarDays(d(2023, time.December, 31), d(2024, time.January, 1)))
	assert.Equal(t, 366, DifferenceInCalendarDays(d(2025, time.January, 1), d(2024, time.January, 1)))
	assert.Equal(t, 1, DifferenceInCalendarMonths(d(2024, time.February, 1), d(2024, time.January, 31)))
	assert.Equal(t, -13, DifferenceInCalendarMonths(d(2023, time.January, 1), d(2024, time.February, 9)))
}

func TestCompare(t *testing.T) {
	t.Parallel()

	a, b := d(2024, time.January, 10), d(2024, time.January, 15)
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Zero(t, a.Compare(a))
	assert.Equal(t, a, MinDate(a, b))
	assert.Equal(t, b, MaxDate(a, b))
}

func TestParse(t *testing.T) {
	t.Parallel()

	got, err := Parse("2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.January, 10), got)

	_, err = Parse("2024-13-10")
	assert.Error(t, err)

	month, err := ParseMonth("2024-02")
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.February, 1), month)

	month, err = ParseMonth("2024-02-17")
	require.NoError(t, err)
	assert.Equal(t, d(2024, time.February, 1), month)
}

func TestJSON(t *testing.T) {
	t.Parallel()

	buf, err := json.Marshal(Range{From: d(2024, time.January, 10)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":"2024-01-10","to":""}`, string(buf))

	var r Range
	require.NoError(t, json.Unmarshal([]byte(`{"from":"2024-01-15","to":"2024-01-10"}`), &r))
	assert.Equal(t, Range{From: d(2024, time.January, 10), To: d(2024, time.January, 15)}, r.Normalize())
}

func TestFromTime(t *testing.T) {
	t.Parallel()

	seoul := time.FixedZone("KST", 9*60*60)
	lib := Lib{Location: seoul}
	// 2024-01-09 20:00 UTC is already Jan 10 in Seoul.
	assert.Equal(t, d(2024, time.January, 10), lib.FromTime(time.Date(2024, time.January, 9, 20, 0, 0, 0, time.UTC)))
	assert.Equal(t, Date{}, lib.FromTime(time.Time{}))

	lib.Now = func() time.Time { return time.Date(2024, time.January, 9, 14, 59, 0, 0, time.UTC) }
	assert.Equal(t, d(2024, time.January, 9), lib.Today())
}

func TestWeeks(t *testing.T) {
	t.Parallel()

	sunday := Lib{WeekStartsOn: time.Sunday}
	monday := Lib{WeekStartsOn: time.Monday}
	iso := Lib{WeekStartsOn: time.Sunday, ISOWeek: true}

	wed := d(2024, time.January, 10)
	assert.Equal(t, d(2024, time.January, 7), sunday.StartOfWeek(wed))
	assert.Equal(t, d(2024, time.January, 13), sunday.EndOfWeek(wed))
	assert.Equal(t, d(2024, time.January, 8), monday.StartOfWeek(wed))
	assert.Equal(t, d(2024, time.January, 8), iso.StartOfWeek(wed))
	assert.Equal(t, d(2024, time.January, 14), iso.EndOfWeek(wed))

	tests := []struct {
		name string
		lib  Lib
		date Date
		want int
	}{
		{"sunday start, Jan 1 week", sunday, d(2024, time.January, 1), 1},
		{"sunday start, second week", sunday, d(2024, time.January, 7), 2},
		{"sunday start, last week belongs to next year", sunday, d(2024, time.December, 29), 1},
		{"iso, 2021-01-03 is week 53 of 2020", iso, d(2021, time.January, 3), 53},
		{"iso, 2024-12-30 is week 1 of 2025", iso, d(2024, time.December, 30), 1},
		{"monday start, mid year", monday, d(2024, time.June, 12), 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.lib.WeekNumber(tt.date))
		})
	}
}
