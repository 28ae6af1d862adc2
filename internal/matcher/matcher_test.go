package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"daypick/internal/dates"
)

func d(year int, month time.Month, day int) dates.Date {
	return dates.Date{Year: year, Month: month, Day: day}
}

var lib = dates.Lib{Location: time.UTC}

func TestMatches(t *testing.T) {
	t.Parallel()

	jan10 := d(2024, time.January, 10)
	tests := []struct {
		name    string
		matcher Matcher
		date    dates.Date
		want    bool
	}{
		{"bool true", BoolMatch(true), jan10, true},
		{"bool false", BoolMatch(false), jan10, false},
		{"same day", DateMatch(jan10), jan10, true},
		{"other day", DateMatch(jan10), jan10.AddDays(1), false},
		{"in dates", DatesMatch{d(2024, time.January, 1), jan10}, jan10, true},
		{"not in dates", DatesMatch{d(2024, time.January, 1)}, jan10, false},
		{"empty dates", DatesMatch{}, jan10, false},
		{"range inside", RangeMatch{From: d(2024, time.January, 5), To: d(2024, time.January, 15)}, jan10, true},
		{"range start inclusive", RangeMatch{From: jan10, To: d(2024, time.January, 15)}, jan10, true},
		{"range end inclusive", RangeMatch{From: d(2024, time.January, 5), To: jan10}, jan10, true},
		{"range reversed", RangeMatch{From: d(2024, time.January, 15), To: d(2024, time.January, 5)}, jan10, true},
		{"range outside", RangeMatch{From: d(2024, time.January, 11), To: d(2024, time.January, 15)}, jan10, false},
		{"range without to never matches", RangeMatch{From: jan10}, jan10, false},
		{"range without from never matches", RangeMatch{To: jan10}, jan10, false},
		{"weekday member", DayOfWeekMatch{time.Wednesday}, jan10, true},
		{"weekday not member", Weekends(), jan10, false},
		{"before", Before(d(2024, time.January, 11)), jan10, true},
		{"before boundary excluded", Before(jan10), jan10, false},
		{"after", After(d(2024, time.January, 9)), jan10, true},
		{"after boundary excluded", After(jan10), jan10, false},
		{"predicate", PredicateMatch(func(x dates.Date) bool { return x.Day%2 == 0 }), jan10, true},
		{"nil predicate", PredicateMatch(nil), jan10, false},
		{"nil matcher", nil, jan10, false},
		{"invalid date never matches", BoolMatch(true), dates.Date{}, false},
		{"invalid date vs predicate", PredicateMatch(func(dates.Date) bool { return true }), dates.Date{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.date, tt.matcher, lib))
		})
	}
}

// TestIntervalBoundaries checks both interval forms at, just before and just
// after each boundary. Boundaries are exclusive in both forms.
func TestIntervalBoundaries(t *testing.T) {
	t.Parallel()

	a, b := d(2024, time.January, 10), d(2024, time.January, 20)
	closed := IntervalMatch{After: a, Before: b}
	inverted := IntervalMatch{After: b, Before: a}

	for _, date := range []dates.Date{
		a.AddDays(-1), a, a.AddDays(1),
		d(2024, time.January, 15),
		b.AddDays(-1), b, b.AddDays(1),
	} {
		inside := date.After(a) && date.Before(b)
		outside := date.Before(a) || date.After(b)
		assert.Equal(t, inside, Matches(date, closed, lib), "closed %v", date)
		assert.Equal(t, outside, Matches(date, inverted, lib), "inverted %v", date)
	}

	same := IntervalMatch{After: a, Before: a}
	assert.False(t, Matches(a, same, lib))
	assert.True(t, Matches(a.AddDays(1), same, lib))
	assert.True(t, Matches(a.AddDays(-1), same, lib))
}

func TestMatchesAny(t *testing.T) {
	t.Parallel()

	ms := []Matcher{DateMatch(d(2024, time.January, 1)), Weekends()}
	assert.True(t, MatchesAny(d(2024, time.January, 1), ms, lib))
	assert.True(t, MatchesAny(d(2024, time.January, 6), ms, lib))
	assert.False(t, MatchesAny(d(2024, time.January, 8), ms, lib))
	assert.False(t, MatchesAny(d(2024, time.January, 8), nil, lib))
}
