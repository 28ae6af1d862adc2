package matcher

import (
	"time"

	"daypick/internal/dates"
)

// RangeIncludesDate reports whether date lies within r. A reversed range is
// normalized first. If only one end of r is set, the range includes just
// that day. With excludeEnds set, the end days themselves are excluded.
func RangeIncludesDate(r dates.Range, date dates.Date, excludeEnds bool, _ dates.Lib) bool {
	if !date.Valid() {
		return false
	}
	if r.Complete() {
		r = r.Normalize()
		margin := 0
		if excludeEnds {
			margin = 1
		}
		return dates.DifferenceInCalendarDays(date, r.From) >= margin &&
			dates.DifferenceInCalendarDays(r.To, date) >= margin
	}
	if excludeEnds {
		return false
	}
	if r.To.Valid() {
		return r.To == date
	}
	if r.From.Valid() {
		return r.From == date
	}
	return false
}

// RangeOverlaps reports whether the two ranges share at least one day.
func RangeOverlaps(a, b dates.Range, lib dates.Lib) bool {
	return RangeIncludesDate(a, b.From, false, lib) ||
		RangeIncludesDate(a, b.To, false, lib) ||
		RangeIncludesDate(b, a.From, false, lib) ||
		RangeIncludesDate(b, a.To, false, lib)
}

// RangeContainsDayOfWeek reports whether any day of r falls on one of days.
// Only the first seven days of r are inspected since any weekday occurs
// within seven consecutive days.
func RangeContainsDayOfWeek(r dates.Range, days []time.Weekday, _ dates.Lib) bool {
	if !r.Complete() || len(days) == 0 {
		return false
	}
	r = r.Normalize()
	limit := min(dates.DifferenceInCalendarDays(r.To, r.From), 6)
	day := r.From
	for i := 0; i <= limit; i++ {
		wd := day.Weekday()
		for _, want := range days {
			if want == wd {
				return true
			}
		}
		day = day.AddDays(1)
	}
	return false
}

// RangeContainsModifiers reports whether any day of r satisfies any of ms.
// Non-predicate matchers are resolved in closed form; predicates are
// evaluated last by walking every day of the range.
func RangeContainsModifiers(r dates.Range, ms []Matcher, lib dates.Lib) bool {
	if !r.Complete() {
		return false
	}
	r = r.Normalize()

	var predicates []PredicateMatch
	for _, m := range ms {
		if p, ok := m.(PredicateMatch); ok {
			if p != nil {
				predicates = append(predicates, p)
			}
			continue
		}
		if rangeContains(r, m, lib) {
			return true
		}
	}
	if len(predicates) == 0 {
		return false
	}

	day := r.From
	total := dates.DifferenceInCalendarDays(r.To, r.From)
	for i := 0; i <= total; i++ {
		for _, p := range predicates {
			if p(day) {
				return true
			}
		}
		day = day.AddDays(1)
	}
	return false
}

func rangeContains(r dates.Range, m Matcher, lib dates.Lib) bool {
	switch m := m.(type) {
	case BoolMatch:
		return bool(m)
	case DateMatch:
		return RangeIncludesDate(r, dates.Date(m), false, lib)
	case DatesMatch:
		for _, d := range m {
			if RangeIncludesDate(r, d, false, lib) {
				return true
			}
		}
		return false
	case RangeMatch:
		other := dates.Range(m)
		if !other.Complete() {
			return false
		}
		return RangeOverlaps(r, other, lib)
	case DayOfWeekMatch:
		return RangeContainsDayOfWeek(r, m, lib)
	case IntervalMatch:
		if m.closed() {
			inner := dates.Range{From: m.After.AddDays(1), To: m.Before.AddDays(-1)}
			if inner.To.Before(inner.From) {
				return false
			}
			return RangeOverlaps(r, inner, lib)
		}
		// Open and inverted intervals are unbounded on at least one side,
		// so checking the range ends is sufficient.
		return Matches(r.From, m, lib) || Matches(r.To, m, lib)
	}
	return false
}
