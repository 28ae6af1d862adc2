// Package matcher decides whether calendar days satisfy date rules.
//
// A Matcher is one of a closed set of shapes, each with its own concrete type.
// Matches dispatches on the shape with an exhaustive type switch; lists of
// matchers are OR-combined by MatchesAny.
package matcher

import (
	"time"

	"daypick/internal/dates"
)

// Matcher describes a set of calendar days. The implementations in this
// package are the only ones.
type Matcher interface {
	isMatcher()
}

// BoolMatch matches every day when true and no day when false.
type BoolMatch bool

// DateMatch matches a single day.
type DateMatch dates.Date

// DatesMatch matches any of the listed days.
type DatesMatch []dates.Date

// RangeMatch matches the days between From and To inclusive. Both ends must
// be set; a reversed range is treated as its chronological form.
type RangeMatch dates.Range

// DayOfWeekMatch matches days falling on any of the listed weekdays.
type DayOfWeekMatch []time.Weekday

// IntervalMatch matches days relative to two exclusive boundaries; either
// one may be the zero Date.
//
//   - Before only: days before Before.
//   - After only: days after After.
//   - After < Before: days strictly between the two.
//   - After >= Before: days before Before or after After, i.e. everything
//     outside the enclosed window. The boundary days never match.
type IntervalMatch struct {
	After  dates.Date
	Before dates.Date
}

// PredicateMatch matches the days for which it returns true.
type PredicateMatch func(dates.Date) bool

func (BoolMatch) isMatcher()      {}
func (DateMatch) isMatcher()      {}
func (DatesMatch) isMatcher()     {}
func (RangeMatch) isMatcher()     {}
func (DayOfWeekMatch) isMatcher() {}
func (IntervalMatch) isMatcher()  {}
func (PredicateMatch) isMatcher() {}

// Before returns a matcher for the days before d.
func Before(d dates.Date) IntervalMatch { return IntervalMatch{Before: d} }

// After returns a matcher for the days after d.
func After(d dates.Date) IntervalMatch { return IntervalMatch{After: d} }

// Weekends matches Saturdays and Sundays.
func Weekends() DayOfWeekMatch { return DayOfWeekMatch{time.Saturday, time.Sunday} }

// closed reports whether the interval has both boundaries and After is
// chronologically before Before.
func (m IntervalMatch) closed() bool {
	return m.After.Valid() && m.Before.Valid() && m.After.Before(m.Before)
}

// Matches reports whether date satisfies m. An invalid date never matches.
func Matches(date dates.Date, m Matcher, lib dates.Lib) bool {
	if !date.Valid() || m == nil {
		return false
	}
	switch m := m.(type) {
	case BoolMatch:
		return bool(m)
	case DateMatch:
		return date == dates.Date(m)
	case DatesMatch:
		for _, d := range m {
			if d == date {
				return true
			}
		}
		return false
	case RangeMatch:
		r := dates.Range(m)
		if !r.Complete() {
			return false
		}
		return RangeIncludesDate(r, date, false, lib)
	case DayOfWeekMatch:
		wd := date.Weekday()
		for _, day := range m {
			if day == wd {
				return true
			}
		}
		return false
	case IntervalMatch:
		return matchInterval(date, m)
	case PredicateMatch:
		if m == nil {
			return false
		}
		return m(date)
	default:
		return false
	}
}

func matchInterval(date dates.Date, m IntervalMatch) bool {
	isBefore := m.Before.Valid() && dates.DifferenceInCalendarDays(m.Before, date) > 0
	isAfter := m.After.Valid() && dates.DifferenceInCalendarDays(date, m.After) > 0
	switch {
	case m.Before.Valid() && m.After.Valid():
		if m.closed() {
			return isAfter && isBefore
		}
		return isBefore || isAfter
	case m.Before.Valid():
		return isBefore
	case m.After.Valid():
		return isAfter
	}
	return false
}

// MatchesAny reports whether date satisfies at least one of ms.
func MatchesAny(date dates.Date, ms []Matcher, lib dates.Lib) bool {
	for _, m := range ms {
		if Matches(date, m, lib) {
			return true
		}
	}
	return false
}
