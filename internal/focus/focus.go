// Package focus computes keyboard focus moves and month pagination.
package focus

import (
	"fmt"
	"strings"

	"daypick/internal/dates"
)

// MoveBy is the unit of a focus move.
type MoveBy string

const (
	Day         MoveBy = "day"
	Week        MoveBy = "week"
	Month       MoveBy = "month"
	Year        MoveBy = "year"
	StartOfWeek MoveBy = "start_of_week"
	EndOfWeek   MoveBy = "end_of_week"
)

// Direction is the direction of a focus move or page turn.
type Direction string

const (
	Before Direction = "before"
	After  Direction = "after"
)

// ParseMoveBy parses a move unit. Both snake_case and camelCase names are
// accepted for the week moves.
func ParseMoveBy(val string) (MoveBy, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "day":
		return Day, nil
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	case "year":
		return Year, nil
	case "start_of_week", "startofweek":
		return StartOfWeek, nil
	case "end_of_week", "endofweek":
		return EndOfWeek, nil
	}
	return "", fmt.Errorf("invalid move %q", val)
}

// ParseDirection parses a direction; "previous"/"next" are accepted as
// aliases of before/after.
func ParseDirection(val string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "before", "previous", "prev":
		return Before, nil
	case "after", "next":
		return After, nil
	}
	return "", fmt.Errorf("invalid direction %q, expected before or after", val)
}

func (d Direction) sign() int {
	if d == Before {
		return -1
	}
	return 1
}

// Target returns the date focus moves to from from. The naive target is
// clamped to the first day of startMonth and the last day of endMonth;
// zero bounds are ignored. Target does not skip disabled or hidden days.
func Target(by MoveBy, dir Direction, from, startMonth, endMonth dates.Date, lib dates.Lib) dates.Date {
	if !from.Valid() {
		return from
	}
	n := dir.sign()
	var to dates.Date
	switch by {
	case Week:
		to = from.AddWeeks(n)
	case Month:
		to = from.AddMonths(n)
	case Year:
		to = from.AddYears(n)
	case StartOfWeek:
		to = lib.StartOfWeek(from)
	case EndOfWeek:
		to = lib.EndOfWeek(from)
	default:
		to = from.AddDays(n)
	}
	return clamp(to, startMonth, endMonth)
}

func clamp(d, startMonth, endMonth dates.Date) dates.Date {
	if first := startMonth.StartOfMonth(); first.Valid() && d.Before(first) {
		return first
	}
	if last := endMonth.EndOfMonth(); last.Valid() && d.After(last) {
		return last
	}
	return d
}

// maxAttempts bounds the search for a focusable day.
const maxAttempts = 365

// Next moves focus like Target and then, while skip reports true for the
// candidate, keeps stepping one day in the same direction. It reports false
// when no acceptable day is found before a navigation boundary or within a
// year of steps. A nil skip accepts every day.
func Next(by MoveBy, dir Direction, from, startMonth, endMonth dates.Date, lib dates.Lib, skip func(dates.Date) bool) (dates.Date, bool) {
	cand := Target(by, dir, from, startMonth, endMonth, lib)
	if !cand.Valid() {
		return dates.Date{}, false
	}
	if skip == nil {
		return cand, true
	}
	for range maxAttempts {
		if !skip(cand) {
			return cand, true
		}
		next := Target(Day, dir, cand, startMonth, endMonth, lib)
		if next == cand {
			return dates.Date{}, false
		}
		cand = next
	}
	return dates.Date{}, false
}

// NavOptions control month pagination.
type NavOptions struct {
	NumberOfMonths    int
	PagedNavigation   bool
	DisableNavigation bool
}

func (o NavOptions) months() int {
	return max(o.NumberOfMonths, 1)
}

func (o NavOptions) offset() int {
	if o.PagedNavigation {
		return o.months()
	}
	return 1
}

// NextMonth returns the first displayed month after paging forward from
// current, or false when navigation is disabled or the last page already
// reaches endMonth. A zero endMonth is unbounded.
func NextMonth(current, endMonth dates.Date, opts NavOptions) (dates.Date, bool) {
	if opts.DisableNavigation || !current.Valid() {
		return dates.Date{}, false
	}
	month := current.StartOfMonth()
	if endMonth.Valid() && dates.DifferenceInCalendarMonths(endMonth, month) < opts.months() {
		return dates.Date{}, false
	}
	return month.AddMonths(opts.offset()), true
}

// PreviousMonth returns the first displayed month after paging back from
// current, or false when navigation is disabled or current is already the
// startMonth. A zero startMonth is unbounded.
func PreviousMonth(current, startMonth dates.Date, opts NavOptions) (dates.Date, bool) {
	if opts.DisableNavigation || !current.Valid() {
		return dates.Date{}, false
	}
	month := current.StartOfMonth()
	if startMonth.Valid() && dates.DifferenceInCalendarMonths(month, startMonth) <= 0 {
		return dates.Date{}, false
	}
	return month.AddMonths(-opts.offset()), true
}
