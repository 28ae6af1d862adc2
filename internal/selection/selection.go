// Package selection implements the selection controllers for the three
// selection modes. Every controller is a pure transition: it takes the
// current value and the activated day and returns the next value without
// modifying its inputs.
//
// A day whose modifiers include disabled, or an invalid date, never changes
// the selection.
package selection

import (
	"slices"

	"daypick/internal/dates"
	"daypick/internal/matcher"
	"daypick/internal/model"
)

// Options configure the controllers.
type Options struct {
	// Required prevents a non-empty selection from becoming empty.
	Required bool

	// Min and Max bound the number of selected days in multiple mode and
	// the number of nights (days between the ends) in range mode. Zero
	// means unbounded.
	Min int
	Max int

	// ExcludeDisabled rejects a range completion that would span a day
	// matched by Disabled; the click starts a new range instead.
	ExcludeDisabled bool
	Disabled        []matcher.Matcher
}

func inactive(day dates.Date, mods model.Modifiers) bool {
	return !day.Valid() || mods.Has(model.Disabled)
}

// Single selects at most one day.
type Single struct {
	Options
}

// Activate returns the selection after day is activated. Activating the
// selected day clears it unless the selection is required.
func (s Single) Activate(cur, day dates.Date, mods model.Modifiers) dates.Date {
	if inactive(day, mods) {
		return cur
	}
	if cur == day {
		if s.Required {
			return cur
		}
		return dates.Date{}
	}
	return day
}

// Multiple selects any number of days, kept in activation order.
type Multiple struct {
	Options
}

// Activate toggles day. Removal is refused when it would leave fewer than
// Min days, or an empty required selection. Adding a day to a full selection
// (Max reached) replaces the selection with that day.
func (m Multiple) Activate(cur []dates.Date, day dates.Date, mods model.Modifiers) []dates.Date {
	if inactive(day, mods) {
		return slices.Clone(cur)
	}
	if i := slices.Index(cur, day); i >= 0 {
		if (m.Min > 0 && len(cur) <= m.Min) || (m.Required && len(cur) == 1) {
			return slices.Clone(cur)
		}
		return slices.Delete(slices.Clone(cur), i, i+1)
	}
	if m.Max > 0 && len(cur) >= m.Max {
		return []dates.Date{day}
	}
	return append(slices.Clone(cur), day)
}

// Range selects a contiguous span of days in two clicks.
type Range struct {
	Options
	Lib dates.Lib
}

// Activate advances the range state machine:
//
//   - with no range, or a complete one, day starts a new range {day, _};
//   - with only one end set, day completes the range, swapping the ends
//     when day comes first. Activating the set end gives a one-day range;
//   - a completion that spans a disabled day (with ExcludeDisabled) or
//     breaks the Min/Max night bounds starts a new range at day instead;
//   - activating the day of a complete one-day range clears it, unless the
//     range is required, in which case a new range starts at that day.
func (r Range) Activate(cur dates.Range, day dates.Date, mods model.Modifiers) dates.Range {
	if inactive(day, mods) {
		return cur
	}
	start := dates.Range{From: day}

	if cur.Complete() {
		if cur.From == day && cur.To == day && !r.Required {
			return dates.Range{}
		}
		return start
	}

	anchor := cur.From
	if !anchor.Valid() {
		anchor = cur.To
	}
	if !anchor.Valid() {
		return start
	}

	next := dates.Range{From: anchor, To: day}.Normalize()
	nights := dates.DifferenceInCalendarDays(next.To, next.From)
	switch {
	case r.Max > 0 && nights > r.Max:
		return start
	case nights < r.Min:
		return start
	case r.ExcludeDisabled && matcher.RangeContainsModifiers(next, r.Disabled, r.Lib):
		return start
	}
	return next
}

// Activate dispatches to the controller for mode and returns the updated
// selection. Fields of other modes are carried over unchanged.
func Activate(mode model.Mode, cur model.Selection, day dates.Date, mods model.Modifiers, opts Options, lib dates.Lib) model.Selection {
	next := cur
	switch mode {
	case model.ModeMultiple:
		next.Multiple = Multiple{Options: opts}.Activate(cur.Multiple, day, mods)
	case model.ModeRange:
		next.Range = Range{Options: opts, Lib: lib}.Activate(cur.Range, day, mods)
	default:
		next.Single = Single{Options: opts}.Activate(cur.Single, day, mods)
	}
	return next
}
