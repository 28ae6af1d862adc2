// Package modifiers computes the named flags of every calendar day.
//
// An Engine is built once from a grid and the current configuration and
// selection. It is immutable: when any input changes, build a new one.
//
// Flags are merged in a fixed order: built-in flags (outside, disabled,
// hidden, today, focused), then selection flags (selected, range_start,
// range_middle, range_end), then custom modifiers. A custom modifier that
// reuses a built-in name replaces the built-in value for every day.
package modifiers

import (
	"maps"

	"daypick/internal/dates"
	"daypick/internal/grid"
	"daypick/internal/matcher"
	"daypick/internal/model"
)

// Options are the inputs to the modifier computation besides the grid.
type Options struct {
	Disabled []matcher.Matcher
	Hidden   []matcher.Matcher
	// Custom maps modifier names to the matchers that set them.
	Custom map[string][]matcher.Matcher

	// ShowOutsideDays controls whether days of adjacent months are
	// visible; when false they are hidden.
	ShowOutsideDays bool

	// StartMonth and EndMonth bound the navigable months; days outside
	// them are hidden. Zero values leave that side unbounded.
	StartMonth dates.Date
	EndMonth   dates.Date

	Mode      model.Mode
	Selection model.Selection
	Focused   dates.Date
}

// Engine answers modifier lookups for the days of a grid.
type Engine struct {
	opts  Options
	lib   dates.Lib
	today dates.Date
	first dates.Date // first navigable day, zero when unbounded
	last  dates.Date // last navigable day, zero when unbounded
	rng   dates.Range
	days  []model.CalendarDay
	byDay map[model.CalendarDay]model.Modifiers
}

// New evaluates every day of months in a single pass.
func New(months []model.CalendarMonth, opts Options, lib dates.Lib) *Engine {
	e := &Engine{
		opts:  opts,
		lib:   lib,
		today: lib.Today(),
		first: opts.StartMonth.StartOfMonth(),
		last:  opts.EndMonth.EndOfMonth(),
		rng:   opts.Selection.Range.Normalize(),
		days:  grid.Days(months),
	}
	e.byDay = make(map[model.CalendarDay]model.Modifiers, len(e.days))
	for _, day := range e.days {
		e.byDay[day] = e.evaluate(day)
	}
	return e
}

// Modifiers returns the flags of day. Lookups are by value: any CalendarDay
// equal to a cell of the grid gets that cell's flags, and days that are not
// part of the grid are evaluated with the same rules. The returned map is a
// copy owned by the caller.
func (e *Engine) Modifiers(day model.CalendarDay) model.Modifiers {
	if m, ok := e.byDay[day]; ok {
		return m.Clone()
	}
	return e.evaluate(day)
}

// Days returns the grid days that carry the named modifier, in display order.
func (e *Engine) Days(name string) []model.CalendarDay {
	var out []model.CalendarDay
	for _, day := range e.days {
		if e.byDay[day][name] {
			out = append(out, day)
		}
	}
	return out
}

// DateModifiers returns the flags of date on its own month page.
func (e *Engine) DateModifiers(date dates.Date) model.Modifiers {
	return e.Modifiers(model.NewCalendarDay(date, date))
}

func (e *Engine) evaluate(day model.CalendarDay) model.Modifiers {
	merged := make(model.Modifiers, len(model.BuiltinModifiers)+len(e.opts.Custom))
	for _, name := range model.BuiltinModifiers {
		merged[name] = false
	}
	maps.Copy(merged, e.builtin(day))
	maps.Copy(merged, e.selection(day))
	maps.Copy(merged, e.custom(day))
	return merged
}

func (e *Engine) builtin(day model.CalendarDay) model.Modifiers {
	date := day.Date
	outside := day.Outside()
	beforeStart := e.first.Valid() && date.Before(e.first)
	afterEnd := e.last.Valid() && date.After(e.last)
	return model.Modifiers{
		model.Outside:  outside,
		model.Disabled: matcher.MatchesAny(date, e.opts.Disabled, e.lib),
		model.Hidden: matcher.MatchesAny(date, e.opts.Hidden, e.lib) ||
			beforeStart || afterEnd ||
			(outside && !e.opts.ShowOutsideDays),
		model.Today:   date.Valid() && date == e.today,
		model.Focused: date.Valid() && date == e.opts.Focused,
	}
}

func (e *Engine) selection(day model.CalendarDay) model.Modifiers {
	date := day.Date
	if !date.Valid() {
		return nil
	}
	switch e.opts.Mode {
	case model.ModeRange:
		r := e.rng
		return model.Modifiers{
			model.Selected:    matcher.RangeIncludesDate(r, date, false, e.lib),
			model.RangeStart:  r.From.Valid() && date == r.From,
			model.RangeEnd:    r.To.Valid() && date == r.To,
			model.RangeMiddle: r.Complete() && matcher.RangeIncludesDate(r, date, true, e.lib),
		}
	case model.ModeMultiple:
		for _, selected := range e.opts.Selection.Multiple {
			if selected == date {
				return model.Modifiers{model.Selected: true}
			}
		}
		return nil
	default:
		return model.Modifiers{model.Selected: date == e.opts.Selection.Single}
	}
}

func (e *Engine) custom(day model.CalendarDay) model.Modifiers {
	if len(e.opts.Custom) == 0 {
		return nil
	}
	out := make(model.Modifiers, len(e.opts.Custom))
	for name, ms := range e.opts.Custom {
		out[name] = matcher.MatchesAny(day.Date, ms, e.lib)
	}
	return out
}
