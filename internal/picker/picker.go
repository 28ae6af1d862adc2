// Package picker ties the calendar engine together. A Picker owns the
// displayed month, the selection and the focused day, and rebuilds the grid
// and modifier engine whenever one of them changes.
//
// A Picker is not safe for concurrent use; callers serialize access.
package picker

import (
	"fmt"
	"maps"
	"time"

	"daypick/internal/config"
	"daypick/internal/dates"
	"daypick/internal/focus"
	"daypick/internal/grid"
	"daypick/internal/matcher"
	"daypick/internal/model"
	"daypick/internal/modifiers"
	"daypick/internal/selection"
)

// Options is the complete configuration of a Picker.
type Options struct {
	Lib  dates.Lib
	Mode model.Mode

	// Selection configures the controllers. Its Disabled field is filled
	// from Disabled.
	Selection selection.Options

	Disabled  []matcher.Matcher
	Hidden    []matcher.Matcher
	Modifiers map[string][]matcher.Matcher

	Grid              grid.Options
	PagedNavigation   bool
	DisableNavigation bool
	ShowOutsideDays   bool

	// Month is the month to show first; zero means the current month.
	Month      dates.Date
	StartMonth dates.Date
	EndMonth   dates.Date

	// Selected is the initial selection.
	Selected model.Selection
}

// Picker is the calendar state.
type Picker struct {
	opts      Options
	blackouts map[string][]matcher.Matcher

	month   dates.Date
	sel     model.Selection
	focused dates.Date

	months []model.CalendarMonth
	engine *modifiers.Engine
}

// New returns a Picker showing opts.Month, clamped to the navigation bounds.
func New(opts Options) *Picker {
	if opts.Mode == "" {
		opts.Mode = model.ModeSingle
	}
	month := opts.Month
	if !month.Valid() {
		month = opts.Lib.Today()
	}
	p := &Picker{
		opts:  opts,
		month: grid.InitialMonth(month, opts.StartMonth, opts.EndMonth, opts.Grid.NumberOfMonths),
		sel:   opts.Selected,
	}
	p.rebuild()
	return p
}

// FromConfig builds a Picker from the YAML configuration. extra holds
// matchers keyed by modifier name, typically from blackout feeds; the
// "disabled" and "hidden" keys extend the built-in modifiers.
func FromConfig(cfg *config.Config, extra map[string][]matcher.Matcher) (*Picker, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	p := New(opts)
	p.SetBlackouts(extra)
	return p, nil
}

// OptionsFromConfig resolves cfg into picker Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	var opts Options

	loc, err := cfg.Location()
	if err != nil {
		return opts, err
	}
	weekStart, err := cfg.WeekStartsOn()
	if err != nil {
		return opts, fmt.Errorf("week_start: %w", err)
	}
	opts.Lib = dates.Lib{Location: loc, WeekStartsOn: weekStart, ISOWeek: cfg.ISOWeek}
	if cfg.Today != "" {
		today, err := dates.Parse(cfg.Today)
		if err != nil {
			return opts, fmt.Errorf("today: %w", err)
		}
		now := time.Date(today.Year, today.Month, today.Day, 12, 0, 0, 0, loc)
		opts.Lib.Now = func() time.Time { return now }
	}

	if opts.Mode, err = model.ParseMode(cfg.Mode); err != nil {
		return opts, err
	}
	opts.Selection = selection.Options{
		Required:        cfg.Required,
		Min:             cfg.Min,
		Max:             cfg.Max,
		ExcludeDisabled: cfg.ExcludeDisabled,
	}

	if opts.Disabled, err = CompileRules("disabled", cfg.Disabled); err != nil {
		return opts, err
	}
	if opts.Hidden, err = CompileRules("hidden", cfg.Hidden); err != nil {
		return opts, err
	}
	if len(cfg.Modifiers) > 0 {
		opts.Modifiers = make(map[string][]matcher.Matcher, len(cfg.Modifiers))
		for name, rules := range cfg.Modifiers {
			if opts.Modifiers[name], err = CompileRules("modifiers."+name, rules); err != nil {
				return opts, err
			}
		}
	}

	opts.Grid = grid.Options{
		NumberOfMonths: cfg.NumberOfMonths,
		FixedWeeks:     cfg.FixedWeeks,
		ReverseMonths:  cfg.ReverseMonths,
	}
	opts.PagedNavigation = cfg.PagedNavigation
	opts.DisableNavigation = cfg.DisableNavigation
	opts.ShowOutsideDays = cfg.ShowOutsideDays

	if opts.Month, opts.StartMonth, opts.EndMonth, err = cfg.Months(); err != nil {
		return opts, err
	}
	return opts, nil
}

// SetBlackouts replaces the matchers contributed by blackout feeds and
// rebuilds the modifiers.
func (p *Picker) SetBlackouts(extra map[string][]matcher.Matcher) {
	p.blackouts = maps.Clone(extra)
	p.rebuild()
}

// Refresh recomputes the modifiers, e.g. after the day changed.
func (p *Picker) Refresh() {
	p.rebuild()
}

func (p *Picker) disabled() []matcher.Matcher {
	return append(append([]matcher.Matcher(nil), p.opts.Disabled...), p.blackouts[model.Disabled]...)
}

func (p *Picker) rebuild() {
	lib := p.opts.Lib
	p.months = grid.Build(p.month, p.opts.Grid, lib)

	custom := maps.Clone(p.opts.Modifiers)
	for name, ms := range p.blackouts {
		if name == model.Disabled || name == model.Hidden {
			continue
		}
		if custom == nil {
			custom = map[string][]matcher.Matcher{}
		}
		custom[name] = append(append([]matcher.Matcher(nil), custom[name]...), ms...)
	}

	p.engine = modifiers.New(p.months, modifiers.Options{
		Disabled:        p.disabled(),
		Hidden:          append(append([]matcher.Matcher(nil), p.opts.Hidden...), p.blackouts[model.Hidden]...),
		Custom:          custom,
		ShowOutsideDays: p.opts.ShowOutsideDays,
		StartMonth:      p.opts.StartMonth,
		EndMonth:        p.opts.EndMonth,
		Mode:            p.opts.Mode,
		Selection:       p.sel,
		Focused:         p.focused,
	}, lib)
}

// Lib returns the date settings of the Picker.
func (p *Picker) Lib() dates.Lib { return p.opts.Lib }

// Mode returns the selection mode.
func (p *Picker) Mode() model.Mode { return p.opts.Mode }

// Months returns the displayed month pages.
func (p *Picker) Months() []model.CalendarMonth { return p.months }

// Modifiers returns the flags of day.
func (p *Picker) Modifiers(day model.CalendarDay) model.Modifiers {
	return p.engine.Modifiers(day)
}

// DateModifiers returns the flags of date on its own month page.
func (p *Picker) DateModifiers(date dates.Date) model.Modifiers {
	return p.engine.DateModifiers(date)
}

// Days returns the displayed days carrying the named modifier.
func (p *Picker) Days(name string) []model.CalendarDay {
	return p.engine.Days(name)
}

// Selection returns the current selection.
func (p *Picker) Selection() model.Selection { return p.sel }

// SetSelection replaces the selection.
func (p *Picker) SetSelection(sel model.Selection) {
	p.sel = sel
	p.rebuild()
}

// Select activates day and returns the new selection. Activating a day
// also focuses it. Disabled days change nothing.
func (p *Picker) Select(day model.CalendarDay) model.Selection {
	mods := p.engine.Modifiers(day)
	opts := p.opts.Selection
	opts.Disabled = p.disabled()
	next := selection.Activate(p.opts.Mode, p.sel, day.Date, mods, opts, p.opts.Lib)
	if day.Date.Valid() && !mods.Has(model.Disabled) {
		p.focused = day.Date
	}
	p.sel = next
	p.rebuild()
	return next
}

// Month returns the first displayed month.
func (p *Picker) Month() dates.Date { return p.month }

// GoToMonth shows month first, clamped so the page stays within the
// navigation bounds. It is a no-op when navigation is disabled.
func (p *Picker) GoToMonth(month dates.Date) {
	if p.opts.DisableNavigation || !month.Valid() {
		return
	}
	next := grid.InitialMonth(month, p.opts.StartMonth, p.opts.EndMonth, p.opts.Grid.NumberOfMonths)
	if next == p.month {
		return
	}
	p.month = next
	p.rebuild()
}

func (p *Picker) nav() focus.NavOptions {
	return focus.NavOptions{
		NumberOfMonths:    p.opts.Grid.NumberOfMonths,
		PagedNavigation:   p.opts.PagedNavigation,
		DisableNavigation: p.opts.DisableNavigation,
	}
}

// NextMonth returns the month the "next" control navigates to, or false
// when it is unavailable.
func (p *Picker) NextMonth() (dates.Date, bool) {
	return focus.NextMonth(p.month, p.opts.EndMonth, p.nav())
}

// PreviousMonth returns the month the "previous" control navigates to, or
// false when it is unavailable.
func (p *Picker) PreviousMonth() (dates.Date, bool) {
	return focus.PreviousMonth(p.month, p.opts.StartMonth, p.nav())
}

// Focused returns the focused day, or the zero Date.
func (p *Picker) Focused() dates.Date { return p.focused }

// Focus focuses date and shows its month if it is not displayed. Disabled
// and hidden days cannot be focused.
func (p *Picker) Focus(date dates.Date) bool {
	if !date.Valid() || p.skip(date) {
		return false
	}
	p.focusDate(date)
	return true
}

// Blur clears the focus.
func (p *Picker) Blur() {
	p.focused = dates.Date{}
	p.rebuild()
}

// MoveFocus moves focus like a keyboard would, skipping disabled and hidden
// days, and turns the page when the new focus is not displayed. Without a
// focused day the move starts from FocusTarget.
func (p *Picker) MoveFocus(by focus.MoveBy, dir focus.Direction) (dates.Date, bool) {
	from := p.focused
	if !from.Valid() {
		from = p.FocusTarget()
	}
	next, ok := focus.Next(by, dir, from, p.opts.StartMonth, p.opts.EndMonth, p.opts.Lib, p.skip)
	if !ok {
		return p.focused, false
	}
	p.focusDate(next)
	return next, true
}

// FocusTarget is the day that receives focus when the calendar is entered:
// the first selected day, then today, then the first day of the month, if
// displayed and focusable.
func (p *Picker) FocusTarget() dates.Date {
	candidates := make([]dates.Date, 0, 3)
	switch p.opts.Mode {
	case model.ModeMultiple:
		if len(p.sel.Multiple) > 0 {
			candidates = append(candidates, p.sel.Multiple[0])
		}
	case model.ModeRange:
		candidates = append(candidates, p.sel.Range.Normalize().From)
	default:
		candidates = append(candidates, p.sel.Single)
	}
	candidates = append(candidates, p.opts.Lib.Today(), p.month)
	for _, d := range candidates {
		if d.Valid() && p.displayed(d) && !p.skip(d) {
			return d
		}
	}
	return p.month
}

func (p *Picker) focusDate(date dates.Date) {
	p.focused = date
	if !p.displayed(date) {
		p.GoToMonth(date)
	}
	p.rebuild()
}

func (p *Picker) skip(date dates.Date) bool {
	mods := p.engine.DateModifiers(date)
	return mods.Has(model.Disabled) || mods.Has(model.Hidden)
}

// displayed reports whether date's month is one of the displayed pages.
func (p *Picker) displayed(date dates.Date) bool {
	for _, m := range p.months {
		if m.Month.SameMonth(date) {
			return true
		}
	}
	return false
}
