package model

import (
	"fmt"
	"maps"
	"time"

	"daypick/internal/dates"
)

// CalendarDay is one cell of the calendar grid. DisplayMonth is the first day
// of the month page the cell is shown on, which differs from Date's own month
// for outside days. CalendarDay is a comparable value: two days are the same
// cell when both fields are equal.
type CalendarDay struct {
	Date         dates.Date `json:"date"`
	DisplayMonth dates.Date `json:"display_month"`
}

// NewCalendarDay returns the cell for date shown on the page of displayMonth.
func NewCalendarDay(date, displayMonth dates.Date) CalendarDay {
	return CalendarDay{Date: date, DisplayMonth: displayMonth.StartOfMonth()}
}

// Outside reports whether the day belongs to a month other than the page it
// is displayed on.
func (d CalendarDay) Outside() bool {
	return !d.Date.SameMonth(d.DisplayMonth)
}

// CalendarWeek is a row of seven consecutive days.
type CalendarWeek struct {
	// Number is the week number of the first day, ISO-8601 when ISO weeks
	// are enabled.
	Number int           `json:"number"`
	Days   []CalendarDay `json:"days"`
}

// CalendarMonth is one month page of the grid.
type CalendarMonth struct {
	// Month is the first day of the month.
	Month dates.Date     `json:"month"`
	Weeks []CalendarWeek `json:"weeks"`
}

// Days returns every day of the month page in display order.
func (m CalendarMonth) Days() []CalendarDay {
	out := make([]CalendarDay, 0, len(m.Weeks)*7)
	for _, w := range m.Weeks {
		out = append(out, w.Days...)
	}
	return out
}

// Built-in modifier names.
const (
	Outside     = "outside"
	Disabled    = "disabled"
	Hidden      = "hidden"
	Today       = "today"
	Focused     = "focused"
	Selected    = "selected"
	RangeStart  = "range_start"
	RangeMiddle = "range_middle"
	RangeEnd    = "range_end"
)

// BuiltinModifiers lists the built-in modifier names in merge order.
var BuiltinModifiers = []string{
	Outside, Disabled, Hidden, Today, Focused,
	Selected, RangeStart, RangeMiddle, RangeEnd,
}

// Modifiers holds the named flags of a single day. Missing names are false.
type Modifiers map[string]bool

// Has reports whether the named flag is set.
func (m Modifiers) Has(name string) bool {
	return m[name]
}

// Clone returns an independent copy of m.
func (m Modifiers) Clone() Modifiers {
	if m == nil {
		return Modifiers{}
	}
	return maps.Clone(m)
}

// Mode selects the selection protocol.
type Mode string

const (
	ModeSingle   Mode = "single"
	ModeMultiple Mode = "multiple"
	ModeRange    Mode = "range"
)

// ParseMode parses a mode name; the empty string is single mode.
func ParseMode(val string) (Mode, error) {
	switch Mode(val) {
	case ModeSingle, ModeMultiple, ModeRange:
		return Mode(val), nil
	case "":
		return ModeSingle, nil
	}
	return "", fmt.Errorf("invalid selection mode %q, expected single, multiple or range", val)
}

// Selection is the selection value round-tripped between the caller and the
// selection controllers. Only the field that corresponds to the active Mode
// is meaningful.
type Selection struct {
	Single   dates.Date   `json:"single,omitzero" yaml:"single,omitempty"`
	Multiple []dates.Date `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	Range    dates.Range  `json:"range,omitzero" yaml:"range,omitempty"`
}

// Empty reports whether nothing is selected in the given mode.
func (s Selection) Empty(mode Mode) bool {
	switch mode {
	case ModeMultiple:
		return len(s.Multiple) == 0
	case ModeRange:
		return s.Range.IsZero()
	default:
		return !s.Single.Valid()
	}
}

// Occurrence represents a single concrete instance of a calendar event
// (after recurrence expansion and timezone normalization). Blackout feeds
// turn occurrences into the days they cover.
type Occurrence struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, typically derived from the local start time.
	InstanceKey string

	Summary string

	AllDay bool

	// Start / End are in the configured display timezone. For all-day
	// events End is exclusive (midnight of the following day).
	Start time.Time
	End   time.Time
}
