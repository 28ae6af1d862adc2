package dates

import "time"

// Range is a span of days. Either end may be the zero Date: a Range with
// only From set is a selection in progress. From is not required to precede
// To; use Normalize to obtain the chronological form.
type Range struct {
	From Date `json:"from" yaml:"from"`
	To   Date `json:"to" yaml:"to"`
}

// IsZero reports whether neither end is set.
func (r Range) IsZero() bool {
	return !r.From.Valid() && !r.To.Valid()
}

// Complete reports whether both ends are set.
func (r Range) Complete() bool {
	return r.From.Valid() && r.To.Valid()
}

// Normalize returns r with its ends swapped when To precedes From.
func (r Range) Normalize() Range {
	if r.Complete() && r.To.Before(r.From) {
		return Range{From: r.To, To: r.From}
	}
	return r
}

func (r Range) String() string {
	return r.From.String() + ".." + r.To.String()
}

// Lib bundles the settings that calendar computations depend on: the time
// zone used to truncate instants to days, the first day of the week and an
// optional clock.
type Lib struct {
	// Location is used when converting a time.Time to a Date. If nil,
	// time.Local is used.
	Location *time.Location

	// WeekStartsOn is ignored when ISOWeek is set.
	WeekStartsOn time.Weekday

	// ISOWeek forces Monday as the first day of the week and ISO-8601 week
	// numbering.
	ISOWeek bool

	// Now overrides time.Now, for the today modifier and tests.
	Now func() time.Time
}

func (l Lib) location() *time.Location {
	if l.Location == nil {
		return time.Local
	}
	return l.Location
}

// FromTime returns the calendar day of t in the Lib's location. The zero
// time maps to the zero Date.
func (l Lib) FromTime(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.In(l.location()).Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current day in the Lib's location.
func (l Lib) Today() Date {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	return l.FromTime(now())
}

// WeekStart returns the effective first day of the week.
func (l Lib) WeekStart() time.Weekday {
	if l.ISOWeek {
		return time.Monday
	}
	return time.Weekday((int(l.WeekStartsOn)%7 + 7) % 7)
}

// StartOfWeek returns the first day of the week containing d.
func (l Lib) StartOfWeek(d Date) Date {
	if !d.Valid() {
		return d
	}
	diff := (int(d.Weekday()) - int(l.WeekStart()) + 7) % 7
	return d.AddDays(-diff)
}

// EndOfWeek returns the last day of the week containing d.
func (l Lib) EndOfWeek(d Date) Date {
	if !d.Valid() {
		return d
	}
	return l.StartOfWeek(d).AddDays(6)
}

// WeekNumber returns the week number of d. With ISOWeek it is the ISO-8601
// week; otherwise week 1 is the week that contains January 1st.
func (l Lib) WeekNumber(d Date) int {
	if !d.Valid() {
		return 0
	}
	if l.ISOWeek {
		_, week := d.noon().ISOWeek()
		return week
	}
	start := l.StartOfWeek(d)
	if next := l.StartOfWeek(Date{Year: d.Year + 1, Month: time.January, Day: 1}); !start.Before(next) {
		return 1
	}
	first := l.StartOfWeek(Date{Year: d.Year, Month: time.January, Day: 1})
	return DifferenceInCalendarDays(start, first)/7 + 1
}
