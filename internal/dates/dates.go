// Package dates provides the calendar-day value used throughout daypick
// together with the small amount of calendar arithmetic the engine needs.
//
// A Date carries no time of day and no location: two instants are the same
// Date when they fall on the same calendar day in the Lib's location. The zero
// Date is the invalid date; it never matches, never selects and is never
// produced by arithmetic on a valid Date.
package dates

import (
	"fmt"
	"strings"
	"time"

	"cloudeng.io/datetime"
)

// Date is a calendar day in the proleptic Gregorian calendar.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New returns the Date for year, month and day, normalizing overflowing
// values the way time.Date does (e.g. Jan 32 is Feb 1).
func New(year int, month time.Month, day int) Date {
	y, m, d := time.Date(year, month, day, 12, 0, 0, 0, time.UTC).Date()
	return Date{Year: y, Month: m, Day: d}
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return datetime.DaysInMonth(year, datetime.Month(month))
}

// Valid reports whether d names a real calendar day.
func (d Date) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return d.Day <= DaysInMonth(d.Year, d.Month)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// noon is used for arithmetic so that no DST transition can move the day.
func (d Date) noon() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after other.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }
func (d Date) After(other Date) bool  { return d.Compare(other) > 0 }

// Weekday returns the day of the week, 0 for Sunday.
func (d Date) Weekday() time.Weekday {
	return d.noon().Weekday()
}

// AddDays returns the date n days after d. Invalid dates are returned as is.
func (d Date) AddDays(n int) Date {
	if !d.Valid() {
		return d
	}
	return New(d.Year, d.Month, d.Day+n)
}

// AddWeeks returns the date n weeks after d.
func (d Date) AddWeeks(n int) Date {
	return d.AddDays(7 * n)
}

// AddMonths returns the date n months after d. When the target month is
// shorter than d's day the result is clamped to its last day, so Jan 31 plus
// one month is the last day of February.
func (d Date) AddMonths(n int) Date {
	if !d.Valid() {
		return d
	}
	total := d.Year*12 + int(d.Month-1) + n
	year, month := floorDiv(total, 12), time.Month(floorMod(total, 12)+1)
	day := min(d.Day, DaysInMonth(year, month))
	return Date{Year: year, Month: month, Day: day}
}

// AddYears returns the date n years after d, clamping Feb 29.
func (d Date) AddYears(n int) Date {
	return d.AddMonths(12 * n)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date {
	if !d.Valid() {
		return d
	}
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// EndOfMonth returns the last day of d's month.
func (d Date) EndOfMonth() Date {
	if !d.Valid() {
		return d
	}
	return Date{Year: d.Year, Month: d.Month, Day: DaysInMonth(d.Year, d.Month)}
}

// SameMonth reports whether d and other fall in the same calendar month.
func (d Date) SameMonth(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month
}

// DifferenceInCalendarDays returns the number of calendar days from b to a,
// negative when a is before b.
func DifferenceInCalendarDays(a, b Date) int {
	const secondsPerDay = 24 * 60 * 60
	return int((a.noon().Unix() - b.noon().Unix()) / secondsPerDay)
}

// DifferenceInCalendarMonths returns the number of month boundaries from b
// to a, ignoring the day of month.
func DifferenceInCalendarMonths(a, b Date) int {
	return (a.Year-b.Year)*12 + int(a.Month) - int(b.Month)
}

// MinDate returns the earlier of a and b.
func MinDate(a, b Date) Date {
	if b.Before(a) {
		return b
	}
	return a
}

// MaxDate returns the later of a and b.
func MaxDate(a, b Date) Date {
	if b.After(a) {
		return b
	}
	return a
}

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
)

// String returns d as YYYY-MM-DD, or the empty string for the zero Date.
func (d Date) String() string {
	if d == (Date{}) {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MonthString returns d as YYYY-MM.
func (d Date) MonthString() string {
	if d == (Date{}) {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// Parse parses a date in YYYY-MM-DD format.
func Parse(val string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(val))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", val)
	}
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}, nil
}

// ParseMonth parses a month in YYYY-MM format and returns its first day. A
// full YYYY-MM-DD date is also accepted and truncated to its month.
func ParseMonth(val string) (Date, error) {
	val = strings.TrimSpace(val)
	if t, err := time.Parse(monthLayout, val); err == nil {
		return Date{Year: t.Year(), Month: t.Month(), Day: 1}, nil
	}
	d, err := Parse(val)
	if err != nil {
		return Date{}, fmt.Errorf("invalid month %q, expected YYYY-MM", val)
	}
	return d.StartOfMonth(), nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. The empty string
// decodes to the zero Date.
func (d *Date) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
