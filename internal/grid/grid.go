// Package grid builds the calendar grid: the month pages, their weeks and
// the days shown in each week.
package grid

import (
	"slices"

	"daypick/internal/dates"
	"daypick/internal/model"
)

const (
	daysPerWeek = 7
	// fixedWeeks is the number of rows every month gets with FixedWeeks.
	fixedWeeks = 6
)

// Options controls the shape of the grid.
type Options struct {
	// NumberOfMonths is the number of consecutive months shown. Values
	// below one are treated as one.
	NumberOfMonths int
	// FixedWeeks pads every month to six weeks with days of the
	// following month.
	FixedWeeks bool
	// ReverseMonths lists the months latest first.
	ReverseMonths bool
}

func (o Options) months() int {
	return max(o.NumberOfMonths, 1)
}

// DisplayMonths returns the first days of the n consecutive months starting
// with first's month.
func DisplayMonths(first dates.Date, n int) []dates.Date {
	first = first.StartOfMonth()
	out := make([]dates.Date, 0, max(n, 1))
	for i := range max(n, 1) {
		out = append(out, first.AddMonths(i))
	}
	return out
}

// InitialMonth returns the first month to display when month is requested
// and numberOfMonths pages are shown, keeping the page inside the navigable
// bounds where possible. Zero bounds are ignored.
func InitialMonth(month, startMonth, endMonth dates.Date, numberOfMonths int) dates.Date {
	n := max(numberOfMonths, 1)
	if endMonth.Valid() && dates.DifferenceInCalendarMonths(endMonth, month) < n {
		month = endMonth.AddMonths(-(n - 1))
	}
	if startMonth.Valid() && dates.DifferenceInCalendarMonths(month, startMonth) < 0 {
		month = startMonth
	}
	return month.StartOfMonth()
}

// Build returns the month pages starting at first's month. Every week has
// seven consecutive days starting on the Lib's week start; days before the
// first or after the last day of a month belong to the adjacent months and
// are included to complete the weeks. Build is deterministic: the same input
// always yields equal values.
func Build(first dates.Date, opts Options, lib dates.Lib) []model.CalendarMonth {
	if !first.Valid() {
		return nil
	}
	months := make([]model.CalendarMonth, 0, opts.months())
	for _, month := range DisplayMonths(first, opts.months()) {
		months = append(months, buildMonth(month, opts, lib))
	}
	if opts.ReverseMonths {
		slices.Reverse(months)
	}
	return months
}

func buildMonth(month dates.Date, opts Options, lib dates.Lib) model.CalendarMonth {
	start := lib.StartOfWeek(month)
	end := lib.EndOfWeek(month.EndOfMonth())
	nWeeks := (dates.DifferenceInCalendarDays(end, start) + 1) / daysPerWeek
	if opts.FixedWeeks && nWeeks < fixedWeeks {
		nWeeks = fixedWeeks
	}

	weeks := make([]model.CalendarWeek, 0, nWeeks)
	day := start
	for range nWeeks {
		week := model.CalendarWeek{
			Number: lib.WeekNumber(day),
			Days:   make([]model.CalendarDay, 0, daysPerWeek),
		}
		for range daysPerWeek {
			week.Days = append(week.Days, model.NewCalendarDay(day, month))
			day = day.AddDays(1)
		}
		weeks = append(weeks, week)
	}
	return model.CalendarMonth{Month: month, Weeks: weeks}
}

// Days returns every day of months in display order.
func Days(months []model.CalendarMonth) []model.CalendarDay {
	var out []model.CalendarDay
	for _, m := range months {
		out = append(out, m.Days()...)
	}
	return out
}

// Contains reports whether day is one of the cells of months.
func Contains(months []model.CalendarMonth, day model.CalendarDay) bool {
	for _, m := range months {
		if m.Month != day.DisplayMonth {
			continue
		}
		for _, w := range m.Weeks {
			if slices.Contains(w.Days, day) {
				return true
			}
		}
	}
	return false
}
