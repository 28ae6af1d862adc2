package selection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daypick/internal/dates"
	"daypick/internal/matcher"
	"daypick/internal/model"
)

func d(year int, month time.Month, day int) dates.Date {
	return dates.Date{Year: year, Month: month, Day: day}
}

var (
	lib      = dates.Lib{Location: time.UTC}
	enabled  = model.Modifiers{}
	disabled = model.Modifiers{model.Disabled: true}
)

func TestSingle(t *testing.T) {
	t.Parallel()

	jan10 := d(2024, time.January, 10)
	jan11 := d(2024, time.January, 11)

	s := Single{}
	sel := s.Activate(dates.Date{}, jan10, enabled)
	assert.Equal(t, jan10, sel)
	assert.Equal(t, dates.Date{}, s.Activate(sel, jan10, enabled), "re-activating clears")
	assert.Equal(t, jan11, s.Activate(sel, jan11, enabled))
	assert.Equal(t, jan10, s.Activate(sel, jan11, disabled))
	assert.Equal(t, jan10, s.Activate(sel, dates.Date{}, enabled))

	req := Single{Options{Required: true}}
	assert.Equal(t, jan10, req.Activate(jan10, jan10, enabled))
}

func TestMultiple(t *testing.T) {
	t.Parallel()

	a, b, c := d(2024, time.January, 12), d(2024, time.January, 3), d(2024, time.January, 20)
	m := Multiple{}

	var sel []dates.Date
	for _, day := range []dates.Date{a, b, c} {
		sel = m.Activate(sel, day, enabled)
	}
	assert.Equal(t, []dates.Date{a, b, c}, sel, "activation order is kept")

	removed := m.Activate(sel, b, enabled)
	assert.Equal(t, []dates.Date{a, c}, removed)
	assert.Equal(t, []dates.Date{a, b, c}, sel, "input is not modified")

	assert.Equal(t, sel, m.Activate(sel, d(2024, time.January, 5), disabled))
}

func TestMultipleBounds(t *testing.T) {
	t.Parallel()

	a, b, c := d(2024, time.January, 1), d(2024, time.January, 2), d(2024, time.January, 3)

	minTwo := Multiple{Options{Min: 2}}
	assert.Equal(t, []dates.Date{a, b}, minTwo.Activate([]dates.Date{a, b}, a, enabled))
	assert.Equal(t, []dates.Date{b, c}, minTwo.Activate([]dates.Date{a, b, c}, a, enabled))

	maxTwo := Multiple{Options{Max: 2}}
	assert.Equal(t, []dates.Date{c}, maxTwo.Activate([]dates.Date{a, b}, c, enabled))
	assert.Equal(t, []dates.Date{b}, maxTwo.Activate([]dates.Date{a, b}, a, enabled))
}

func TestRangeTransitions(t *testing.T) {
	t.Parallel()

	jan10 := d(2024, time.January, 10)
	jan15 := d(2024, time.January, 15)
	jan20 := d(2024, time.January, 20)

	tests := []struct {
		name string
		opts Options
		cur  dates.Range
		day  dates.Date
		want dates.Range
	}{
		{"start", Options{}, dates.Range{}, jan10, dates.Range{From: jan10}},
		{"complete forward", Options{}, dates.Range{From: jan10}, jan15, dates.Range{From: jan10, To: jan15}},
		{"complete backward", Options{}, dates.Range{From: jan15}, jan10, dates.Range{From: jan10, To: jan15}},
		{"one day", Options{}, dates.Range{From: jan10}, jan10, dates.Range{From: jan10, To: jan10}},
		{"only to set", Options{}, dates.Range{To: jan15}, jan20, dates.Range{From: jan15, To: jan20}},
		{"restart after complete", Options{}, dates.Range{From: jan10, To: jan15}, jan20, dates.Range{From: jan20}},
		{"restart on endpoint", Options{}, dates.Range{From: jan10, To: jan15}, jan15, dates.Range{From: jan15}},
		{"clear one day range", Options{}, dates.Range{From: jan10, To: jan10}, jan10, dates.Range{}},
		{"required one day range", Options{Required: true}, dates.Range{From: jan10, To: jan10}, jan10, dates.Range{From: jan10}},
		{"max nights", Options{Max: 3}, dates.Range{From: jan10}, jan15, dates.Range{From: jan15}},
		{"within max", Options{Max: 5}, dates.Range{From: jan10}, jan15, dates.Range{From: jan10, To: jan15}},
		{"min nights", Options{Min: 6}, dates.Range{From: jan10}, jan15, dates.Range{From: jan15}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Range{Options: tt.opts, Lib: lib}
			assert.Equal(t, tt.want, r.Activate(tt.cur, tt.day, enabled))
		})
	}
}

func TestRangeSwapLaw(t *testing.T) {
	t.Parallel()

	r := Range{Lib: lib}
	d1, d2 := d(2024, time.March, 9), d(2024, time.February, 27)
	got := r.Activate(r.Activate(dates.Range{}, d1, enabled), d2, enabled)
	assert.Equal(t, dates.Range{From: d2, To: d1}, got)

	// Scenario: click Jan 15, then Jan 10.
	got = r.Activate(r.Activate(dates.Range{}, d(2024, time.January, 15), enabled), d(2024, time.January, 10), enabled)
	assert.Equal(t, dates.Range{From: d(2024, time.January, 10), To: d(2024, time.January, 15)}, got)
}

func TestRangeExcludeDisabled(t *testing.T) {
	t.Parallel()

	blocked := d(2024, time.January, 12)
	r := Range{
		Options: Options{ExcludeDisabled: true, Disabled: []matcher.Matcher{matcher.DateMatch(blocked)}},
		Lib:     lib,
	}

	sel := r.Activate(dates.Range{}, d(2024, time.January, 10), enabled)
	sel = r.Activate(sel, d(2024, time.January, 15), enabled)
	assert.Equal(t, dates.Range{From: d(2024, time.January, 15)}, sel, "completion across a disabled day restarts")
	assert.False(t, matcher.RangeIncludesDate(sel, blocked, false, lib))

	sel = r.Activate(sel, d(2024, time.January, 13), enabled)
	assert.Equal(t, dates.Range{From: d(2024, time.January, 13), To: d(2024, time.January, 15)}, sel)

	// Without the option the disabled day may be spanned.
	loose := Range{Options: Options{Disabled: r.Disabled}, Lib: lib}
	assert.True(t, loose.Activate(dates.Range{From: d(2024, time.January, 10)}, d(2024, time.January, 15), enabled).Complete())
}

func TestDisabledDayIsNoop(t *testing.T) {
	t.Parallel()

	cur := model.Selection{
		Single:   d(2024, time.January, 1),
		Multiple: []dates.Date{d(2024, time.January, 1)},
		Range:    dates.Range{From: d(2024, time.January, 1)},
	}
	for _, mode := range []model.Mode{model.ModeSingle, model.ModeMultiple, model.ModeRange} {
		got := Activate(mode, cur, d(2024, time.January, 5), disabled, Options{}, lib)
		assert.Equal(t, cur, got, mode)
	}
}

func TestRequiredInvariant(t *testing.T) {
	t.Parallel()

	opts := Options{Required: true}
	days := []dates.Date{
		d(2024, time.January, 4), d(2024, time.January, 4), d(2024, time.January, 9),
		d(2024, time.January, 4), d(2024, time.January, 9), d(2024, time.January, 9),
		d(2024, time.January, 9), d(2024, time.January, 2), d(2024, time.January, 2),
	}
	for _, mode := range []model.Mode{model.ModeSingle, model.ModeMultiple, model.ModeRange} {
		t.Run(string(mode), func(t *testing.T) {
			sel := model.Selection{}
			for i := range 5 {
				for _, day := range days {
					sel = Activate(mode, sel, day.AddDays(i%2), enabled, opts, lib)
					require.False(t, sel.Empty(mode), "selection emptied at %v", day)
				}
			}
		})
	}
}

func TestActivateKeepsOtherModes(t *testing.T) {
	t.Parallel()

	cur := model.Selection{Single: d(2024, time.January, 1)}
	got := Activate(model.ModeRange, cur, d(2024, time.January, 3), enabled, Options{}, lib)
	assert.Equal(t, d(2024, time.January, 1), got.Single)
	assert.Equal(t, dates.Range{From: d(2024, time.January, 3)}, got.Range)
}
