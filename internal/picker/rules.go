package picker

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/teambition/rrule-go"

	"daypick/internal/config"
	"daypick/internal/dates"
	"daypick/internal/matcher"
)

// defaultRecurrenceStart is DTSTART for recurrence rules that do not set one.
var defaultRecurrenceStart = dates.Date{Year: 2000, Month: time.January, Day: 1}

// CompileRule turns a configuration rule into a matcher.
func CompileRule(r config.Rule) (matcher.Matcher, error) {
	shape, err := r.Shape()
	if err != nil {
		return nil, err
	}
	switch shape {
	case "all":
		return matcher.BoolMatch(*r.All), nil
	case "date":
		return matcher.DateMatch(r.Date), nil
	case "dates":
		return matcher.DatesMatch(slices.Clone(r.Dates)), nil
	case "range":
		if !r.From.Valid() || !r.To.Valid() {
			return nil, errors.New("range rule needs both from and to")
		}
		return matcher.RangeMatch{From: r.From, To: r.To}, nil
	case "day_of_week":
		days := make(matcher.DayOfWeekMatch, 0, len(r.DayOfWeek))
		for _, wd := range r.DayOfWeek {
			days = append(days, time.Weekday(wd))
		}
		return days, nil
	case "interval":
		return matcher.IntervalMatch{After: r.After, Before: r.Before}, nil
	case "recurrence":
		return recurrence(r.Recurrence, r.RecurrenceStart)
	}
	return nil, fmt.Errorf("unknown rule shape %q", shape)
}

// CompileRules compiles every rule, naming the failing index in errors.
func CompileRules(field string, rules []config.Rule) ([]matcher.Matcher, error) {
	out := make([]matcher.Matcher, 0, len(rules))
	for i, r := range rules {
		m, err := CompileRule(r)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// recurrence returns a predicate matching the days on which an RRULE
// occurs. Occurrences are computed in UTC on calendar days, so the rule's
// BYHOUR and similar parts do not move a day.
func recurrence(rule string, start dates.Date) (matcher.Matcher, error) {
	rule = strings.TrimPrefix(strings.TrimSpace(rule), "RRULE:")
	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("recurrence %q: %w", rule, err)
	}
	if !start.Valid() {
		start = defaultRecurrenceStart
	}
	r.DTStart(start.Time(time.UTC))

	var (
		mu   sync.Mutex
		memo = map[dates.Date]bool{}
	)
	return matcher.PredicateMatch(func(d dates.Date) bool {
		if d.Before(start) {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		if hit, ok := memo[d]; ok {
			return hit
		}
		dayStart := d.Time(time.UTC)
		hit := len(r.Between(dayStart, dayStart.Add(24*time.Hour-time.Second), true)) > 0
		memo[d] = hit
		return hit
	}), nil
}
