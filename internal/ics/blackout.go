package ics

import (
	"context"
	"fmt"
	"time"

	cerrors "cloudeng.io/errors"

	"daypick/internal/config"
	"daypick/internal/dates"
	appLog "daypick/internal/log"
	"daypick/internal/matcher"
	"daypick/internal/model"
)

// Days returns the calendar days an occurrence covers in lib's location.
// The end of an occurrence is exclusive, so an all-day event on Jan 10 (or
// a meeting ending at midnight) covers Jan 10 only.
func Days(occ model.Occurrence, lib dates.Lib) dates.Range {
	from := lib.FromTime(occ.Start)
	to := from
	if occ.End.After(occ.Start) {
		to = lib.FromTime(occ.End.Add(-time.Nanosecond))
	}
	return dates.Range{From: from, To: to}
}

// Matchers returns one matcher per distinct span of days covered by occs.
func Matchers(occs []model.Occurrence, lib dates.Lib) []matcher.Matcher {
	seen := make(map[dates.Range]bool, len(occs))
	out := make([]matcher.Matcher, 0, len(occs))
	for _, occ := range occs {
		r := Days(occ, lib)
		if !r.Complete() || seen[r] {
			continue
		}
		seen[r] = true
		if r.From == r.To {
			out = append(out, matcher.DateMatch(r.From))
		} else {
			out = append(out, matcher.RangeMatch(r))
		}
	}
	return out
}

// Loader turns the configured blackout feeds into day matchers.
type Loader struct {
	Fetcher *Fetcher
	Lib     dates.Lib
	// HorizonDays is how far before and after today events are expanded.
	HorizonDays int
}

// Load fetches every feed and returns its matchers keyed by the feed's
// target modifier. Feeds that fail are skipped and reported in the returned
// error; the matchers of the other feeds are still returned.
func (l *Loader) Load(ctx context.Context, feeds []config.BlackoutConfig) (map[string][]matcher.Matcher, error) {
	sources := make([]Source, len(feeds))
	for i, f := range feeds {
		sources[i] = Source{ID: f.ID, URL: f.URL}
	}
	results, fetchErrs := l.Fetcher.FetchAll(ctx, sources)

	loc := l.Lib.Location
	if loc == nil {
		loc = time.Local
	}
	today := l.Lib.Today().Time(loc)
	horizon := max(l.HorizonDays, 1)
	window := ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      today.AddDate(0, 0, -horizon),
		RangeEnd:        today.AddDate(0, 0, horizon+1),
	}

	errs := &cerrors.M{}
	out := map[string][]matcher.Matcher{}
	for i, feed := range feeds {
		if fetchErrs[i] != nil {
			errs.Append(fmt.Errorf("blackout %s: %w", feed.ID, fetchErrs[i]))
			continue
		}
		events, err := ParseICS(sources[i], results[i].Body)
		if err != nil {
			errs.Append(fmt.Errorf("blackout %s: %w", feed.ID, err))
			continue
		}
		expanded, err := ExpandOccurrences(events, window)
		if err != nil {
			errs.Append(fmt.Errorf("blackout %s: %w", feed.ID, err))
			continue
		}
		name := feed.Modifier
		if name == "" {
			name = model.Disabled
		}
		ms := Matchers(expanded.Occurrences, l.Lib)
		out[name] = append(out[name], ms...)
		appLog.Info("blackout feed loaded", "id", feed.ID, "modifier", name,
			"occurrences", len(expanded.Occurrences), "matchers", len(ms), "from_cache", results[i].FromCache)
	}
	return out, errs.Err()
}
