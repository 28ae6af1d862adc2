package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daypick/internal/config"
	"daypick/internal/dates"
	"daypick/internal/matcher"
	"daypick/internal/model"
)

func d(year int, month time.Month, day int) dates.Date {
	return dates.Date{Year: year, Month: month, Day: day}
}

func crlf(s string) string {
	return strings.ReplaceAll(strings.TrimLeft(s, "\n"), "\n", "\r\n")
}

var sampleICS = crlf(`
BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//daypick//test//EN
BEGIN:VEVENT
UID:newyear@test
DTSTAMP:20240101T000000Z
DTSTART;VALUE=DATE:20240101
DTEND;VALUE=DATE:20240102
SUMMARY:New Year
END:VEVENT
BEGIN:VEVENT
UID:trip@test
DTSTAMP:20240101T000000Z
DTSTART;VALUE=DATE:20240110
DTEND;VALUE=DATE:20240113
SUMMARY:Trip
END:VEVENT
BEGIN:VEVENT
UID:standup@test
DTSTAMP:20240101T000000Z
DTSTART:20240102T010000Z
DTEND:20240102T013000Z
RRULE:FREQ=WEEKLY;COUNT=3
EXDATE:20240109T010000Z
SUMMARY:Standup
END:VEVENT
BEGIN:VEVENT
DTSTAMP:20240101T000000Z
DTSTART;VALUE=DATE:20240120
SUMMARY:No UID
END:VEVENT
END:VCALENDAR
`)

var kst = time.FixedZone("KST", 9*60*60)

func TestParseICS(t *testing.T) {
	events, err := ParseICS(Source{ID: "test"}, []byte(sampleICS))
	require.NoError(t, err)
	require.Len(t, events, 3, "the event without UID is skipped")

	byUID := map[string]ParsedEvent{}
	for _, ev := range events {
		byUID[ev.UID] = ev
	}

	trip := byUID["trip@test"]
	assert.True(t, trip.AllDay)
	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), trip.Start)
	assert.Equal(t, time.Date(2024, time.January, 13, 0, 0, 0, 0, time.UTC), trip.End)

	standup := byUID["standup@test"]
	assert.False(t, standup.AllDay)
	assert.Equal(t, "FREQ=WEEKLY;COUNT=3", standup.RawRRule)
	require.Len(t, standup.ExDates, 1)
	assert.True(t, standup.ExDates[0].Equal(time.Date(2024, time.January, 9, 1, 0, 0, 0, time.UTC)))

	_, err = ParseICS(Source{ID: "empty"}, nil)
	assert.Error(t, err)
}

func TestExpandOccurrences(t *testing.T) {
	events, err := ParseICS(Source{ID: "test"}, []byte(sampleICS))
	require.NoError(t, err)

	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: kst,
		RangeStart:      time.Date(2024, time.January, 1, 0, 0, 0, 0, kst),
		RangeEnd:        time.Date(2024, time.February, 1, 0, 0, 0, 0, kst),
	})
	require.NoError(t, err)
	require.Len(t, res.Occurrences, 4)

	summaries := make([]string, 0, len(res.Occurrences))
	for _, occ := range res.Occurrences {
		summaries = append(summaries, occ.Summary)
		assert.Equal(t, kst, occ.Start.Location())
	}
	assert.Equal(t, []string{"New Year", "Standup", "Trip", "Standup"}, summaries)

	// All-day events keep their dates in the display zone.
	assert.Equal(t, time.Date(2024, time.January, 10, 0, 0, 0, 0, kst), res.Occurrences[2].Start)
	// Timed events are converted.
	assert.Equal(t, 10, res.Occurrences[1].Start.Hour())

	_, err = ExpandOccurrences(events, ExpandConfig{
		RangeStart: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}

func TestDaysAndMatchers(t *testing.T) {
	lib := dates.Lib{Location: kst}

	allDay := model.Occurrence{
		AllDay: true,
		Start:  time.Date(2024, time.January, 10, 0, 0, 0, 0, kst),
		End:    time.Date(2024, time.January, 13, 0, 0, 0, 0, kst),
	}
	assert.Equal(t, dates.Range{From: d(2024, time.January, 10), To: d(2024, time.January, 12)}, Days(allDay, lib))

	overnight := model.Occurrence{
		Start: time.Date(2024, time.January, 5, 23, 0, 0, 0, kst),
		End:   time.Date(2024, time.January, 6, 1, 0, 0, 0, kst),
	}
	assert.Equal(t, dates.Range{From: d(2024, time.January, 5), To: d(2024, time.January, 6)}, Days(overnight, lib))

	instant := model.Occurrence{Start: overnight.Start, End: overnight.Start}
	assert.Equal(t, dates.Range{From: d(2024, time.January, 5), To: d(2024, time.January, 5)}, Days(instant, lib))

	ms := Matchers([]model.Occurrence{allDay, instant, instant}, lib)
	assert.Equal(t, []matcher.Matcher{
		matcher.RangeMatch{From: d(2024, time.January, 10), To: d(2024, time.January, 12)},
		matcher.DateMatch(d(2024, time.January, 5)),
	}, ms)
}

func icsServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/cal.ics":
			if r.Header.Get("If-None-Match") == `"v1"` {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.Header().Set("ETag", `"v1"`)
			w.Header().Set("Content-Type", "text/calendar")
			_, _ = w.Write([]byte(sampleICS))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchOneCaches(t *testing.T) {
	var hits atomic.Int32
	srv := icsServer(t, &hits)
	f := NewFetcher(t.TempDir())
	src := Source{ID: "cal", URL: srv.URL + "/cal.ics"}

	first, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, second.FromCache, "304 reuses the cached body")
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, int32(2), hits.Load())

	srv.Close()
	third, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err, "network errors fall back to the cache")
	assert.True(t, third.FromCache)

	_, err = f.FetchOne(context.Background(), Source{ID: "none", URL: srv.URL + "/other.ics"})
	assert.Error(t, err)
}

func TestFetchAllKeepsOrder(t *testing.T) {
	var hits atomic.Int32
	srv := icsServer(t, &hits)
	f := NewFetcher(t.TempDir(), WithConcurrency(2))

	results, errs := f.FetchAll(context.Background(), []Source{
		{ID: "a", URL: srv.URL + "/cal.ics"},
		{ID: "b", URL: srv.URL + "/missing.ics"},
		{ID: "c", URL: ""},
	})
	require.Len(t, results, 3)
	assert.NoError(t, errs[0])
	assert.Equal(t, "a", results[0].Source.ID)
	assert.Error(t, errs[1])
	assert.Error(t, errs[2])
}

func TestLoaderLoad(t *testing.T) {
	var hits atomic.Int32
	srv := icsServer(t, &hits)

	path := filepath.Join(t.TempDir(), "team.ics")
	require.NoError(t, os.WriteFile(path, []byte(sampleICS), 0o600))

	l := &Loader{
		Fetcher: NewFetcher(t.TempDir()),
		Lib: dates.Lib{
			Location: time.UTC,
			Now:      func() time.Time { return time.Date(2024, time.January, 15, 8, 0, 0, 0, time.UTC) },
		},
		HorizonDays: 60,
	}
	got, err := l.Load(context.Background(), []config.BlackoutConfig{
		{ID: "holidays", URL: srv.URL + "/cal.ics"},
		{ID: "broken", URL: srv.URL + "/broken.ics"},
		{ID: "team", URL: "file://" + path, Modifier: "busy"},
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "blackout broken")

	require.Len(t, got[model.Disabled], 4)
	require.Len(t, got["busy"], 4)
	lib := dates.Lib{Location: time.UTC}
	assert.True(t, matcher.MatchesAny(d(2024, time.January, 11), got[model.Disabled], lib))
	assert.True(t, matcher.MatchesAny(d(2024, time.January, 16), got["busy"], lib))
	assert.False(t, matcher.MatchesAny(d(2024, time.January, 9), got[model.Disabled], lib), "excluded occurrence")
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private.ics?token=abcd"))
	assert.Equal(t, "file://team.ics", redactURL("file:///srv/cal/team.ics"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
