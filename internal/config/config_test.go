package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daypick/internal/dates"
	"daypick/internal/model"
)

const sample = `
timezone: UTC
mode: range
required: true
max: 14
exclude_disabled: true
week_start: mon
number_of_months: 2
month: 2024-01
start_month: 2023-12
end_month: 2024-06
disabled:
  - day_of_week: [saturday, 0]
  - from: 2024-01-20
    to: 2024-01-22
hidden:
  - before: 2023-12-15
modifiers:
  payday:
    - recurrence: FREQ=MONTHLY;BYMONTHDAY=25
blackout:
  - url: https://example.com/holidays.ics
    name: Holidays
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "range", cfg.Mode)
	assert.True(t, cfg.Required)
	assert.Equal(t, 14, cfg.Max)
	assert.Equal(t, 2, cfg.NumberOfMonths)

	wd, err := cfg.WeekStartsOn()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)

	require.Len(t, cfg.Disabled, 2)
	assert.Equal(t, []Weekday{Weekday(time.Saturday), Weekday(time.Sunday)}, cfg.Disabled[0].DayOfWeek)
	assert.Equal(t, dates.New(2024, time.January, 20), cfg.Disabled[1].From)
	assert.Equal(t, dates.New(2023, time.December, 15), cfg.Hidden[0].Before)
	assert.Equal(t, "FREQ=MONTHLY;BYMONTHDAY=25", cfg.Modifiers["payday"][0].Recurrence)

	month, start, end, err := cfg.Months()
	require.NoError(t, err)
	assert.Equal(t, dates.New(2024, time.January, 1), month)
	assert.Equal(t, dates.New(2023, time.December, 1), start)
	assert.Equal(t, dates.New(2024, time.June, 1), end)

	// Normalize fills feed defaults.
	require.Len(t, cfg.Blackout, 1)
	assert.Equal(t, "feed-1", cfg.Blackout[0].ID)
	assert.Equal(t, model.Disabled, cfg.Blackout[0].Modifier)
	assert.Equal(t, defaultRefreshCron, cfg.RefreshCron)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	cfg.Mode = "several"
	cfg.WeekStart = "someday"
	cfg.Min, cfg.Max = 5, 2
	cfg.RefreshCron = "every tuesday"
	cfg.StartMonth, cfg.EndMonth = "2024-06", "2024-01"
	cfg.Disabled = []Rule{{}, {Date: dates.New(2024, time.January, 1), Before: dates.New(2024, time.February, 1)}}
	cfg.Blackout = []BlackoutConfig{{ID: "a"}, {ID: "a", URL: "https://example.com/a.ics"}}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`timezone "Mars/Olympus"`,
		`invalid selection mode "several"`,
		"week_start",
		"min 5 exceeds max 2",
		"refresh: ",
		"end_month 2024-01 is before start_month 2024-06",
		"disabled[0]: empty rule",
		"disabled[1]: rule mixes date, interval",
		"blackout[0]: url is required",
		`blackout[1]: duplicate id "a"`,
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Normalize()
	assert.NoError(t, cfg.Validate())
}

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "daypick.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Listen, cfg.Listen)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Timezone, again.Timezone)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daypick.yaml")

	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Disabled, loaded.Disabled)
	assert.Equal(t, cfg.Hidden, loaded.Hidden)
	assert.Equal(t, cfg.Modifiers, loaded.Modifiers)
	assert.Equal(t, cfg.Blackout, loaded.Blackout)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daypick.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: sideways\n"), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid config")
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{
		"0":        time.Sunday,
		"6":        time.Saturday,
		"Monday":   time.Monday,
		"wed":      time.Wednesday,
		" friday ": time.Friday,
	} {
		got, err := ParseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"7", "-1", "mo", "funday"} {
		_, err := ParseWeekday(bad)
		assert.Error(t, err, bad)
	}
}
