package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	cerrors "cloudeng.io/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"daypick/internal/dates"
	"daypick/internal/model"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// BlackoutConfig describes an ICS subscription whose events are turned into
// day modifiers.
type BlackoutConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// Modifier is the modifier set on days covered by an event: "disabled"
	// (default), "hidden" or any custom name.
	Modifier string `yaml:"modifier,omitempty" json:"modifier,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Rule is the YAML form of a date matcher. Exactly one shape must be set:
//
//	all: true
//	date: 2024-01-10
//	dates: [2024-01-10, 2024-01-12]
//	from: 2024-01-10
//	to: 2024-01-15
//	day_of_week: [saturday, sunday]
//	before: 2024-01-01          # and/or after:
//	recurrence: FREQ=MONTHLY;BYMONTHDAY=1
type Rule struct {
	All       *bool        `yaml:"all,omitempty" json:"all,omitempty"`
	Date      dates.Date   `yaml:"date,omitempty" json:"date,omitzero"`
	Dates     []dates.Date `yaml:"dates,omitempty" json:"dates,omitempty"`
	From      dates.Date   `yaml:"from,omitempty" json:"from,omitzero"`
	To        dates.Date   `yaml:"to,omitempty" json:"to,omitzero"`
	DayOfWeek []Weekday    `yaml:"day_of_week,omitempty" json:"day_of_week,omitempty"`
	Before    dates.Date   `yaml:"before,omitempty" json:"before,omitzero"`
	After     dates.Date   `yaml:"after,omitempty" json:"after,omitzero"`

	// Recurrence is an RFC 5545 RRULE, with or without the "RRULE:" prefix.
	Recurrence string `yaml:"recurrence,omitempty" json:"recurrence,omitempty"`
	// RecurrenceStart is the first occurrence (DTSTART) of Recurrence.
	// Defaults to 2000-01-01.
	RecurrenceStart dates.Date `yaml:"recurrence_start,omitempty" json:"recurrence_start,omitzero"`
}

// Shape returns the name of the matcher shape the rule describes, or an
// error when it describes none or several.
func (r Rule) Shape() (string, error) {
	var shapes []string
	if r.All != nil {
		shapes = append(shapes, "all")
	}
	if r.Date != (dates.Date{}) {
		shapes = append(shapes, "date")
	}
	if len(r.Dates) > 0 {
		shapes = append(shapes, "dates")
	}
	if r.From != (dates.Date{}) || r.To != (dates.Date{}) {
		shapes = append(shapes, "range")
	}
	if len(r.DayOfWeek) > 0 {
		shapes = append(shapes, "day_of_week")
	}
	if r.Before != (dates.Date{}) || r.After != (dates.Date{}) {
		shapes = append(shapes, "interval")
	}
	if r.Recurrence != "" {
		shapes = append(shapes, "recurrence")
	}
	switch len(shapes) {
	case 0:
		return "", errors.New("empty rule")
	case 1:
		return shapes[0], nil
	}
	return "", fmt.Errorf("rule mixes %s", strings.Join(shapes, ", "))
}

// Weekday is a day of the week that decodes from a name ("monday", "mon")
// or a number (0 is Sunday).
type Weekday time.Weekday

func (w Weekday) MarshalYAML() (any, error) {
	return strings.ToLower(time.Weekday(w).String()), nil
}

func (w *Weekday) UnmarshalYAML(value *yaml.Node) error {
	wd, err := ParseWeekday(value.Value)
	if err != nil {
		return err
	}
	*w = Weekday(wd)
	return nil
}

func (w Weekday) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(time.Weekday(w).String())), nil
}

func (w *Weekday) UnmarshalText(text []byte) error {
	wd, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*w = Weekday(wd)
	return nil
}

// ParseWeekday parses a weekday name, a three letter abbreviation or a
// number from 0 (Sunday) to 6.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("invalid weekday %d, expected 0-6", n)
		}
		return time.Weekday(n), nil
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone that defines calendar days (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Mode is the selection mode: single, multiple or range.
	Mode            string `yaml:"mode" json:"mode"`
	Required        bool   `yaml:"required" json:"required"`
	Min             int    `yaml:"min,omitempty" json:"min,omitempty"`
	Max             int    `yaml:"max,omitempty" json:"max,omitempty"`
	ExcludeDisabled bool   `yaml:"exclude_disabled" json:"exclude_disabled"`

	// WeekStart is the first day of the week in calendar views
	// (default "sunday"). Ignored when ISOWeek is set.
	WeekStart string `yaml:"week_start" json:"week_start"`
	ISOWeek   bool   `yaml:"iso_week" json:"iso_week"`

	NumberOfMonths    int  `yaml:"number_of_months" json:"number_of_months"`
	PagedNavigation   bool `yaml:"paged_navigation" json:"paged_navigation"`
	DisableNavigation bool `yaml:"disable_navigation" json:"disable_navigation"`
	ShowOutsideDays   bool `yaml:"show_outside_days" json:"show_outside_days"`
	FixedWeeks        bool `yaml:"fixed_weeks" json:"fixed_weeks"`
	ReverseMonths     bool `yaml:"reverse_months" json:"reverse_months"`

	// Month is the initially displayed month (YYYY-MM); empty means the
	// current month. StartMonth and EndMonth bound navigation.
	Month      string `yaml:"month,omitempty" json:"month,omitempty"`
	StartMonth string `yaml:"start_month,omitempty" json:"start_month,omitempty"`
	EndMonth   string `yaml:"end_month,omitempty" json:"end_month,omitempty"`

	// Today pins the current day (YYYY-MM-DD), mostly for demos and tests.
	Today string `yaml:"today,omitempty" json:"today,omitempty"`

	Disabled  []Rule            `yaml:"disabled,omitempty" json:"disabled,omitempty"`
	Hidden    []Rule            `yaml:"hidden,omitempty" json:"hidden,omitempty"`
	Modifiers map[string][]Rule `yaml:"modifiers,omitempty" json:"modifiers,omitempty"`

	// Blackout is the list of ICS feeds that mark days.
	Blackout []BlackoutConfig `yaml:"blackout" json:"blackout"`

	// HorizonDays is how far before and after today blackout events are
	// expanded.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic blackout refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "Asia/Seoul"
	defaultWeekStart   = "sunday"
	defaultRefreshCron = "*/15 * * * *"
	defaultHorizonDays = 366
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         defaultListen,
		Timezone:       defaultTimezone,
		LogLevel:       "info",
		Mode:           string(model.ModeSingle),
		WeekStart:      defaultWeekStart,
		NumberOfMonths: 1,
		RefreshCron:    defaultRefreshCron,
		HorizonDays:    defaultHorizonDays,
		Disabled:       []Rule{},
		Blackout:       []BlackoutConfig{},
		BasicAuth:      nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Mode == "" {
		c.Mode = string(model.ModeSingle)
	}
	if c.WeekStart == "" {
		c.WeekStart = defaultWeekStart
	}
	if c.NumberOfMonths <= 0 {
		c.NumberOfMonths = 1
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.Blackout == nil {
		c.Blackout = []BlackoutConfig{}
	}
	for i := range c.Blackout {
		if c.Blackout[i].Modifier == "" {
			c.Blackout[i].Modifier = model.Disabled
		}
		if c.Blackout[i].ID == "" {
			c.Blackout[i].ID = fmt.Sprintf("feed-%d", i+1)
		}
	}
}

// Validate reports every problem found in c, not just the first.
func (c *Config) Validate() error {
	errs := &cerrors.M{}
	if _, err := c.Location(); err != nil {
		errs.Append(err)
	}
	if _, err := model.ParseMode(c.Mode); err != nil {
		errs.Append(err)
	}
	if _, err := c.WeekStartsOn(); err != nil {
		errs.Append(fmt.Errorf("week_start: %w", err))
	}
	if c.Min < 0 || c.Max < 0 {
		errs.Append(errors.New("min and max must not be negative"))
	}
	if c.Max > 0 && c.Min > c.Max {
		errs.Append(fmt.Errorf("min %d exceeds max %d", c.Min, c.Max))
	}
	if c.NumberOfMonths < 0 {
		errs.Append(fmt.Errorf("number_of_months must be positive, got %d", c.NumberOfMonths))
	}
	_, start, end, err := c.Months()
	errs.Append(err)
	if err == nil && start.Valid() && end.Valid() && end.Before(start) {
		errs.Append(fmt.Errorf("end_month %s is before start_month %s", end.MonthString(), start.MonthString()))
	}
	if c.Today != "" {
		if _, err := dates.Parse(c.Today); err != nil {
			errs.Append(fmt.Errorf("today: %w", err))
		}
	}
	validateRules(errs, "disabled", c.Disabled)
	validateRules(errs, "hidden", c.Hidden)
	for name, rules := range c.Modifiers {
		if name == "" {
			errs.Append(errors.New("modifiers: empty modifier name"))
		}
		validateRules(errs, "modifiers."+name, rules)
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs.Append(fmt.Errorf("refresh: %w", err))
	}
	seen := map[string]bool{}
	for i, b := range c.Blackout {
		if b.URL == "" {
			errs.Append(fmt.Errorf("blackout[%d]: url is required", i))
		}
		if b.ID != "" && seen[b.ID] {
			errs.Append(fmt.Errorf("blackout[%d]: duplicate id %q", i, b.ID))
		}
		seen[b.ID] = true
	}
	return errs.Err()
}

func validateRules(errs *cerrors.M, field string, rules []Rule) {
	for i, r := range rules {
		if _, err := r.Shape(); err != nil {
			errs.Append(fmt.Errorf("%s[%d]: %w", field, i, err))
		}
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// WeekStartsOn resolves WeekStart.
func (c *Config) WeekStartsOn() (time.Weekday, error) {
	if c.WeekStart == "" {
		return time.Sunday, nil
	}
	return ParseWeekday(c.WeekStart)
}

// Months parses Month, StartMonth and EndMonth. Unset values are returned as
// the zero Date.
func (c *Config) Months() (month, start, end dates.Date, err error) {
	errs := &cerrors.M{}
	parse := func(field, val string) dates.Date {
		if val == "" {
			return dates.Date{}
		}
		d, err := dates.ParseMonth(val)
		if err != nil {
			errs.Append(fmt.Errorf("%s: %w", field, err))
		}
		return d
	}
	month = parse("month", c.Month)
	start = parse("start_month", c.StartMonth)
	end = parse("end_month", c.EndMonth)
	return month, start, end, errs.Err()
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes, normalizes and validates a YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".daypick-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
