package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"daypick/internal/config"
	"daypick/internal/dates"
	"daypick/internal/focus"
	appLog "daypick/internal/log"
	"daypick/internal/matcher"
	"daypick/internal/model"
	"daypick/internal/picker"
)

// RefreshFunc loads the matchers contributed by blackout feeds, keyed by
// modifier name. A partial result may be returned together with an error.
type RefreshFunc func(ctx context.Context) (map[string][]matcher.Matcher, error)

// Server provides the HTTP API around a single Picker.
type Server struct {
	mux     *http.ServeMux
	refresh RefreshFunc

	// mu serializes every access to cfg and picker.
	mu     sync.Mutex
	cfg    *config.Config
	picker *picker.Picker
}

// NewServer constructs a new Server. refresh may be nil.
func NewServer(cfg *config.Config, p *picker.Picker, refresh RefreshFunc) *Server {
	s := &Server{
		cfg:     cfg,
		picker:  p,
		refresh: refresh,
		mux:     http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Replace swaps in a new configuration and Picker, e.g. after the config
// file changed on disk.
func (s *Server) Replace(cfg *config.Config, p *picker.Picker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.picker = p
}

// Update runs fn with exclusive access to the Picker.
func (s *Server) Update(fn func(p *picker.Picker)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.picker)
}

// Refresh reloads the blackout feeds and applies whatever was loaded, even
// when some feeds failed.
func (s *Server) Refresh(ctx context.Context) error {
	if s.refresh == nil {
		return nil
	}
	extra, err := s.refresh(ctx)
	s.Update(func(p *picker.Picker) { p.SetBlackouts(extra) })
	return err
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.basicAuthMiddleware(s.mux)
}

// credentials returns the configured Basic Auth pair, or ok=false when auth
// is disabled.
func (s *Server) credentials() (username, password string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return "", "", false
	}
	// An empty username or password disables auth.
	if s.cfg.BasicAuth.Username == "" || s.cfg.BasicAuth.Password == "" {
		return "", "", false
	}
	return s.cfg.BasicAuth.Username, s.cfg.BasicAuth.Password, true
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
// Credentials are read per request so a config reload takes effect at once.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		username, password, enabled := s.credentials()
		if !enabled {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="daypick", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves s on listen until ctx is cancelled, then shuts down
// gracefully.
func StartServer(ctx context.Context, listen string, s *Server) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	s.mux.HandleFunc("POST /api/select", s.handleSelect)
	s.mux.HandleFunc("POST /api/focus", s.handleFocus)
	s.mux.HandleFunc("POST /api/month", s.handleMonth)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// dayDTO is one grid cell with the names of its set modifiers.
type dayDTO struct {
	Date         dates.Date `json:"date"`
	DisplayMonth dates.Date `json:"display_month"`
	Modifiers    []string   `json:"modifiers"`
}

type weekDTO struct {
	Number int      `json:"number"`
	Days   []dayDTO `json:"days"`
}

type monthDTO struct {
	Month dates.Date `json:"month"`
	Weeks []weekDTO  `json:"weeks"`
}

// calendarResponse is the JSON response shape for /api/calendar.
type calendarResponse struct {
	Mode          model.Mode      `json:"mode"`
	Today         dates.Date      `json:"today"`
	Month         dates.Date      `json:"month"`
	PreviousMonth dates.Date      `json:"previous_month,omitzero"`
	NextMonth     dates.Date      `json:"next_month,omitzero"`
	Focused       dates.Date      `json:"focused,omitzero"`
	Selection     model.Selection `json:"selection"`
	Months        []monthDTO      `json:"months"`
}

// calendarView renders the current picker state. Callers hold s.mu.
func (s *Server) calendarView() calendarResponse {
	p := s.picker
	resp := calendarResponse{
		Mode:      p.Mode(),
		Today:     p.Lib().Today(),
		Month:     p.Month(),
		Focused:   p.Focused(),
		Selection: p.Selection(),
	}
	if prev, ok := p.PreviousMonth(); ok {
		resp.PreviousMonth = prev
	}
	if next, ok := p.NextMonth(); ok {
		resp.NextMonth = next
	}
	for _, m := range p.Months() {
		md := monthDTO{Month: m.Month, Weeks: make([]weekDTO, 0, len(m.Weeks))}
		for _, wk := range m.Weeks {
			wd := weekDTO{Number: wk.Number, Days: make([]dayDTO, 0, len(wk.Days))}
			for _, day := range wk.Days {
				wd.Days = append(wd.Days, dayDTO{
					Date:         day.Date,
					DisplayMonth: day.DisplayMonth,
					Modifiers:    modifierNames(p.Modifiers(day)),
				})
			}
			md.Weeks = append(md.Weeks, wd)
		}
		resp.Months = append(resp.Months, md)
	}
	return resp
}

// modifierNames returns the set flags in sorted order.
func modifierNames(mods model.Modifiers) []string {
	names := make([]string, 0, len(mods))
	for name, on := range mods {
		if on {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// handleCalendar returns the displayed months.
//
// GET /api/calendar?month=2024-03
//   - month: navigate to this month first (optional)
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	var month dates.Date
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := dates.ParseMonth(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		month = m
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if month.Valid() {
		s.picker.GoToMonth(month)
	}
	writeJSON(w, http.StatusOK, s.calendarView())
}

type selectRequest struct {
	Date         dates.Date `json:"date"`
	DisplayMonth dates.Date `json:"display_month"`
}

type selectResponse struct {
	Selection model.Selection `json:"selection"`
	Focused   dates.Date      `json:"focused,omitzero"`
	Modifiers []string        `json:"modifiers"`
}

// handleSelect activates a day. display_month defaults to the day's own
// month.
func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.Date.Valid() {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	display := req.DisplayMonth
	if !display.Valid() {
		display = req.Date
	}
	day := model.NewCalendarDay(req.Date, display)

	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.picker.Select(day)
	appLog.Debug("api select", "date", req.Date, "display_month", day.DisplayMonth.MonthString())
	writeJSON(w, http.StatusOK, selectResponse{
		Selection: sel,
		Focused:   s.picker.Focused(),
		Modifiers: modifierNames(s.picker.Modifiers(day)),
	})
}

type focusRequest struct {
	MoveBy string     `json:"move_by"`
	Dir    string     `json:"dir"`
	Date   dates.Date `json:"date"`
}

type focusResponse struct {
	Focused dates.Date `json:"focused,omitzero"`
	Moved   bool       `json:"moved"`
	Month   dates.Date `json:"month"`
}

// handleFocus either focuses a date or moves the focus.
func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	var req focusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		by  focus.MoveBy
		dir focus.Direction
		err error
	)
	if !req.Date.Valid() {
		if by, err = focus.ParseMoveBy(req.MoveBy); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if dir, err = focus.ParseDirection(req.Dir); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var moved bool
	if req.Date.Valid() {
		moved = s.picker.Focus(req.Date)
	} else {
		_, moved = s.picker.MoveFocus(by, dir)
	}
	writeJSON(w, http.StatusOK, focusResponse{
		Focused: s.picker.Focused(),
		Moved:   moved,
		Month:   s.picker.Month(),
	})
}

type monthRequest struct {
	Dir   string `json:"dir"`
	Month string `json:"month"`
}

// handleMonth navigates and returns the calendar. Navigating past a bound
// answers 409.
func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	var req monthRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var target dates.Date
	switch {
	case req.Month != "":
		m, err := dates.ParseMonth(req.Month)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		target = m
	case req.Dir != "":
		dir, err := focus.ParseDirection(req.Dir)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var ok bool
		if dir == focus.After {
			target, ok = s.picker.NextMonth()
		} else {
			target, ok = s.picker.PreviousMonth()
		}
		if !ok {
			writeError(w, http.StatusConflict, fmt.Sprintf("no %s month from %s", req.Dir, s.picker.Month().MonthString()))
			return
		}
	default:
		writeError(w, http.StatusBadRequest, "dir or month is required")
		return
	}

	s.picker.GoToMonth(target)
	writeJSON(w, http.StatusOK, s.calendarView())
}

type refreshResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleRefresh reloads the blackout feeds. Feeds that failed are reported
// while the others are still applied.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Refresh(r.Context()); err != nil {
		appLog.Error("api refresh: one or more blackout feeds failed", err)
		writeJSON(w, http.StatusOK, refreshResponse{Status: "partial", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{Status: "ok"})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
