package main

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"daypick/internal/config"
	"daypick/internal/ics"
	appLog "daypick/internal/log"
	"daypick/internal/matcher"
	"daypick/internal/picker"
	"daypick/internal/web"
)

// app holds the state that changes when the config file is reloaded.
type app struct {
	flags flagConfig
	srv   *web.Server
	sched *cron.Cron

	mu        sync.Mutex
	conf      *config.Config
	loader    *ics.Loader
	refreshID cron.EntryID
	refreshAt string
}

// load builds a Picker from conf and applies its blackout feeds. Feeds that
// fail are logged; the calendar is built without them.
func (a *app) load(ctx context.Context, conf *config.Config) (*picker.Picker, error) {
	p, err := picker.FromConfig(conf, nil)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.conf = conf
	a.loader = &ics.Loader{
		Fetcher:     ics.NewFetcher(a.flags.cacheDir),
		Lib:         p.Lib(),
		HorizonDays: conf.HorizonDays,
	}
	a.mu.Unlock()

	extra, err := a.blackouts(ctx)
	if err != nil {
		appLog.Error("one or more blackout feeds failed", err)
	}
	p.SetBlackouts(extra)
	return p, nil
}

// blackouts loads the configured feeds. It is the refresh hook of the HTTP
// server.
func (a *app) blackouts(ctx context.Context) (map[string][]matcher.Matcher, error) {
	a.mu.Lock()
	feeds, loader := a.conf.Blackout, a.loader
	a.mu.Unlock()
	if len(feeds) == 0 {
		return nil, nil
	}
	return loader.Load(ctx, feeds)
}

// schedule (re)registers the blackout refresh job.
func (a *app) schedule(ctx context.Context, spec string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if spec == a.refreshAt && a.refreshID != 0 {
		return nil
	}
	id, err := a.sched.AddFunc(spec, func() {
		if err := a.srv.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh: one or more blackout feeds failed", err)
			return
		}
		appLog.Debug("scheduled refresh done")
	})
	if err != nil {
		return err
	}
	if a.refreshID != 0 {
		a.sched.Remove(a.refreshID)
	}
	a.refreshID, a.refreshAt = id, spec
	return nil
}

func (a *app) rollover() {
	a.srv.Update(func(p *picker.Picker) {
		p.Refresh()
		appLog.Info("day rollover", "today", p.Lib().Today())
	})
}

// reload re-reads the config file and swaps in a new Picker. An invalid
// file leaves the running state untouched.
func (a *app) reload(ctx context.Context) error {
	conf, err := config.Load(a.flags.configPath)
	if err != nil {
		return err
	}
	a.flags.apply(conf)

	a.mu.Lock()
	prev := a.conf
	a.mu.Unlock()

	p, err := a.load(ctx, conf)
	if err != nil {
		return err
	}
	if err := a.schedule(ctx, conf.RefreshCron); err != nil {
		appLog.Error("invalid refresh schedule; keeping previous", err, "refresh", conf.RefreshCron)
	}
	if prev != nil && (prev.Listen != conf.Listen || prev.Timezone != conf.Timezone) {
		appLog.Warn("listen address and scheduler timezone changes apply after a restart",
			"listen", conf.Listen, "timezone", conf.Timezone)
	}
	a.srv.Replace(conf, p)
	appLog.Info("config reloaded", "config_path", a.flags.configPath)
	return nil
}

// watchConfig reloads the config whenever the file is written or replaced.
// The directory is watched because editors and config.Save replace the file
// by rename.
func (a *app) watchConfig(ctx context.Context) error {
	if a.flags.configPath == "" {
		return errors.New("config path is empty")
	}
	target := filepath.Clean(a.flags.configPath)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := a.reload(ctx); err != nil {
					appLog.Error("failed to reload config; keeping previous", err, "config_path", target)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				appLog.Warn("config watcher error", "err", err)
			}
		}
	}()
	return nil
}
