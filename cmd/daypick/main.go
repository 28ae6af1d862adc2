package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"daypick/internal/config"
	appLog "daypick/internal/log"
	"daypick/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	cacheDir   string
	listen     string
	month      string
	once       bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	flags.apply(conf)

	appLog.Info("daypick starting", "version", "0.1.0")
	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"mode", conf.Mode,
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"blackout_count", len(conf.Blackout),
		"once", flags.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{flags: flags}
	p, err := a.load(ctx, conf)
	if err != nil {
		appLog.Error("failed to build calendar", err)
		os.Exit(1)
	}

	if flags.once {
		if err := printCalendar(os.Stdout, p); err != nil {
			appLog.Error("failed to print calendar", err)
			os.Exit(1)
		}
		return
	}

	srv := web.NewServer(conf, p, a.blackouts)
	a.srv = srv

	loc, _ := conf.Location()
	a.sched = cron.New(cron.WithLocation(loc))
	if err := a.schedule(ctx, conf.RefreshCron); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	// Today moves at midnight.
	if _, err := a.sched.AddFunc("0 0 * * *", a.rollover); err != nil {
		appLog.Error("failed to schedule day rollover", err)
		os.Exit(1)
	}
	a.sched.Start()
	defer func() { <-a.sched.Stop().Done() }()

	if err := a.watchConfig(ctx); err != nil {
		appLog.Warn("config reload disabled", "config_path", flags.configPath, "err", err)
	}

	if err := web.StartServer(ctx, conf.Listen, srv); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}
	appLog.Info("daypick exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/daypick/config.yaml", "Path to config file")
	flag.StringVar(&cfg.cacheDir, "cache-dir", "/var/lib/daypick/ics-cache", "Directory for cached blackout feeds")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.month, "month", "", "Month to show first, YYYY-MM (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Print the calendar as text and exit")

	flag.Parse()

	return cfg
}

// apply lets CLI flags override the config file.
func (f flagConfig) apply(conf *config.Config) {
	if f.listen != "" {
		conf.Listen = f.listen
	}
	if f.month != "" {
		conf.Month = f.month
	}
	if lvl, err := appLog.ParseLevel(conf.LogLevel); err == nil {
		appLog.SetLevel(lvl)
	} else {
		appLog.Warn("unknown log level; keeping current", "log_level", conf.LogLevel)
	}
}
