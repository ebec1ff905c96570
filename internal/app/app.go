// Package app wires the herald components together: config, logging,
// storage, the candidate supplier, the notification engine and the
// delivery channels.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"herald/internal/config"
	"herald/internal/deliver"
	"herald/internal/fetch"
	"herald/internal/storage"
	"herald/internal/transport/mail"
	"herald/internal/transport/telegram"
	logx "herald/pkg/logx"
)

type App struct {
	cfgm *config.Manager

	log  logx.Logger
	logs *logx.Service

	store    storage.Store
	supplier *fetch.Supplier
	chat     *telegram.Sender
	mailer   *mail.Sender
	sender   *deliver.Deliverer

	cron *cron.Cron

	// runMu serializes runs so a slow hour never overlaps the next one.
	runMu   sync.Mutex
	running bool

	now func() time.Time
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))
	chat, err := telegram.New(telegram.Config{Token: cfg.Telegram.Token}, bootLog)
	if err != nil {
		return nil, err
	}

	// Bootstrap with the Telegram sink disabled, set the target, then
	// apply the real config so Apply() never warns about a missing chat.
	baseLogCfg := mapLoggingConfig(cfg)
	baseLogCfg.Telegram.Enabled = false
	logSvc, log := logx.New(baseLogCfg, chat)
	log = log.With(logx.String("comp", "app"))

	if cfg.Telegram.GroupLog != 0 {
		logSvc.SetTelegramTarget(cfg.Telegram.GroupLog, cfg.Telegram.LogThreadID)
	}
	logSvc.Apply(mapLoggingConfig(cfg))

	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: config.DurationOrDefault(cfg.Storage.BusyTimeout, 5*time.Second),
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	supplier := fetch.New(fetch.Config{
		Timeout:       config.DurationOrDefault(cfg.Fetch.Timeout, 15*time.Second),
		RetryMax:      cfg.Fetch.RetryMax,
		RetryBase:     config.DurationOrDefault(cfg.Fetch.RetryBase, 500*time.Millisecond),
		RetryMaxDelay: config.DurationOrDefault(cfg.Fetch.RetryMaxDelay, 10*time.Second),
	}, log.With(logx.String("comp", "fetch")))

	var mailer *mail.Sender
	if cfg.SMTP != nil {
		mailer, err = mail.New(mail.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, log.With(logx.String("comp", "mail")))
		if err != nil {
			return nil, err
		}
	}

	var mailCh deliver.Mailer
	if mailer != nil {
		mailCh = mailer
	}
	sender := deliver.New(deliver.Config{
		RatePerSec: cfg.Delivery.RatePerSec,
		RetryMax:   cfg.Delivery.RetryMax,
	}, chat, mailCh, log.With(logx.String("comp", "deliver")))

	return &App{
		cfgm:     cfgm,
		log:      log,
		logs:     logSvc,
		store:    store,
		supplier: supplier,
		chat:     chat,
		mailer:   mailer,
		sender:   sender,
		now:      time.Now,
	}, nil
}

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ThreadID:   cfg.Telegram.LogThreadID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

// Start runs the hourly trigger and the config watcher until ctx is
// canceled. Use RunOnce for a single externally triggered invocation.
func (a *App) Start(ctx context.Context) error {
	cfg := a.cfgm.Get()

	if cfg.Trigger.Enabled {
		loc := time.Local
		if cfg.Trigger.Timezone != "" {
			l, err := time.LoadLocation(cfg.Trigger.Timezone)
			if err != nil {
				return fmt.Errorf("trigger.timezone: %w", err)
			}
			loc = l
		}
		a.cron = cron.New(cron.WithLocation(loc))
		if _, err := a.cron.AddFunc("0 * * * *", func() {
			if err := a.RunOnce(ctx); err != nil {
				a.log.Error("run failed", logx.Err(err))
			}
		}); err != nil {
			return err
		}
		a.cron.Start()
		a.log.Info("hourly trigger started", logx.String("tz", loc.String()))
	} else {
		a.log.Info("built-in trigger disabled; waiting for external invocations")
	}

	go a.watchConfig(ctx)

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if sent {
		a.log.Debug("sd_notify ready sent")
	}
	go a.watchdogLoop(ctx)

	<-ctx.Done()
	return nil
}

// watchdogLoop pings systemd at half the configured WatchdogSec interval.
// No-op outside a systemd unit with a watchdog.
func (a *App) watchdogLoop(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}

func (a *App) watchConfig(ctx context.Context) {
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))

	sub := a.cfgm.Subscribe(8)
	go func() {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				a.applyReload(newCfg)
			}
		}
	}()

	if err := a.cfgm.Watch(ctx); err != nil {
		a.log.Warn("config watch unavailable", logx.Err(err))
	}
}

// applyReload applies the hot-reloadable subset of a committed config:
// logging and the Telegram log target. Storage, trigger and transport
// changes need a restart, which is logged so the operator knows.
func (a *App) applyReload(cfg *config.Config) {
	if cfg.Telegram.GroupLog != 0 {
		a.logs.SetTelegramTarget(cfg.Telegram.GroupLog, cfg.Telegram.LogThreadID)
	} else {
		a.logs.SetTelegramTarget(0, 0)
	}
	a.logs.Apply(mapLoggingConfig(cfg))
	a.log.Info("config reloaded", logx.String("level", cfg.Logging.Level))
	a.log.Debug("storage, trigger and transport settings apply on restart")
}

func (a *App) Close() error {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}
	var first error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			first = err
		}
	}
	if a.logs != nil {
		if err := a.logs.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
