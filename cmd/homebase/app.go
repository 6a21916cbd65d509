package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/homebase/internal/auth"
	"github.com/dukerupert/homebase/internal/config"
	"github.com/dukerupert/homebase/internal/database"
	"github.com/dukerupert/homebase/internal/dayclock"
	"github.com/dukerupert/homebase/internal/kv"
	"github.com/dukerupert/homebase/internal/logging"
	"github.com/dukerupert/homebase/internal/notify"
	"github.com/dukerupert/homebase/internal/push"
	"github.com/dukerupert/homebase/internal/server"
	"github.com/dukerupert/homebase/internal/store"
	"github.com/dukerupert/homebase/internal/trigger"
)

// app is the process wiring shared by serve and tick.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
	cache  kv.Store
	purger trigger.Purger
	deps   server.Deps
	closer func()
}

func loadConfig(opts *rootOptions) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, nil, err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	return cfg, logger, nil
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	loc, _ := cfg.Location()

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, db: db}
	closers := []func(){func() { db.Close() }}

	if cfg.Redis.Addr != "" {
		rs, err := kv.NewRedisStore(ctx, kv.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			db.Close()
			return nil, err
		}
		a.cache = rs
		closers = append(closers, func() { rs.Close() })
		logger.Info("assignment cache", "backend", "redis", "addr", cfg.Redis.Addr)
	} else {
		ss := kv.NewSQLStore(db)
		a.cache = ss
		a.purger = ss
		logger.Info("assignment cache", "backend", "sqlite")
	}
	a.closer = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var tg *notify.Telegram
	if cfg.Telegram.Token != "" {
		tg = notify.NewTelegram(cfg.Telegram.Token)
	} else {
		logger.Warn("telegram token not set, chat notifications disabled")
	}

	var ps *push.Service
	pushCfg := push.Config{
		VAPIDPublicKey:  cfg.VAPID.PublicKey,
		VAPIDPrivateKey: cfg.VAPID.PrivateKey,
		Subscriber:      cfg.VAPID.Subscriber,
	}
	if pushCfg.Enabled() {
		ps = push.NewService(pushCfg)
	}

	a.deps = server.Deps{
		DB:    db,
		Cache: a.cache,
		Notifier: notify.NewGateway(tg, ps, store.NewHouseholdStore(db), store.NewPushStore(db),
			logger.With("component", "notify")),
		Push:   ps,
		Tokens: auth.NewTokens(cfg.JWTSecret),
		Clock:  dayclock.NewSystem(loc),
		Logger: logger,
	}
	return a, nil
}

func (a *app) Close() {
	if a.closer != nil {
		a.closer()
	}
}

func (a *app) newRunner(svc server.Services) *trigger.Runner {
	loc, _ := a.cfg.Location()
	return trigger.New(trigger.Config{
		Interval: a.cfg.Trigger.Interval,
		Workers:  a.cfg.Trigger.Workers,
		Location: loc,
	}, svc.Households, svc.Users, svc.Chores, svc.Projects, a.purger, a.logger.With("component", "trigger"))
}

const shutdownTimeout = 10 * time.Second
