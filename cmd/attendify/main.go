package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Pandoravox1/attendify-sub000/internal/app"
	"github.com/Pandoravox1/attendify-sub000/internal/classroom"
	"github.com/Pandoravox1/attendify-sub000/internal/config"
	"github.com/Pandoravox1/attendify-sub000/internal/db"
	"github.com/Pandoravox1/attendify-sub000/internal/jobs"
	"github.com/Pandoravox1/attendify-sub000/internal/ledger"
	"github.com/Pandoravox1/attendify-sub000/internal/logging"
	"github.com/Pandoravox1/attendify-sub000/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()
	zl := lg.Logger

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		zl.Warn("sentry init failed", zap.Error(err))
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := app.Deps{Config: cfg, Log: zl, LogLevel: lg.Level}
	if cfg.StoreConfigured() {
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			zl.Fatal("db connect", zap.Error(err))
		}
		defer func(d *sql.DB) { _ = d.Close() }(database)

		if err := db.Migrate(ctx, database); err != nil {
			zl.Fatal("db migrate", zap.Error(err))
		}
		store := db.New(database)
		registry := ledger.NewRegistry(store, zl.Named("ledger"), cfg.Location)

		deps.DB = database
		deps.Service = classroom.New(store, store, zl.Named("classroom"))
		deps.Store = store
		deps.Classes = store
		deps.Ledgers = registry
		deps.Schedules = store

		runner := jobs.New(ctx, zl.Named("jobs"))
		runner.Every(time.Minute, "attendance_rollover", registry.Rollover)
	} else {
		zl.Warn("DATABASE_URL is not set; starting read-only")
		deps.Service = classroom.New(nil, nil, zl.Named("classroom"))
	}

	srv := app.StartHTTP(ctx, cfg.HTTPAddr, app.NewRouter(deps), zl)
	zl.Info("attendify started", zap.String("env", cfg.Env), zap.String("tz", cfg.Location.String()))

	<-ctx.Done()
	zl.Info("shutting down")
	srv.Wait()
}
