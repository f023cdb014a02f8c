package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/golf-referee/internal/config"
	"github.com/diewo77/golf-referee/internal/dashboard"
	"github.com/diewo77/golf-referee/internal/db"
	"github.com/diewo77/golf-referee/internal/handlers"
	"github.com/diewo77/golf-referee/internal/logger"
	"github.com/diewo77/golf-referee/internal/mailer"
	"github.com/diewo77/golf-referee/internal/middleware"
	"github.com/diewo77/golf-referee/internal/notification"
	"github.com/diewo77/golf-referee/internal/services"
	"github.com/diewo77/golf-referee/internal/store"
)

var (
	migrateOnlyFlag  = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag     = flag.Bool("seed-only", false, "Run DB seed and exit")
	dispatchOnceFlag = flag.Bool("dispatch-once", false, "Send due convocations once and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.App.Dev)
	if _, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.WithError(err).Fatal("invalid TRUSTED_PROXIES")
	}

	dbConn, err := db.Open(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn, cfg, log); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations completed")
		return
	}
	seedOpts := db.SeedOptions{AdminEmail: cfg.App.AdminEmail, AdminPassword: cfg.App.AdminPassword}
	if *seedOnlyFlag {
		if err := db.Seed(dbConn, seedOpts, log); err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
		log.Info("seeding completed")
		return
	}

	if err := db.Migrate(dbConn, cfg, log); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	if cfg.App.Seed {
		if err := db.Seed(dbConn, seedOpts, log); err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
	}

	repo := store.NewGormRepository(dbConn)
	var (
		dash  dashboard.Repository = repo
		cache handlers.CacheInvalidator
	)
	if cfg.Cache.Enabled() {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("invalid REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			// The cache is best effort; reads fall back to the database.
			log.WithError(err).Warn("redis unreachable at startup")
		}
		cached := store.NewCachedRepository(repo, rdb, cfg.Cache.TTL, log)
		dash, cache = cached, cached
		log.WithField("ttl", cfg.Cache.TTL).Info("dashboard cache enabled")
	}

	sender, err := mailer.New(cfg.Mail, log)
	if err != nil {
		log.WithError(err).Fatal("mailer setup failed")
	}
	if err := os.MkdirAll(cfg.App.AttachmentDir, 0o755); err != nil {
		log.WithError(err).Fatal("attachment directory")
	}
	notifications := services.NewNotificationService(dbConn)
	assignments := services.NewAssignmentService(dbConn, notifications)
	dispatcher := services.NewDispatcher(
		notifications,
		assignments,
		notification.NewComposer(notification.OSFileExists, log),
		sender,
		cfg.App.AttachmentDir,
		log,
	)

	if *dispatchOnceFlag {
		report, err := dispatcher.DispatchDue(context.Background(), time.Now())
		if err != nil {
			log.WithError(err).Fatal("dispatch failed")
		}
		log.WithFields(logrus.Fields{"sent": report.Sent, "failed": report.Failed}).Info("dispatch completed")
		return
	}

	app := NewApp(Deps{
		DB:            dbConn,
		Config:        cfg,
		Log:           log,
		Dashboard:     dash,
		Store:         repo,
		Cache:         cache,
		Notifications: notifications,
		Assignments:   assignments,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Run(ctx, cfg.App.DispatchInterval)
	}()

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Server.Port, "dev": cfg.App.Dev}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	wg.Wait()
	log.Info("server stopped gracefully")
}
