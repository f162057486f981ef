package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/config"
	"github.com/mamadbah2/homestead/internal/domain/ids"
	"github.com/mamadbah2/homestead/internal/metrics"
	"github.com/mamadbah2/homestead/internal/repository/kv"
	"github.com/mamadbah2/homestead/internal/repository/memory"
	"github.com/mamadbah2/homestead/internal/repository/mongodb"
	"github.com/mamadbah2/homestead/internal/repository/postgres"
	"github.com/mamadbah2/homestead/internal/repository/redis"
	"github.com/mamadbah2/homestead/internal/repository/s3"
	"github.com/mamadbah2/homestead/internal/repository/sheets"
	"github.com/mamadbah2/homestead/internal/repository/sqlite"
	"github.com/mamadbah2/homestead/internal/scheduler"
	"github.com/mamadbah2/homestead/internal/server/handlers"
	"github.com/mamadbah2/homestead/internal/server/router"
	"github.com/mamadbah2/homestead/internal/service/breeding"
	"github.com/mamadbah2/homestead/internal/service/eggs"
	"github.com/mamadbah2/homestead/internal/service/health"
	"github.com/mamadbah2/homestead/internal/service/ledger"
	"github.com/mamadbah2/homestead/internal/service/registry"
	reportingsvc "github.com/mamadbah2/homestead/internal/service/reporting"
	"github.com/mamadbah2/homestead/internal/store"
	whatsappclient "github.com/mamadbah2/homestead/pkg/clients/whatsapp"
	"github.com/mamadbah2/homestead/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx := context.Background()

	backend, mongoRepo, err := openBackend(ctx, cfg)
	if err != nil {
		baseLogger.Fatal("failed to open store backend", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	baseLogger.Info("store backend opened", zap.String("driver", cfg.Store.Driver))

	st, err := store.New(ctx, backend, ids.New(), baseLogger.Named("store"))
	if err != nil {
		baseLogger.Fatal("failed to load ledger state", zap.Error(err))
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	if n, err := st.MigrateLegacy(ctx); err != nil {
		baseLogger.Fatal("failed to migrate legacy flock records", zap.Error(err))
	} else if n > 0 {
		baseLogger.Info("legacy flock records migrated", zap.Int("events", n))
	}

	m := metrics.New()
	st.SetObserver(m)

	ledgerSvc := ledger.NewService(st, cfg.Ledger.EventTypes, baseLogger.Named("svc.ledger"))
	registrySvc := registry.NewService(st, ledgerSvc.Aggregator(), baseLogger.Named("svc.registry"))
	breedingSvc := breeding.NewService(st, baseLogger.Named("svc.breeding"))
	healthSvc := health.NewService(st, baseLogger.Named("svc.health"))
	eggsSvc := eggs.NewService(st, baseLogger.Named("svc.eggs"))

	opts := reportingsvc.DefaultOptions()
	opts.KindlingHorizonDays = cfg.Reporting.KindlingHorizonDays
	opts.VaccinationHorizonDays = cfg.Reporting.VaccinationHorizonDays
	reportingSvc := reportingsvc.NewService(ledgerSvc, registrySvc, breedingSvc, healthSvc, eggsSvc, opts, baseLogger.Named("svc.reporting"))

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}
	schedOpts := scheduler.Options{
		CronSchedule: cfg.Reporting.CronSchedule,
		Location:     loc,
	}

	if cfg.WhatsApp.Enabled() {
		schedOpts.Notifier = whatsappclient.NewClient(whatsappclient.Config{
			AccessToken:   cfg.WhatsApp.AccessToken,
			PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
			BaseURL:       cfg.WhatsApp.BaseURL,
			APIVersion:    cfg.WhatsApp.APIVersion,
		})
		schedOpts.RecipientID = cfg.WhatsApp.RecipientID
		baseLogger.Info("whatsapp digest enabled")
	} else {
		baseLogger.Warn("whatsapp token missing, daily digest disabled")
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, sheets.Config{
			CredentialsPath: cfg.Sheets.CredentialsPath,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		}, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		schedOpts.Sheet = sheetsRepo
	}

	if mongoRepo == nil && cfg.MongoDB.Archive {
		mongoRepo, err = mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
	}
	if mongoRepo != nil {
		schedOpts.Archive = mongoRepo
	}

	sched := scheduler.NewScheduler(reportingSvc, schedOpts, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	handler := handlers.NewLivestockHandler(handlers.Services{
		Ledger:                 ledgerSvc,
		Registry:               registrySvc,
		Breeding:               breedingSvc,
		Health:                 healthSvc,
		Eggs:                   eggsSvc,
		Reporting:              reportingSvc,
		KindlingHorizonDays:    cfg.Reporting.KindlingHorizonDays,
		VaccinationHorizonDays: cfg.Reporting.VaccinationHorizonDays,
	}, baseLogger.Named("handlers.livestock"))
	engine := router.New(handler, m, st.Ping, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openBackend connects the configured persistence driver. The MongoDB
// repository is also returned so it can double as the summary archive.
func openBackend(ctx context.Context, cfg *config.Config) (kv.Store, *mongodb.MongoDBRepository, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memory.New(), nil, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		return s, nil, err
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.Store.PostgresDSN)
		return s, nil, err
	case config.DriverRedis:
		s, err := redis.Open(ctx, cfg.Store.RedisURL, cfg.Store.RedisKeyPrefix)
		return s, nil, err
	case config.DriverS3:
		s, err := s3.Open(ctx, s3.Config{
			Region:          cfg.Store.S3.Region,
			Bucket:          cfg.Store.S3.Bucket,
			Prefix:          cfg.Store.S3.Prefix,
			Endpoint:        cfg.Store.S3.Endpoint,
			AccessKeyID:     cfg.Store.S3.AccessKeyID,
			SecretAccessKey: cfg.Store.S3.SecretAccessKey,
			PathStyle:       cfg.Store.S3.PathStyle,
		})
		return s, nil, err
	case config.DriverMongoDB:
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
