// Package app builds the process dependency graph shared by the server and
// the batch job. Every external backend is optional: without its
// configuration the matching in-memory or no-op implementation is used.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/twmb/franz-go/pkg/kgo"

	calmetrics "tramite/internal/calendar/metrics"
	"tramite/internal/calendar/seed"
	calservice "tramite/internal/calendar/service"
	calstore "tramite/internal/calendar/store"
	"tramite/internal/platform/config"
	"tramite/internal/platform/gcs"
	"tramite/internal/platform/kafka"
	"tramite/internal/platform/postgres"
	redisclient "tramite/internal/platform/redis"
	"tramite/internal/procedure/filestore"
	pmetrics "tramite/internal/procedure/metrics"
	"tramite/internal/procedure/notifier"
	"tramite/internal/procedure/pending"
	procservice "tramite/internal/procedure/service"
	procstore "tramite/internal/procedure/store"
	id "tramite/pkg/domain"
)

// LocalFilesPrefix is where the server exposes in-memory blobs.
const LocalFilesPrefix = "/files"

type procedureStore interface {
	procservice.Store
	pending.Store
}

// App holds the wired services and the clients they own.
type App struct {
	Calendar   *calservice.Service
	Procedures *procservice.Service
	Pending    *pending.Worker
	// LocalFiles is set when no bucket is configured.
	LocalFiles *filestore.Memory

	db     *sql.DB
	redis  *redisclient.Client
	kafka  *kgo.Client
	gcs    *storage.Client
	logger *slog.Logger
}

// Build connects every configured backend and wires the services.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	a := &App{logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	loc, err := cfg.Calendar.Location()
	if err != nil {
		return nil, err
	}

	var (
		calendarStore calservice.Store
		store         procedureStore
		tx            procservice.ProcedureTx
	)
	if cfg.Database.URL != "" {
		if a.db, err = postgres.Open(ctx, cfg.Database); err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, a.db); err != nil {
			return nil, err
		}
		calendarStore = calstore.NewPostgres(a.db)
		store = procstore.NewPostgres(a.db)
		tx = procservice.NewPostgresTx(a.db)
		logger.Info("using postgres stores")
	} else {
		calendarStore = calstore.NewInMemory()
		store = procstore.NewInMemory()
		tx = procservice.NewShardedTx()
		logger.Warn("DATABASE_URL not set, using in-memory stores")
	}

	if a.redis, err = redisclient.New(ctx, cfg.Redis); err != nil {
		return nil, err
	}
	if a.redis != nil {
		calendarStore = calstore.NewCached(calendarStore, a.redis.Client, cfg.Calendar.CacheTTL, logger)
	}

	a.Calendar = calservice.New(calendarStore, loc,
		calservice.WithLogger(logger),
		calservice.WithMetrics(calmetrics.New()),
	)
	if cfg.Calendar.SeedFile != "" {
		f, err := seed.Load(cfg.Calendar.SeedFile)
		if err != nil {
			return nil, err
		}
		if err := f.Apply(ctx, a.Calendar); err != nil {
			return nil, fmt.Errorf("apply calendar seed: %w", err)
		}
	}

	procMetrics := pmetrics.New()
	opts := []procservice.Option{
		procservice.WithLogger(logger),
		procservice.WithMetrics(procMetrics),
		procservice.WithTx(tx),
	}

	if a.kafka, err = kafka.NewProducer(cfg.Kafka); err != nil {
		return nil, err
	}
	if a.kafka != nil {
		if err := kafka.EnsureTopic(ctx, a.kafka, cfg.Kafka.NotifyTopic, 1, 1); err != nil {
			logger.Warn("could not ensure notification topic", "topic", cfg.Kafka.NotifyTopic, "error", err)
		}
		opts = append(opts, procservice.WithNotifier(notifier.NewKafka(a.kafka, cfg.Kafka.NotifyTopic)))
	} else {
		opts = append(opts, procservice.WithNotifier(notifier.Nop{}))
	}

	if a.gcs, err = gcs.New(ctx, cfg.Storage); err != nil {
		return nil, err
	}
	if a.gcs != nil {
		opts = append(opts, procservice.WithFileStore(filestore.NewGCS(a.gcs, cfg.Storage.Bucket)))
	} else {
		a.LocalFiles = filestore.NewMemory(LocalFilesPrefix)
		opts = append(opts, procservice.WithFileStore(a.LocalFiles))
	}

	if cfg.Virtual.IntakeAreaID != 0 && cfg.Virtual.FrontDeskID != 0 {
		opts = append(opts, procservice.WithVirtualRouting(procservice.VirtualRouting{
			AgencyID:     id.AgencyID(cfg.Virtual.AgencyID),
			IntakeAreaID: id.AreaID(cfg.Virtual.IntakeAreaID),
			FrontDeskID:  id.AreaID(cfg.Virtual.FrontDeskID),
		}))
	} else {
		logger.Warn("virtual routing areas not configured, virtual registration disabled")
	}
	a.Procedures = procservice.New(store, a.Calendar, opts...)

	workerOpts := []pending.Option{
		pending.WithLogger(logger),
		pending.WithMetrics(procMetrics),
	}
	if a.redis != nil {
		workerOpts = append(workerOpts, pending.WithLocker(pending.NewRedisLocker(a.redis.Locker), cfg.Pending.LockTTL))
	}
	a.Pending = pending.New(store, a.Calendar, workerOpts...)

	ok = true
	return a, nil
}

// Health pings the configured backends.
func (a *App) Health(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases every client Build opened.
func (a *App) Close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.gcs != nil {
		if err := a.gcs.Close(); err != nil {
			a.logger.Warn("failed to close gcs client", "error", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
	}
}
