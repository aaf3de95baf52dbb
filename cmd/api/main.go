package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesflow_backend/internal/adapters"
	"salesflow_backend/internal/adapters/storage"
	"salesflow_backend/internal/distribution"
	"salesflow_backend/internal/eventrelay"
	"salesflow_backend/internal/events"
	apphttp "salesflow_backend/internal/http"
	"salesflow_backend/internal/http/router"
	"salesflow_backend/internal/leads"
	"salesflow_backend/internal/leads/documents"
	leadsrepo "salesflow_backend/internal/leads/repository"
	"salesflow_backend/internal/notification"
	"salesflow_backend/internal/pipeline"
	pipelinesvc "salesflow_backend/internal/pipeline/service"
	"salesflow_backend/internal/scheduler"
	"salesflow_backend/internal/tasks"
	"salesflow_backend/internal/team"
	"salesflow_backend/platform/cache"
	"salesflow_backend/platform/config"
	"salesflow_backend/platform/db"
	"salesflow_backend/platform/logger"
	"salesflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	tx := db.NewTxManager(pool)
	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	columnCache, closeCache := initCache(ctx, cfg, log)
	if closeCache != nil {
		defer closeCache()
	}

	documentStore := initDocumentStore(ctx, cfg, log)

	queue, closeQueue := initNotificationQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	if closeRelay := initEventRelay(cfg, eventBus, log); closeRelay != nil {
		defer closeRelay()
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	notificationModule := notification.New(pool, queue, log)
	notificationModule.RegisterHandlers(eventBus)

	teamModule := team.NewModule(pool, val)
	tasksModule := tasks.NewModule(pool, eventBus, val)

	leadsRepo := leadsrepo.New(pool)
	roster := adapters.NewTeamRoster(teamModule.Service())
	workload := adapters.NewLeadWorkload(leadsRepo)

	pipelineModule := pipeline.NewModule(pool, workload, tx, columnCache, eventBus, val, cfg, log)
	distributionModule := distribution.NewModule(pool, roster, workload, tx, val, log)

	leadsModule := leads.NewModule(leads.Deps{
		Repo:        leadsRepo,
		Boards:      adapters.NewPipelineBoard(pipelineModule.Service()),
		Distributor: adapters.NewLeadDistributor(distributionModule.Service()),
		Members:     roster,
		Tasks:       adapters.NewConflictTasks(tasksModule.Service()),
		Names:       roster,
		Documents:   documentStore,
	}, tx, eventBus, val, cfg, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			teamModule,
			pipelineModule,
			distributionModule,
			leadsModule,
			tasksModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initCache returns a nil cache when Redis is not configured so the
// pipeline store reads Postgres directly.
func initCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (pipelinesvc.ColumnCache, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; pipeline cache disabled")
		return nil, nil
	}
	c, err := cache.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis; pipeline cache disabled", "error", err)
		return nil, nil
	}
	return c, func() { _ = c.Close() }
}

func initDocumentStore(ctx context.Context, cfg *config.Config, log *logger.Logger) documents.ObjectStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; lead documents disabled")
		return nil
	}
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure lead documents bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketLeadDocuments())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "bucket", cfg.GetMinioBucketLeadDocuments())
	return storageSvc
}

func initNotificationQueue(cfg config.SchedulerConfig, log *logger.Logger) (notification.Queue, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; notifications are stored inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}
	return client, func() { _ = client.Close() }
}

func initEventRelay(cfg config.AMQPConfig, bus events.Bus, log *logger.Logger) func() {
	if !cfg.IsAMQPEnabled() {
		return nil
	}

	relay, conn, err := eventrelay.Dial(cfg, log)
	if err != nil {
		log.Error("failed to connect event relay; events stay in-process", "error", err)
		return nil
	}
	relay.RegisterHandlers(bus)
	log.Info("event relay connected", "exchange", cfg.GetAMQPExchange())
	return func() { _ = conn.Close() }
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
