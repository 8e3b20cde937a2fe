package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dataunify/pipeline/internal/config"
	"github.com/dataunify/pipeline/internal/core"
	"github.com/dataunify/pipeline/internal/logging"
	"github.com/dataunify/pipeline/internal/metrics"
	"github.com/dataunify/pipeline/internal/store"
	"github.com/dataunify/pipeline/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Overload(); err != nil {
		log.Println("no .env file found, using environment variables")
	} else {
		log.Println("loaded .env file (overwriting existing env vars)")
	}

	cfg := config.MustLoad()
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx := context.Background()

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		log.Fatalf("parse database url: %v", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("ping database: %v", err)
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	if err := store.Migrate(cfg.Database.URL); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	repo := store.New(pool)

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./data/uploads"
	}
	logDir := os.Getenv("CLEAN_LOG_DIR")
	if logDir == "" {
		logDir = "./data/clean-logs"
	}

	// InlineRunner needs the Service's own HandleJob as its callback, but
	// NewService needs a JobRunner up front; the forward reference is
	// resolved by capturing the not-yet-assigned variable in a closure.
	var service *core.Service
	var jobRunner core.JobRunner
	switch cfg.JobRunner.Kind {
	case config.JobRunnerRedis:
		jobRunner = core.NewRedisRunner(core.RedisRunnerConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			QueueKey: cfg.Redis.QueueKey,
			PoolSize: cfg.Redis.PoolSize,
		})
	default:
		jobRunner = core.NewInlineRunner(func(ctx context.Context, job core.Job) error {
			return service.HandleJob(ctx, job)
		})
	}

	service, err = core.NewService(repo, repo.Dynamic, jobRunner, uploadDir, logDir, cfg.Cleaning.DefaultCountryCode, cfg.Cleaning.MaxParallelPerProject)
	if err != nil {
		log.Fatalf("create service: %v", err)
	}

	server := web.NewServer(service, cfg.Security, cfg.Upload)

	jobCtx, cancelJobs := context.WithCancel(context.Background())
	scheduler := core.NewScheduler(repo)
	go scheduler.Start(jobCtx, core.ArchiveConfig{
		HotRetentionDays:      cfg.Archive.HotRetentionDays,
		ArchiveRetentionYears: cfg.Archive.ArchiveRetentionYears,
		BatchSize:             cfg.Archive.BatchSize,
		CheckInterval:         cfg.Archive.CheckInterval,
	})

	if cfg.JobRunner.Kind == config.JobRunnerRedis {
		go func() {
			if err := jobRunner.Run(jobCtx, service.HandleJob); err != nil && jobCtx.Err() == nil {
				slog.Error("job runner stopped", "error", err)
			}
		}()
	}

	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, metrics.Handler())
		metricsServer := &http.Server{Addr: ":9090", Handler: metricsMux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("server starting on %s", cfg.Server.Addr())
	if err := server.Start(cfg.Server.Addr()); err != nil && err != http.ErrServerClosed {
		log.Printf("server stopped: %v", err)
	}
}
