package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geocoder89/worklink/internal/config"
	"github.com/geocoder89/worklink/internal/db"
	"github.com/geocoder89/worklink/internal/notifications"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/geocoder89/worklink/internal/queue/worker"
	"github.com/geocoder89/worklink/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env).With("component", "worker")

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:   cfg.OTELServiceName + "-worker",
			Component:     "worker",
			Env:           cfg.Env,
			Endpoint:      cfg.OTELEndpoint,
			SamplePercent: cfg.OTELSamplePercent,
		})
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				sctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(sctx)
			}()
		}
	}

	connectCtx, cancelConnect := config.WithTimeout(30 * time.Second)
	pool, err := db.NewPool(connectCtx, cfg.DBURL, db.PoolOptions{
		AppName:  "worklink-worker",
		MaxConns: int32(cfg.DBMaxConns),
		Attempts: cfg.DBConnectAttempts,
	})
	cancelConnect()
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	prom := observability.NewProm(prometheus.NewRegistry())

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{
			Timeout:          cfg.NotifierTimeout,
			FailureThreshold: cfg.NotifierFailureThreshold,
			Cooldown:         cfg.NotifierCooldown,
			OnStateChange: func(from, to notifications.BreakerState) {
				log.Warn("notifier circuit changed", "from", from, "to", to)
			},
		},
	)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	jobsRepo := postgres.NewJobsRepo(pool, prom)

	w := worker.New(worker.Config{
		PollInterval:  cfg.WorkerPollInterval,
		WorkerID:      workerID,
		Concurrency:   cfg.WorkerConcurrency,
		ShutdownGrace: 10 * time.Second,
		LockTTL:       cfg.WorkerLockTTL,
	}, worker.Deps{
		Jobs:       jobsRepo,
		Requests:   postgres.NewConnectionRequestsRepo(pool, prom),
		Users:      postgres.NewUsersRepo(pool, prom),
		Deliveries: postgres.NewNotificationDeliveriesRepo(pool, prom),
		Notifier:   notifier,
		Log:        log,
		Stats:      observability.NewQueueStats(),
		Prom:       prom,
	})

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(pool.Ping, jobsRepo.Backlog),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	sctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = healthSrv.Shutdown(sctx)

	log.Info("worker shutdown complete")
}
