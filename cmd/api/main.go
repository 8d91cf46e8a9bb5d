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

	"github.com/geocoder89/worklink/internal/auth"
	"github.com/geocoder89/worklink/internal/cache"
	"github.com/geocoder89/worklink/internal/config"
	"github.com/geocoder89/worklink/internal/db"
	httpx "github.com/geocoder89/worklink/internal/http"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/geocoder89/worklink/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	config.LoadDotEnv()
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if cfg.OTELEndpoint != "" {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:   cfg.OTELServiceName + "-api",
			Component:     "api",
			Env:           cfg.Env,
			Endpoint:      cfg.OTELEndpoint,
			SamplePercent: cfg.OTELSamplePercent,
		})
		cancel()
		if err != nil {
			log.Error("tracer init failed", "err", err)
		} else {
			defer func() {
				ctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(ctx)
			}()
		}
	}

	connectCtx, cancelConnect := config.WithTimeout(30 * time.Second)
	pool, err := db.NewPool(connectCtx, cfg.DBURL, db.PoolOptions{
		AppName:  "worklink-api",
		MaxConns: int32(cfg.DBMaxConns),
		Attempts: cfg.DBConnectAttempts,
	})
	cancelConnect()
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	schemaCtx, cancelSchema := config.WithTimeout(10 * time.Second)
	err = db.EnsureSchema(schemaCtx, pool)
	cancelSchema()
	if err != nil {
		log.Error("schema setup failed", "err", err)
		os.Exit(1)
	}

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	// list cache: redis when configured so every api replica sees invalidations
	var listCache cache.Store = cache.NewMemory(cfg.CacheTTL)
	if cfg.RedisAddr != "" {
		dialCtx, cancelDial := config.WithTimeout(2 * time.Second)
		rc, err := cache.DialRedis(dialCtx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		cancelDial()

		if err != nil {
			log.Warn("redis unavailable, using in-process cache", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer rc.Close()
			listCache = rc
			log.Info("using redis cache", "addr", cfg.RedisAddr)
		}
	}

	// wire up repositories
	connections := postgres.NewConnectionRequestsRepo(pool, prom)

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		DB:                 pool,
		Users:              postgres.NewUsersRepo(pool, prom),
		WorkPosts:          postgres.NewWorkPostsRepo(pool, prom),
		WorkerProfiles:     postgres.NewWorkerProfilesRepo(pool, prom),
		ConnectionRequests: connections,
		Applied:            connections,
		SavedJobs:          postgres.NewSavedJobsRepo(pool, prom),
		SavedWorkers:       postgres.NewSavedWorkersRepo(pool, prom),
		Chats:              postgres.NewChatsRepo(pool, prom),
		Cache:              listCache,
		Tokens:             auth.NewManager(cfg.JWTSecret, cfg.JWTTTL()),
		Prom:               prom,
		Gatherer:           reg,
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("server shutting down")
	case err := <-serverErr:
		log.Error("server failed", "err", err)
		return
	}

	shutdownCtx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
		return
	}

	log.Info("shutdown complete")
}
