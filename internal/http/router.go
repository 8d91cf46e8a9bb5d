package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/worklink/internal/auth"
	"github.com/geocoder89/worklink/internal/cache"
	"github.com/geocoder89/worklink/internal/config"
	"github.com/geocoder89/worklink/internal/domain/user"
	"github.com/geocoder89/worklink/internal/http/handlers"
	"github.com/geocoder89/worklink/internal/http/middlewares"
	"github.com/geocoder89/worklink/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the stores and shared services the API is built from.
type Deps struct {
	DB handlers.Pinger

	Users              handlers.UserStore
	WorkPosts          handlers.WorkPostStore
	WorkerProfiles     handlers.WorkerProfileStore
	ConnectionRequests handlers.ConnectionRequestStore
	Applied            handlers.AppliedLookup
	SavedJobs          handlers.SavedJobStore
	SavedWorkers       handlers.SavedWorkerStore
	Chats              handlers.ChatStore

	Cache  cache.Store
	Tokens *auth.Manager

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(log *slog.Logger, cfg config.Config, d Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	if cfg.OTELEndpoint != "" {
		r.Use(otelgin.Middleware(cfg.OTELServiceName + "-api"))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	// ops
	health := handlers.NewHealthHandler(d.DB)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Wire up handlers
	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens)
	workPosts := handlers.NewWorkPostsHandler(d.WorkPosts, d.Applied, d.Cache)
	workerProfiles := handlers.NewWorkerProfilesHandler(d.WorkerProfiles)
	connections := handlers.NewConnectionRequestsHandler(d.ConnectionRequests, d.WorkPosts, cfg.JobMaxAttempts)
	savedJobs := handlers.NewSavedJobsHandler(d.SavedJobs, d.WorkPosts)
	savedWorkers := handlers.NewSavedWorkersHandler(d.SavedWorkers, d.WorkerProfiles)
	chats := handlers.NewChatsHandler(d.Chats)

	authMW := middlewares.NewAuthMiddleware(d.Tokens)
	authLimiter := middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateLimitWindow)
	writeLimit := middlewares.NewRateLimiter(cfg.WriteRateLimit, time.Minute).RateLimiterMiddleware(middlewares.KeyByUserOrIP)

	contractor := authMW.RequireRole(user.RoleContractor)
	worker := authMW.RequireRole(user.RoleWorker)
	anyRole := authMW.RequireRole(user.RoleContractor, user.RoleWorker)

	api := r.Group("/api")

	// public
	authGroup := api.Group("/auth")
	authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// everything below needs a token
	protected := api.Group("")
	protected.Use(authMW.RequireAuth())

	protected.GET("/users/me", authHandler.Me)

	protected.GET("/work-posts", workPosts.List)
	protected.POST("/work-posts", contractor, workPosts.Create)
	protected.PUT("/work-posts/:id", contractor, workPosts.Update)
	protected.DELETE("/work-posts/:id", contractor, workPosts.Delete)
	protected.POST("/work-posts/:id/request", worker, workPosts.ToggleRequest)

	protected.GET("/worker-profiles", anyRole, workerProfiles.List)
	protected.POST("/worker-profiles", worker, workerProfiles.Create)
	protected.PUT("/worker-profiles/:id", worker, workerProfiles.Update)
	protected.DELETE("/worker-profiles/:id", worker, workerProfiles.Delete)

	protected.GET("/connection-requests", connections.List)
	protected.POST("/connection-requests", worker, writeLimit, connections.Create)
	protected.PUT("/connection-requests/:id", contractor, connections.Update)

	protected.GET("/saved-jobs", worker, savedJobs.List)
	protected.POST("/saved-jobs", worker, savedJobs.Create)
	protected.DELETE("/saved-jobs/:id", worker, savedJobs.Delete)

	protected.GET("/saved-workers", contractor, savedWorkers.List)
	protected.POST("/saved-workers", contractor, savedWorkers.Create)
	protected.DELETE("/saved-workers/:id", contractor, savedWorkers.Delete)

	protected.GET("/chats", chats.List)
	protected.GET("/chats/:chatId", chats.Get)
	protected.POST("/chats/:chatId", writeLimit, chats.Send)
	protected.POST("/chats/:chatId/read", chats.MarkRead)

	return r
}
