package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/miqaat-rms-api/api/swagger"
	"github.com/noah-isme/miqaat-rms-api/internal/handler"
	internalmiddleware "github.com/noah-isme/miqaat-rms-api/internal/middleware"
	"github.com/noah-isme/miqaat-rms-api/internal/models"
	"github.com/noah-isme/miqaat-rms-api/internal/repository"
	"github.com/noah-isme/miqaat-rms-api/internal/service"
	"github.com/noah-isme/miqaat-rms-api/internal/validation"
	"github.com/noah-isme/miqaat-rms-api/pkg/cache"
	"github.com/noah-isme/miqaat-rms-api/pkg/config"
	"github.com/noah-isme/miqaat-rms-api/pkg/database"
	"github.com/noah-isme/miqaat-rms-api/pkg/jobs"
	"github.com/noah-isme/miqaat-rms-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/miqaat-rms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/miqaat-rms-api/pkg/middleware/requestid"
)

// @title Miqaat RMS API
// @version 0.1.0
// @description Request and batch workflow for Miqaat operations
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(ctx, cfg.Database.MigrateTimeout)
		err := database.Migrate(migrateCtx, db)
		cancel()
		if err != nil {
			logr.Sugar().Fatalw("migration failed", "error", err)
		}
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc, closeCache := newCacheService(ctx, cfg, metricsSvc, logr)
	defer closeCache()

	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		RetryDelay: cfg.Audit.RetryDelay,
		Logger:     logr,
	}, metricsSvc, logr)
	auditSvc.Start(ctx)
	defer auditSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics"))

	registerRoutes(r, cfg, db, routeDeps{
		metrics: metricsSvc,
		cache:   cacheSvc,
		audit:   auditSvc,
		logger:  logr,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

type routeDeps struct {
	metrics *service.MetricsService
	cache   *service.CacheService
	audit   *service.AuditService
	logger  *zap.Logger
}

// newCacheService returns a disabled cache when Redis is off or unreachable;
// the API then reads straight from Postgres.
func newCacheService(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.CacheService, func()) {
	disabled := service.NewCacheService(nil, metrics, cfg.Cache.ReferenceTTL, logr, false)
	if !cfg.Redis.Enabled {
		return disabled, func() {}
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		return disabled, func() {}
	}
	repo := repository.NewCacheRepository(client, logr)
	closeFn := func() {
		if err := repo.Close(); err != nil {
			logr.Warn("redis close failed", zap.Error(err))
		}
	}
	return service.NewCacheService(repo, metrics, cfg.Cache.ReferenceTTL, logr, true), closeFn
}

func registerRoutes(r *gin.Engine, cfg *config.Config, db *sqlx.DB, deps routeDeps) {
	validator := validation.New()
	requestRepo := repository.NewRequestRepository(db)

	requestSvc := service.NewRequestService(requestRepo, validator, deps.logger,
		service.WithRequestAudit(deps.audit),
		service.WithRequestCache(deps.cache, cfg.Cache.FiltersTTL),
		service.WithRequestMetrics(deps.metrics),
	)
	batchSvc := service.NewBatchService(repository.NewBatchRepository(db), requestRepo, validator, deps.logger,
		service.WithBatchAudit(deps.audit),
		service.WithBatchCache(deps.cache),
		service.WithBatchMetrics(deps.metrics),
	)
	referenceSvc := service.NewReferenceService(repository.NewReferenceRepository(db), deps.cache, cfg.Cache.ReferenceTTL, deps.logger)
	authSvc := service.NewAuthService(service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	}, deps.logger)

	requestHandler := handler.NewRequestHandler(requestSvc)
	batchHandler := handler.NewBatchHandler(batchSvc)
	referenceHandler := handler.NewReferenceHandler(referenceSvc)
	metricsHandler := handler.NewMetricsHandler(deps.metrics, db, deps.cache)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(authSvc), internalmiddleware.AuditOrigin())

	writers := internalmiddleware.RequireRoles(models.RoleOperator, models.RoleAdmin, models.RoleSuperAdmin)
	admins := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	requests := api.Group("/requests")
	requests.GET("/requests", requestHandler.List)
	requests.GET("/requests/:id", requestHandler.Get)
	requests.GET("/filter-requests/", requestHandler.ListBatchable)
	requests.GET("/filters", requestHandler.Filters)
	requests.POST("/create-request/", writers, requestHandler.Create)
	requests.PATCH("/requests/:id/edit/", writers, requestHandler.Update)
	requests.DELETE("/requests/:id/delete/", writers, requestHandler.Delete)

	requests.GET("/batch/", batchHandler.List)
	requests.GET("/batch/:id", batchHandler.Get)
	requests.POST("/batch/", admins, batchHandler.Create)
	requests.PATCH("/batch/:id/edit/", admins, batchHandler.Update)
	requests.DELETE("/batches/:id/delete/", admins, batchHandler.Resolve)

	requests.GET("/cities", referenceHandler.Cities)
	requests.GET("/zones", referenceHandler.Zones)

	api.GET("/users/permissions/", referenceHandler.Permissions)
}
