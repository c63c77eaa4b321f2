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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/cip-api/api/swagger"
	"github.com/noah-isme/cip-api/internal/events"
	"github.com/noah-isme/cip-api/internal/handler"
	"github.com/noah-isme/cip-api/internal/middleware"
	"github.com/noah-isme/cip-api/internal/repository"
	"github.com/noah-isme/cip-api/internal/scheduler"
	"github.com/noah-isme/cip-api/internal/service"
	"github.com/noah-isme/cip-api/pkg/cache"
	"github.com/noah-isme/cip-api/pkg/config"
	"github.com/noah-isme/cip-api/pkg/database"
	"github.com/noah-isme/cip-api/pkg/export"
	"github.com/noah-isme/cip-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/cip-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/cip-api/pkg/middleware/requestid"
)

// @title CIP API
// @version 0.1.0
// @description Course industry partnership backend
// @BasePath /
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheService := service.NewCacheService(cacheRepo, metrics, cfg.Analytics.CacheTTL, logr, cfg.Analytics.Enabled)

	partnershipRepo := repository.NewPartnershipRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var notifier service.Notifier
	if cfg.Events.Enabled {
		publisher := events.NewPublisher(redisClient, events.Config{
			Stream:     cfg.Events.StreamName,
			MaxLen:     cfg.Events.StreamMax,
			Workers:    cfg.Events.Workers,
			BufferSize: cfg.Events.QueueSize,
			MaxRetries: cfg.Events.MaxRetries,
		}, logr)
		publisher.Start(ctx)
		defer publisher.Stop()
		notifier = publisher
	}

	analyticsService := service.NewAnalyticsService(analyticsRepo, cacheService, metrics, logr, nil)
	partnershipService := service.NewPartnershipService(partnershipRepo, notifier, metrics, analyticsService, nil, logr, nil)
	exportService := service.NewExportService(analyticsService, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	partnershipHandler := handler.NewPartnershipHandler(partnershipService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, exportService)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Scheduler.Enabled {
		sweep, err := scheduler.New(partnershipService, cfg.Scheduler.RefreshSpec, logr)
		if err != nil {
			logr.Sugar().Fatalw("failed to init scheduler", "error", err)
		}
		sweep.Start()
		defer sweep.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		partnerships := api.Group("/partnerships")
		{
			partnerships.GET("", partnershipHandler.List)
			partnerships.POST("", partnershipHandler.Create)
			partnerships.GET("/:id", partnershipHandler.Get)
			partnerships.PUT("/:id/approve", partnershipHandler.Approve)
			partnerships.PUT("/:id/reject", partnershipHandler.Reject)
			partnerships.PUT("/:id/cancel", partnershipHandler.Cancel)
			partnerships.PUT("/:id/complete", partnershipHandler.Complete)
			partnerships.PUT("/:id/dates", partnershipHandler.SetDates)
			partnerships.PUT("/:id/refresh", partnershipHandler.Refresh)
			partnerships.POST("/:id/messages", partnershipHandler.AppendMessage)
		}

		analytics := api.Group("/analytics")
		{
			analytics.GET("/partnerships", analyticsHandler.Summary)
			analytics.GET("/partnerships/export", analyticsHandler.Export)
			analytics.GET("/system", analyticsHandler.System)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
