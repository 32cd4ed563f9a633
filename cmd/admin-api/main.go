package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/valokuva/cms-admin-api/api/swagger"
	"github.com/valokuva/cms-admin-api/internal/handler"
	"github.com/valokuva/cms-admin-api/internal/middleware"
	"github.com/valokuva/cms-admin-api/internal/repository"
	"github.com/valokuva/cms-admin-api/internal/schedule"
	"github.com/valokuva/cms-admin-api/internal/service"
	"github.com/valokuva/cms-admin-api/pkg/cache"
	"github.com/valokuva/cms-admin-api/pkg/config"
	"github.com/valokuva/cms-admin-api/pkg/database"
	"github.com/valokuva/cms-admin-api/pkg/logger"
	corsmiddleware "github.com/valokuva/cms-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/valokuva/cms-admin-api/pkg/middleware/requestid"
	"github.com/valokuva/cms-admin-api/pkg/storage"
	"github.com/valokuva/cms-admin-api/pkg/transport"
)

// @title CMS Admin API
// @version 1.0.0
// @description Content administration, ingest and site publication backend
// @BasePath /api/v1
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

	adminDB, err := database.NewPostgres(cfg.AdminDatabase)
	if err != nil {
		logr.Fatal("failed to connect admin database", zap.Error(err))
	}
	defer adminDB.Close() //nolint:errcheck

	siteDB, err := database.NewPostgres(cfg.SiteDatabase)
	if err != nil {
		logr.Fatal("failed to connect site database", zap.Error(err))
	}
	defer siteDB.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, resource cache disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close() //nolint:errcheck
	}

	store, err := storage.NewBucketStorage(cfg.Storage.BaseDir, cfg.Storage.Buckets)
	if err != nil {
		logr.Fatal("failed to prepare storage buckets", zap.Error(err))
	}

	deployer, err := transport.NewDeployer(cfg.Deploy, logr)
	if err != nil {
		logr.Fatal("failed to configure site deployer", zap.Error(err))
	}
	defer deployer.Close() //nolint:errcheck

	// Repositories. Admin and site databases are independent; no repository
	// spans both.
	aclRepo := repository.NewAclRepository(adminDB)
	fileRepo := repository.NewSiteFileRepository(adminDB)
	thumbRepo := repository.NewFileThumbRepository(adminDB)
	galleryRepo := repository.NewGalleryRepository(adminDB)
	pageRepo := repository.NewPageRepository(adminDB)
	scheduleRepo := repository.NewPublishScheduleRepository(adminDB)
	webResourceRepo := repository.NewWebResourceRepository(siteDB)
	webMirrorRepo := repository.NewWebMirrorRepository(siteDB)

	// Services.
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(redisClient, logr)
	aclSvc := service.NewAclService(aclRepo, logr)
	consistencySvc := service.NewAclConsistencyService(aclRepo, metrics, logr)
	thumbSvc := service.NewThumbService(thumbRepo, store, cfg.Storage, metrics, logr)
	ingestSvc := service.NewIngestService(fileRepo, galleryRepo, aclRepo, thumbSvc,
		store, cfg.Ingest.PresharedKey, metrics, logr)
	publishSvc := service.NewPublishService(pageRepo, galleryRepo, aclRepo, webMirrorRepo,
		scheduleRepo, deployer, thumbSvc, store, cacheSvc, metrics, logr)
	gallerySvc := service.NewGalleryService(galleryRepo, logr)
	resourceSvc := service.NewResourceService(webResourceRepo, cacheSvc, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, metrics, logr)

	scheduler := schedule.NewScheduler(cfg.Schedule, publishSvc, consistencySvc,
		fileRepo, thumbSvc, store, logr)

	// Handlers.
	validate := validator.New()
	ingestHandler := handler.NewIngestHandler(ingestSvc, validate)
	publishHandler := handler.NewPublishHandler(publishSvc)
	galleryHandler := handler.NewGalleryHandler(gallerySvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	resourceHandler := handler.NewResourceHandler(resourceSvc)
	aclHandler := handler.NewAclHandler(aclSvc, consistencySvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/ingest", ingestHandler.Ingest)

	protected := api.Group("")
	protected.Use(middleware.JWT(cfg.JWT.Secret))
	protected.POST("/pages/:id/publish", publishHandler.PublishPage)
	protected.DELETE("/pages/:id/publish", publishHandler.UnpublishPage)
	protected.POST("/galleries/:id/publish", publishHandler.PublishGallery)
	protected.DELETE("/galleries/:id/publish", publishHandler.UnpublishGallery)
	protected.GET("/galleries", galleryHandler.Search)
	protected.PUT("/galleries/:id/files", galleryHandler.ReplaceFiles)
	protected.GET("/publish/schedules", scheduleHandler.List)
	protected.GET("/publish/schedules/export", scheduleHandler.Export)
	protected.GET("/publish/schedules/:id", scheduleHandler.Get)
	protected.POST("/publish/schedules/:id/trigger", publishHandler.Retrigger)
	protected.GET("/resources", resourceHandler.List)
	protected.POST("/acls", aclHandler.Create)
	protected.GET("/acls/consistency", aclHandler.Consistency)
	protected.GET("/acls/:aclId", aclHandler.Get)
	protected.PUT("/acls/:aclId", aclHandler.Replace)
	protected.DELETE("/acls/:aclId", aclHandler.Delete)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := scheduler.Start(ctx); err != nil {
		logr.Fatal("failed to start schedules", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down")

	scheduler.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
	logr.Info("server stopped")
}
