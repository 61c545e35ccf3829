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

	_ "github.com/zhanat-dev/observation-api/api/swagger"
	"github.com/zhanat-dev/observation-api/internal/handler"
	"github.com/zhanat-dev/observation-api/internal/middleware"
	"github.com/zhanat-dev/observation-api/internal/models"
	"github.com/zhanat-dev/observation-api/internal/repository"
	"github.com/zhanat-dev/observation-api/internal/service"
	"github.com/zhanat-dev/observation-api/internal/timetable"
	"github.com/zhanat-dev/observation-api/pkg/cache"
	"github.com/zhanat-dev/observation-api/pkg/config"
	"github.com/zhanat-dev/observation-api/pkg/database"
	"github.com/zhanat-dev/observation-api/pkg/export"
	"github.com/zhanat-dev/observation-api/pkg/jobs"
	"github.com/zhanat-dev/observation-api/pkg/logger"
	corsmiddleware "github.com/zhanat-dev/observation-api/pkg/middleware/cors"
	reqidmiddleware "github.com/zhanat-dev/observation-api/pkg/middleware/requestid"
	"github.com/zhanat-dev/observation-api/pkg/storage"
)

// @title Observation API
// @version 1.0.0
// @description Classroom observation events, feedback sheets and derived statistics
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
	sugar := logr.Sugar()

	catalog, err := timetable.NewCatalog(cfg.Timetable.Periods)
	if err != nil {
		sugar.Fatalw("invalid timetable configuration", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			sugar.Warnw("redis unavailable, reference caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	eventRepo := repository.NewEventRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	reportRepo := repository.NewReportRepository(db)

	pageSize := cfg.Listing.PageSize

	tokenSvc := service.NewTokenService(cfg.Auth.JWTSecret)
	teacherSvc := service.NewTeacherService(teacherRepo, cacheSvc, nil, logr)
	classSvc := service.NewClassService(classRepo, teacherRepo, cacheSvc, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, nil, logr)
	lessonSvc := service.NewLessonService(lessonRepo, subjectRepo, classRepo, teacherRepo, catalog, nil, logr, pageSize)
	eventSvc := service.NewEventService(eventRepo, teacherRepo, classRepo, feedbackRepo, auditRepo, catalog, nil, logr, pageSize)
	feedbackSvc := service.NewFeedbackService(feedbackRepo, eventRepo, auditRepo, nil, logr, pageSize)
	statsSvc := service.NewStatsService(eventRepo, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)

	var reportSvc *service.ReportService
	var reportQueue *jobs.Queue
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			sugar.Fatalw("failed to prepare report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewReportService(
			reportRepo,
			eventRepo,
			feedbackRepo,
			store,
			export.NewPDFExporter(),
			signer,
			metricsSvc,
			logr,
			cfg.APIPrefix,
		)
		reportQueue = jobs.NewQueue("reports", reportSvc.Process, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportSvc.Attach(reportQueue)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	eventHandler := handler.NewEventHandler(eventSvc)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)
	timetableHandler := handler.NewTimetableHandler(catalog)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	classHandler := handler.NewClassHandler(classSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	lessonHandler := handler.NewLessonHandler(lessonSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)

	api := r.Group(cfg.APIPrefix)
	authed := api.Group("")
	authed.Use(middleware.JWT(tokenSvc))
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	events := authed.Group("/events")
	{
		events.GET("", eventHandler.List)
		events.GET("/export", eventHandler.Export)
		events.GET("/:id", eventHandler.Get)
		events.GET("/:id/feedback", feedbackHandler.GetByEvent)
		events.POST("", adminOnly, eventHandler.Create)
		events.PUT("/:id", adminOnly, eventHandler.Update)
		events.DELETE("/:id", adminOnly, eventHandler.Delete)
	}

	feedback := authed.Group("/feedback")
	{
		feedback.GET("", feedbackHandler.List)
		feedback.GET("/schema", feedbackHandler.Schema)
		feedback.GET("/:id", feedbackHandler.Get)
		feedback.POST("", feedbackHandler.Create)
		feedback.PUT("/:id", feedbackHandler.Update)
		feedback.DELETE("/:id", adminOnly, feedbackHandler.Delete)
	}

	authed.GET("/stats/observations", statsHandler.Overview)
	authed.GET("/audit", adminOnly, auditHandler.History)

	tt := authed.Group("/timetable")
	{
		tt.GET("/periods", timetableHandler.Periods)
		tt.GET("/resolve", timetableHandler.Resolve)
		tt.GET("/materialize", timetableHandler.Materialize)
	}

	teachers := authed.Group("/teachers")
	{
		teachers.GET("", teacherHandler.List)
		teachers.GET("/options", teacherHandler.Options)
		teachers.GET("/:id", teacherHandler.Get)
		teachers.POST("", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogCreate, "teacher"), teacherHandler.Create)
		teachers.PUT("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogUpdate, "teacher"), teacherHandler.Update)
		teachers.DELETE("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogDelete, "teacher"), teacherHandler.Delete)
	}

	classes := authed.Group("/classes")
	{
		classes.GET("", classHandler.List)
		classes.GET("/options", classHandler.Options)
		classes.GET("/:id", classHandler.Get)
		classes.POST("", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogCreate, "class"), classHandler.Create)
		classes.PUT("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogUpdate, "class"), classHandler.Update)
		classes.DELETE("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogDelete, "class"), classHandler.Delete)
	}

	subjects := authed.Group("/subjects")
	{
		subjects.GET("", subjectHandler.List)
		subjects.GET("/:id", subjectHandler.Get)
		subjects.POST("", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogCreate, "subject"), subjectHandler.Create)
		subjects.PUT("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogUpdate, "subject"), subjectHandler.Update)
		subjects.DELETE("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogDelete, "subject"), subjectHandler.Delete)
	}

	lessons := authed.Group("/lessons")
	{
		lessons.GET("", lessonHandler.List)
		lessons.GET("/:id", lessonHandler.Get)
		lessons.POST("", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogCreate, "lesson"), lessonHandler.Create)
		lessons.PUT("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogUpdate, "lesson"), lessonHandler.Update)
		lessons.DELETE("/:id", adminOnly, middleware.Audit(auditRepo, models.AuditActionCatalogDelete, "lesson"), lessonHandler.Delete)
	}

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		authed.POST("/reports/feedback/:eventId", reportHandler.Enqueue)
		authed.GET("/reports/:jobId", reportHandler.Status)
		// Download authenticates via the signed token, not the JWT.
		api.GET("/reports/download", reportHandler.Download)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if reportQueue != nil {
		reportQueue.Start(ctx)
		defer reportQueue.Stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
