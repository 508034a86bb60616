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
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tuition-ledger-api/api/swagger"
	"github.com/noah-isme/tuition-ledger-api/internal/handler"
	"github.com/noah-isme/tuition-ledger-api/internal/middleware"
	"github.com/noah-isme/tuition-ledger-api/internal/repository"
	"github.com/noah-isme/tuition-ledger-api/internal/service"
	"github.com/noah-isme/tuition-ledger-api/pkg/cache"
	"github.com/noah-isme/tuition-ledger-api/pkg/config"
	"github.com/noah-isme/tuition-ledger-api/pkg/database"
	"github.com/noah-isme/tuition-ledger-api/pkg/jobs"
	"github.com/noah-isme/tuition-ledger-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tuition-ledger-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tuition-ledger-api/pkg/middleware/requestid"
)

// @title Tuition Ledger API
// @version 1.0.0
// @description Student registration, course fees and payment reconciliation
// @BasePath /
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(context.Background(), db)
		if err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
		logr.Info("database migrated", zap.Strings("applied", applied))
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	checks := map[string]handler.Pinger{"database": handler.PingFunc(db.PingContext)}

	var catalogCache *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	switch {
	case err != nil:
		logr.Warn("redis unavailable, catalog cache disabled", zap.Error(err))
	case redisClient != nil:
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		catalogCache = service.NewCacheService(cacheRepo, metrics, cfg.Catalog.CacheTTL, logr, cfg.Catalog.CacheEnabled)
		checks["redis"] = cacheRepo
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	staffRepo := repository.NewStaffRepository(db)
	auditTrail := service.NewAuditTrail(repository.NewAuditRepository(db), logr, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
	})
	auditTrail.Start(context.Background())
	defer auditTrail.Stop()

	authSvc := service.NewAuthService(staffRepo, studentRepo, auditTrail, validate, logr, metrics, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		BcryptCost:        cfg.Ledger.BcryptCost,
	})
	regNumbers := service.NewRegistrationNumberGenerator(studentRepo, logr, metrics)
	enrollmentSvc := service.NewEnrollmentService(studentRepo, courseRepo, regNumbers, validate, logr, metrics, service.EnrollmentConfig{
		RegistrationYear:    cfg.Ledger.RegistrationYear,
		DefaultSecret:       cfg.Ledger.DefaultStudentSecret,
		RegistrationRetries: cfg.Ledger.RegistrationRetries,
		BcryptCost:          cfg.Ledger.BcryptCost,
		Programs:            cfg.Ledger.Programs,
	})
	courseSvc := service.NewCourseService(courseRepo, catalogCache, validate, logr, metrics, cfg.Ledger.Programs)
	paymentSvc := service.NewPaymentService(paymentRepo, studentRepo, enrollmentRepo, validate, logr, metrics, cfg.Ledger.SelfServiceMethods)
	reportSvc := service.NewReportService(studentRepo, enrollmentRepo, paymentRepo, logr, metrics)

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	routes := &handler.Router{
		Auth:       handler.NewAuthHandler(authSvc),
		Registrar:  handler.NewRegistrarHandler(enrollmentSvc, regNumbers, reportSvc, cfg.Ledger.RegistrationYear),
		Courses:    handler.NewCourseHandler(courseSvc),
		Accountant: handler.NewAccountantHandler(paymentSvc, reportSvc),
		Student:    handler.NewStudentHandler(reportSvc, paymentSvc),
		Metrics:    metricsHandler,
		Tokens:     authSvc,
		Audit:      auditTrail,
		Logger:     logr,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metrics != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	routes.Register(r.Group(cfg.APIPrefix))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "db_driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
