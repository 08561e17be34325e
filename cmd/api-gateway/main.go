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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/robindaddy-LI/EDU-SYSTEM-sub001/api/swagger"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/handler"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/middleware"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/repository"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/internal/service"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/academicyear"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/auth"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/cache"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/config"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/database"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/jobs"
	"github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/logger"
	corsmiddleware "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/robindaddy-LI/EDU-SYSTEM-sub001/pkg/middleware/requestid"
)

// @title EDU System Attendance API
// @version 1.0.0
// @description Teacher-class assignments, session expectations and attendance reconciliation
// @BasePath /api/v1
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

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	var redisClient *redis.Client
	if cfg.Validation.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, audit cache disabled", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	rule, err := academicyear.LoadRule(cfg.Academic.BoundaryMonth, cfg.Academic.BoundaryDay, cfg.Academic.Timezone)
	if err != nil {
		return err
	}
	verifier, err := auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	if err != nil {
		return err
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Validation.AuditCacheTTL, logr, redisClient != nil)
	validate := service.NewValidator()

	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	summaryRepo := repository.NewAttendanceSummaryRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	mux := jobs.Mux{}
	queue := jobs.NewQueue("integrity", mux.Handle, jobs.QueueConfig{
		Workers:    cfg.Validation.Workers,
		MaxRetries: 2,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})

	validator := service.NewAssignmentValidator(assignmentRepo, classRepo, cacheSvc, metricsSvc, queue, service.AssignmentValidatorConfig{
		Rule:       rule,
		OnMutation: cfg.Validation.OnMutation,
		CacheTTL:   cfg.Validation.AuditCacheTTL,
	}, logr)
	resolver := service.NewExpectationResolver(assignmentRepo, teacherRepo, studentRepo, service.ExpectationResolverConfig{
		Strict:         cfg.Attendance.StrictResolver,
		SnapshotAnchor: cfg.Attendance.SnapshotAnchor,
	}, logr)
	recorder := service.NewAttendanceRecorder(sessionRepo, resolver, auditRepo, metricsSvc, validate, service.AttendanceRecorderConfig{
		GracePeriod: cfg.Attendance.GracePeriod,
	}, logr)
	sweeper := service.NewSessionSweeper(sessionRepo, recorder, queue, cfg.Attendance.GracePeriod, cfg.Attendance.SweepInterval, logr)

	mux[service.JobValidateClassYear] = validator.HandleJob
	mux[service.JobCloseSession] = sweeper.HandleJob
	queue.Start(ctx)
	defer queue.Stop()

	if cfg.Attendance.SweepEnabled {
		go sweeper.Run(ctx)
	}

	assignmentSvc := service.NewTeacherAssignmentService(assignmentRepo, classRepo, teacherRepo, studentRepo, validator, cacheSvc, auditRepo, metricsSvc, rule, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, resolver, recorder, validator, cacheSvc, rule, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, assignmentRepo, validator, cacheSvc, auditRepo, validate, logr)
	summarySvc := service.NewAttendanceSummaryService(summaryRepo, classRepo, rule, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	probes := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		probes["redis"] = handler.PingFunc(cacheRepo.Ping)
	}
	handler.RegisterProbes(r, handler.NewMetricsHandler(metricsSvc, probes))

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Assignments: handler.NewAssignmentHandler(assignmentSvc),
		Classes:     handler.NewClassHandler(assignmentSvc, validator, summarySvc),
		Sessions:    handler.NewSessionHandler(sessionSvc, recorder),
		Teachers:    handler.NewTeacherHandler(teacherSvc),
	}, verifier)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
