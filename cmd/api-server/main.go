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
	"go.uber.org/zap"

	"github.com/noah-isme/educenter-api/internal/handler"
	"github.com/noah-isme/educenter-api/internal/repository"
	"github.com/noah-isme/educenter-api/internal/router"
	"github.com/noah-isme/educenter-api/internal/service"
	"github.com/noah-isme/educenter-api/pkg/cache"
	"github.com/noah-isme/educenter-api/pkg/config"
	"github.com/noah-isme/educenter-api/pkg/database"
	"github.com/noah-isme/educenter-api/pkg/logger"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logr); err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.Pinger{"postgres": db}

	var cacheRepo service.CacheRepository
	if cfg.GroupCache.Enabled {
		redisClient, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, group cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			repo := repository.NewCacheRepository(redisClient, "educenter:")
			cacheRepo = repo
			checks["redis"] = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.GroupCache.TTL, logr, cfg.GroupCache.Enabled)

	loc := cfg.Scheduling.Location()
	clock := func() time.Time { return time.Now().In(loc) }

	txManager := repository.NewTxManager(db)
	groupRepo := repository.NewGroupRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	validate := service.NewValidator()
	availability := service.NewRoomAvailability(groupRepo, cfg.Scheduling.WeekdayAwareRooms, logr)
	groupSvc := service.NewGroupService(service.GroupServiceDeps{
		Groups:       groupRepo,
		Rooms:        repository.NewRoomRepository(db),
		Courses:      repository.NewCourseRepository(db),
		Teachers:     repository.NewTeacherRepository(db),
		Availability: availability,
		Tx:           txManager,
		Cache:        cacheSvc,
		Metrics:      metrics,
		Validator:    validate,
		Logger:       logr,
	})
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, groupRepo, repository.NewStudentRepository(db), txManager, validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, groupRepo, validate, logr)
	gate := service.NewAttendanceValidator(lessonRepo, enrollmentRepo, clock, metrics, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, gate, lessonRepo, repository.NewUserRepository(db), metrics, validate, logr)
	homeworkSvc := service.NewHomeworkService(repository.NewHomeworkRepository(db), lessonRepo, groupRepo, validate, logr)
	authSvc := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	engine := router.New(router.Deps{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logr,
		Tokens:         authSvc,
		Audit:          auditRepo,
		Metrics:        metrics,
		Handlers: router.Handlers{
			Groups:      handler.NewGroupHandler(groupSvc),
			Enrollments: handler.NewEnrollmentHandler(enrollmentSvc),
			Lessons:     handler.NewLessonHandler(lessonSvc),
			Attendance:  handler.NewAttendanceHandler(attendanceSvc),
			Homework:    handler.NewHomeworkHandler(homeworkSvc),
			Metrics:     handler.NewMetricsHandler(metrics, checks),
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting",
			"addr", srv.Addr,
			"env", cfg.Env,
			"timezone", loc.String(),
			"weekday_aware_rooms", cfg.Scheduling.WeekdayAwareRooms)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
