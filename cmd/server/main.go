package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	_ "careattend/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"careattend/internal/auth"
	"careattend/internal/cache"
	"careattend/internal/config"
	"careattend/internal/db"
	"careattend/internal/handler"
	"careattend/internal/logger"
	"careattend/internal/model"
	"careattend/internal/repository"
	"careattend/internal/router"
	"careattend/internal/seclog"
	"careattend/internal/service"
	"careattend/internal/session"
	"careattend/internal/store"
)

// zapNotifier surfaces break warnings through the diagnostic log. A push
// channel can replace it without touching the services.
type zapNotifier struct {
	log *zap.Logger
}

func (n *zapNotifier) Notify(userID, level, message string) {
	n.log.Warn("notification",
		zap.String("user_id", userID),
		zap.String("level", level),
		zap.String("message", message))
}

// @title Care Facility Attendance API
// @version 4.0
// @description Attendance, daily report and handover service for a care facility, with JWT authentication.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync()

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		zlog.Fatal("database init", zap.Error(err))
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.AttendanceRecord{},
		&model.DailyReport{},
		&model.StaffComment{},
	); err != nil {
		zlog.Fatal("auto-migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	sealer, err := store.NewSealer(cfg.SealKey)
	if err != nil {
		zlog.Fatal("sealer init", zap.Error(err))
	}
	kv := store.New(cacheClient, store.DefaultPrefix, sealer, zlog)

	events := seclog.New(kv, zlog)
	kv.SetAuditor(events)

	ctx := context.Background()
	kv.Init(ctx)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	attendanceRepo := repository.NewAttendanceRepository(gormDB)
	reportRepo := repository.NewReportRepository(gormDB)
	commentRepo := repository.NewCommentRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	sessions := session.NewManager(kv, userRepo, events, cfg.Security, zlog)
	sessions.SetExpiryHandler(func(s session.Session) {
		zlog.Info("session force-expired", zap.String("user_id", s.User.ID))
	})

	// Initialize services
	notifier := &zapNotifier{log: zlog}
	reportService := service.NewReportService(reportRepo, commentRepo, userRepo, kv, events, cfg.Report)
	attendanceService := service.NewAttendanceService(attendanceRepo, reportService, events, notifier, cfg.Time, zlog)
	handoverService := service.NewHandoverService(kv, events)
	userService := service.NewUserService(userRepo, events)

	// Background monitors
	sessions.StartMonitoring(ctx)
	attendanceService.StartBreakWatcher(ctx)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(sessions, jwtService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	reportHandler := handler.NewReportHandler(reportService, sessions)
	handoverHandler := handler.NewHandoverHandler(handoverService, sessions)
	userHandler := handler.NewUserHandler(userService, sessions)
	adminHandler := handler.NewAdminHandler(events, sessions)

	// Register routes
	router.Register(
		e,
		cfg,
		sessions,
		authHandler,
		attendanceHandler,
		reportHandler,
		handoverHandler,
		userHandler,
		adminHandler,
	)

	zlog.Info("swagger documentation available",
		zap.String("url", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.ServerPort)))

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		zlog.Fatal("server start", zap.Error(err))
	}
}
