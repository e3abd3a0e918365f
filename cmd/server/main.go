package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/config"
	"github.com/gfragi/attendance-app/internal/api/handler"
	"github.com/gfragi/attendance-app/internal/api/router"
	"github.com/gfragi/attendance-app/internal/repository"
	"github.com/gfragi/attendance-app/internal/service"
	"github.com/gfragi/attendance-app/pkg/database"
	"github.com/gfragi/attendance-app/pkg/logger"
	"github.com/gfragi/attendance-app/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewDB(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("connect database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("unwrap database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(sqlDB, zapLogger); err != nil {
		zapLogger.Fatal("run migrations", zap.Error(err))
	}

	// Redis only backs rate limiting; start without it if unreachable.
	rdb, err := redis.NewClient(&cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Warn("redis unavailable, rate limiting disabled", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	repo := repository.NewRepository(db)

	svc, err := service.NewService(cfg, repo, zapLogger)
	if err != nil {
		zapLogger.Fatal("init services", zap.Error(err))
	}

	bootCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.User.EnsureAdmins(bootCtx, cfg.Bootstrap.AdminEmails); err != nil {
		cancel()
		zapLogger.Fatal("seed admin accounts", zap.Error(err))
	}
	cancel()

	h := handler.NewHandler(svc, zapLogger)
	engine := router.NewRouter(cfg, h, svc, db, rdb, zapLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zapLogger.Info("server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("forced shutdown", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
