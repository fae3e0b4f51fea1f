package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/viniuy/e-barangay/internal/config"
	"github.com/viniuy/e-barangay/internal/database"
	"github.com/viniuy/e-barangay/internal/metrics"
	"github.com/viniuy/e-barangay/internal/server"
	"github.com/viniuy/e-barangay/internal/storage"
	"github.com/viniuy/e-barangay/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(logger.Options{
		Development: !cfg.IsProduction(),
		Level:       cfg.LogLevel,
		FilePath:    cfg.LogFile,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		logger.Log.Fatal("Database unavailable", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}

	// Redis backs optional features; run without it rather than refuse to start
	rdb, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Log.Warn("Redis unavailable, rate limiting, caching, revocation and events disabled", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	store, err := storage.New(cfg)
	if err != nil {
		logger.Log.Fatal("Storage unavailable", zap.Error(err))
	}

	srv := server.New(server.Deps{
		Config:  cfg,
		DB:      db,
		Redis:   rdb,
		Storage: store,
		Metrics: metrics.New(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if srv.Hub != nil {
		go func() {
			if err := srv.Hub.Run(ctx); err != nil {
				logger.Log.Error("Event hub stopped", zap.Error(err))
			}
		}()
	}

	httpServer := &http.Server{
		Addr:              cfg.ServerPort,
		Handler:           srv.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting", zap.String("addr", cfg.ServerPort), zap.String("environment", cfg.Environment))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Graceful shutdown failed", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
