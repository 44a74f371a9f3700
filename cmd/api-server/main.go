package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/grantforge/grantforge/pkg/ai"
	"github.com/grantforge/grantforge/pkg/apiserver"
	"github.com/grantforge/grantforge/pkg/config"
	"github.com/grantforge/grantforge/pkg/eventbus"
	"github.com/grantforge/grantforge/pkg/store/postgres"
	redisclient "github.com/grantforge/grantforge/pkg/store/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := postgres.NewStore(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	var redis *redisclient.Client
	if len(cfg.Redis.Addresses) > 0 {
		redis, err = redisclient.NewClient(&cfg.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, change notifications disabled", zap.Error(err))
			redis = nil
		} else {
			defer redis.Close()
		}
	}

	var reviewer ai.Reviewer
	if cfg.AI.APIKey != "" {
		reviewer = ai.NewReviewClient(cfg.AI)
	} else {
		logger.Warn("AI review disabled: no API key configured")
	}

	runCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if redis != nil {
		bus := eventbus.NewBus(redis.Client())
		events := bus.Subscribe(runCtx,
			eventbus.ChannelProject, eventbus.ChannelApproval, eventbus.ChannelQuestion)
		go func() {
			for event := range events {
				logger.Info("Change notification",
					zap.String("type", event.Type),
					zap.ByteString("data", event.Data))
			}
		}()
	}

	server := apiserver.NewServer(db, redis, reviewer, cfg, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.ReadTimeout * 2,
	}

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: promhttp.Handler(),
	}

	go func() {
		logger.Info("Starting metrics server", zap.Int("port", cfg.Server.MetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("Starting API server", zap.Int("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server forced to shutdown", zap.Error(err))
	}
}
