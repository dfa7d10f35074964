package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"churnserve/config"
	chttp "churnserve/http"
	"churnserve/logging"
	"churnserve/ml"
	"churnserve/monitoring"
)

// @title Telco Customer Churn Prediction API
// @version 1.0
// @description Serves churn predictions from a trained random forest artifact.
// @BasePath /
func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize logging
	logger, err := logging.New(logging.ConfigFrom(cfg))
	if err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logger.Sync()

	// 3. Load the model; serving without one is a setup error
	artifact, err := ml.LoadArtifact(cfg.Model.Path)
	if err != nil {
		logger.Fatal("failed to load model artifact; run cmd/train_model first",
			zap.String("path", cfg.Model.Path), zap.Error(err))
	}
	logger.Info("model loaded",
		zap.String("path", cfg.Model.Path),
		zap.Time("created_at", artifact.CreatedAt),
		zap.Int("features", artifact.Transformer.Width()),
		zap.Int("trees", len(artifact.Forest.Trees)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Warn when the artifact is replaced underneath the running server
	watcher, err := monitoring.NewArtifactWatcher(cfg.Model.Path, logger, nil)
	if err != nil {
		logger.Warn("artifact watcher disabled", zap.Error(err))
	} else {
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Warn("artifact watcher stopped", zap.Error(err))
			}
		}()
	}

	// 5. Start HTTP server
	metrics := chttp.NewMetrics()
	handlers, err := chttp.NewHandlers(artifact, cfg.Http.CacheSize, metrics, logger)
	if err != nil {
		logger.Fatal("failed to build handlers", zap.Error(err))
	}
	server := chttp.NewServer(chttp.ServerConfigFrom(cfg), handlers, metrics, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 6. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}
