package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"churnserve/config"
	"churnserve/data"
	"churnserve/logging"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(logging.ConfigFrom(cfg))
	if err != nil {
		log.Fatalf("failed to initialize logging: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 5 * time.Minute}
	if err := data.Download(ctx, client, cfg.Data.URL, cfg.Data.RawPath); err != nil {
		logger.Fatal("download failed", zap.String("url", cfg.Data.URL), zap.Error(err))
	}
	logger.Info("raw data ready", zap.String("path", cfg.Data.RawPath))
}
