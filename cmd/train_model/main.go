package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"go.uber.org/zap"

	"churnserve/config"
	"churnserve/db"
	"churnserve/logging"
	"churnserve/pipeline"
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

	var opts []pipeline.TrainerOption
	if cfg.Database.Path != "" {
		store, err := db.Open(cfg.Database.Path)
		if err != nil {
			logger.Warn("run history disabled", zap.String("path", cfg.Database.Path), zap.Error(err))
		} else {
			defer store.Close()
			opts = append(opts, pipeline.WithRunRecorder(store))
		}
	}

	result, err := pipeline.NewTrainer(pipeline.TrainingConfigFrom(cfg), opts...).Run(ctx)
	if err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}

	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-10s %.4f\n", name, result.Metrics[name])
	}
	fmt.Printf("model saved to %s\n", cfg.Model.Path)
}
