package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"seat-notifier/internal/app"
	"seat-notifier/internal/config"
	"seat-notifier/internal/logger"
	"seat-notifier/internal/worker"
	"seat-notifier/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	envErr := godotenv.Load()
	cfg := config.Load()
	flush := logger.Init(cfg.Debug)
	defer flush()
	if envErr != nil {
		logger.Infof("Error loading .env file")
	}

	w, cleanup, err := app.NewWatcher(context.Background(), cfg)
	if err != nil {
		logger.Fatalf("Failed to set up watcher: %v", err)
	}
	defer cleanup()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			// A single worker keeps scans from overlapping.
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugared(),
		},
	)

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(w)
	mux.HandleFunc(tasks.TypeScanCatalog, taskHandler.HandleScanCatalogTask)

	logger.Infof("Worker starting (commit: %s)", CommitSHA)
	if err := srv.Run(mux); err != nil {
		logger.Fatalf("could not run server: %v", err)
	}
}
