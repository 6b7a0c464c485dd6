package main

import (
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"seat-notifier/internal/config"
	"seat-notifier/internal/logger"
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

	redis := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	task, err := tasks.NewScanCatalogTask(tasks.TriggerScheduled)
	if err != nil {
		logger.Fatalf("could not create task: %v", err)
	}

	// Scan once right away, then on the interval.
	client := asynq.NewClient(redis)
	if _, err := client.Enqueue(task, asynq.Unique(cfg.ScanInterval)); err != nil {
		logger.Warnf("could not enqueue initial scan: %v", err)
	}
	client.Close()

	scheduler := asynq.NewScheduler(redis, &asynq.SchedulerOpts{Logger: logger.Sugared()})
	_, err = scheduler.Register(fmt.Sprintf("@every %s", cfg.ScanInterval), task, asynq.Unique(cfg.ScanInterval))
	if err != nil {
		logger.Fatalf("could not register task: %v", err)
	}

	logger.Infof("Scheduler starting with interval %s (commit: %s)", cfg.ScanInterval, CommitSHA)
	if err := scheduler.Run(); err != nil {
		logger.Fatalf("could not run scheduler: %v", err)
	}
}
