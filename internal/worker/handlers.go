package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"seat-notifier/internal/logger"
	"seat-notifier/internal/watcher"
	"seat-notifier/pkg/tasks"
)

// Scanner runs one catalog scan.
type Scanner interface {
	Scan(ctx context.Context) (watcher.ScanResult, error)
}

type TaskHandler struct {
	scanner Scanner
}

func NewTaskHandler(scanner Scanner) *TaskHandler {
	return &TaskHandler{scanner: scanner}
}

// HandleScanCatalogTask runs a scan. Failures are reported to asynq without
// retry; the next scheduled scan starts from scratch.
func (h *TaskHandler) HandleScanCatalogTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.ScanCatalogTaskPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	logger.Infof("Running %s catalog scan", triggerName(p.Trigger))
	result, err := h.scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("catalog scan failed: %v: %w", err, asynq.SkipRetry)
	}

	logger.Infof("Catalog scan of %s done: %d matched, %d notified, %d retired", result.Release, result.Matched, result.Notified, result.Retired)
	return nil
}

func triggerName(trigger string) string {
	if trigger == "" {
		return tasks.TriggerScheduled
	}
	return trigger
}
