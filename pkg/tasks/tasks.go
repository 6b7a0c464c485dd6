package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeScanCatalog = "catalog:scan"

	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

type ScanCatalogTaskPayload struct {
	Trigger string
}

// NewScanCatalogTask creates a scan task. Scans are never retried; the next
// scheduled scan picks up whatever this one missed.
func NewScanCatalogTask(trigger string) (*asynq.Task, error) {
	payload, err := json.Marshal(ScanCatalogTaskPayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeScanCatalog, payload, asynq.MaxRetry(0)), nil
}
