package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"seat-notifier/internal/catalog"
	"seat-notifier/internal/logger"
	"seat-notifier/internal/models"
	"seat-notifier/internal/watcher"
	"seat-notifier/pkg/tasks"
)

// Watcher is the subset of *watcher.Watcher the handlers use.
type Watcher interface {
	Register(ctx context.Context, crn int, email string) (models.SectionRef, error)
	Purge(ctx context.Context, email string, crn *int) (int64, error)
	Scan(ctx context.Context) (watcher.ScanResult, error)
	Release() string
}

type Handlers struct {
	watcher     Watcher
	asynqClient tasks.TaskEnqueuer
}

// New creates the handlers. asynqClient may be nil, in which case manual
// scans run inline.
func New(w Watcher, asynqClient tasks.TaskEnqueuer) *Handlers {
	return &Handlers{
		watcher:     w,
		asynqClient: asynqClient,
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"release": h.watcher.Release(),
	})
}

// PostScan triggers a scan outside the regular schedule.
func (h *Handlers) PostScan(w http.ResponseWriter, r *http.Request) {
	if h.asynqClient != nil {
		task, err := tasks.NewScanCatalogTask(tasks.TriggerManual)
		if err != nil {
			logger.Errorf("Error creating task: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		info, err := h.asynqClient.Enqueue(task)
		if err != nil {
			logger.Errorf("Error enqueuing task: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"task_id": info.ID})
		return
	}

	result, err := h.watcher.Scan(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var fetchErr *catalog.FetchError
	switch {
	case errors.Is(err, watcher.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, watcher.ErrEmptyEmail):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &fetchErr):
		logger.Errorf("Catalog unavailable: %v", err)
		http.Error(w, "Course catalog is unavailable, try again later", http.StatusBadGateway)
	default:
		logger.Errorf("Request failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
