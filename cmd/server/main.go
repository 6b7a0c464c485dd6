package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"seat-notifier/internal/app"
	"seat-notifier/internal/config"
	"seat-notifier/internal/handlers"
	"seat-notifier/internal/logger"
	"seat-notifier/internal/middleware"
	"seat-notifier/internal/watcher"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// In queue mode the worker notifies and retires; the server only keeps
	// its catalog current for registrations.
	var opts []watcher.Option
	if cfg.ScanMode == config.ScanModeQueue {
		opts = append(opts, watcher.RefreshOnly())
	}

	w, cleanup, err := app.NewWatcher(ctx, cfg, opts...)
	if err != nil {
		logger.Fatalf("Failed to set up watcher: %v", err)
	}
	defer cleanup()

	var enqueuer tasks.TaskEnqueuer
	if cfg.ScanMode == config.ScanModeQueue {
		client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer client.Close()
		enqueuer = client
	}
	w.Init(ctx)
	defer w.Stop()

	h := handlers.New(w, enqueuer)
	limiter := middleware.NewRateLimiterMiddleware(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(h, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Infof("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown failed: %v", err)
		}
	}()

	logger.Infof("Starting server on :%s in %s scan mode (commit: %s)", cfg.Port, cfg.ScanMode, CommitSHA)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server failed: %v", err)
	}
}

func newRouter(h *handlers.Handlers, limiter *middleware.RateLimiterMiddleware) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(limiter.Middleware)
	api.HandleFunc("/subscriptions", h.PostSubscription).Methods(http.MethodPost)
	api.HandleFunc("/subscriptions", h.DeleteSubscription).Methods(http.MethodDelete)
	api.HandleFunc("/subscriptions/{crn:[0-9]+}", h.DeleteSubscription).Methods(http.MethodDelete)
	api.HandleFunc("/scan", h.PostScan).Methods(http.MethodPost)

	return r
}
