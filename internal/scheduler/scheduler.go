package scheduler

import (
	"context"
	"sync"
	"time"

	"seat-notifier/internal/logger"
)

// Scheduler runs a job on a fixed interval until stopped. Jobs never overlap;
// ticks missed while a job is running are coalesced by the ticker.
type Scheduler struct {
	interval time.Duration
	job      func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, job func(ctx context.Context)) *Scheduler {
	return &Scheduler{interval: interval, job: job}
}

// Start begins ticking in a background goroutine. Calling Start on a running
// scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Infof("Scheduler started with interval %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			logger.Infof("Scheduler stopped")
			return
		case <-ticker.C:
			s.job(ctx)
		}
	}
}

// Stop cancels the ticker and waits for an in-flight job to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
