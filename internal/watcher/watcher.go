// Package watcher periodically checks the course catalog for open seats in
// subscribed sections, emails the subscribers once and retires the
// subscription.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"seat-notifier/internal/catalog"
	"seat-notifier/internal/logger"
	"seat-notifier/internal/models"
	"seat-notifier/internal/notifier"
	"seat-notifier/internal/scheduler"
)

// DefaultScanInterval is used when New is given a non-positive interval.
const DefaultScanInterval = 30 * time.Minute

// Store is the persistent subscription table.
type Store interface {
	SelectAll(ctx context.Context) ([]models.Subscription, error)
	UpsertAppendEmail(ctx context.Context, crn int, email string) error
	DeleteRow(ctx context.Context, crn int) error
	RemoveEmailFromRow(ctx context.Context, crn int, email string) (int64, error)
	RemoveEmailFromAllRows(ctx context.Context, email string) (int64, error)
}

// Fetcher retrieves the latest catalog snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (*models.Snapshot, error)
}

// ScanResult summarizes one scan.
type ScanResult struct {
	Release        string `json:"release"`
	Matched        int    `json:"matched"`
	Notified       int    `json:"notified"`
	NotifyFailures int    `json:"notify_failures"`
	Retired        int    `json:"retired"`
}

type Watcher struct {
	store    Store
	fetcher  Fetcher
	notifier notifier.Notifier

	snapshot atomic.Pointer[models.Snapshot]

	// scanMu serializes scans so a section is never notified twice by
	// overlapping scans.
	scanMu sync.Mutex

	// refreshOnly watchers only keep the catalog current; scans that notify
	// and retire run elsewhere (the queue worker).
	refreshOnly bool

	initOnce sync.Once
	sched    *scheduler.Scheduler
}

type Option func(*Watcher)

// RefreshOnly makes Init, the scheduler and Register fetch the catalog
// without matching subscriptions. Scan still performs a full scan.
func RefreshOnly() Option {
	return func(w *Watcher) { w.refreshOnly = true }
}

func New(store Store, fetcher Fetcher, n notifier.Notifier, interval time.Duration, opts ...Option) *Watcher {
	if interval <= 0 {
		interval = DefaultScanInterval
	}
	w := &Watcher{
		store:    store,
		fetcher:  fetcher,
		notifier: n,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.sched = scheduler.New(interval, w.scheduledScan)
	return w
}

// Init runs one cycle immediately and then starts the periodic scheduler.
// Only the first call has any effect.
func (w *Watcher) Init(ctx context.Context) {
	w.initOnce.Do(func() {
		w.scanMu.Lock()
		err := w.cycle(ctx)
		w.scanMu.Unlock()
		if err != nil {
			logger.Errorf("Initial scan failed: %v", err)
		}
		w.sched.Start(ctx)
	})
}

// Stop halts the periodic scheduler, waiting for a running scan to finish.
func (w *Watcher) Stop() {
	w.sched.Stop()
}

// Snapshot returns the most recently fetched catalog, or nil before the
// first successful scan. The returned value must not be modified.
func (w *Watcher) Snapshot() *models.Snapshot {
	return w.snapshot.Load()
}

// Release returns the release path of the cached snapshot.
func (w *Watcher) Release() string {
	if snap := w.snapshot.Load(); snap != nil {
		return snap.Release
	}
	return ""
}

// Scan fetches the catalog, notifies subscribers of every subscribed section
// with open seats and deletes those subscriptions. Concurrent calls wait for
// each other.
func (w *Watcher) Scan(ctx context.Context) (ScanResult, error) {
	w.scanMu.Lock()
	defer w.scanMu.Unlock()
	return w.scan(ctx)
}

// scheduledScan skips the tick when another scan is already running.
func (w *Watcher) scheduledScan(ctx context.Context) {
	if !w.scanMu.TryLock() {
		logger.Infof("Scan already in progress, skipping scheduled scan")
		return
	}
	defer w.scanMu.Unlock()

	if err := w.cycle(ctx); err != nil {
		logger.Errorf("Scheduled scan failed: %v", err)
	}
}

// Refresh fetches the catalog and replaces the cached snapshot without
// touching subscriptions.
func (w *Watcher) Refresh(ctx context.Context) error {
	w.scanMu.Lock()
	defer w.scanMu.Unlock()
	return w.refresh(ctx)
}

// cycle is the unit of periodic work. Callers hold scanMu.
func (w *Watcher) cycle(ctx context.Context) error {
	if w.refreshOnly {
		return w.refresh(ctx)
	}
	_, err := w.scan(ctx)
	return err
}

func (w *Watcher) refresh(ctx context.Context) error {
	snap, err := w.fetcher.Fetch(ctx)
	if err != nil {
		logFetchError(err)
		return fmt.Errorf("refresh aborted: %w", err)
	}
	if snap == nil {
		return errors.New("refresh aborted: fetcher returned no snapshot")
	}
	w.snapshot.Store(snap)
	logger.Debugf("Refreshed catalog release %s", snap.Release)
	return nil
}

func logFetchError(err error) {
	var fetchErr *catalog.FetchError
	if errors.As(err, &fetchErr) {
		logger.Error("Catalog fetch failed", "stage", fetchErr.Stage, "url", fetchErr.URL, "error", fetchErr.Err)
	}
}

func (w *Watcher) scan(ctx context.Context) (ScanResult, error) {
	var result ScanResult
	start := time.Now()
	logger.Debugf("Scan started")

	var (
		snap *models.Snapshot
		subs []models.Subscription
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap, err = w.fetcher.Fetch(gctx)
		return err
	})
	g.Go(func() (err error) {
		subs, err = w.store.SelectAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		logFetchError(err)
		return result, fmt.Errorf("scan aborted: %w", err)
	}
	if snap == nil {
		return result, errors.New("scan aborted: fetcher returned no snapshot")
	}

	w.snapshot.Store(snap)
	result.Release = snap.Release

	listeners := ListenerIndex(subs)
	for m := range Matches(snap, listeners) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Matched++

		if len(m.Emails) > 0 {
			subject := notifier.SeatAvailableSubject(m.CourseTitle, m.SectionLabel)
			body := notifier.SeatAvailableBody(m.Remaining, m.Capacity)
			if err := w.notifier.Notify(ctx, m.Emails, subject, body); err != nil {
				result.NotifyFailures++
				logger.Error("Notification failed", "crn", m.SectionID, "recipients", strings.Join(m.Emails, ","), "error", err)
			} else {
				result.Notified++
				logger.Info("Notified subscribers", "crn", m.SectionID, "course", m.CourseTitle, "section", m.SectionLabel, "recipients", len(m.Emails))
			}
		}

		if err := w.store.DeleteRow(ctx, m.SectionID); err != nil {
			logger.Error("Failed to retire subscription", "crn", m.SectionID, "error", err)
			continue
		}
		result.Retired++
	}

	logger.Info("Scan finished",
		"release", result.Release,
		"subscriptions", len(subs),
		"matched", result.Matched,
		"notified", result.Notified,
		"retired", result.Retired,
		"duration", time.Since(start),
	)
	return result, nil
}

// Register subscribes email to the section identified by crn. If no catalog
// has been fetched yet a scan (or a refresh, for RefreshOnly watchers) runs
// first. It fails with a *NotFoundError when
// the section is not in the current catalog.
func (w *Watcher) Register(ctx context.Context, crn int, email string) (models.SectionRef, error) {
	if strings.TrimSpace(email) == "" {
		return models.SectionRef{}, ErrEmptyEmail
	}

	snap, err := w.ensureSnapshot(ctx)
	if err != nil {
		return models.SectionRef{}, err
	}

	ref, ok := snap.FindSection(crn)
	if !ok {
		return models.SectionRef{}, &NotFoundError{SectionID: crn}
	}

	if err := w.store.UpsertAppendEmail(ctx, crn, email); err != nil {
		return models.SectionRef{}, fmt.Errorf("failed to register %d: %w", crn, err)
	}
	logger.Info("Registered subscription", "crn", crn, "course", ref.CourseTitle, "section", ref.Sec)
	return ref, nil
}

func (w *Watcher) ensureSnapshot(ctx context.Context) (*models.Snapshot, error) {
	if snap := w.snapshot.Load(); snap != nil {
		return snap, nil
	}

	w.scanMu.Lock()
	defer w.scanMu.Unlock()
	if snap := w.snapshot.Load(); snap != nil {
		return snap, nil
	}
	if err := w.cycle(ctx); err != nil {
		return nil, err
	}
	return w.snapshot.Load(), nil
}

// Purge removes email from the subscription for crn, or from every
// subscription when crn is nil, and returns the number of rows changed. Rows
// are never deleted here, even when left empty.
func (w *Watcher) Purge(ctx context.Context, email string, crn *int) (int64, error) {
	if strings.TrimSpace(email) == "" {
		return 0, ErrEmptyEmail
	}

	if crn != nil {
		n, err := w.store.RemoveEmailFromRow(ctx, *crn, email)
		if err != nil {
			return 0, fmt.Errorf("failed to purge from %d: %w", *crn, err)
		}
		return n, nil
	}

	n, err := w.store.RemoveEmailFromAllRows(ctx, email)
	if err != nil {
		return 0, fmt.Errorf("failed to purge: %w", err)
	}
	logger.Info("Purged email from subscriptions", "affected", n)
	return n, nil
}
